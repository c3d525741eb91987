// Package services contains the application services of questkeeper.
// This file defines the account tracker: the mutation API, the summary and
// the glue between the account collection and the countdown scheduler.
package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/questkeeper/internal/common"
	"github.com/dmitrijs2005/questkeeper/internal/cooldown"
	"github.com/dmitrijs2005/questkeeper/internal/event"
	"github.com/dmitrijs2005/questkeeper/internal/logging"
	"github.com/dmitrijs2005/questkeeper/internal/metrics"
	"github.com/dmitrijs2005/questkeeper/internal/models"
	"github.com/dmitrijs2005/questkeeper/internal/notify"
	"github.com/dmitrijs2005/questkeeper/internal/scheduler"
	"github.com/dmitrijs2005/questkeeper/internal/store"
)

type Summary struct {
	Active int
	Total  int
}

// Fields is a partial account update. Nil fields are left untouched.
type Fields struct {
	Username *string
	Password *string
	Level    *int
	XP       *int
	XPMax    *int
}

func (f Fields) apply(a *models.Account) {
	if f.Username != nil {
		a.Username = *f.Username
	}
	if f.Password != nil {
		a.Password = *f.Password
	}
	if f.Level != nil {
		a.Level = *f.Level
	}
	if f.XP != nil {
		a.XP = *f.XP
	}
	if f.XPMax != nil {
		a.XPMax = *f.XPMax
	}
	a.Normalize()
}

// View is an account together with its state at the time it was taken.
type View struct {
	models.Account
	State     cooldown.State
	Remaining time.Duration
	Urgent    bool
}

// Done reports whether the checkbox is ticked. Only a running cooldown
// counts; a ready account is waiting for its next quest.
func (v View) Done() bool { return v.State == cooldown.Active }

type Tracker struct {
	mu       sync.Mutex
	accounts []models.Account
	summary  Summary

	store      *store.Store
	sched      *scheduler.Scheduler
	machine    cooldown.Machine
	clock      scheduler.Clock
	dispatcher *notify.Dispatcher
	bus        *event.Bus
	metrics    *metrics.Recorder
	log        logging.Logger

	defaultXPMax int
	newID        func() string
}

type TrackerOption func(*trackerConfig)

type trackerConfig struct {
	machine      cooldown.Machine
	interval     time.Duration
	clock        scheduler.Clock
	dispatcher   *notify.Dispatcher
	bus          *event.Bus
	metrics      *metrics.Recorder
	log          logging.Logger
	defaultXPMax int
}

func WithMachine(m cooldown.Machine) TrackerOption {
	return func(c *trackerConfig) { c.machine = m }
}

func WithTickInterval(d time.Duration) TrackerOption {
	return func(c *trackerConfig) { c.interval = d }
}

func WithClock(clock scheduler.Clock) TrackerOption {
	return func(c *trackerConfig) { c.clock = clock }
}

func WithDispatcher(d *notify.Dispatcher) TrackerOption {
	return func(c *trackerConfig) { c.dispatcher = d }
}

func WithBus(b *event.Bus) TrackerOption {
	return func(c *trackerConfig) { c.bus = b }
}

func WithMetrics(m *metrics.Recorder) TrackerOption {
	return func(c *trackerConfig) { c.metrics = m }
}

func WithLogger(l logging.Logger) TrackerOption {
	return func(c *trackerConfig) { c.log = l }
}

func WithDefaultXPMax(n int) TrackerOption {
	return func(c *trackerConfig) { c.defaultXPMax = n }
}

// NewTracker loads the collection from st. Countdowns are not running until
// Start is called.
func NewTracker(ctx context.Context, st *store.Store, opts ...TrackerOption) (*Tracker, error) {
	cfg := trackerConfig{
		machine:      cooldown.Default(),
		interval:     scheduler.DefaultInterval,
		clock:        scheduler.RealClock{},
		log:          logging.Nop(),
		defaultXPMax: models.DefaultXPMax,
	}
	for _, o := range opts {
		o(&cfg)
	}

	accounts, err := st.Load(ctx)
	if err != nil {
		return nil, err
	}

	t := &Tracker{
		accounts:     accounts,
		store:        st,
		machine:      cfg.machine,
		clock:        cfg.clock,
		dispatcher:   cfg.dispatcher,
		bus:          cfg.bus,
		metrics:      cfg.metrics,
		log:          cfg.log.With("module", "tracker"),
		defaultXPMax: models.ClampXPMax(cfg.defaultXPMax),
		newID:        uuid.NewString,
	}
	t.sched = scheduler.New(t, cfg.machine,
		scheduler.WithClock(cfg.clock),
		scheduler.WithInterval(cfg.interval),
		scheduler.WithLogger(cfg.log),
	)

	t.mu.Lock()
	t.recomputeLocked()
	t.mu.Unlock()

	return t, nil
}

// Start runs a countdown for every account with a completion time. Accounts
// whose cooldown elapsed while nothing was running expire on their first
// tick.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, a := range t.accounts {
		if at, ok := a.CompletedAt(); ok {
			t.sched.Start(a.ID, at)
		}
	}
	t.metrics.SetTimersRunning(t.sched.Running())
}

// Close stops every countdown and waits for them to finish.
func (t *Tracker) Close() {
	t.sched.Close()
	t.metrics.SetTimersRunning(0)
}

// Add appends a new idle account with default progress and the given
// fields applied.
func (t *Tracker) Add(ctx context.Context, f Fields) (models.Account, error) {
	t.mu.Lock()
	a := models.Account{
		ID:    t.newID(),
		Level: models.MinLevel,
		XP:    models.MinXP,
		XPMax: t.defaultXPMax,
	}
	f.apply(&a)
	t.accounts = append(t.accounts, a)

	s, err := t.commitLocked(ctx)
	t.mu.Unlock()

	t.log.Debug(ctx, "account added", "id", a.ID)
	t.publishSummary(s)
	return a.Clone(), err
}

// Update merges f into the account. A missing id is a no-op and reports
// false.
func (t *Tracker) Update(ctx context.Context, id string, f Fields) (bool, error) {
	t.mu.Lock()
	i := t.indexLocked(id)
	if i < 0 {
		t.mu.Unlock()
		return false, nil
	}
	f.apply(&t.accounts[i])

	s, err := t.commitLocked(ctx)
	t.mu.Unlock()

	t.publishSummary(s)
	return true, err
}

// Remove cancels the countdown and deletes the account.
func (t *Tracker) Remove(ctx context.Context, id string) (bool, error) {
	t.mu.Lock()
	t.sched.Stop(id)
	i := t.indexLocked(id)
	if i < 0 {
		t.mu.Unlock()
		return false, nil
	}
	t.accounts = append(t.accounts[:i], t.accounts[i+1:]...)

	s, err := t.commitLocked(ctx)
	t.metrics.SetTimersRunning(t.sched.Running())
	t.mu.Unlock()

	t.publishSummary(s)
	return true, err
}

// MarkDone with checked set stamps the account with the current time and
// starts its countdown. Unchecking clears the stamp and cancels the
// countdown.
func (t *Tracker) MarkDone(ctx context.Context, id string, checked bool) (bool, error) {
	t.mu.Lock()
	i := t.indexLocked(id)
	if i < 0 {
		t.mu.Unlock()
		return false, nil
	}

	a := &t.accounts[i]
	if checked {
		a.SetCompletedAt(t.clock.Now())
	} else {
		a.ClearCompleted()
	}

	s, err := t.commitLocked(ctx)

	if at, ok := a.CompletedAt(); ok {
		t.sched.Start(id, at)
	} else {
		t.sched.Stop(id)
	}
	t.metrics.SetTimersRunning(t.sched.Running())
	t.mu.Unlock()

	t.publishSummary(s)
	return true, err
}

func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.summary
}

// Accounts returns the collection in stored order with derived state.
func (t *Tracker) Accounts() []View {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	out := make([]View, 0, len(t.accounts))
	for _, a := range t.accounts {
		out = append(out, t.viewLocked(a, now))
	}
	return out
}

func (t *Tracker) Get(id string) (View, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexLocked(id)
	if i < 0 {
		return View{}, false
	}
	return t.viewLocked(t.accounts[i], t.clock.Now()), true
}

// Resolve turns a user reference into an id. A reference is a 1-based row
// number, a full id or a unique id prefix.
func (t *Tracker) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", common.ErrorNotFound
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 1 && n <= len(t.accounts) {
			return t.accounts[n-1].ID, nil
		}
	}

	var match string
	for _, a := range t.accounts {
		if a.ID == ref {
			return a.ID, nil
		}
		if strings.HasPrefix(a.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("%q: %w", ref, common.ErrAmbiguousRef)
			}
			match = a.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%q: %w", ref, common.ErrorNotFound)
	}
	return match, nil
}

// OnTick republishes a running countdown.
func (t *Tracker) OnTick(c scheduler.Countdown) {
	t.bus.Publish(event.Event{
		Kind:      event.CountdownTick,
		AccountID: c.ID,
		Remaining: c.Remaining,
		Urgent:    c.Urgent,
	})
}

// OnExpire moves the account back to idle, persists, then alerts. An expiry
// for an account that was removed or re-stamped in the meantime is dropped.
func (t *Tracker) OnExpire(id string, completedAt time.Time) {
	ctx := context.Background()

	t.mu.Lock()
	i := t.indexLocked(id)
	if i < 0 {
		t.mu.Unlock()
		return
	}
	a := &t.accounts[i]
	if at, ok := a.CompletedAt(); !ok || !at.Equal(completedAt) {
		t.mu.Unlock()
		return
	}
	a.ClearCompleted()
	username := a.Username

	s, err := t.commitLocked(ctx)
	t.metrics.SetTimersRunning(t.sched.Running())
	t.mu.Unlock()

	if err != nil {
		t.log.Error(ctx, "failed to persist expiry", "id", id, "error", err)
	}
	t.log.Info(ctx, "cooldown expired", "id", id)
	t.metrics.CooldownExpired()

	t.dispatcher.AccountReady(ctx, id, username)
	t.bus.Publish(event.Event{Kind: event.CooldownExpired, AccountID: id, Username: username})
	t.publishSummary(s)
}

// commitLocked persists the collection and refreshes the summary. The
// summary is refreshed even when the save fails.
func (t *Tracker) commitLocked(ctx context.Context) (Summary, error) {
	err := t.store.Save(ctx, t.accounts)
	return t.recomputeLocked(), err
}

// publishSummary must be called without t.mu held: subscribers read the
// tracker.
func (t *Tracker) publishSummary(s Summary) {
	t.bus.Publish(event.Event{Kind: event.AccountsChanged, Active: s.Active, Total: s.Total})
}

func (t *Tracker) recomputeLocked() Summary {
	now := t.clock.Now()
	s := Summary{Total: len(t.accounts)}
	for _, a := range t.accounts {
		if t.stateLocked(a, now) == cooldown.Active {
			s.Active++
		}
	}
	t.summary = s
	t.metrics.SetSummary(s.Active, s.Total)
	return s
}

func (t *Tracker) stateLocked(a models.Account, now time.Time) cooldown.State {
	at, ok := a.CompletedAt()
	if !ok {
		return cooldown.Idle
	}
	return t.machine.Evaluate(&at, now)
}

func (t *Tracker) viewLocked(a models.Account, now time.Time) View {
	v := View{Account: a.Clone(), State: t.stateLocked(a, now)}
	if at, ok := a.CompletedAt(); ok {
		v.Remaining = t.machine.Remaining(at, now)
		v.Urgent = t.machine.IsUrgent(v.Remaining)
	}
	return v
}

func (t *Tracker) indexLocked(id string) int {
	for i := range t.accounts {
		if t.accounts[i].ID == id {
			return i
		}
	}
	return -1
}
