// Package scheduler runs one countdown per active account. Each countdown
// recomputes the remaining time from the completion timestamp on every tick
// and reports expiry exactly once.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/questkeeper/internal/cooldown"
	"github.com/dmitrijs2005/questkeeper/internal/logging"
)

const DefaultInterval = time.Second

// Countdown is published on every tick while the cooldown is running.
type Countdown struct {
	ID        string
	Remaining time.Duration
	Urgent    bool
}

// Handler receives the scheduler callbacks. They are invoked from the
// countdown goroutine without any scheduler lock held.
type Handler interface {
	OnTick(c Countdown)
	OnExpire(id string, completedAt time.Time)
}

type handle struct {
	completedAt time.Time
	ticker      Ticker
	done        chan struct{}
}

type Scheduler struct {
	handler  Handler
	machine  cooldown.Machine
	interval time.Duration
	clock    Clock
	log      logging.Logger

	mu      sync.Mutex
	handles map[string]*handle
	closed  bool
	wg      sync.WaitGroup
}

type Option func(*Scheduler)

func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

func New(handler Handler, machine cooldown.Machine, opts ...Option) *Scheduler {
	s := &Scheduler{
		handler:  handler,
		machine:  machine,
		interval: DefaultInterval,
		clock:    RealClock{},
		log:      logging.Nop(),
		handles:  make(map[string]*handle),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("module", "scheduler")
	return s
}

// Start replaces any countdown for id with a new one based on completedAt.
// The first evaluation happens immediately, so an already elapsed cooldown
// expires without waiting a full interval.
func (s *Scheduler) Start(id string, completedAt time.Time) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if old, ok := s.handles[id]; ok {
		s.cancelLocked(id, old)
	}
	h := &handle{
		completedAt: completedAt,
		ticker:      s.clock.NewTicker(s.interval),
		done:        make(chan struct{}),
	}
	s.handles[id] = h
	s.wg.Add(1)
	s.mu.Unlock()

	s.log.Debug(context.Background(), "countdown started", "id", id, "completed_at", completedAt)
	go s.run(id, h)
}

// Stop cancels the countdown for id. Unknown ids are ignored.
func (s *Scheduler) Stop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.handles[id]; ok {
		s.cancelLocked(id, h)
	}
}

func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, h := range s.handles {
		s.cancelLocked(id, h)
	}
}

// Close cancels every countdown, refuses new ones and waits for the
// countdown goroutines to return. It must not be called from a Handler.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	for id, h := range s.handles {
		s.cancelLocked(id, h)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

func (s *Scheduler) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.handles[id]
	return ok
}

func (s *Scheduler) cancelLocked(id string, h *handle) {
	delete(s.handles, id)
	close(h.done)
}

func (s *Scheduler) run(id string, h *handle) {
	defer s.wg.Done()
	defer h.ticker.Stop()

	if !s.tick(id, h) {
		return
	}
	for {
		select {
		case <-h.done:
			return
		case <-h.ticker.C():
			if !s.tick(id, h) {
				return
			}
		}
	}
}

// tick reports whether the countdown should keep running.
func (s *Scheduler) tick(id string, h *handle) bool {
	s.mu.Lock()
	if s.handles[id] != h {
		s.mu.Unlock()
		return false
	}

	remaining := s.machine.Remaining(h.completedAt, s.clock.Now())
	if remaining > 0 {
		s.mu.Unlock()
		s.handler.OnTick(Countdown{
			ID:        id,
			Remaining: remaining,
			Urgent:    s.machine.IsUrgent(remaining),
		})
		return true
	}

	s.cancelLocked(id, h)
	s.mu.Unlock()

	s.log.Debug(context.Background(), "countdown expired", "id", id)
	s.handler.OnExpire(id, h.completedAt)
	return false
}
