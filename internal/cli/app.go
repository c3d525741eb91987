package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/questkeeper/internal/common"
	"github.com/dmitrijs2005/questkeeper/internal/config"
	"github.com/dmitrijs2005/questkeeper/internal/cooldown"
	"github.com/dmitrijs2005/questkeeper/internal/database"
	"github.com/dmitrijs2005/questkeeper/internal/event"
	"github.com/dmitrijs2005/questkeeper/internal/logging"
	"github.com/dmitrijs2005/questkeeper/internal/metrics"
	"github.com/dmitrijs2005/questkeeper/internal/notify"
	"github.com/dmitrijs2005/questkeeper/internal/repositories/metadata"
	"github.com/dmitrijs2005/questkeeper/internal/services"
	"github.com/dmitrijs2005/questkeeper/internal/store"
)

type App struct {
	config   *config.Config
	db       *sql.DB
	tracker  *services.Tracker
	notifier *notify.TerminalNotifier
	metrics  *metrics.Recorder
	bus      *event.Bus
	log      logging.Logger

	out    io.Writer
	reader *bufio.Reader

	// readLine asks the user for one line. The REPL swaps it for readline.
	readLine func(prompt string) (string, error)

	mu     sync.Mutex
	ready  map[string]bool
	urgent map[string]bool
}

// NewApp opens the database, unlocks the vault if configured and loads the
// tracker. Countdowns are not started.
func NewApp(ctx context.Context, c *config.Config, out io.Writer, in io.Reader) (*App, error) {
	log := logging.New(os.Stderr, c.LogLevel, c.LogFormat)

	a := &App{
		config: c,
		log:    log,
		out:    out,
		reader: bufio.NewReader(in),
		ready:  make(map[string]bool),
		urgent: make(map[string]bool),
	}
	a.readLine = func(prompt string) (string, error) {
		return GetSimpleText(a.reader, prompt, a.out)
	}

	db, err := database.Open(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}
	a.db = db

	repo, err := a.openRepository(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a.metrics = metrics.New()
	a.bus = event.NewBus(log)

	a.notifier, err = notify.NewTerminalNotifier(ctx, out, repo, a.askYesNo)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	dispatcher := notify.NewDispatcher(a.notifier, c.NotificationTimeout, log, a.metrics)

	a.tracker, err = services.NewTracker(ctx, store.New(repo, log, a.metrics),
		services.WithMachine(cooldown.NewMachine(c.CooldownDuration, c.UrgentThreshold)),
		services.WithTickInterval(c.TickInterval),
		services.WithDispatcher(dispatcher),
		services.WithBus(a.bus),
		services.WithMetrics(a.metrics),
		services.WithLogger(log),
		services.WithDefaultXPMax(c.DefaultXPMax),
	)
	if err != nil {
		a.notifier.Close()
		_ = db.Close()
		return nil, err
	}

	a.bus.Subscribe(event.CooldownExpired, a.onExpired)
	return a, nil
}

func (a *App) openRepository(ctx context.Context) (metadata.Repository, error) {
	vault := services.NewVaultService(a.db)

	if !a.config.Vault {
		if err := vault.EnsurePlain(ctx); err != nil {
			return nil, err
		}
		return metadata.NewSQLiteRepository(a.db), nil
	}

	pw, err := GetPassword(a.out)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(pw)

	key, err := vault.Unlock(ctx, pw)
	if err != nil {
		return nil, err
	}
	return vault.Repository(key), nil
}

// Close stops the countdowns, flushes metrics and closes the database.
func (a *App) Close() {
	ctx := context.Background()

	a.tracker.Close()
	a.notifier.Close()
	a.flushMetrics(ctx)
	if err := a.db.Close(); err != nil {
		a.log.Warn(ctx, "failed to close database", "error", err)
	}
}

func (a *App) askYesNo(_ context.Context, question string) (bool, error) {
	for {
		answer, err := a.readLine(question + " [y/n]")
		if err != nil {
			return false, err
		}
		ok, err := ParseYesNo(answer)
		if err == nil {
			return ok, nil
		}
		fmt.Fprintln(a.out, err)
	}
}

func (a *App) onExpired(e event.Event) {
	a.mu.Lock()
	a.ready[e.AccountID] = true
	delete(a.urgent, e.AccountID)
	a.mu.Unlock()

	if a.notifier.Permission() != notify.Granted {
		fmt.Fprintf(a.out, "\n%s: %s\n", notify.Label(e.Username), readyText)
	}
	a.flushMetrics(context.Background())
}

// onTick prints one line when a countdown enters its last hour.
func (a *App) onTick(e event.Event) {
	a.mu.Lock()
	seen := a.urgent[e.AccountID]
	if e.Urgent {
		a.urgent[e.AccountID] = true
	} else {
		delete(a.urgent, e.AccountID)
	}
	a.mu.Unlock()

	if !e.Urgent || seen {
		return
	}
	v, ok := a.tracker.Get(e.AccountID)
	if !ok {
		return
	}
	fmt.Fprintf(a.out, "%s: ready in %s\n", notify.Label(v.Username), cooldown.FormatHMS(e.Remaining))
}

func (a *App) clearReady(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.ready, id)
	delete(a.urgent, id)
}

func (a *App) readySnapshot() map[string]bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string]bool, len(a.ready))
	for k, v := range a.ready {
		out[k] = v
	}
	return out
}

func (a *App) flushMetrics(ctx context.Context) {
	if err := a.metrics.WriteTextfile(a.config.MetricsFile); err != nil {
		a.log.Warn(ctx, "metrics export failed", "error", err)
	}
}
