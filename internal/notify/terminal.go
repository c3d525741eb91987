package notify

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/questkeeper/internal/repositories/metadata"
)

const PermissionKey = "notifications.permission"

// Prompt asks the user a yes/no question.
type Prompt func(ctx context.Context, question string) (bool, error)

// TerminalNotifier prints alerts to out and keeps them listed as active
// until they time out. The permission answer is stored in repo.
type TerminalNotifier struct {
	mu     sync.Mutex
	out    io.Writer
	repo   metadata.Repository
	prompt Prompt
	perm   Permission
	active map[string]*activeAlert

	afterFunc func(d time.Duration, f func()) *time.Timer
}

type activeAlert struct {
	n     Notification
	timer *time.Timer
}

func (a *activeAlert) stop() {
	if a.timer != nil {
		a.timer.Stop()
	}
}

func NewTerminalNotifier(ctx context.Context, out io.Writer, repo metadata.Repository, prompt Prompt) (*TerminalNotifier, error) {
	raw, err := repo.Get(ctx, PermissionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read notification permission: %w", err)
	}
	return &TerminalNotifier{
		out:       out,
		repo:      repo,
		prompt:    prompt,
		perm:      ParsePermission(string(raw)),
		active:    make(map[string]*activeAlert),
		afterFunc: time.AfterFunc,
	}, nil
}

func (t *TerminalNotifier) Permission() Permission {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.perm
}

// SetPermission stores p without asking.
func (t *TerminalNotifier) SetPermission(ctx context.Context, p Permission) error {
	if err := t.repo.Set(ctx, PermissionKey, []byte(p)); err != nil {
		return fmt.Errorf("failed to store notification permission: %w", err)
	}
	t.mu.Lock()
	t.perm = p
	t.mu.Unlock()
	return nil
}

// RequestPermission asks the user unless permission is already granted.
// Without a prompt the current permission is returned unchanged.
func (t *TerminalNotifier) RequestPermission(ctx context.Context) (Permission, error) {
	current := t.Permission()
	if current == Granted || t.prompt == nil {
		return current, nil
	}

	ok, err := t.prompt(ctx, "Show an alert when a daily quest is ready?")
	if err != nil {
		return current, err
	}

	p := Denied
	if ok {
		p = Granted
	}
	if err := t.SetPermission(ctx, p); err != nil {
		return current, err
	}
	return p, nil
}

func (t *TerminalNotifier) Notify(n Notification) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.perm != Granted {
		return ErrNotPermitted
	}

	if old, ok := t.active[n.Tag]; ok {
		old.stop()
	}

	a := &activeAlert{n: n}
	if n.Timeout > 0 {
		a.timer = t.afterFunc(n.Timeout, func() { t.dismiss(n.Tag, a) })
	}
	t.active[n.Tag] = a

	if _, err := fmt.Fprintf(t.out, "\n[%s] %s\n", n.Title, n.Body); err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}
	return nil
}

// Active returns the alerts that have not been dismissed yet, ordered by tag.
func (t *TerminalNotifier) Active() []Notification {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Notification, 0, len(t.active))
	for _, a := range t.active {
		out = append(out, a.n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

// Close cancels pending dismissals.
func (t *TerminalNotifier) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for tag, a := range t.active {
		a.stop()
		delete(t.active, tag)
	}
}

func (t *TerminalNotifier) dismiss(tag string, a *activeAlert) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active[tag] == a {
		delete(t.active, tag)
	}
}
