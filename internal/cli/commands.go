package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/questkeeper/internal/common"
	"github.com/dmitrijs2005/questkeeper/internal/cooldown"
	"github.com/dmitrijs2005/questkeeper/internal/notify"
	"github.com/dmitrijs2005/questkeeper/internal/services"
)

var ErrNoMatch = errors.New("no account matches")

func (a *App) List(ctx context.Context) error {
	if err := renderAccounts(a.out, a.tracker.Accounts(), a.readySnapshot()); err != nil {
		return err
	}
	return a.Summary(ctx)
}

func (a *App) Summary(_ context.Context) error {
	_, err := fmt.Fprintln(a.out, summaryLine(a.tracker.Summary()))
	return err
}

// Status prints one line per account: row, id, state and remaining time.
func (a *App) Status(ctx context.Context) error {
	for i, v := range a.tracker.Accounts() {
		remaining := "-"
		if v.State == cooldown.Active {
			remaining = cooldown.FormatHMS(v.Remaining)
		}
		fmt.Fprintf(a.out, "%d\t%s\t%s\t%s\n", i+1, v.ID, v.State, remaining)
	}
	return a.Summary(ctx)
}

func (a *App) Add(ctx context.Context, assignments []string) error {
	f, err := ParseAssignments(assignments)
	if err != nil {
		return err
	}
	acc, err := a.tracker.Add(ctx, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added account #%d (%s)\n", a.tracker.Summary().Total, shortID(acc.ID))
	return nil
}

func (a *App) Set(ctx context.Context, ref string, assignments []string) error {
	f, err := ParseAssignments(assignments)
	if err != nil {
		return err
	}
	id, err := a.tracker.Resolve(ref)
	if err != nil {
		return err
	}
	return a.update(ctx, id, f)
}

// Edit prompts for every editable field. An empty answer keeps the current
// value.
func (a *App) Edit(ctx context.Context, ref string) error {
	id, err := a.tracker.Resolve(ref)
	if err != nil {
		return err
	}
	v, ok := a.tracker.Get(id)
	if !ok {
		return ErrNoMatch
	}

	var f services.Fields
	if s, err := a.ask("Username", v.Username); err != nil {
		return err
	} else if s != nil {
		f.Username = s
	}
	if s, err := a.ask("Password", maskPassword(v.Password)); err != nil {
		return err
	} else if s != nil {
		f.Password = s
	}

	for _, field := range []struct {
		name    string
		current int
		dst     **int
	}{
		{"Level", v.Level, &f.Level},
		{"XP", v.XP, &f.XP},
		{"XP max", v.XPMax, &f.XPMax},
	} {
		s, err := a.ask(field.name, strconv.Itoa(field.current))
		if err != nil {
			return err
		}
		if s == nil {
			continue
		}
		n, err := parseInt(field.name, *s)
		if err != nil {
			return err
		}
		*field.dst = &n
	}

	return a.update(ctx, id, f)
}

func (a *App) Done(ctx context.Context, ref string) error {
	return a.markDone(ctx, ref, true)
}

func (a *App) Undo(ctx context.Context, ref string) error {
	return a.markDone(ctx, ref, false)
}

func (a *App) Remove(ctx context.Context, ref string) error {
	id, err := a.tracker.Resolve(ref)
	if err != nil {
		return err
	}
	found, err := a.tracker.Remove(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNoMatch
	}
	a.clearReady(id)
	fmt.Fprintf(a.out, "Removed %s\n", shortID(id))
	return nil
}

// Notify asks for permission to show ready alerts.
func (a *App) Notify(ctx context.Context) error {
	p, err := a.notifier.RequestPermission(ctx)
	if err != nil {
		return err
	}
	switch p {
	case notify.Granted:
		fmt.Fprintln(a.out, "Ready alerts are on.")
	default:
		fmt.Fprintln(a.out, "Ready alerts are off.")
	}
	return nil
}

func (a *App) markDone(ctx context.Context, ref string, checked bool) error {
	id, err := a.tracker.Resolve(ref)
	if err != nil {
		return err
	}
	found, err := a.tracker.MarkDone(ctx, id, checked)
	if err != nil {
		return err
	}
	if !found {
		return ErrNoMatch
	}
	a.clearReady(id)

	v, _ := a.tracker.Get(id)
	if checked {
		fmt.Fprintf(a.out, "%s done, ready again in %s\n", notify.Label(v.Username), cooldown.FormatHMS(v.Remaining))
	} else {
		fmt.Fprintf(a.out, "%s unchecked\n", notify.Label(v.Username))
	}
	return nil
}

func (a *App) update(ctx context.Context, id string, f services.Fields) error {
	found, err := a.tracker.Update(ctx, id, f)
	if err != nil {
		return err
	}
	if !found {
		return ErrNoMatch
	}
	fmt.Fprintf(a.out, "Updated %s\n", shortID(id))
	return nil
}

// ask returns nil when the answer is empty.
func (a *App) ask(name, current string) (*string, error) {
	s, err := a.readLine(fmt.Sprintf("%s [%s]", name, current))
	if err != nil {
		return nil, err
	}
	if s == "" {
		return nil, nil
	}
	return &s, nil
}

func describe(err error) string {
	switch {
	case errors.Is(err, common.ErrAmbiguousRef):
		return "Reference matches more than one account, use more characters of the id."
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, ErrNoMatch):
		return "No account matches that reference. Use 'list' to see row numbers."
	default:
		return err.Error()
	}
}
