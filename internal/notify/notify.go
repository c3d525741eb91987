// Package notify delivers the one-shot "daily quest is ready" alert.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/questkeeper/internal/logging"
	"github.com/dmitrijs2005/questkeeper/internal/metrics"
)

type Permission string

const (
	Granted      Permission = "granted"
	Denied       Permission = "denied"
	Undetermined Permission = "undetermined"
)

func ParsePermission(s string) Permission {
	switch Permission(strings.TrimSpace(s)) {
	case Granted:
		return Granted
	case Denied:
		return Denied
	default:
		return Undetermined
	}
}

const (
	Title          = "Account Tracker"
	DefaultTimeout = 6 * time.Second
	tagPrefix      = "account-tracker-"
	anonymousLabel = "An account"
)

var ErrNotPermitted = errors.New("notifications are not permitted")

// Notification is a single alert. Alerts with the same Tag replace each
// other. Timeout is the auto-dismiss delay.
type Notification struct {
	Title   string
	Body    string
	Tag     string
	Timeout time.Duration
}

type Notifier interface {
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)
	Notify(n Notification) error
}

func Label(username string) string {
	if l := strings.TrimSpace(username); l != "" {
		return l
	}
	return anonymousLabel
}

func Tag(id string) string {
	return tagPrefix + id
}

func ReadyBody(username string) string {
	return fmt.Sprintf("%s's cooldown is over, daily quest is ready!", Label(username))
}

// Dispatcher sends ready alerts on a best-effort basis. It never returns an
// error: a missing notifier, a missing permission and delivery failures are
// all dropped.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	log      logging.Logger
	metrics  *metrics.Recorder
}

func NewDispatcher(n Notifier, timeout time.Duration, log logging.Logger, m *metrics.Recorder) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Dispatcher{notifier: n, timeout: timeout, log: log.With("module", "notify"), metrics: m}
}

func (d *Dispatcher) AccountReady(ctx context.Context, id, username string) {
	if d == nil || d.notifier == nil {
		d.skipped(ctx, id, "no notifier")
		return
	}
	if p := d.notifier.Permission(); p != Granted {
		d.skipped(ctx, id, string(p))
		return
	}

	err := d.notifier.Notify(Notification{
		Title:   Title,
		Body:    ReadyBody(username),
		Tag:     Tag(id),
		Timeout: d.timeout,
	})
	if err != nil {
		d.log.Warn(ctx, "notification failed", "id", id, "error", err)
		d.metrics.Notification(metrics.OutcomeFailed)
		return
	}
	d.metrics.Notification(metrics.OutcomeSent)
}

func (d *Dispatcher) skipped(ctx context.Context, id, reason string) {
	if d == nil {
		return
	}
	d.log.Debug(ctx, "notification skipped", "id", id, "reason", reason)
	d.metrics.Notification(metrics.OutcomeSkipped)
}
