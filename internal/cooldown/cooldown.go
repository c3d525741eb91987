// Package cooldown evaluates the per-account cooldown state from the last
// completion timestamp and the current time. Everything here is pure.
package cooldown

import (
	"fmt"
	"time"
)

const (
	DefaultDuration        = 22 * time.Hour
	DefaultUrgentThreshold = time.Hour
)

type State int

const (
	Idle State = iota
	Active
	Ready
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Machine holds the cooldown length and the threshold under which a running
// countdown is flagged urgent.
type Machine struct {
	Duration        time.Duration
	UrgentThreshold time.Duration
}

func NewMachine(d, urgent time.Duration) Machine {
	return Machine{Duration: d, UrgentThreshold: urgent}
}

func Default() Machine {
	return NewMachine(DefaultDuration, DefaultUrgentThreshold)
}

// Evaluate derives the state. completedAt == nil means idle.
func (m Machine) Evaluate(completedAt *time.Time, now time.Time) State {
	if completedAt == nil {
		return Idle
	}
	if m.Remaining(*completedAt, now) > 0 {
		return Active
	}
	return Ready
}

// Remaining is D - (now - completedAt). It goes negative once elapsed and
// exceeds D when the clock is behind completedAt.
func (m Machine) Remaining(completedAt, now time.Time) time.Duration {
	return m.Duration - now.Sub(completedAt)
}

func (m Machine) IsUrgent(remaining time.Duration) bool {
	return remaining > 0 && remaining < m.UrgentThreshold
}

// FormatHMS renders d as HH:MM:SS, truncating to whole seconds. Negative
// durations render as 00:00:00. Hours are not wrapped at 24.
func FormatHMS(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
