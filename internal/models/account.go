// Package models holds the persisted account record.
package models

import (
	"math"
	"time"
)

const (
	MinLevel = 1
	MinXP    = 0
	MinXPMax = 1

	DefaultXPMax = 5000
)

// Account is the only persisted entity. LastCompleted is epoch milliseconds
// and is nil while the account is idle.
type Account struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	Level         int    `json:"level"`
	XP            int    `json:"xp"`
	XPMax         int    `json:"xpMax"`
	LastCompleted *int64 `json:"lastCompleted"`
}

// Normalize clamps the numeric fields into their valid ranges.
func (a *Account) Normalize() {
	a.Level = ClampLevel(a.Level)
	a.XP = ClampXP(a.XP)
	a.XPMax = ClampXPMax(a.XPMax)
}

// CompletedAt returns LastCompleted as a time and whether it is set.
func (a Account) CompletedAt() (time.Time, bool) {
	if a.LastCompleted == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*a.LastCompleted), true
}

func (a *Account) SetCompletedAt(t time.Time) {
	ms := t.UnixMilli()
	a.LastCompleted = &ms
}

func (a *Account) ClearCompleted() {
	a.LastCompleted = nil
}

// XPPercent is the progress bar fill. xpMax is clamped first so a stored
// zero never divides.
func (a Account) XPPercent() int {
	xpMax := ClampXPMax(a.XPMax)
	p := int(math.Round(float64(ClampXP(a.XP)) / float64(xpMax) * 100))
	if p > 100 {
		return 100
	}
	return p
}

// Clone returns a deep copy.
func (a Account) Clone() Account {
	if a.LastCompleted != nil {
		v := *a.LastCompleted
		a.LastCompleted = &v
	}
	return a
}

func ClampLevel(v int) int {
	if v < MinLevel {
		return MinLevel
	}
	return v
}

func ClampXP(v int) int {
	if v < MinXP {
		return MinXP
	}
	return v
}

func ClampXPMax(v int) int {
	if v < MinXPMax {
		return MinXPMax
	}
	return v
}
