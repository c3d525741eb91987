// Package event fans tracker events out to the views without the tracker
// depending on them.
package event

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/questkeeper/internal/logging"
)

type Kind int

const (
	// CountdownTick carries AccountID, Remaining and Urgent.
	CountdownTick Kind = iota
	// CooldownExpired carries AccountID and Username.
	CooldownExpired
	// AccountsChanged carries Active and Total after any mutation or expiry.
	AccountsChanged
)

func (k Kind) String() string {
	switch k {
	case CountdownTick:
		return "countdown_tick"
	case CooldownExpired:
		return "cooldown_expired"
	case AccountsChanged:
		return "accounts_changed"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind      Kind
	AccountID string
	Username  string
	Remaining time.Duration
	Urgent    bool
	Active    int
	Total     int
}

type Handler func(Event)

// Bus delivers events synchronously, in subscription order, on the
// publisher's goroutine. A panicking handler is logged and does not stop
// delivery to the others.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Kind][]Handler
	log         logging.Logger
}

func NewBus(log logging.Logger) *Bus {
	if log == nil {
		log = logging.Nop()
	}
	return &Bus{
		subscribers: make(map[Kind][]Handler),
		log:         log.With("module", "event"),
	}
}

func (b *Bus) Subscribe(kind Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[kind] = append(b.subscribers[kind], h)
}

// Publish is a no-op on a nil Bus.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[e.Kind]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(h, e)
	}
}

func (b *Bus) deliver(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error(context.Background(), "panic in event handler", "event", e.Kind.String(), "panic", r)
		}
	}()
	h(e)
}
