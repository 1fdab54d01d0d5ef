package syncer

import (
	"sync"

	"github.com/angelmondragon/vitalflex-backend/pkg/db/models"
	"github.com/angelmondragon/vitalflex-backend/pkg/metrics"
)

// EventKind labels what a sync broadcast carries.
type EventKind string

const (
	EventSubscription EventKind = "subscription"
	EventPayments     EventKind = "payments"
)

// Event is one sync broadcast. Payloads are defensive copies; listeners may
// hold them without racing the engine.
type Event struct {
	Kind         EventKind
	UserID       string
	Subscription *models.Subscription
	Payments     []models.Payment
}

// Listener receives sync events. Delivery is synchronous: a slow listener
// delays the broadcast, it does not drop events.
type Listener func(Event)

type registration struct {
	id       int
	listener Listener
}

// Bridge fans sync events out to registered consumers in registration order.
type Bridge struct {
	mu      sync.Mutex
	nextID  int
	entries []registration
	metrics *metrics.SyncMetrics
}

// NewBridge builds an empty consumer bridge.
func NewBridge(m *metrics.SyncMetrics) *Bridge {
	return &Bridge{metrics: m}
}

// Register adds a listener and returns its unregister func. Unregistering is
// idempotent.
func (b *Bridge) Register(listener Listener) func() {
	if listener == nil {
		return func() {}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.entries = append(b.entries, registration{id: id, listener: listener})

	var once sync.Once
	return func() {
		once.Do(func() { b.unregister(id) })
	}
}

func (b *Bridge) unregister(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, entry := range b.entries {
		if entry.id == id {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return
		}
	}
}

// Broadcast delivers the event to every listener, in registration order, on
// the caller's goroutine.
func (b *Bridge) Broadcast(event Event) {
	b.mu.Lock()
	entries := make([]registration, len(b.entries))
	copy(entries, b.entries)
	b.mu.Unlock()

	for _, entry := range entries {
		entry.listener(event)
	}
	b.metrics.IncBroadcast(string(event.Kind))
}

// Len reports the number of registered listeners.
func (b *Bridge) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
