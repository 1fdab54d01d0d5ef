package syncer

import (
	"testing"

	"github.com/angelmondragon/vitalflex-backend/pkg/db/models"
)

func TestBridgeDeliversInRegistrationOrder(t *testing.T) {
	bridge := NewBridge(nil)

	var order []string
	bridge.Register(func(Event) { order = append(order, "first") })
	bridge.Register(func(Event) { order = append(order, "second") })
	bridge.Register(func(Event) { order = append(order, "third") })

	bridge.Broadcast(Event{Kind: EventSubscription, UserID: "user-1"})

	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "third" {
		t.Fatalf("delivery order = %v", order)
	}
}

func TestBridgeUnregisterIsIdempotent(t *testing.T) {
	bridge := NewBridge(nil)

	calls := 0
	unregister := bridge.Register(func(Event) { calls++ })
	keep := 0
	bridge.Register(func(Event) { keep++ })

	unregister()
	unregister()

	bridge.Broadcast(Event{Kind: EventPayments, UserID: "user-1"})

	if calls != 0 {
		t.Fatalf("unregistered listener called %d times", calls)
	}
	if keep != 1 {
		t.Fatalf("remaining listener called %d times, want 1", keep)
	}
	if bridge.Len() != 1 {
		t.Fatalf("listeners = %d, want 1", bridge.Len())
	}
}

func TestBridgeBroadcastIsSynchronous(t *testing.T) {
	bridge := NewBridge(nil)

	var seen *models.Subscription
	bridge.Register(func(event Event) { seen = event.Subscription })

	sub := &models.Subscription{UserID: "user-1"}
	bridge.Broadcast(Event{Kind: EventSubscription, UserID: "user-1", Subscription: sub})

	if seen == nil || seen.UserID != "user-1" {
		t.Fatalf("listener did not run before Broadcast returned, seen = %+v", seen)
	}
}
