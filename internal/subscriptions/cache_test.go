package subscriptions

import (
	"testing"
	"time"

	"github.com/angelmondragon/vitalflex-backend/pkg/db/models"
	"github.com/angelmondragon/vitalflex-backend/pkg/enums"
)

func TestCacheReturnsCopies(t *testing.T) {
	cache := NewCache()
	end := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	cache.PutSubscription("user-1", &models.Subscription{
		UserID:  "user-1",
		Plan:    enums.PlanPremium,
		Status:  enums.SubscriptionStatusActive,
		EndDate: &end,
	})

	first, ok := cache.GetSubscription("user-1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	first.Status = enums.SubscriptionStatusCancelled
	*first.EndDate = end.Add(time.Hour)

	second, _ := cache.GetSubscription("user-1")
	if second.Status != enums.SubscriptionStatusActive {
		t.Fatalf("cached record mutated through returned copy: %s", second.Status)
	}
	if !second.EndDate.Equal(end) {
		t.Fatalf("cached end date mutated through returned copy: %s", second.EndDate)
	}
}

func TestCacheInvalidateDropsBothKeyspaces(t *testing.T) {
	cache := NewCache()
	cache.PutSubscription("user-1", &models.Subscription{UserID: "user-1"})
	cache.PutPayments("user-1", []models.Payment{{UserID: "user-1"}})
	cache.PutSubscription("user-2", &models.Subscription{UserID: "user-2"})

	cache.Invalidate("user-1")

	if _, ok := cache.GetSubscription("user-1"); ok {
		t.Fatal("subscription entry survived invalidation")
	}
	if _, ok := cache.GetPayments("user-1"); ok {
		t.Fatal("payments entry survived invalidation")
	}
	if _, ok := cache.GetSubscription("user-2"); !ok {
		t.Fatal("invalidation leaked into another user's entry")
	}
}

func TestCacheMissOnEmpty(t *testing.T) {
	cache := NewCache()
	if _, ok := cache.GetSubscription("nobody"); ok {
		t.Fatal("expected miss on empty cache")
	}
	if _, ok := cache.GetPayments("nobody"); ok {
		t.Fatal("expected miss on empty cache")
	}
}
