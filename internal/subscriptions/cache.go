package subscriptions

import (
	"sync"
	"time"

	"github.com/angelmondragon/vitalflex-backend/pkg/db/models"
)

type subscriptionEntry struct {
	record    *models.Subscription
	fetchedAt time.Time
}

type paymentsEntry struct {
	payments  []models.Payment
	fetchedAt time.Time
}

// Cache holds the last-known subscription record and payment list per user.
// There is no TTL; entries live until explicitly invalidated. The sync engine
// fills it, the payment processor invalidates it, nothing else writes to it.
type Cache struct {
	mu       sync.RWMutex
	subs     map[string]subscriptionEntry
	payments map[string]paymentsEntry
	now      func() time.Time
}

// NewCache builds an empty cache.
func NewCache() *Cache {
	return &Cache{
		subs:     make(map[string]subscriptionEntry),
		payments: make(map[string]paymentsEntry),
		now:      time.Now,
	}
}

// GetSubscription returns a copy of the cached record, if any.
func (c *Cache) GetSubscription(userID string) (*models.Subscription, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.subs[userID]
	if !ok {
		return nil, false
	}
	return entry.record.Clone(), true
}

// PutSubscription stores a copy of the record for the user.
func (c *Cache) PutSubscription(userID string, sub *models.Subscription) {
	if sub == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs[userID] = subscriptionEntry{record: sub.Clone(), fetchedAt: c.now()}
}

// GetPayments returns a copy of the cached payment list, if any.
func (c *Cache) GetPayments(userID string) ([]models.Payment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.payments[userID]
	if !ok {
		return nil, false
	}
	out := make([]models.Payment, len(entry.payments))
	copy(out, entry.payments)
	return out, true
}

// PutPayments stores a copy of the payment list for the user.
func (c *Cache) PutPayments(userID string, payments []models.Payment) {
	stored := make([]models.Payment, len(payments))
	copy(stored, payments)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payments[userID] = paymentsEntry{payments: stored, fetchedAt: c.now()}
}

// Invalidate drops both keyspaces for the user.
func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, userID)
	delete(c.payments, userID)
}
