package syncer

import (
	"context"
	"fmt"

	"github.com/angelmondragon/vitalflex-backend/pkg/logger"
	redisclient "github.com/angelmondragon/vitalflex-backend/pkg/redis"
)

// Feed is the push channel carrying per-user subscription change signals
// between the payment processor and running sync sessions.
type Feed interface {
	PublishChange(ctx context.Context, userID string) error
	SubscribeChanges(ctx context.Context, userID string) (<-chan string, func(), error)
}

// RedisFeed implements the change feed on redis pub/sub, one channel per user.
type RedisFeed struct {
	client *redisclient.Client
	logger *logger.Logger
}

// NewRedisFeed builds the redis-backed change feed.
func NewRedisFeed(client *redisclient.Client, logg *logger.Logger) (*RedisFeed, error) {
	if client == nil {
		return nil, fmt.Errorf("syncer: redis client is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("syncer: logger is required")
	}
	return &RedisFeed{client: client, logger: logg}, nil
}

// PublishChange signals that the user's subscription data changed. The payload
// is the user id; subscribers refetch rather than trusting the message body.
func (f *RedisFeed) PublishChange(ctx context.Context, userID string) error {
	channel := f.client.SubscriptionChangeChannel(userID)
	if err := f.client.Publish(ctx, channel, userID); err != nil {
		return fmt.Errorf("publishing change on %s: %w", channel, err)
	}
	return nil
}

// SubscribeChanges opens the user's change channel. The returned cancel func
// closes the subscription and drains the forwarding goroutine.
func (f *RedisFeed) SubscribeChanges(ctx context.Context, userID string) (<-chan string, func(), error) {
	channel := f.client.SubscriptionChangeChannel(userID)
	pubsub, err := f.client.Subscribe(ctx, channel)
	if err != nil {
		return nil, nil, fmt.Errorf("subscribing to %s: %w", channel, err)
	}

	out := make(chan string, 1)
	done := make(chan struct{})
	go func() {
		defer close(out)
		source := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-source:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				default:
					// A pending signal already forces a refetch; coalesce.
				}
			}
		}
	}()

	cancel := func() {
		close(done)
		if err := pubsub.Close(); err != nil {
			f.logger.Warn(ctx, "closing change subscription failed")
		}
	}
	return out, cancel, nil
}
