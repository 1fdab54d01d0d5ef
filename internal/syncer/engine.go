package syncer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/vitalflex-backend/internal/subscriptions"
	"github.com/angelmondragon/vitalflex-backend/pkg/db/models"
	"github.com/angelmondragon/vitalflex-backend/pkg/logger"
	"github.com/angelmondragon/vitalflex-backend/pkg/metrics"
	"go.uber.org/multierr"
)

// Subscriber is the subscribe side of the change feed. Publishing lives with
// the writers; the engine only consumes signals.
type Subscriber interface {
	SubscribeChanges(ctx context.Context, userID string) (<-chan string, func(), error)
}

// Engine keeps one sync session per signed-in user. Each session polls the
// store on an interval, listens to the push feed, fills the cache, and
// broadcasts snapshots over the bridge. Poll errors are logged and counted;
// the session keeps running on the last good data.
type Engine struct {
	repo     subscriptions.Repository
	cache    *subscriptions.Cache
	bridge   *Bridge
	feed     Subscriber
	logger   *logger.Logger
	metrics  *metrics.SyncMetrics
	interval time.Duration
	push     bool
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
}

type session struct {
	userID   string
	email    string
	cancel   context.CancelFunc
	done     chan struct{}
	inFlight atomic.Bool
	pending  atomic.Bool
}

// EngineParams carries the engine dependencies.
type EngineParams struct {
	Repo         subscriptions.Repository
	Cache        *subscriptions.Cache
	Bridge       *Bridge
	Feed         Subscriber
	Logger       *logger.Logger
	Metrics      *metrics.SyncMetrics
	PollInterval time.Duration
	PushEnabled  bool
	Now          func() time.Time
}

// NewEngine validates dependencies and builds the sync engine.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("syncer: repository is required")
	}
	if params.Cache == nil {
		return nil, fmt.Errorf("syncer: cache is required")
	}
	if params.Bridge == nil {
		return nil, fmt.Errorf("syncer: bridge is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("syncer: logger is required")
	}
	if params.PollInterval <= 0 {
		params.PollInterval = 10 * time.Second
	}
	if params.PushEnabled && params.Feed == nil {
		return nil, fmt.Errorf("syncer: push enabled but no feed provided")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Engine{
		repo:     params.Repo,
		cache:    params.Cache,
		bridge:   params.Bridge,
		feed:     params.Feed,
		logger:   params.Logger,
		metrics:  params.Metrics,
		interval: params.PollInterval,
		push:     params.PushEnabled,
		now:      params.Now,
		sessions: make(map[string]*session),
	}, nil
}

// Bridge exposes the consumer bridge for listener registration.
func (e *Engine) Bridge() *Bridge {
	return e.bridge
}

// StartSession begins syncing for the user. Starting an already running
// session is a no-op, so repeated sign-ins are safe.
func (e *Engine) StartSession(ctx context.Context, userID, email string) error {
	if userID == "" {
		return fmt.Errorf("syncer: user id is required")
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return fmt.Errorf("syncer: engine is closed")
	}
	if _, running := e.sessions[userID]; running {
		e.mu.Unlock()
		return nil
	}
	sessionCtx, cancel := context.WithCancel(context.Background())
	sess := &session{
		userID: userID,
		email:  email,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	e.sessions[userID] = sess
	e.mu.Unlock()

	logCtx := e.logger.WithUserID(context.Background(), userID)
	e.logger.Info(logCtx, "sync session started")
	go e.run(sessionCtx, sess)
	return nil
}

// StopSession tears down the user's session and clears their cache entries,
// so the next session starts from the store.
func (e *Engine) StopSession(userID string) {
	e.mu.Lock()
	sess, ok := e.sessions[userID]
	if ok {
		delete(e.sessions, userID)
	}
	e.mu.Unlock()
	if !ok {
		return
	}

	sess.cancel()
	<-sess.done
	e.cache.Invalidate(userID)
	e.logger.Info(e.logger.WithUserID(context.Background(), userID), "sync session stopped")
}

// RefreshNow forces an immediate fetch for the user, outside the poll
// schedule. A fetch already in flight satisfies the request.
func (e *Engine) RefreshNow(ctx context.Context, userID string) error {
	e.mu.Lock()
	sess, ok := e.sessions[userID]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("syncer: no session for user")
	}
	return e.fetch(ctx, sess)
}

// TriggerFullSync refreshes every running session and aggregates failures.
func (e *Engine) TriggerFullSync(ctx context.Context) error {
	e.mu.Lock()
	sessions := make([]*session, 0, len(e.sessions))
	for _, sess := range e.sessions {
		sessions = append(sessions, sess)
	}
	e.mu.Unlock()

	var errs error
	for _, sess := range sessions {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		errs = multierr.Append(errs, e.fetch(ctx, sess))
	}
	return errs
}

// ActiveSessions reports how many sessions are running.
func (e *Engine) ActiveSessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

// Close stops every session. The engine cannot be reused afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.closed = true
	sessions := make([]*session, 0, len(e.sessions))
	userIDs := make([]string, 0, len(e.sessions))
	for id, sess := range e.sessions {
		sessions = append(sessions, sess)
		userIDs = append(userIDs, id)
	}
	e.sessions = make(map[string]*session)
	e.mu.Unlock()

	var errs error
	for i, sess := range sessions {
		sess.cancel()
		select {
		case <-sess.done:
		case <-time.After(5 * time.Second):
			errs = multierr.Append(errs, fmt.Errorf("session %s did not stop", userIDs[i]))
			continue
		}
		e.cache.Invalidate(userIDs[i])
	}
	return errs
}

func (e *Engine) run(ctx context.Context, sess *session) {
	defer close(sess.done)

	var pushCh <-chan string
	if e.push && e.feed != nil {
		ch, cancelSub, err := e.feed.SubscribeChanges(ctx, sess.userID)
		if err != nil {
			e.logger.Error(e.logger.WithUserID(ctx, sess.userID), "push channel unavailable, polling only", err)
		} else {
			pushCh = ch
			defer cancelSub()
		}
	}

	// Seed the cache before the first tick so consumers see data immediately.
	e.fetch(ctx, sess)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.fetch(ctx, sess)
		case _, ok := <-pushCh:
			if !ok {
				pushCh = nil
				continue
			}
			e.fetch(ctx, sess)
		}
	}
}

// fetch pulls the user's subscription and payments from the store, fills the
// cache, and broadcasts both snapshots. Concurrent callers collapse into the
// in-flight fetch, which reruns once afterwards so a signal that arrived
// mid-fetch is never lost.
func (e *Engine) fetch(ctx context.Context, sess *session) error {
	if !sess.inFlight.CompareAndSwap(false, true) {
		sess.pending.Store(true)
		e.metrics.IncPollSkipped("subscription")
		return nil
	}

	var err error
	for {
		err = e.fetchOnce(ctx, sess)
		sess.inFlight.Store(false)
		if !sess.pending.CompareAndSwap(true, false) {
			return err
		}
		// A collapsed caller left a signal behind; go again, unless someone
		// else already picked the slot up.
		if !sess.inFlight.CompareAndSwap(false, true) {
			return err
		}
	}
}

func (e *Engine) fetchOnce(ctx context.Context, sess *session) error {
	logCtx := e.logger.WithUserID(ctx, sess.userID)
	started := time.Now()

	sub, err := e.repo.FindSubscription(ctx, sess.userID)
	if err != nil {
		e.metrics.IncPollFailure("subscription")
		e.logger.Error(logCtx, "sync fetch failed, keeping last known data", err)
		return fmt.Errorf("fetching subscription: %w", err)
	}
	if sub == nil {
		sub = subscriptions.NewDefaultSubscription(sess.userID, sess.email, e.now())
		if err := e.repo.CreateSubscription(ctx, sub); err != nil {
			e.metrics.IncPollFailure("subscription")
			e.logger.Error(logCtx, "creating default subscription failed", err)
			return fmt.Errorf("creating default subscription: %w", err)
		}
		e.logger.Info(logCtx, "created default free subscription")
	}

	payments, err := e.repo.ListPayments(ctx, sess.userID)
	if err != nil {
		e.metrics.IncPollFailure("payments")
		e.logger.Error(logCtx, "payment history fetch failed, keeping last known data", err)
		return fmt.Errorf("fetching payments: %w", err)
	}

	e.cache.PutSubscription(sess.userID, sub)
	e.cache.PutPayments(sess.userID, payments)
	e.metrics.ObservePoll("subscription", time.Since(started))

	snapshot := make([]models.Payment, len(payments))
	copy(snapshot, payments)
	e.bridge.Broadcast(Event{Kind: EventSubscription, UserID: sess.userID, Subscription: sub.Clone()})
	e.bridge.Broadcast(Event{Kind: EventPayments, UserID: sess.userID, Payments: snapshot})
	return nil
}
