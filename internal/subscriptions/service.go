package subscriptions

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/vitalflex-backend/pkg/db/models"
	"github.com/angelmondragon/vitalflex-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vitalflex-backend/pkg/errors"
	"github.com/angelmondragon/vitalflex-backend/pkg/logger"
)

// Period is the entitlement window granted by one successful payment.
const Period = 30 * 24 * time.Hour

// ChangePublisher announces that a user's subscription record changed so that
// push-channel listeners can refetch.
type ChangePublisher interface {
	PublishChange(ctx context.Context, userID string) error
}

// Service exposes subscription reads and lifecycle transitions.
type Service interface {
	Get(ctx context.Context, userID, email string) (*models.Subscription, error)
	PaymentHistory(ctx context.Context, userID string) ([]models.Payment, error)
	Cancel(ctx context.Context, userID string) (*models.Subscription, error)
	Renew(ctx context.Context, userID string) (*models.Subscription, error)
}

type service struct {
	repo   Repository
	cache  *Cache
	feed   ChangePublisher
	logger *logger.Logger
	now    func() time.Time
}

// ServiceParams carries the service dependencies.
type ServiceParams struct {
	Repo   Repository
	Cache  *Cache
	Feed   ChangePublisher
	Logger *logger.Logger
	Now    func() time.Time
}

// NewService validates dependencies and builds the subscription service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("subscriptions: repository is required")
	}
	if params.Cache == nil {
		return nil, fmt.Errorf("subscriptions: cache is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("subscriptions: logger is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:   params.Repo,
		cache:  params.Cache,
		feed:   params.Feed,
		logger: params.Logger,
		now:    params.Now,
	}, nil
}

// NewDefaultSubscription builds the free/active record created on first read.
// Free records carry no end date.
func NewDefaultSubscription(userID, email string, now time.Time) *models.Subscription {
	return &models.Subscription{
		UserID:    userID,
		UserEmail: email,
		Plan:      enums.PlanFree,
		PlanName:  enums.PlanFree.DisplayName(),
		Status:    enums.SubscriptionStatusActive,
		StartDate: now,
		EndDate:   nil,
	}
}

// Get returns the user's subscription record, serving from cache when present.
// A user with no stored record gets a default free subscription created for
// them, so every authenticated caller observes exactly one record.
func (s *service) Get(ctx context.Context, userID, email string) (*models.Subscription, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if cached, ok := s.cache.GetSubscription(userID); ok {
		return cached, nil
	}

	sub, err := s.repo.FindSubscription(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading subscription")
	}
	if sub == nil {
		sub = NewDefaultSubscription(userID, email, s.now())
		if err := s.repo.CreateSubscription(ctx, sub); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating default subscription")
		}
		s.logger.Info(s.logger.WithUserID(ctx, userID), "created default free subscription")
	}

	s.cache.PutSubscription(userID, sub)
	return sub.Clone(), nil
}

// PaymentHistory returns the user's payment attempts newest-first, serving
// from cache when present.
func (s *service) PaymentHistory(ctx context.Context, userID string) ([]models.Payment, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if cached, ok := s.cache.GetPayments(userID); ok {
		return cached, nil
	}

	payments, err := s.repo.ListPayments(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing payments")
	}
	s.cache.PutPayments(userID, payments)
	return payments, nil
}

// Cancel transitions an active paid subscription to cancelled. The record
// keeps its plan and end date so access continues until expiry.
func (s *service) Cancel(ctx context.Context, userID string) (*models.Subscription, error) {
	sub, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub.IsFree() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "free subscriptions have nothing to cancel")
	}
	if sub.Status != enums.SubscriptionStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only an active subscription can be cancelled").
			WithDetails(map[string]any{"status": sub.Status})
	}

	sub.Status = enums.SubscriptionStatusCancelled
	if err := s.persistChange(ctx, sub); err != nil {
		return nil, err
	}
	s.logger.Info(s.logger.WithUserID(ctx, userID), "subscription cancelled")
	return sub.Clone(), nil
}

// Renew extends a paid subscription by one period counted from whichever is
// later, now or the current end date, and forces the status back to active.
func (s *service) Renew(ctx context.Context, userID string) (*models.Subscription, error) {
	sub, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub.IsFree() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "free subscriptions have nothing to renew")
	}

	now := s.now()
	base := now
	if sub.EndDate != nil && sub.EndDate.After(now) {
		base = *sub.EndDate
	}
	end := base.Add(Period)
	sub.EndDate = &end
	sub.Status = enums.SubscriptionStatusActive
	if err := s.persistChange(ctx, sub); err != nil {
		return nil, err
	}
	s.logger.Info(s.logger.WithUserID(ctx, userID), "subscription renewed")
	return sub.Clone(), nil
}

// loadOrCreate fetches the stored record, creating the default free one when
// the user has none yet. A missing record is a local condition, never an
// error the caller sees.
func (s *service) loadOrCreate(ctx context.Context, userID string) (*models.Subscription, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	sub, err := s.repo.FindSubscription(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading subscription")
	}
	if sub == nil {
		sub = NewDefaultSubscription(userID, "", s.now())
		if err := s.repo.CreateSubscription(ctx, sub); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating default subscription")
		}
		s.logger.Info(s.logger.WithUserID(ctx, userID), "created default free subscription")
	}
	return sub, nil
}

func (s *service) persistChange(ctx context.Context, sub *models.Subscription) error {
	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving subscription")
	}
	s.cache.Invalidate(sub.UserID)
	if s.feed != nil {
		if err := s.feed.PublishChange(ctx, sub.UserID); err != nil {
			s.logger.Warn(s.logger.WithUserID(ctx, sub.UserID), "publishing subscription change failed")
		}
	}
	return nil
}
