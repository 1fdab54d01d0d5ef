package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/vitalflex-backend/internal/subscriptions"
	"github.com/angelmondragon/vitalflex-backend/pkg/db/models"
	"github.com/angelmondragon/vitalflex-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vitalflex-backend/pkg/errors"
	"github.com/angelmondragon/vitalflex-backend/pkg/logger"
	"github.com/angelmondragon/vitalflex-backend/pkg/metrics"
	"github.com/angelmondragon/vitalflex-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service processes payment attempts end to end: validation, the pending
// ledger write, settlement, and the subscription activation that follows a
// cleared payment.
type Service interface {
	Process(ctx context.Context, req ProcessRequest) (*Result, error)
}

type service struct {
	repo       subscriptions.Repository
	tx         TxRunner
	cache      *subscriptions.Cache
	feed       subscriptions.ChangePublisher
	settlement Settlement
	metrics    *metrics.SyncMetrics
	logger     *logger.Logger
	now        func() time.Time
	randInt    func(int64) int64
}

// ServiceParams carries the payment service dependencies.
type ServiceParams struct {
	Repo       subscriptions.Repository
	Tx         TxRunner
	Cache      *subscriptions.Cache
	Feed       subscriptions.ChangePublisher
	Settlement Settlement
	Metrics    *metrics.SyncMetrics
	Logger     *logger.Logger
	Now        func() time.Time
	RandInt    func(int64) int64
}

// NewService validates dependencies and builds the payment service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payments: repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("payments: tx runner is required")
	}
	if params.Cache == nil {
		return nil, fmt.Errorf("payments: cache is required")
	}
	if params.Settlement == nil {
		return nil, fmt.Errorf("payments: settlement is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("payments: logger is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:       params.Repo,
		tx:         params.Tx,
		cache:      params.Cache,
		feed:       params.Feed,
		settlement: params.Settlement,
		metrics:    params.Metrics,
		logger:     params.Logger,
		now:        params.Now,
		randInt:    params.RandInt,
	}, nil
}

// Process runs one payment attempt. Validation failures reject the request
// before anything is written. A declined settlement marks the payment failed
// and leaves the subscription untouched. A cleared settlement completes the
// payment and activates the subscription in one transaction, then invalidates
// the cache and announces the change.
func (s *service) Process(ctx context.Context, req ProcessRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	price, err := PriceFor(req.Plan)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rawDetails, err := json.Marshal(req.Details)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding method details")
	}

	payment := &models.Payment{
		ID:            uuid.New(),
		UserID:        req.UserID,
		UserEmail:     req.UserEmail,
		Plan:          req.Plan,
		PlanName:      req.Plan.DisplayName(),
		Amount:        price,
		Currency:      Currency,
		Method:        req.Method,
		MethodDetails: rawDetails,
		TransactionID: NewTransactionID(now, s.randInt),
		Status:        enums.PaymentStatusPending,
		Timestamp:     now,
	}

	ctx = s.logger.WithTransactionID(s.logger.WithUserID(ctx, req.UserID), payment.TransactionID)
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording payment attempt")
	}
	s.logger.Info(ctx, "payment attempt recorded")

	cleared, err := s.settlement.Settle(ctx, payment)
	if err != nil {
		s.markFailed(ctx, payment)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settlement aborted")
	}
	if !cleared {
		s.markFailed(ctx, payment)
		return nil, pkgerrors.New(pkgerrors.CodePayment, "payment was declined").
			WithDetails(map[string]string{"transaction_id": payment.TransactionID})
	}

	var sub *models.Subscription
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		completedAt := s.now()
		payment.Status = enums.PaymentStatusCompleted
		payment.CompletedAt = &completedAt
		if err := txRepo.UpdatePayment(ctx, payment); err != nil {
			return fmt.Errorf("completing payment: %w", err)
		}

		existing, err := txRepo.FindSubscription(ctx, req.UserID)
		if err != nil {
			return fmt.Errorf("loading subscription: %w", err)
		}

		summary := types.PaymentSummary{
			TransactionID: payment.TransactionID,
			Amount:        payment.Amount,
			Method:        payment.Method,
			Plan:          payment.Plan,
			Date:          completedAt,
		}
		// A fresh payment resets the entitlement window; remaining time on
		// the old window is not carried over.
		end := completedAt.Add(subscriptions.Period)

		if existing == nil {
			sub = &models.Subscription{
				UserID:         req.UserID,
				UserEmail:      req.UserEmail,
				Plan:           req.Plan,
				PlanName:       req.Plan.DisplayName(),
				Status:         enums.SubscriptionStatusActive,
				StartDate:      completedAt,
				EndDate:        &end,
				LastPayment:    &summary,
				PaymentHistory: types.PaymentSummaryList{summary},
			}
			if err := txRepo.CreateSubscription(ctx, sub); err != nil {
				return fmt.Errorf("creating subscription: %w", err)
			}
			return nil
		}

		existing.Plan = req.Plan
		existing.PlanName = req.Plan.DisplayName()
		existing.Status = enums.SubscriptionStatusActive
		existing.EndDate = &end
		existing.LastPayment = &summary
		existing.PaymentHistory = existing.PaymentHistory.Append(summary)
		if existing.UserEmail == "" {
			existing.UserEmail = req.UserEmail
		}
		if err := txRepo.UpdateSubscription(ctx, existing); err != nil {
			return fmt.Errorf("activating subscription: %w", err)
		}
		sub = existing
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finalizing payment")
	}

	s.cache.Invalidate(req.UserID)
	if s.feed != nil {
		if err := s.feed.PublishChange(ctx, req.UserID); err != nil {
			s.logger.Warn(ctx, "publishing subscription change failed")
		}
	}
	s.metrics.IncSettlement("completed")
	s.logger.Info(ctx, "payment completed, subscription active")

	return &Result{Payment: payment, Subscription: sub.Clone()}, nil
}

// markFailed records the declined attempt. Subscription state is never touched
// on this path.
func (s *service) markFailed(ctx context.Context, payment *models.Payment) {
	payment.Status = enums.PaymentStatusFailed
	if err := s.repo.UpdatePayment(ctx, payment); err != nil {
		s.logger.Error(ctx, "marking payment failed", err)
	}
	s.metrics.IncSettlement("failed")
}
