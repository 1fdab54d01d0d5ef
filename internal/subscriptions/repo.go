package subscriptions

import (
	"context"
	"sort"
	"strings"

	"github.com/angelmondragon/vitalflex-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository is the store adapter for subscription and payment records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindSubscription(ctx context.Context, userID string) (*models.Subscription, error)
	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	UpdateSubscription(ctx context.Context, sub *models.Subscription) error
	CreatePayment(ctx context.Context, payment *models.Payment) error
	UpdatePayment(ctx context.Context, payment *models.Payment) error
	ListPayments(ctx context.Context, userID string) ([]models.Payment, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a subscription repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&sub).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repository) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *repository) UpdateSubscription(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

// ListPayments returns a user's payment attempts newest-first. When the backing
// store cannot serve the ordered query because the supporting index is missing,
// it falls back to an unordered query plus an in-memory sort, which must yield
// the same sequence. Any other store error propagates.
func (r *repository) ListPayments(ctx context.Context, userID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Find(&payments).Error
	if err == nil {
		return payments, nil
	}
	if !isMissingIndexErr(err) {
		return nil, err
	}

	payments = payments[:0]
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&payments).Error; err != nil {
		return nil, err
	}
	SortPaymentsNewestFirst(payments)
	return payments, nil
}

// SortPaymentsNewestFirst orders payments by timestamp descending, matching the
// ordered-query path. Ties keep their relative order.
func SortPaymentsNewestFirst(payments []models.Payment) {
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].Timestamp.After(payments[j].Timestamp)
	})
}

// isMissingIndexErr detects the structural "ordered query needs an index the
// store does not have" failure. Anything else is a real store error.
func isMissingIndexErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "requires an index") ||
		strings.Contains(msg, "no such index") ||
		strings.Contains(msg, "index not found")
}
