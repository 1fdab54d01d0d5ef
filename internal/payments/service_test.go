package payments

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/vitalflex-backend/internal/subscriptions"
	"github.com/angelmondragon/vitalflex-backend/pkg/db/models"
	"github.com/angelmondragon/vitalflex-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vitalflex-backend/pkg/errors"
	"github.com/angelmondragon/vitalflex-backend/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var processNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type memRepo struct {
	subs     map[string]*models.Subscription
	payments map[string]*models.Payment

	createPaymentCalls      int
	createSubscriptionCalls int
	updateSubscriptionCalls int
}

func newMemRepo() *memRepo {
	return &memRepo{
		subs:     map[string]*models.Subscription{},
		payments: map[string]*models.Payment{},
	}
}

func (m *memRepo) WithTx(tx *gorm.DB) subscriptions.Repository { return m }

func (m *memRepo) FindSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	if sub, ok := m.subs[userID]; ok {
		return sub.Clone(), nil
	}
	return nil, nil
}

func (m *memRepo) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	m.createSubscriptionCalls++
	m.subs[sub.UserID] = sub.Clone()
	return nil
}

func (m *memRepo) UpdateSubscription(ctx context.Context, sub *models.Subscription) error {
	m.updateSubscriptionCalls++
	m.subs[sub.UserID] = sub.Clone()
	return nil
}

func (m *memRepo) CreatePayment(ctx context.Context, payment *models.Payment) error {
	m.createPaymentCalls++
	copied := *payment
	m.payments[payment.TransactionID] = &copied
	return nil
}

func (m *memRepo) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	copied := *payment
	m.payments[payment.TransactionID] = &copied
	return nil
}

func (m *memRepo) ListPayments(ctx context.Context, userID string) ([]models.Payment, error) {
	var out []models.Payment
	for _, payment := range m.payments {
		if payment.UserID == userID {
			out = append(out, *payment)
		}
	}
	subscriptions.SortPaymentsNewestFirst(out)
	return out, nil
}

type passThroughTx struct{}

func (passThroughTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fixedSettlement struct {
	cleared bool
	err     error
}

func (f fixedSettlement) Settle(ctx context.Context, _ *models.Payment) (bool, error) {
	return f.cleared, f.err
}

type recordingFeed struct {
	published []string
}

func (r *recordingFeed) PublishChange(ctx context.Context, userID string) error {
	r.published = append(r.published, userID)
	return nil
}

func newProcessService(t *testing.T, repo subscriptions.Repository, cache *subscriptions.Cache, feed subscriptions.ChangePublisher, settlement Settlement) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:       repo,
		Tx:         passThroughTx{},
		Cache:      cache,
		Feed:       feed,
		Settlement: settlement,
		Logger:     logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled}),
		Now:        func() time.Time { return processNow },
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func upiRequest() ProcessRequest {
	return ProcessRequest{
		UserID:    "user-1",
		UserEmail: "user1@vitalflex.in",
		Plan:      enums.PlanPremium,
		Method:    enums.PaymentMethodUPI,
		Details: UPIDetails{
			Phone: "+919800011122",
			UPIID: "user1@okhdfc",
		},
	}
}

func TestProcessRejectsShortRoutingCodeBeforeAnyWrite(t *testing.T) {
	repo := newMemRepo()
	svc := newProcessService(t, repo, subscriptions.NewCache(), nil, fixedSettlement{cleared: true})

	req := ProcessRequest{
		UserID:    "user-1",
		UserEmail: "user1@vitalflex.in",
		Plan:      enums.PlanPremium,
		Method:    enums.PaymentMethodBank,
		Details: BankDetails{
			Phone:         "+919800011122",
			AccountNumber: "0011223344",
			RoutingCode:   "HDFC000123",
			HolderName:    "A User",
		},
	}

	_, err := svc.Process(context.Background(), req)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.createPaymentCalls != 0 {
		t.Fatalf("store writes before validation = %d, want 0", repo.createPaymentCalls)
	}
}

func TestProcessRejectsUPIWithoutHandle(t *testing.T) {
	repo := newMemRepo()
	svc := newProcessService(t, repo, subscriptions.NewCache(), nil, fixedSettlement{cleared: true})

	req := upiRequest()
	details := req.Details.(UPIDetails)
	details.UPIID = "user1.okhdfc"
	req.Details = details

	_, err := svc.Process(context.Background(), req)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProcessRejectsDetailsVariantMismatch(t *testing.T) {
	repo := newMemRepo()
	svc := newProcessService(t, repo, subscriptions.NewCache(), nil, fixedSettlement{cleared: true})

	req := upiRequest()
	req.Method = enums.PaymentMethodBank

	_, err := svc.Process(context.Background(), req)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.createPaymentCalls != 0 {
		t.Fatalf("store writes before validation = %d, want 0", repo.createPaymentCalls)
	}
}

func TestProcessRejectsFreePlan(t *testing.T) {
	repo := newMemRepo()
	svc := newProcessService(t, repo, subscriptions.NewCache(), nil, fixedSettlement{cleared: true})

	req := upiRequest()
	req.Plan = enums.PlanFree

	_, err := svc.Process(context.Background(), req)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProcessClearedPaymentActivatesSubscription(t *testing.T) {
	repo := newMemRepo()
	cache := subscriptions.NewCache()
	cache.PutSubscription("user-1", &models.Subscription{UserID: "user-1"})
	feed := &recordingFeed{}
	svc := newProcessService(t, repo, cache, feed, fixedSettlement{cleared: true})

	result, err := svc.Process(context.Background(), upiRequest())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if result.Payment.Status != enums.PaymentStatusCompleted {
		t.Fatalf("payment status = %s", result.Payment.Status)
	}
	if result.Payment.CompletedAt == nil {
		t.Fatal("completed payment must carry a completion time")
	}
	if !strings.HasPrefix(result.Payment.TransactionID, "TXN") {
		t.Fatalf("transaction id = %q", result.Payment.TransactionID)
	}
	if !result.Payment.Amount.Equal(mustPrice(t, enums.PlanPremium)) {
		t.Fatalf("amount = %s", result.Payment.Amount)
	}

	sub := result.Subscription
	if sub.Plan != enums.PlanPremium || sub.Status != enums.SubscriptionStatusActive {
		t.Fatalf("subscription = %s/%s", sub.Plan, sub.Status)
	}
	wantEnd := processNow.Add(subscriptions.Period)
	if sub.EndDate == nil || !sub.EndDate.Equal(wantEnd) {
		t.Fatalf("end date = %v, want %s", sub.EndDate, wantEnd)
	}
	if sub.LastPayment == nil || sub.LastPayment.TransactionID != result.Payment.TransactionID {
		t.Fatalf("last payment = %+v", sub.LastPayment)
	}
	if len(sub.PaymentHistory) != 1 {
		t.Fatalf("history length = %d", len(sub.PaymentHistory))
	}

	if _, ok := cache.GetSubscription("user-1"); ok {
		t.Fatal("cache entry survived a completed payment")
	}
	if len(feed.published) != 1 || feed.published[0] != "user-1" {
		t.Fatalf("published = %v", feed.published)
	}
}

func TestProcessResetsEntitlementWindow(t *testing.T) {
	repo := newMemRepo()
	farFuture := processNow.Add(200 * 24 * time.Hour)
	repo.subs["user-1"] = &models.Subscription{
		UserID:  "user-1",
		Plan:    enums.PlanPremium,
		Status:  enums.SubscriptionStatusActive,
		EndDate: &farFuture,
	}
	svc := newProcessService(t, repo, subscriptions.NewCache(), nil, fixedSettlement{cleared: true})

	result, err := svc.Process(context.Background(), upiRequest())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	wantEnd := processNow.Add(subscriptions.Period)
	if result.Subscription.EndDate == nil || !result.Subscription.EndDate.Equal(wantEnd) {
		t.Fatalf("end date = %v, want reset to %s", result.Subscription.EndDate, wantEnd)
	}
	if repo.updateSubscriptionCalls != 1 || repo.createSubscriptionCalls != 0 {
		t.Fatalf("writes = %d updates / %d creates", repo.updateSubscriptionCalls, repo.createSubscriptionCalls)
	}
}

func TestProcessDeclinedPaymentLeavesSubscriptionUntouched(t *testing.T) {
	repo := newMemRepo()
	end := processNow.Add(9 * 24 * time.Hour)
	repo.subs["user-1"] = &models.Subscription{
		UserID:  "user-1",
		Plan:    enums.PlanPremium,
		Status:  enums.SubscriptionStatusActive,
		EndDate: &end,
	}
	feed := &recordingFeed{}
	svc := newProcessService(t, repo, subscriptions.NewCache(), feed, fixedSettlement{cleared: false})

	_, err := svc.Process(context.Background(), upiRequest())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodePayment {
		t.Fatalf("expected payment declined, got %v", err)
	}
	if !typed.Retryable() {
		t.Fatal("declined payments must be retryable")
	}

	sub := repo.subs["user-1"]
	if sub.Status != enums.SubscriptionStatusActive || !sub.EndDate.Equal(end) {
		t.Fatalf("subscription mutated by a failed payment: %+v", sub)
	}
	if repo.updateSubscriptionCalls != 0 {
		t.Fatalf("subscription writes on failure = %d, want 0", repo.updateSubscriptionCalls)
	}

	var failed *models.Payment
	for _, payment := range repo.payments {
		failed = payment
	}
	if failed == nil || failed.Status != enums.PaymentStatusFailed {
		t.Fatalf("expected the attempt marked failed, got %+v", failed)
	}
	if len(feed.published) != 0 {
		t.Fatalf("failure must not announce a change, published = %v", feed.published)
	}
}

func mustPrice(t *testing.T, plan enums.Plan) decimal.Decimal {
	t.Helper()
	price, err := PriceFor(plan)
	if err != nil {
		t.Fatalf("PriceFor: %v", err)
	}
	return price
}
