package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/vitalflex-backend/api/middleware"
	paysvc "github.com/angelmondragon/vitalflex-backend/internal/payments"
	"github.com/angelmondragon/vitalflex-backend/pkg/auth"
	"github.com/angelmondragon/vitalflex-backend/pkg/db/models"
	"github.com/angelmondragon/vitalflex-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vitalflex-backend/pkg/errors"
	"github.com/angelmondragon/vitalflex-backend/pkg/logger"
	"github.com/rs/zerolog"
)

func declineErr() error {
	return pkgerrors.New(pkgerrors.CodePayment, "payment was declined")
}

func controllerLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled})
}

func authedRequest(method, target string, body []byte) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := middleware.WithIdentity(req.Context(), auth.Identity{UserID: "user-1", Email: "user1@vitalflex.in"})
	return req.WithContext(ctx)
}

type stubSubsService struct {
	sub      *models.Subscription
	payments []models.Payment
	err      error
}

func (s *stubSubsService) Get(ctx context.Context, userID, email string) (*models.Subscription, error) {
	return s.sub, s.err
}

func (s *stubSubsService) PaymentHistory(ctx context.Context, userID string) ([]models.Payment, error) {
	return s.payments, s.err
}

func (s *stubSubsService) Cancel(ctx context.Context, userID string) (*models.Subscription, error) {
	return s.sub, s.err
}

func (s *stubSubsService) Renew(ctx context.Context, userID string) (*models.Subscription, error) {
	return s.sub, s.err
}

type stubPaymentsService struct {
	result *paysvc.Result
	err    error
	called bool
	req    paysvc.ProcessRequest
}

func (s *stubPaymentsService) Process(ctx context.Context, req paysvc.ProcessRequest) (*paysvc.Result, error) {
	s.called = true
	s.req = req
	return s.result, s.err
}

func TestSubscriptionFetchRequiresAuth(t *testing.T) {
	handler := SubscriptionFetch(&stubSubsService{}, controllerLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscription", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestSubscriptionFetchReturnsRecord(t *testing.T) {
	end := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	service := &stubSubsService{sub: &models.Subscription{
		UserID:  "user-1",
		Plan:    enums.PlanPremium,
		Status:  enums.SubscriptionStatusActive,
		EndDate: &end,
	}}
	handler := SubscriptionFetch(service, controllerLogger())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/subscription", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var envelope struct {
		Data models.Subscription `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Plan != enums.PlanPremium {
		t.Fatalf("plan = %s", envelope.Data.Plan)
	}
}

func TestProcessPaymentRejectsUnknownPlan(t *testing.T) {
	service := &stubPaymentsService{}
	handler := ProcessPayment(service, controllerLogger())

	body, _ := json.Marshal(map[string]any{
		"plan":    "platinum",
		"method":  "upi",
		"details": map[string]string{"phone": "+919800011122", "upi_id": "user1@okhdfc"},
	})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/payments", body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if service.called {
		t.Fatal("service must not run for an unknown plan")
	}
}

func TestProcessPaymentForwardsIdentity(t *testing.T) {
	service := &stubPaymentsService{result: &paysvc.Result{}}
	handler := ProcessPayment(service, controllerLogger())

	body, _ := json.Marshal(map[string]any{
		"plan":    "premium",
		"method":  "upi",
		"details": map[string]string{"phone": "+919800011122", "upi_id": "user1@okhdfc"},
	})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/payments", body))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if !service.called {
		t.Fatal("service should be invoked")
	}
	if service.req.UserID != "user-1" || service.req.Plan != enums.PlanPremium {
		t.Fatalf("forwarded request = %+v", service.req)
	}
}

func TestProcessPaymentSurfacesDecline(t *testing.T) {
	service := &stubPaymentsService{err: declineErr()}
	handler := ProcessPayment(service, controllerLogger())

	body, _ := json.Marshal(map[string]any{
		"plan":    "premium",
		"method":  "upi",
		"details": map[string]string{"phone": "+919800011122", "upi_id": "user1@okhdfc"},
	})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/payments", body))

	if resp.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Code      string `json:"code"`
			Retryable bool   `json:"retryable"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Code != "PAYMENT_DECLINED" || !envelope.Error.Retryable {
		t.Fatalf("error envelope = %+v", envelope.Error)
	}
}
