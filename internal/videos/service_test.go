package videos

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/vitalflex-backend/pkg/auth"
	"github.com/angelmondragon/vitalflex-backend/pkg/db/models"
	"github.com/angelmondragon/vitalflex-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vitalflex-backend/pkg/errors"
	"github.com/google/uuid"
)

var accessNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type stubVideoRepo struct {
	videos map[uuid.UUID]*models.Video
}

func (s *stubVideoRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	if video, ok := s.videos[id]; ok {
		copied := *video
		return &copied, nil
	}
	return nil, nil
}

func (s *stubVideoRepo) List(ctx context.Context, category string) ([]models.Video, error) {
	var out []models.Video
	for _, video := range s.videos {
		if category == "" || video.Category == category {
			out = append(out, *video)
		}
	}
	return out, nil
}

type stubSubsService struct {
	sub      *models.Subscription
	getCalls int
}

func (s *stubSubsService) Get(ctx context.Context, userID, email string) (*models.Subscription, error) {
	s.getCalls++
	return s.sub, nil
}

func (s *stubSubsService) PaymentHistory(ctx context.Context, userID string) ([]models.Payment, error) {
	return nil, nil
}

func (s *stubSubsService) Cancel(ctx context.Context, userID string) (*models.Subscription, error) {
	return nil, nil
}

func (s *stubSubsService) Renew(ctx context.Context, userID string) (*models.Subscription, error) {
	return nil, nil
}

func newVideoService(t *testing.T, repo Repository, subs *stubSubsService) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo: repo,
		Subs: subs,
		Now:  func() time.Time { return accessNow },
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCanAccessUnknownVideo(t *testing.T) {
	svc := newVideoService(t, &stubVideoRepo{videos: map[uuid.UUID]*models.Video{}}, &stubSubsService{})

	_, err := svc.CanAccess(context.Background(), uuid.New(), nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCanAccessFreeVideoSkipsSubscriptionLookup(t *testing.T) {
	id := uuid.New()
	repo := &stubVideoRepo{videos: map[uuid.UUID]*models.Video{
		id: {ID: id, Title: "Morning Stretch", AccessLevel: enums.AccessLevelFree},
	}}
	subs := &stubSubsService{}
	svc := newVideoService(t, repo, subs)

	result, err := svc.CanAccess(context.Background(), id, nil)
	if err != nil {
		t.Fatalf("CanAccess: %v", err)
	}
	if !result.Verdict.Allowed || result.Verdict.Reason != enums.AccessReasonFreeContent {
		t.Fatalf("verdict = %+v", result.Verdict)
	}
	if subs.getCalls != 0 {
		t.Fatalf("subscription lookups for anonymous viewer = %d, want 0", subs.getCalls)
	}
}

func TestCanAccessPremiumVideoWithActiveSubscription(t *testing.T) {
	id := uuid.New()
	repo := &stubVideoRepo{videos: map[uuid.UUID]*models.Video{
		id: {ID: id, Title: "HIIT Advanced", AccessLevel: enums.AccessLevelPremium, RequiresPayment: true},
	}}
	end := accessNow.Add(20 * 24 * time.Hour)
	subs := &stubSubsService{sub: &models.Subscription{
		UserID:  "user-1",
		Plan:    enums.PlanPremium,
		Status:  enums.SubscriptionStatusActive,
		EndDate: &end,
	}}
	svc := newVideoService(t, repo, subs)

	result, err := svc.CanAccess(context.Background(), id, &auth.Identity{UserID: "user-1", Email: "user1@vitalflex.in"})
	if err != nil {
		t.Fatalf("CanAccess: %v", err)
	}
	if !result.Verdict.Allowed || result.Verdict.Reason != enums.AccessReasonPremiumAccess {
		t.Fatalf("verdict = %+v", result.Verdict)
	}
	if result.Message == "" {
		t.Fatal("expected a user-facing message")
	}
}

func TestCanAccessPremiumVideoAnonymous(t *testing.T) {
	id := uuid.New()
	repo := &stubVideoRepo{videos: map[uuid.UUID]*models.Video{
		id: {ID: id, Title: "HIIT Advanced", AccessLevel: enums.AccessLevelPremium},
	}}
	svc := newVideoService(t, repo, &stubSubsService{})

	result, err := svc.CanAccess(context.Background(), id, nil)
	if err != nil {
		t.Fatalf("CanAccess: %v", err)
	}
	if result.Verdict.Allowed || result.Verdict.Reason != enums.AccessReasonLoginRequired {
		t.Fatalf("verdict = %+v", result.Verdict)
	}
}
