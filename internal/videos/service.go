package videos

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/vitalflex-backend/internal/access"
	"github.com/angelmondragon/vitalflex-backend/internal/subscriptions"
	"github.com/angelmondragon/vitalflex-backend/pkg/auth"
	"github.com/angelmondragon/vitalflex-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vitalflex-backend/pkg/errors"
	"github.com/google/uuid"
)

// Service answers catalog reads and per-video access checks.
type Service interface {
	List(ctx context.Context, category string) ([]models.Video, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Video, error)
	CanAccess(ctx context.Context, id uuid.UUID, viewer *auth.Identity) (*AccessResult, error)
}

// AccessResult pairs the verdict with the video it was computed for.
type AccessResult struct {
	Video   *models.Video  `json:"video"`
	Verdict access.Verdict `json:"verdict"`
	Message string         `json:"message"`
}

type service struct {
	repo Repository
	subs subscriptions.Service
	now  func() time.Time
}

// ServiceParams carries the video service dependencies.
type ServiceParams struct {
	Repo Repository
	Subs subscriptions.Service
	Now  func() time.Time
}

// NewService validates dependencies and builds the video service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("videos: repository is required")
	}
	if params.Subs == nil {
		return nil, fmt.Errorf("videos: subscriptions service is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{repo: params.Repo, subs: params.Subs, now: params.Now}, nil
}

func (s *service) List(ctx context.Context, category string) ([]models.Video, error) {
	videos, err := s.repo.List(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing videos")
	}
	return videos, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	video, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading video")
	}
	if video == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "video not found")
	}
	return video, nil
}

// CanAccess loads the video and the viewer's subscription record and runs the
// access decision. An anonymous viewer is decided without a subscription
// lookup, so free content needs no store round trip.
func (s *service) CanAccess(ctx context.Context, id uuid.UUID, viewer *auth.Identity) (*AccessResult, error) {
	video, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var sub *models.Subscription
	authenticated := viewer != nil && viewer.UserID != ""
	if authenticated {
		sub, err = s.subs.Get(ctx, viewer.UserID, viewer.Email)
		if err != nil {
			return nil, err
		}
	}

	verdict := access.Decide(video, sub, authenticated, s.now())
	return &AccessResult{Video: video, Verdict: verdict, Message: verdict.Message()}, nil
}
