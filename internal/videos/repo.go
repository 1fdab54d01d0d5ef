package videos

import (
	"context"

	"github.com/angelmondragon/vitalflex-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository is the store adapter for the video catalog.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Video, error)
	List(ctx context.Context, category string) ([]models.Video, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	var video models.Video
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&video).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &video, nil
}

func (r *repository) List(ctx context.Context, category string) ([]models.Video, error) {
	query := r.db.WithContext(ctx).Order("title ASC")
	if category != "" {
		query = query.Where("category = ?", category)
	}
	var videos []models.Video
	if err := query.Find(&videos).Error; err != nil {
		return nil, err
	}
	return videos, nil
}
