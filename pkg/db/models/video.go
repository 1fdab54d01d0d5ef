package models

import (
	"time"

	"github.com/angelmondragon/vitalflex-backend/pkg/enums"
	"github.com/google/uuid"
)

// Video is a read-only catalog item. AccessLevel is authoritative for gating;
// RequiresPayment is a corroborating flag carried over from the catalog source
// and may disagree.
type Video struct {
	ID                     uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Title                  string            `gorm:"column:title;not null" json:"title"`
	Category               string            `gorm:"column:category" json:"category,omitempty"`
	AccessLevel            enums.AccessLevel `gorm:"column:access_level;not null;default:'free'" json:"access_level"`
	RequiresPayment        bool              `gorm:"column:requires_payment;not null;default:false" json:"requires_payment"`
	PreviewDurationSeconds int               `gorm:"column:preview_duration_seconds;not null;default:180" json:"preview_duration_seconds"`
	ThumbnailURL           string            `gorm:"column:thumbnail_url" json:"thumbnail_url,omitempty"`
	CreatedAt              time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
