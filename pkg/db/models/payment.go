package models

import (
	"encoding/json"
	"time"

	"github.com/angelmondragon/vitalflex-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is one row per transaction attempt that reached the processor.
// Append-only; settlement flips Status but rows are never deleted.
type Payment struct {
	ID            uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        string              `gorm:"column:user_id;not null;index" json:"user_id"`
	UserEmail     string              `gorm:"column:user_email;not null" json:"user_email"`
	Plan          enums.Plan          `gorm:"column:plan;not null" json:"plan"`
	PlanName      string              `gorm:"column:plan_name;not null" json:"plan_name"`
	Amount        decimal.Decimal     `gorm:"column:amount;type:numeric(10,2);not null" json:"amount"`
	Currency      string              `gorm:"column:currency;not null;default:'INR'" json:"currency"`
	Method        enums.PaymentMethod `gorm:"column:method;not null" json:"method"`
	MethodDetails json.RawMessage     `gorm:"column:method_details;type:text" json:"method_details,omitempty"`
	TransactionID string              `gorm:"column:transaction_id;not null;unique" json:"transaction_id"`
	Status        enums.PaymentStatus `gorm:"column:status;not null;default:'pending'" json:"status"`
	Timestamp     time.Time           `gorm:"column:timestamp;not null;index" json:"timestamp"`
	CompletedAt   *time.Time          `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
