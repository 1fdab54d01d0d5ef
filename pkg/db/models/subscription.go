package models

import (
	"time"

	"github.com/angelmondragon/vitalflex-backend/pkg/enums"
	"github.com/angelmondragon/vitalflex-backend/pkg/types"
)

// Subscription is the single authoritative subscription record per user.
// Created lazily with free/active defaults on first authenticated read.
type Subscription struct {
	UserID         string                   `gorm:"column:user_id;primaryKey" json:"user_id"`
	UserEmail      string                   `gorm:"column:user_email;not null" json:"user_email"`
	Plan           enums.Plan               `gorm:"column:plan;not null;default:'free'" json:"plan"`
	PlanName       string                   `gorm:"column:plan_name;not null" json:"plan_name"`
	Status         enums.SubscriptionStatus `gorm:"column:status;not null;default:'active'" json:"status"`
	StartDate      time.Time                `gorm:"column:start_date;not null" json:"start_date"`
	EndDate        *time.Time               `gorm:"column:end_date" json:"end_date"`
	LastPayment    *types.PaymentSummary    `gorm:"column:last_payment;serializer:json" json:"last_payment,omitempty"`
	PaymentHistory types.PaymentSummaryList `gorm:"column:payment_history;type:text" json:"payment_history"`
	CreatedAt      time.Time                `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time                `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// IsFree reports whether the record is on the free tier. Free records carry no
// expiry date.
func (s *Subscription) IsFree() bool {
	return s != nil && s.Plan == enums.PlanFree
}

// Clone returns a deep enough copy for broadcast payloads so consumers never
// observe in-place mutation.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	out := *s
	if s.EndDate != nil {
		end := *s.EndDate
		out.EndDate = &end
	}
	if s.LastPayment != nil {
		last := *s.LastPayment
		out.LastPayment = &last
	}
	if s.PaymentHistory != nil {
		out.PaymentHistory = append(types.PaymentSummaryList(nil), s.PaymentHistory...)
	}
	return &out
}
