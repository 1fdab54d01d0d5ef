package payments

import (
	"context"
	"math/rand"
	"time"

	"github.com/angelmondragon/vitalflex-backend/pkg/db/models"
)

// Settlement decides whether a pending payment clears. Implementations may
// block; they must honor context cancellation.
type Settlement interface {
	Settle(ctx context.Context, payment *models.Payment) (bool, error)
}

// SimulatedSettlement stands in for a real payment gateway: it waits a fixed
// delay and clears payments at a configured success rate.
type SimulatedSettlement struct {
	delay       time.Duration
	successRate float64
	randFloat   func() float64
}

// NewSimulatedSettlement builds the simulated gateway. A success rate at or
// above 1 clears every payment, at or below 0 declines every payment.
func NewSimulatedSettlement(delay time.Duration, successRate float64, randFloat func() float64) *SimulatedSettlement {
	if randFloat == nil {
		randFloat = rand.Float64
	}
	return &SimulatedSettlement{
		delay:       delay,
		successRate: successRate,
		randFloat:   randFloat,
	}
}

func (s *SimulatedSettlement) Settle(ctx context.Context, _ *models.Payment) (bool, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
		}
	}
	return s.randFloat() < s.successRate, nil
}
