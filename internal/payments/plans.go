package payments

import (
	"github.com/angelmondragon/vitalflex-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vitalflex-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// Currency is the only settlement currency the platform accepts.
const Currency = "INR"

var planPrices = map[enums.Plan]decimal.Decimal{
	enums.PlanPremium: decimal.NewFromInt(999),
	enums.PlanFamily:  decimal.NewFromInt(1499),
}

// PriceFor returns the monthly price for a purchasable plan.
func PriceFor(plan enums.Plan) (decimal.Decimal, error) {
	price, ok := planPrices[plan]
	if !ok {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "plan has no price").
			WithDetails(map[string]string{"plan": plan.String()})
	}
	return price, nil
}
