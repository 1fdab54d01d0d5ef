package enums

import "fmt"

// Plan identifies a subscription tier.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
	PlanFamily  Plan = "family"
)

var validPlans = []Plan{
	PlanFree,
	PlanPremium,
	PlanFamily,
}

var planDisplayNames = map[Plan]string{
	PlanFree:    "Free Plan",
	PlanPremium: "Premium Plan",
	PlanFamily:  "Family Plan",
}

// String implements fmt.Stringer.
func (p Plan) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p Plan) IsValid() bool {
	for _, candidate := range validPlans {
		if candidate == p {
			return true
		}
	}
	return false
}

// DisplayName returns the user-facing plan label.
func (p Plan) DisplayName() string {
	if name, ok := planDisplayNames[p]; ok {
		return name
	}
	return string(p)
}

// ParsePlan converts raw input into a Plan.
func ParsePlan(value string) (Plan, error) {
	for _, candidate := range validPlans {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid plan %q", value)
}
