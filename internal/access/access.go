package access

import (
	"time"

	"github.com/angelmondragon/vitalflex-backend/pkg/db/models"
	"github.com/angelmondragon/vitalflex-backend/pkg/enums"
)

// Verdict is the outcome of an access decision.
type Verdict struct {
	Allowed bool               `json:"can_access"`
	Reason  enums.AccessReason `json:"reason"`
}

// Message returns the user-facing explanation for the verdict.
func (v Verdict) Message() string {
	return v.Reason.Message()
}

// Decide maps a video, the viewer's subscription record, and the viewer's
// authentication state to an access verdict. Pure: no I/O, no mutation.
//
// Rules are evaluated in precedence order; the first match wins. AccessLevel is
// authoritative; the catalog's redundant requires_payment flag is deliberately
// ignored here. Expiry is checked against wall-clock time independently of the
// stored status, which is not self-healing.
func Decide(video *models.Video, sub *models.Subscription, authenticated bool, now time.Time) Verdict {
	if video == nil || video.AccessLevel == enums.AccessLevelFree {
		return Verdict{Allowed: true, Reason: enums.AccessReasonFreeContent}
	}
	if !authenticated {
		return Verdict{Allowed: false, Reason: enums.AccessReasonLoginRequired}
	}
	if sub == nil {
		return Verdict{Allowed: false, Reason: enums.AccessReasonSubscriptionRequired}
	}
	if sub.Status != enums.SubscriptionStatusActive {
		return Verdict{Allowed: false, Reason: enums.AccessReasonInactiveSubscription}
	}
	if sub.Plan == enums.PlanFree {
		return Verdict{Allowed: false, Reason: enums.AccessReasonUpgradeRequired}
	}
	if sub.EndDate != nil && sub.EndDate.Before(now) {
		return Verdict{Allowed: false, Reason: enums.AccessReasonExpiredSubscription}
	}
	return Verdict{Allowed: true, Reason: enums.AccessReasonPremiumAccess}
}
