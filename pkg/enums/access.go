package enums

// AccessLevel marks who may watch a catalog video.
type AccessLevel string

const (
	AccessLevelFree    AccessLevel = "free"
	AccessLevelPremium AccessLevel = "premium"
)

// String implements fmt.Stringer.
func (a AccessLevel) String() string {
	return string(a)
}

// IsValid reports whether the value is known.
func (a AccessLevel) IsValid() bool {
	return a == AccessLevelFree || a == AccessLevelPremium
}

// AccessReason explains an access verdict to the caller.
type AccessReason string

const (
	AccessReasonFreeContent          AccessReason = "free_content"
	AccessReasonLoginRequired        AccessReason = "login_required"
	AccessReasonSubscriptionRequired AccessReason = "subscription_required"
	AccessReasonInactiveSubscription AccessReason = "inactive_subscription"
	AccessReasonUpgradeRequired      AccessReason = "upgrade_required"
	AccessReasonExpiredSubscription  AccessReason = "expired_subscription"
	AccessReasonPremiumAccess        AccessReason = "premium_access"
)

var accessReasonMessages = map[AccessReason]string{
	AccessReasonFreeContent:          "This video is free to watch.",
	AccessReasonLoginRequired:        "Sign in to watch this video.",
	AccessReasonSubscriptionRequired: "A subscription is required to watch this video.",
	AccessReasonInactiveSubscription: "Your subscription is not active.",
	AccessReasonUpgradeRequired:      "Upgrade to a premium plan to watch this video.",
	AccessReasonExpiredSubscription:  "Your subscription has expired. Renew to keep watching.",
	AccessReasonPremiumAccess:        "Enjoy your premium content.",
}

// String implements fmt.Stringer.
func (r AccessReason) String() string {
	return string(r)
}

// Message returns the user-facing explanation for the reason code.
func (r AccessReason) Message() string {
	if msg, ok := accessReasonMessages[r]; ok {
		return msg
	}
	return string(r)
}
