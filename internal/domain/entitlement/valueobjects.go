// Package entitlement decides whether a user may consume a content item.
// Decisions are derived from live facts on every call and are never stored.
package entitlement

// AccessType explains how access was granted or why it was refused.
type AccessType string

const (
	AccessTypeFree            AccessType = "free"
	AccessTypeSubscription    AccessType = "subscription"
	AccessTypePurchased       AccessType = "purchased"
	AccessTypePaymentRequired AccessType = "payment_required"
	AccessTypeNotFound        AccessType = "not_found"
	AccessTypeNotLoggedIn     AccessType = "not_logged_in"
)

func (a AccessType) String() string {
	return string(a)
}

// Decision is the outcome of one entitlement resolution.
type Decision struct {
	HasAccess  bool
	AccessType AccessType
}

func granted(t AccessType) Decision {
	return Decision{HasAccess: true, AccessType: t}
}

func denied(t AccessType) Decision {
	return Decision{HasAccess: false, AccessType: t}
}

// GrantsDownload is true only for paid grants. Free access never allows an offline copy.
func (d Decision) GrantsDownload() bool {
	return d.HasAccess && (d.AccessType == AccessTypeSubscription || d.AccessType == AccessTypePurchased)
}

// GrantsStream is the lenient playback policy: any granted decision.
func (d Decision) GrantsStream() bool {
	return d.HasAccess
}
