package license

// Status is derived from the lifecycle fields; it is not stored on its own.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusRevoked Status = "revoked"
)

// Revoke reasons recorded on terminal licenses.
const (
	ReasonExpired       = "Expired"
	ReasonUserRequested = "User requested revocation"
	ReasonAccessRevoked = "Access revoked"
)

// MaxReasonLength bounds custom revoke reasons.
const MaxReasonLength = 255

var validStatusTransitions = map[Status][]Status{
	StatusActive:  {StatusExpired, StatusRevoked},
	StatusExpired: {},
	StatusRevoked: {},
}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsTerminal() bool {
	return s == StatusExpired || s == StatusRevoked
}

// CanTransitionTo reports whether the lifecycle allows moving from s to target.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range validStatusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}
