package license

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorKind is the closed set of failures the license operations report.
type ErrorKind string

const (
	KindAccessDenied       ErrorKind = "access_denied"
	KindContentUnavailable ErrorKind = "content_unavailable"
	KindAlreadyExists      ErrorKind = "already_exists"
	KindMaxDevicesReached  ErrorKind = "max_devices_reached"
	KindInvalidLicense     ErrorKind = "invalid_license"
	KindExpired            ErrorKind = "expired"
	KindAccessRevoked      ErrorKind = "access_revoked"
	KindNotFound           ErrorKind = "not_found"
)

var kindMessages = map[ErrorKind]string{
	KindAccessDenied:       "access denied",
	KindContentUnavailable: "content is not available for download",
	KindAlreadyExists:      "a license already exists for this device",
	KindMaxDevicesReached:  "maximum number of devices reached",
	KindInvalidLicense:     "invalid license",
	KindExpired:            "license has expired",
	KindAccessRevoked:      "access has been revoked",
	KindNotFound:           "license not found",
}

// Error is a license failure tagged with its kind, the violated constraint
// and optional structured context for the caller.
type Error struct {
	Kind       ErrorKind
	Constraint string
	Context    map[string]any
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(kindMessages[e.Kind])
	if e.Constraint != "" {
		b.WriteString(": ")
		b.WriteString(e.Constraint)
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, e.Context[k])
		}
	}
	return b.String()
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrExpired) works
// regardless of constraint or context.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Message is the caller-facing text for the kind.
func (e *Error) Message() string {
	return kindMessages[e.Kind]
}

var (
	ErrAccessDenied       = &Error{Kind: KindAccessDenied}
	ErrContentUnavailable = &Error{Kind: KindContentUnavailable}
	ErrAlreadyExists      = &Error{Kind: KindAlreadyExists}
	ErrMaxDevicesReached  = &Error{Kind: KindMaxDevicesReached}
	ErrInvalidLicense     = &Error{Kind: KindInvalidLicense}
	ErrExpired            = &Error{Kind: KindExpired}
	ErrAccessRevoked      = &Error{Kind: KindAccessRevoked}
	ErrNotFound           = &Error{Kind: KindNotFound}
)

// ErrKeyCollision is returned by storage when a generated key hash already exists.
var ErrKeyCollision = errors.New("license key collision")

// ErrReservedReason is returned when a caller tries to revoke with the expiry reason.
var ErrReservedReason = errors.New("revoke reason is reserved")

func NewError(kind ErrorKind, constraint string, ctx map[string]any) *Error {
	return &Error{Kind: kind, Constraint: constraint, Context: ctx}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
