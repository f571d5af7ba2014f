// Package license models device-bound download licenses: issuance limits,
// lazy and batch expiry, revocation and access accounting.
package license

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// License is the aggregate root for one offline copy on one device.
type License struct {
	id             uint
	sid            string
	keyHash        string
	userID         string
	contentID      string
	deviceID       string
	deviceInfo     DeviceInfo
	issuedAt       time.Time
	expiresAt      time.Time
	lastAccessedAt *time.Time
	accessCount    int64
	isActive       bool
	revokedAt      *time.Time
	revokeReason   string
	snapshot       ContentSnapshot
	quality        string
	format         string
	abuseFlaggedAt *time.Time
	createdAt      time.Time
	updatedAt      time.Time
	version        int
}

// IssueParams carries everything needed to issue a new license.
type IssueParams struct {
	SID        string
	KeyHash    string
	UserID     string
	ContentID  string
	DeviceID   string
	DeviceInfo DeviceInfo
	Snapshot   ContentSnapshot
	Quality    string
	Format     string
	IssuedAt   time.Time
	Validity   time.Duration
}

// NewLicense creates an active license valid for p.Validity from p.IssuedAt.
func NewLicense(p IssueParams) (*License, error) {
	if p.SID == "" {
		return nil, fmt.Errorf("license sid is required")
	}
	if p.KeyHash == "" {
		return nil, fmt.Errorf("license key hash is required")
	}
	if strings.TrimSpace(p.UserID) == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if strings.TrimSpace(p.ContentID) == "" {
		return nil, fmt.Errorf("content ID is required")
	}
	if strings.TrimSpace(p.DeviceID) == "" {
		return nil, fmt.Errorf("device ID is required")
	}
	if p.Validity <= 0 {
		return nil, fmt.Errorf("license validity must be positive, got %s", p.Validity)
	}
	if p.IssuedAt.IsZero() {
		return nil, fmt.Errorf("issue time is required")
	}

	return &License{
		sid:        p.SID,
		keyHash:    p.KeyHash,
		userID:     p.UserID,
		contentID:  p.ContentID,
		deviceID:   p.DeviceID,
		deviceInfo: p.DeviceInfo,
		issuedAt:   p.IssuedAt,
		expiresAt:  p.IssuedAt.Add(p.Validity),
		isActive:   true,
		snapshot:   p.Snapshot,
		quality:    p.Quality,
		format:     p.Format,
		createdAt:  p.IssuedAt,
		updatedAt:  p.IssuedAt,
		version:    1,
	}, nil
}

// ReconstructParams mirrors every persisted field.
type ReconstructParams struct {
	ID             uint
	SID            string
	KeyHash        string
	UserID         string
	ContentID      string
	DeviceID       string
	DeviceInfo     DeviceInfo
	IssuedAt       time.Time
	ExpiresAt      time.Time
	LastAccessedAt *time.Time
	AccessCount    int64
	IsActive       bool
	RevokedAt      *time.Time
	RevokeReason   string
	Snapshot       ContentSnapshot
	Quality        string
	Format         string
	AbuseFlaggedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int
}

// ReconstructLicense rebuilds a license from persistence.
func ReconstructLicense(p ReconstructParams) (*License, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("license ID cannot be zero")
	}
	if p.SID == "" || p.KeyHash == "" {
		return nil, fmt.Errorf("license %d is missing its identifiers", p.ID)
	}
	if !p.ExpiresAt.After(p.IssuedAt) {
		return nil, fmt.Errorf("license %s expires before it was issued", p.SID)
	}
	if !p.IsActive && p.RevokedAt == nil {
		return nil, fmt.Errorf("inactive license %s has no revocation time", p.SID)
	}

	return &License{
		id:             p.ID,
		sid:            p.SID,
		keyHash:        p.KeyHash,
		userID:         p.UserID,
		contentID:      p.ContentID,
		deviceID:       p.DeviceID,
		deviceInfo:     p.DeviceInfo,
		issuedAt:       p.IssuedAt,
		expiresAt:      p.ExpiresAt,
		lastAccessedAt: p.LastAccessedAt,
		accessCount:    p.AccessCount,
		isActive:       p.IsActive,
		revokedAt:      p.RevokedAt,
		revokeReason:   p.RevokeReason,
		snapshot:       p.Snapshot,
		quality:        p.Quality,
		format:         p.Format,
		abuseFlaggedAt: p.AbuseFlaggedAt,
		createdAt:      p.CreatedAt,
		updatedAt:      p.UpdatedAt,
		version:        p.Version,
	}, nil
}

// ID returns the row ID
func (l *License) ID() uint {
	return l.id
}

// SID returns the public license ID
func (l *License) SID() string {
	return l.sid
}

// KeyHash returns the SHA-256 hash of the license key
func (l *License) KeyHash() string {
	return l.keyHash
}

// UserID returns the owning user ID
func (l *License) UserID() string {
	return l.userID
}

// ContentID returns the licensed content ID
func (l *License) ContentID() string {
	return l.contentID
}

// DeviceID returns the bound device ID
func (l *License) DeviceID() string {
	return l.deviceID
}

// DeviceInfo returns the advisory device details captured at issuance
func (l *License) DeviceInfo() DeviceInfo {
	return l.deviceInfo
}

// IssuedAt returns when the license was issued
func (l *License) IssuedAt() time.Time {
	return l.issuedAt
}

// ExpiresAt returns when the license stops being valid
func (l *License) ExpiresAt() time.Time {
	return l.expiresAt
}

// LastAccessedAt returns the last successful validation time
func (l *License) LastAccessedAt() *time.Time {
	return l.lastAccessedAt
}

// AccessCount returns the number of successful validations
func (l *License) AccessCount() int64 {
	return l.accessCount
}

// IsActive returns whether the license is still active
func (l *License) IsActive() bool {
	return l.isActive
}

// RevokedAt returns when the license was deactivated
func (l *License) RevokedAt() *time.Time {
	return l.revokedAt
}

// RevokeReason returns why the license was deactivated
func (l *License) RevokeReason() string {
	return l.revokeReason
}

// Snapshot returns the content metadata frozen at issuance
func (l *License) Snapshot() ContentSnapshot {
	return l.snapshot
}

// Quality returns the requested rendition quality
func (l *License) Quality() string {
	return l.quality
}

// Format returns the requested container format
func (l *License) Format() string {
	return l.format
}

// AbuseFlaggedAt returns when the access count first crossed the abuse threshold
func (l *License) AbuseFlaggedAt() *time.Time {
	return l.abuseFlaggedAt
}

// CreatedAt returns the creation time
func (l *License) CreatedAt() time.Time {
	return l.createdAt
}

// UpdatedAt returns the last update time
func (l *License) UpdatedAt() time.Time {
	return l.updatedAt
}

// Version returns the aggregate version, bumped on every lifecycle change
func (l *License) Version() int {
	return l.version
}

// SetID sets the row ID (only for persistence layer use)
func (l *License) SetID(id uint) error {
	if l.id != 0 {
		return fmt.Errorf("license ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("license ID cannot be zero")
	}
	l.id = id
	return nil
}

// Status derives the lifecycle state from isActive and revokeReason.
func (l *License) Status() Status {
	switch {
	case l.isActive:
		return StatusActive
	case l.revokeReason == ReasonExpired:
		return StatusExpired
	default:
		return StatusRevoked
	}
}

// IsExpiredAt reports whether now is strictly after expiresAt.
func (l *License) IsExpiredAt(now time.Time) bool {
	return now.After(l.expiresAt)
}

// IsUsableAt reports whether the license is active and not yet expired.
func (l *License) IsUsableAt(now time.Time) bool {
	return l.isActive && !l.IsExpiredAt(now)
}

// Expire moves an active license past its expiry into the expired state.
// Calling it on an inactive license is a no-op.
func (l *License) Expire(now time.Time) error {
	if !l.isActive {
		return nil
	}
	if !l.IsExpiredAt(now) {
		return fmt.Errorf("license %s is valid until %s", l.sid, l.expiresAt.Format(time.RFC3339))
	}
	l.terminate(now, ReasonExpired, StatusExpired)
	return nil
}

// Revoke deactivates an active license with reason. An empty reason records
// a user-requested revocation. Calling it on an inactive license is a no-op.
func (l *License) Revoke(now time.Time, reason string) error {
	if !l.isActive {
		return nil
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = ReasonUserRequested
	}
	if reason == ReasonExpired {
		return fmt.Errorf("%w: %q", ErrReservedReason, reason)
	}
	l.terminate(now, truncateReason(reason), StatusRevoked)
	return nil
}

// truncateReason cuts reason to at most MaxReasonLength bytes without
// splitting a multi-byte character.
func truncateReason(reason string) string {
	if len(reason) <= MaxReasonLength {
		return reason
	}
	n := MaxReasonLength
	for n > 0 && !utf8.RuneStart(reason[n]) {
		n--
	}
	return reason[:n]
}

func (l *License) terminate(now time.Time, reason string, target Status) {
	if !l.Status().CanTransitionTo(target) {
		return
	}
	at := now
	l.isActive = false
	l.revokedAt = &at
	l.revokeReason = reason
	l.updatedAt = now
	l.version++
}

// RecordAccess stores a successful validation. count is the post-increment
// value returned by storage; the local counter never goes backwards.
func (l *License) RecordAccess(now time.Time, count int64) error {
	if !l.isActive {
		return fmt.Errorf("cannot record access on %s license %s", l.Status(), l.sid)
	}
	at := now
	l.lastAccessedAt = &at
	if count > l.accessCount {
		l.accessCount = count
	} else {
		l.accessCount++
	}
	l.updatedAt = now
	return nil
}

// ExceedsAccessThreshold reports whether the access count is above threshold.
// A non-positive threshold disables the check.
func (l *License) ExceedsAccessThreshold(threshold int64) bool {
	return threshold > 0 && l.accessCount > threshold
}

// FlagAbuse marks the license for review. It returns false if already flagged.
func (l *License) FlagAbuse(now time.Time) bool {
	if l.abuseFlaggedAt != nil {
		return false
	}
	at := now
	l.abuseFlaggedAt = &at
	l.updatedAt = now
	return true
}
