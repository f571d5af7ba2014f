// Package dto holds the commands and views exchanged with the license use cases.
package dto

import (
	"time"

	"github.com/hrshiti/inplay-sub000/internal/domain/license"
)

type DeviceInfoDTO struct {
	UserAgent string `json:"user_agent,omitempty" validate:"max=512"`
	Platform  string `json:"platform,omitempty" validate:"max=64"`
	IPAddress string `json:"ip_address,omitempty" validate:"omitempty,ip"`
}

type IssueLicenseCommand struct {
	UserID     string        `json:"user_id" validate:"required,max=64"`
	ContentID  string        `json:"content_id" validate:"required,max=64"`
	DeviceID   string        `json:"device_id" validate:"required,max=128"`
	DeviceInfo DeviceInfoDTO `json:"device_info"`
	Quality    string        `json:"quality,omitempty" validate:"max=20"`
	Format     string        `json:"format,omitempty" validate:"max=20"`
}

type ValidateLicenseCommand struct {
	LicenseKey string `json:"license_key" validate:"required,max=128"`
	DeviceID   string `json:"device_id" validate:"required,max=128"`
}

type RevokeLicenseCommand struct {
	LicenseKey string `json:"license_key" validate:"required,max=128"`
	UserID     string `json:"user_id" validate:"required,max=64"`
	Reason     string `json:"reason,omitempty" validate:"max=1024"`
}

type RevokeLicenseBySIDCommand struct {
	SID    string `json:"sid" validate:"required,max=32"`
	UserID string `json:"user_id" validate:"required,max=64"`
	Reason string `json:"reason,omitempty" validate:"max=1024"`
}

type ContentSnapshotDTO struct {
	Title           string `json:"title"`
	Type            string `json:"type"`
	DurationSeconds int    `json:"duration_seconds"`
	VideoURL        string `json:"video_url"`
	PosterURL       string `json:"poster_url,omitempty"`
}

// LicenseDTO is the public view of a license. It never carries the key.
type LicenseDTO struct {
	SID            string             `json:"sid"`
	ContentID      string             `json:"content_id"`
	DeviceID       string             `json:"device_id"`
	Status         string             `json:"status"`
	IssuedAt       time.Time          `json:"issued_at"`
	ExpiresAt      time.Time          `json:"expires_at"`
	LastAccessedAt *time.Time         `json:"last_accessed_at,omitempty"`
	AccessCount    int64              `json:"access_count"`
	RevokedAt      *time.Time         `json:"revoked_at,omitempty"`
	RevokeReason   string             `json:"revoke_reason,omitempty"`
	Quality        string             `json:"quality,omitempty"`
	Format         string             `json:"format,omitempty"`
	Content        ContentSnapshotDTO `json:"content"`
}

// FetchURLDTO is a download location. ExpiresAt is nil for non-expiring links.
type FetchURLDTO struct {
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// IssueLicenseResult is returned once; LicenseKey is never retrievable again.
type IssueLicenseResult struct {
	LicenseKey string      `json:"license_key"`
	License    LicenseDTO  `json:"license"`
	FetchURL   FetchURLDTO `json:"fetch_url"`
}

type ValidationResult struct {
	Valid       bool        `json:"valid"`
	License     LicenseDTO  `json:"license"`
	ExpiresAt   time.Time   `json:"expires_at"`
	AccessCount int64       `json:"access_count"`
	FetchURL    FetchURLDTO `json:"fetch_url"`
}

type RevokeLicenseResult struct {
	SID          string     `json:"sid"`
	Status       string     `json:"status"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
	RevokeReason string     `json:"revoke_reason"`
	// AlreadyInactive is true when the license was already expired or revoked.
	AlreadyInactive bool `json:"already_inactive"`
}

func ToLicenseDTO(l *license.License) LicenseDTO {
	s := l.Snapshot()
	return LicenseDTO{
		SID:            l.SID(),
		ContentID:      l.ContentID(),
		DeviceID:       l.DeviceID(),
		Status:         l.Status().String(),
		IssuedAt:       l.IssuedAt(),
		ExpiresAt:      l.ExpiresAt(),
		LastAccessedAt: l.LastAccessedAt(),
		AccessCount:    l.AccessCount(),
		RevokedAt:      l.RevokedAt(),
		RevokeReason:   l.RevokeReason(),
		Quality:        l.Quality(),
		Format:         l.Format(),
		Content: ContentSnapshotDTO{
			Title:           s.Title,
			Type:            s.Type,
			DurationSeconds: s.DurationSeconds,
			VideoURL:        s.VideoURL,
			PosterURL:       s.PosterURL,
		},
	}
}

func ToLicenseDTOs(licenses []*license.License) []LicenseDTO {
	out := make([]LicenseDTO, 0, len(licenses))
	for _, l := range licenses {
		out = append(out, ToLicenseDTO(l))
	}
	return out
}

func ToRevokeResult(l *license.License, alreadyInactive bool) *RevokeLicenseResult {
	return &RevokeLicenseResult{
		SID:             l.SID(),
		Status:          l.Status().String(),
		RevokedAt:       l.RevokedAt(),
		RevokeReason:    l.RevokeReason(),
		AlreadyInactive: alreadyInactive,
	}
}
