// Package delivery turns asset locators into URLs a client can fetch.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hrshiti/inplay-sub000/internal/domain/content"
)

// ErrSignerUnavailable is returned for remote assets when no storage signer is configured.
var ErrSignerUnavailable = errors.New("remote asset signing is not configured")

// Link is a fetchable URL. ExpiresAt is nil for links that never expire.
type Link struct {
	URL       string
	ExpiresAt *time.Time
}

// ExpiresInSeconds returns the remaining lifetime at now, or 0 for non-expiring links.
func (l Link) ExpiresInSeconds(now time.Time) int64 {
	if l.ExpiresAt == nil {
		return 0
	}
	secs := int64(l.ExpiresAt.Sub(now) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

type LinkBuilder struct {
	signer       content.URLSigner
	localBaseURL string
}

// NewLinkBuilder creates a builder. signer may be nil when every asset is local.
func NewLinkBuilder(signer content.URLSigner, localBaseURL string) *LinkBuilder {
	return &LinkBuilder{
		signer:       signer,
		localBaseURL: strings.TrimRight(localBaseURL, "/"),
	}
}

// Build returns a URL for locator. Remote assets are signed to expire at
// expiresAt. Local assets resolve against the media base URL and do not expire.
func (b *LinkBuilder) Build(ctx context.Context, host content.AssetHost, locator string, expiresAt time.Time, opts content.SignOptions) (Link, error) {
	if locator == "" {
		return Link{}, fmt.Errorf("empty asset locator")
	}

	if host != content.AssetHostRemote {
		return Link{URL: b.localURL(locator)}, nil
	}

	if b.signer == nil {
		return Link{}, ErrSignerUnavailable
	}
	signed, err := b.signer.Sign(ctx, locator, expiresAt, opts)
	if err != nil {
		return Link{}, fmt.Errorf("failed to sign asset url: %w", err)
	}
	at := expiresAt
	return Link{URL: signed, ExpiresAt: &at}, nil
}

func (b *LinkBuilder) localURL(locator string) string {
	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		return locator
	}
	return b.localBaseURL + "/" + strings.TrimLeft(locator, "/")
}

// DownloadDisposition builds an attachment header value for a download of title.
func DownloadDisposition(title, contentID string) string {
	name := sanitizeFilename(title)
	if name == "" {
		name = contentID
	}
	return fmt.Sprintf("attachment; filename=%q", name+".mp4")
}

func sanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	return b.String()
}
