// Package content holds the read model of media items as seen by the
// entitlement subsystem. Content is owned by the catalog service.
package content

import "time"

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// AssetHost says where the media bytes live.
type AssetHost string

const (
	// AssetHostLocal assets are served by this platform's media endpoint.
	AssetHostLocal AssetHost = "local"
	// AssetHostRemote assets live in object storage and need signed URLs.
	AssetHostRemote AssetHost = "remote"
)

func (h AssetHost) IsValid() bool {
	return h == AssetHostLocal || h == AssetHostRemote
}

// Asset locates the playable media for a content item.
type Asset struct {
	Host            AssetHost
	Locator         string
	DurationSeconds int
	// Renditions maps a quality label (e.g. "720p") to its own locator.
	Renditions map[string]string
}

// LocatorFor returns the rendition locator for quality, falling back to the primary locator.
func (a Asset) LocatorFor(quality string) string {
	if quality != "" {
		if loc, ok := a.Renditions[quality]; ok && loc != "" {
			return loc
		}
	}
	return a.Locator
}

func (a Asset) Available() bool {
	return a.Locator != ""
}

type Content struct {
	ID            string
	Title         string
	Type          string
	Status        Status
	IsPaid        bool
	Asset         Asset
	PosterURL     string
	DownloadCount int64
	ViewCount     int64
	UpdatedAt     time.Time
}

func (c *Content) IsPublished() bool {
	return c.Status == StatusPublished
}
