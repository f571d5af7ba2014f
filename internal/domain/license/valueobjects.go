package license

import "github.com/hrshiti/inplay-sub000/internal/domain/content"

// DeviceInfo is advisory metadata captured at issuance. It is never used for matching.
type DeviceInfo struct {
	UserAgent string `json:"user_agent,omitempty"`
	Platform  string `json:"platform,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
}

// ContentSnapshot freezes the content metadata at issuance. Later catalog
// edits do not change what an issued license describes.
type ContentSnapshot struct {
	Title           string            `json:"title"`
	Type            string            `json:"type"`
	DurationSeconds int               `json:"duration_seconds"`
	VideoURL        string            `json:"video_url"`
	PosterURL       string            `json:"poster_url,omitempty"`
	AssetHost       content.AssetHost `json:"asset_host"`
	AssetLocator    string            `json:"asset_locator"`
}

// SnapshotOf captures c for quality, resolving the rendition locator.
func SnapshotOf(c *content.Content, quality, videoURL string) ContentSnapshot {
	return ContentSnapshot{
		Title:           c.Title,
		Type:            c.Type,
		DurationSeconds: c.Asset.DurationSeconds,
		VideoURL:        videoURL,
		PosterURL:       c.PosterURL,
		AssetHost:       c.Asset.Host,
		AssetLocator:    c.Asset.LocatorFor(quality),
	}
}
