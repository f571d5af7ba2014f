package usecases

import (
	"context"
	"time"

	"github.com/hrshiti/inplay-sub000/internal/application/delivery"
	"github.com/hrshiti/inplay-sub000/internal/application/entitlement"
	"github.com/hrshiti/inplay-sub000/internal/domain/content"
)

type EntitlementResolver interface {
	Resolve(ctx context.Context, userID, contentID string) (*entitlement.Resolution, error)
}

type LinkBuilder interface {
	Build(ctx context.Context, host content.AssetHost, locator string, expiresAt time.Time, opts content.SignOptions) (delivery.Link, error)
}

// KeyGenerator creates license keys and hashes presented keys for lookup.
type KeyGenerator interface {
	Generate() (plain string, hash string, err error)
	Hash(plain string) string
}

// SIDGenerator returns a new public license identifier.
type SIDGenerator func() (string, error)

// Metrics receives license activity counters.
type Metrics interface {
	LicenseIssued(result string)
	LicenseValidated(result string)
	LicenseRevoked(by string)
	LicensesExpired(n int)
	AbuseFlagged()
}

type NopMetrics struct{}

func (NopMetrics) LicenseIssued(string)    {}
func (NopMetrics) LicenseValidated(string) {}
func (NopMetrics) LicenseRevoked(string)   {}
func (NopMetrics) LicensesExpired(int)     {}
func (NopMetrics) AbuseFlagged()           {}

// Policy holds the tunable license limits.
type Policy struct {
	DownloadExpiry       time.Duration
	FetchURLExpiry       time.Duration
	MaxDevices           int
	AccessCountThreshold int64
	SweepBatchSize       int
}

func DefaultPolicy() Policy {
	return Policy{
		DownloadExpiry:       30 * 24 * time.Hour,
		FetchURLExpiry:       24 * time.Hour,
		MaxDevices:           3,
		AccessCountThreshold: 1000,
		SweepBatchSize:       500,
	}
}
