package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hrshiti/inplay-sub000/internal/application/delivery"
	"github.com/hrshiti/inplay-sub000/internal/application/license/dto"
	"github.com/hrshiti/inplay-sub000/internal/domain/content"
	"github.com/hrshiti/inplay-sub000/internal/domain/license"
	"github.com/hrshiti/inplay-sub000/internal/shared/biztime"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
	"github.com/hrshiti/inplay-sub000/internal/shared/utils"
)

const maxKeyAttempts = 5

type IssueLicenseUseCase struct {
	licenseRepo license.Repository
	contentRepo content.Repository
	resolver    EntitlementResolver
	links       LinkBuilder
	keys        KeyGenerator
	newSID      SIDGenerator
	publisher   license.EventPublisher
	metrics     Metrics
	policy      Policy
	clock       biztime.Clock
	logger      logger.Interface
}

func NewIssueLicenseUseCase(
	licenseRepo license.Repository,
	contentRepo content.Repository,
	resolver EntitlementResolver,
	links LinkBuilder,
	keys KeyGenerator,
	newSID SIDGenerator,
	publisher license.EventPublisher,
	metrics Metrics,
	policy Policy,
	clock biztime.Clock,
	logger logger.Interface,
) *IssueLicenseUseCase {
	return &IssueLicenseUseCase{
		licenseRepo: licenseRepo,
		contentRepo: contentRepo,
		resolver:    resolver,
		links:       links,
		keys:        keys,
		newSID:      newSID,
		publisher:   publisher,
		metrics:     metrics,
		policy:      policy,
		clock:       clock,
		logger:      logger,
	}
}

// Execute issues a device-bound download license. The plaintext key in the
// result is shown only this once.
func (uc *IssueLicenseUseCase) Execute(ctx context.Context, cmd dto.IssueLicenseCommand) (*dto.IssueLicenseResult, error) {
	result, err := uc.execute(ctx, cmd)
	uc.metrics.LicenseIssued(resultLabel(err, "issued"))
	return result, err
}

func (uc *IssueLicenseUseCase) execute(ctx context.Context, cmd dto.IssueLicenseCommand) (*dto.IssueLicenseResult, error) {
	if err := utils.ValidateStruct(cmd); err != nil {
		return nil, err
	}

	res, err := uc.resolver.Resolve(ctx, cmd.UserID, cmd.ContentID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve entitlement: %w", err)
	}

	decision := res.Decision
	if !decision.HasAccess {
		uc.logger.Infow("license issue denied",
			"user_id", cmd.UserID,
			"content_id", cmd.ContentID,
			"access_type", decision.AccessType,
		)
		return nil, license.NewError(license.KindAccessDenied, "", map[string]any{
			"access_type": decision.AccessType.String(),
		})
	}

	c := res.Content
	if !c.IsPaid || !decision.GrantsDownload() {
		uc.logger.Infow("license issue denied, download needs a paid grant",
			"user_id", cmd.UserID,
			"content_id", cmd.ContentID,
			"access_type", decision.AccessType,
		)
		return nil, license.NewError(license.KindAccessDenied, "download_requires_paid_grant", map[string]any{
			"access_type": decision.AccessType.String(),
		})
	}

	locator := c.Asset.LocatorFor(cmd.Quality)
	if locator == "" {
		return nil, license.NewError(license.KindContentUnavailable, "asset_missing", map[string]any{
			"content_id": c.ID,
		})
	}

	now := uc.clock.Now()

	link, err := uc.links.Build(ctx, c.Asset.Host, locator, now.Add(uc.policy.FetchURLExpiry), content.SignOptions{
		ContentDisposition: delivery.DownloadDisposition(c.Title, c.ID),
	})
	if err != nil {
		uc.logger.Errorw("failed to build fetch url", "content_id", c.ID, "error", err)
		return nil, fmt.Errorf("failed to build fetch url: %w", err)
	}

	videoURL := locator
	if link.ExpiresAt == nil {
		videoURL = link.URL
	}
	snapshot := license.SnapshotOf(c, cmd.Quality, videoURL)

	plainKey, l, err := uc.create(ctx, cmd, snapshot, now)
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("download license issued",
		"license_sid", l.SID(),
		"user_id", l.UserID(),
		"content_id", l.ContentID(),
		"device_id", l.DeviceID(),
		"expires_at", l.ExpiresAt(),
	)

	if err := uc.contentRepo.IncrementDownloadCount(ctx, c.ID); err != nil {
		uc.logger.Warnw("failed to increment download count", "content_id", c.ID, "error", err)
	}
	publishEvent(ctx, uc.publisher, uc.logger, license.NewEvent(license.EventIssued, l, now))

	return &dto.IssueLicenseResult{
		LicenseKey: plainKey,
		License:    dto.ToLicenseDTO(l),
		FetchURL:   toFetchURL(link),
	}, nil
}

// create persists a new license, regenerating the key on hash collisions.
func (uc *IssueLicenseUseCase) create(ctx context.Context, cmd dto.IssueLicenseCommand, snapshot license.ContentSnapshot, now time.Time) (string, *license.License, error) {
	for attempt := 1; attempt <= maxKeyAttempts; attempt++ {
		plainKey, keyHash, err := uc.keys.Generate()
		if err != nil {
			return "", nil, fmt.Errorf("failed to generate license key: %w", err)
		}
		sid, err := uc.newSID()
		if err != nil {
			return "", nil, fmt.Errorf("failed to generate license sid: %w", err)
		}

		l, err := license.NewLicense(license.IssueParams{
			SID:       sid,
			KeyHash:   keyHash,
			UserID:    cmd.UserID,
			ContentID: cmd.ContentID,
			DeviceID:  cmd.DeviceID,
			DeviceInfo: license.DeviceInfo{
				UserAgent: cmd.DeviceInfo.UserAgent,
				Platform:  cmd.DeviceInfo.Platform,
				IPAddress: cmd.DeviceInfo.IPAddress,
			},
			Snapshot: snapshot,
			Quality:  cmd.Quality,
			Format:   cmd.Format,
			IssuedAt: now,
			Validity: uc.policy.DownloadExpiry,
		})
		if err != nil {
			return "", nil, fmt.Errorf("failed to build license: %w", err)
		}

		err = uc.licenseRepo.CreateWithinDeviceLimit(ctx, l, uc.policy.MaxDevices, now)
		if errors.Is(err, license.ErrKeyCollision) {
			uc.logger.Warnw("license key collision, regenerating", "attempt", attempt)
			continue
		}
		if err != nil {
			if _, ok := license.KindOf(err); ok {
				uc.logger.Infow("license issue rejected",
					"user_id", cmd.UserID,
					"content_id", cmd.ContentID,
					"device_id", cmd.DeviceID,
					"reason", err.Error(),
				)
				return "", nil, err
			}
			uc.logger.Errorw("failed to persist license", "user_id", cmd.UserID, "content_id", cmd.ContentID, "error", err)
			return "", nil, fmt.Errorf("failed to persist license: %w", err)
		}
		return plainKey, l, nil
	}
	return "", nil, fmt.Errorf("failed to generate a unique license key after %d attempts", maxKeyAttempts)
}
