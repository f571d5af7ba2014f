package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrshiti/inplay-sub000/internal/application/delivery"
	"github.com/hrshiti/inplay-sub000/internal/application/license/dto"
	"github.com/hrshiti/inplay-sub000/internal/domain/content"
	"github.com/hrshiti/inplay-sub000/internal/domain/license"
	"github.com/hrshiti/inplay-sub000/internal/shared/biztime"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
	"github.com/hrshiti/inplay-sub000/internal/shared/utils/logutil"
)

type ValidateLicenseUseCase struct {
	licenseRepo license.Repository
	resolver    EntitlementResolver
	links       LinkBuilder
	keys        KeyGenerator
	publisher   license.EventPublisher
	metrics     Metrics
	policy      Policy
	clock       biztime.Clock
	logger      logger.Interface
}

func NewValidateLicenseUseCase(
	licenseRepo license.Repository,
	resolver EntitlementResolver,
	links LinkBuilder,
	keys KeyGenerator,
	publisher license.EventPublisher,
	metrics Metrics,
	policy Policy,
	clock biztime.Clock,
	logger logger.Interface,
) *ValidateLicenseUseCase {
	return &ValidateLicenseUseCase{
		licenseRepo: licenseRepo,
		resolver:    resolver,
		links:       links,
		keys:        keys,
		publisher:   publisher,
		metrics:     metrics,
		policy:      policy,
		clock:       clock,
		logger:      logger,
	}
}

// Execute checks a presented key on a device. Unknown keys, wrong devices and
// inactive licenses all yield the same ErrInvalidLicense.
func (uc *ValidateLicenseUseCase) Execute(ctx context.Context, cmd dto.ValidateLicenseCommand) (*dto.ValidationResult, error) {
	result, err := uc.execute(ctx, cmd)
	uc.metrics.LicenseValidated(resultLabel(err, "valid"))
	return result, err
}

func (uc *ValidateLicenseUseCase) execute(ctx context.Context, cmd dto.ValidateLicenseCommand) (*dto.ValidationResult, error) {
	key := strings.TrimSpace(cmd.LicenseKey)
	if key == "" || strings.TrimSpace(cmd.DeviceID) == "" {
		return nil, license.ErrInvalidLicense
	}

	l, err := uc.licenseRepo.FindActiveByKeyAndDevice(ctx, uc.keys.Hash(key), cmd.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find license: %w", err)
	}
	if l == nil {
		uc.logger.Infow("license validation failed",
			"license_key", logutil.MaskSecret(key),
			"device_id", cmd.DeviceID,
		)
		return nil, license.ErrInvalidLicense
	}

	now := uc.clock.Now()

	if l.IsExpiredAt(now) {
		if err := uc.terminate(ctx, l, license.EventExpired, func() error { return l.Expire(now) }, now); err != nil {
			return nil, err
		}
		return nil, license.NewError(license.KindExpired, "", map[string]any{
			"expired_at": l.ExpiresAt(),
		})
	}

	res, err := uc.resolver.Resolve(ctx, l.UserID(), l.ContentID())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve entitlement: %w", err)
	}
	if !res.Decision.GrantsDownload() {
		if err := uc.terminate(ctx, l, license.EventRevoked, func() error { return l.Revoke(now, license.ReasonAccessRevoked) }, now); err != nil {
			return nil, err
		}
		return nil, license.NewError(license.KindAccessRevoked, "", map[string]any{
			"access_type": res.Decision.AccessType.String(),
		})
	}

	count, err := uc.licenseRepo.IncrementAccess(ctx, l.ID(), now)
	if err != nil {
		return nil, fmt.Errorf("failed to record license access: %w", err)
	}
	if err := l.RecordAccess(now, count); err != nil {
		return nil, err
	}

	uc.checkAbuse(ctx, l, now)

	return &dto.ValidationResult{
		Valid:       true,
		License:     dto.ToLicenseDTO(l),
		ExpiresAt:   l.ExpiresAt(),
		AccessCount: l.AccessCount(),
		FetchURL:    uc.fetchURL(ctx, l, now),
	}, nil
}

// terminate applies a lifecycle transition and persists it. Only the call
// that actually performed the transition publishes the event.
func (uc *ValidateLicenseUseCase) terminate(ctx context.Context, l *license.License, eventType license.EventType, transition func() error, now time.Time) error {
	if err := transition(); err != nil {
		return err
	}
	changed, err := uc.licenseRepo.UpdateLifecycle(ctx, l)
	if err != nil {
		return fmt.Errorf("failed to persist license state: %w", err)
	}
	if changed {
		uc.logger.Infow("license deactivated during validation",
			"license_sid", l.SID(),
			"status", l.Status(),
			"reason", l.RevokeReason(),
		)
		publishEvent(ctx, uc.publisher, uc.logger, license.NewEvent(eventType, l, now))
	}
	return nil
}

func (uc *ValidateLicenseUseCase) checkAbuse(ctx context.Context, l *license.License, now time.Time) {
	if !l.ExceedsAccessThreshold(uc.policy.AccessCountThreshold) || !l.FlagAbuse(now) {
		return
	}

	uc.logger.Warnw("license access count above threshold",
		"license_sid", l.SID(),
		"user_id", l.UserID(),
		"device_id", l.DeviceID(),
		"access_count", l.AccessCount(),
		"threshold", uc.policy.AccessCountThreshold,
	)
	uc.metrics.AbuseFlagged()

	if err := uc.licenseRepo.MarkAbuseFlagged(ctx, l.ID(), now); err != nil {
		uc.logger.Errorw("failed to persist abuse flag", "license_sid", l.SID(), "error", err)
		return
	}
	publishEvent(ctx, uc.publisher, uc.logger, license.NewEvent(license.EventAbuseFlagged, l, now))
}

// fetchURL derives a fresh download link for the frozen asset. A failure here
// does not invalidate an otherwise valid license.
func (uc *ValidateLicenseUseCase) fetchURL(ctx context.Context, l *license.License, now time.Time) dto.FetchURLDTO {
	snap := l.Snapshot()
	if snap.AssetLocator == "" {
		return dto.FetchURLDTO{URL: snap.VideoURL}
	}

	link, err := uc.links.Build(ctx, snap.AssetHost, snap.AssetLocator, now.Add(uc.policy.FetchURLExpiry), content.SignOptions{
		ContentDisposition: delivery.DownloadDisposition(snap.Title, l.ContentID()),
	})
	if err != nil {
		uc.logger.Warnw("failed to build fetch url for valid license", "license_sid", l.SID(), "error", err)
		return dto.FetchURLDTO{}
	}
	return toFetchURL(link)
}
