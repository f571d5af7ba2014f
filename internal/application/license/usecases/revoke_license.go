package usecases

import (
	"context"
	stderrors "errors"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hrshiti/inplay-sub000/internal/application/license/dto"
	"github.com/hrshiti/inplay-sub000/internal/domain/license"
	"github.com/hrshiti/inplay-sub000/internal/shared/biztime"
	"github.com/hrshiti/inplay-sub000/internal/shared/errors"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
	"github.com/hrshiti/inplay-sub000/internal/shared/utils"
)

// RevokeLicenseUseCase lets an owner deactivate one of their licenses.
type RevokeLicenseUseCase struct {
	licenseRepo license.Repository
	keys        KeyGenerator
	publisher   license.EventPublisher
	metrics     Metrics
	policy      *bluemonday.Policy
	clock       biztime.Clock
	logger      logger.Interface
}

func NewRevokeLicenseUseCase(
	licenseRepo license.Repository,
	keys KeyGenerator,
	publisher license.EventPublisher,
	metrics Metrics,
	clock biztime.Clock,
	logger logger.Interface,
) *RevokeLicenseUseCase {
	return &RevokeLicenseUseCase{
		licenseRepo: licenseRepo,
		keys:        keys,
		publisher:   publisher,
		metrics:     metrics,
		policy:      bluemonday.StrictPolicy(),
		clock:       clock,
		logger:      logger,
	}
}

// Execute revokes the license identified by its key.
func (uc *RevokeLicenseUseCase) Execute(ctx context.Context, cmd dto.RevokeLicenseCommand) (*dto.RevokeLicenseResult, error) {
	if err := utils.ValidateStruct(cmd); err != nil {
		return nil, err
	}

	l, err := uc.licenseRepo.GetByKeyHash(ctx, uc.keys.Hash(strings.TrimSpace(cmd.LicenseKey)))
	if err != nil {
		return nil, fmt.Errorf("failed to find license: %w", err)
	}
	return uc.revoke(ctx, l, cmd.UserID, cmd.Reason, "key")
}

// ExecuteBySID revokes the license identified by its public id.
func (uc *RevokeLicenseUseCase) ExecuteBySID(ctx context.Context, cmd dto.RevokeLicenseBySIDCommand) (*dto.RevokeLicenseResult, error) {
	if err := utils.ValidateStruct(cmd); err != nil {
		return nil, err
	}

	l, err := uc.licenseRepo.GetBySID(ctx, cmd.SID)
	if err != nil {
		return nil, fmt.Errorf("failed to find license: %w", err)
	}
	return uc.revoke(ctx, l, cmd.UserID, cmd.Reason, "sid")
}

func (uc *RevokeLicenseUseCase) revoke(ctx context.Context, l *license.License, userID, reason, by string) (*dto.RevokeLicenseResult, error) {
	// Another user's license is reported exactly like a missing one.
	if l == nil || l.UserID() != userID {
		return nil, license.ErrNotFound
	}

	if !l.IsActive() {
		return dto.ToRevokeResult(l, true), nil
	}

	now := uc.clock.Now()
	if err := l.Revoke(now, uc.sanitizeReason(reason)); err != nil {
		if stderrors.Is(err, license.ErrReservedReason) {
			return nil, errors.NewValidationError("revoke reason is reserved", err.Error())
		}
		return nil, err
	}

	changed, err := uc.licenseRepo.UpdateLifecycle(ctx, l)
	if err != nil {
		uc.logger.Errorw("failed to persist revocation", "license_sid", l.SID(), "error", err)
		return nil, fmt.Errorf("failed to revoke license: %w", err)
	}
	if !changed {
		// Lost a race with the sweeper or another revoke; report the stored state.
		current, err := uc.licenseRepo.GetBySID(ctx, l.SID())
		if err != nil {
			return nil, fmt.Errorf("failed to reload license: %w", err)
		}
		if current == nil {
			return nil, license.ErrNotFound
		}
		return dto.ToRevokeResult(current, true), nil
	}

	uc.metrics.LicenseRevoked(by)
	uc.logger.Infow("download license revoked",
		"license_sid", l.SID(),
		"user_id", l.UserID(),
		"reason", l.RevokeReason(),
	)
	publishEvent(ctx, uc.publisher, uc.logger, license.NewEvent(license.EventRevoked, l, now))

	return dto.ToRevokeResult(l, false), nil
}

// sanitizeReason strips markup from a caller-supplied reason and keeps the
// remaining text unescaped. Empty input falls through to the default reason
// in the aggregate.
func (uc *RevokeLicenseUseCase) sanitizeReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(uc.policy.Sanitize(reason)))
}
