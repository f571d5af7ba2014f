package usecases

import (
	"context"
	"fmt"

	"github.com/hrshiti/inplay-sub000/internal/application/license/dto"
	"github.com/hrshiti/inplay-sub000/internal/domain/license"
	"github.com/hrshiti/inplay-sub000/internal/shared/biztime"
	"github.com/hrshiti/inplay-sub000/internal/shared/errors"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
)

type ListActiveLicensesUseCase struct {
	licenseRepo license.Repository
	clock       biztime.Clock
	logger      logger.Interface
}

func NewListActiveLicensesUseCase(licenseRepo license.Repository, clock biztime.Clock, logger logger.Interface) *ListActiveLicensesUseCase {
	return &ListActiveLicensesUseCase{
		licenseRepo: licenseRepo,
		clock:       clock,
		logger:      logger,
	}
}

// Execute lists the user's usable licenses, newest first.
func (uc *ListActiveLicensesUseCase) Execute(ctx context.Context, userID string) ([]dto.LicenseDTO, error) {
	if userID == "" {
		return nil, errors.NewValidationError("user ID is required")
	}

	licenses, err := uc.licenseRepo.ListActiveByUser(ctx, userID, uc.clock.Now())
	if err != nil {
		uc.logger.Errorw("failed to list active licenses", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list active licenses: %w", err)
	}
	return dto.ToLicenseDTOs(licenses), nil
}
