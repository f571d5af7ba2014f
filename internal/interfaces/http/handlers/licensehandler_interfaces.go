package handlers

import (
	"context"

	"github.com/hrshiti/inplay-sub000/internal/application/license/dto"
)

type licenseService interface {
	Issue(ctx context.Context, cmd dto.IssueLicenseCommand) (*dto.IssueLicenseResult, error)
	Validate(ctx context.Context, cmd dto.ValidateLicenseCommand) (*dto.ValidationResult, error)
	Revoke(ctx context.Context, cmd dto.RevokeLicenseCommand) (*dto.RevokeLicenseResult, error)
	RevokeBySID(ctx context.Context, cmd dto.RevokeLicenseBySIDCommand) (*dto.RevokeLicenseResult, error)
	ListActive(ctx context.Context, userID string) ([]dto.LicenseDTO, error)
}
