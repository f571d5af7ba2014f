// Package license exposes the download license operations to the transport layer.
package license

import (
	"context"

	"github.com/hrshiti/inplay-sub000/internal/application/license/dto"
	"github.com/hrshiti/inplay-sub000/internal/application/license/usecases"
	"github.com/hrshiti/inplay-sub000/internal/domain/content"
	"github.com/hrshiti/inplay-sub000/internal/domain/license"
	"github.com/hrshiti/inplay-sub000/internal/shared/biztime"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
)

// Dependencies groups the ports the license service is built from.
type Dependencies struct {
	LicenseRepo license.Repository
	ContentRepo content.Repository
	Resolver    usecases.EntitlementResolver
	Links       usecases.LinkBuilder
	Keys        usecases.KeyGenerator
	NewSID      usecases.SIDGenerator
	Publisher   license.EventPublisher
	Metrics     usecases.Metrics
	Policy      usecases.Policy
	Clock       biztime.Clock
	Logger      logger.Interface
}

type ServiceImpl struct {
	issue    *usecases.IssueLicenseUseCase
	validate *usecases.ValidateLicenseUseCase
	revoke   *usecases.RevokeLicenseUseCase
	list     *usecases.ListActiveLicensesUseCase
	expire   *usecases.ExpireLicensesUseCase
}

func NewService(d Dependencies) *ServiceImpl {
	if d.Metrics == nil {
		d.Metrics = usecases.NopMetrics{}
	}
	if d.Clock == nil {
		d.Clock = biztime.SystemClock{}
	}
	log := d.Logger.With("component", "license.service")

	return &ServiceImpl{
		issue: usecases.NewIssueLicenseUseCase(
			d.LicenseRepo, d.ContentRepo, d.Resolver, d.Links, d.Keys, d.NewSID,
			d.Publisher, d.Metrics, d.Policy, d.Clock, log,
		),
		validate: usecases.NewValidateLicenseUseCase(
			d.LicenseRepo, d.Resolver, d.Links, d.Keys, d.Publisher, d.Metrics, d.Policy, d.Clock, log,
		),
		revoke: usecases.NewRevokeLicenseUseCase(d.LicenseRepo, d.Keys, d.Publisher, d.Metrics, d.Clock, log),
		list:   usecases.NewListActiveLicensesUseCase(d.LicenseRepo, d.Clock, log),
		expire: usecases.NewExpireLicensesUseCase(d.LicenseRepo, d.Publisher, d.Metrics, d.Policy.SweepBatchSize, d.Clock, log),
	}
}

func (s *ServiceImpl) Issue(ctx context.Context, cmd dto.IssueLicenseCommand) (*dto.IssueLicenseResult, error) {
	return s.issue.Execute(ctx, cmd)
}

func (s *ServiceImpl) Validate(ctx context.Context, cmd dto.ValidateLicenseCommand) (*dto.ValidationResult, error) {
	return s.validate.Execute(ctx, cmd)
}

func (s *ServiceImpl) Revoke(ctx context.Context, cmd dto.RevokeLicenseCommand) (*dto.RevokeLicenseResult, error) {
	return s.revoke.Execute(ctx, cmd)
}

func (s *ServiceImpl) RevokeBySID(ctx context.Context, cmd dto.RevokeLicenseBySIDCommand) (*dto.RevokeLicenseResult, error) {
	return s.revoke.ExecuteBySID(ctx, cmd)
}

func (s *ServiceImpl) ListActive(ctx context.Context, userID string) ([]dto.LicenseDTO, error) {
	return s.list.Execute(ctx, userID)
}

func (s *ServiceImpl) ExpireLicenses(ctx context.Context) (int, error) {
	return s.expire.Execute(ctx)
}

// ExpireJob returns the sweep as a schedulable batch job.
func (s *ServiceImpl) ExpireJob() *usecases.ExpireLicensesUseCase {
	return s.expire
}
