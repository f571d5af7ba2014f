package usecases

import (
	"context"
	"fmt"

	"github.com/hrshiti/inplay-sub000/internal/domain/license"
	"github.com/hrshiti/inplay-sub000/internal/shared/biztime"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
)

// ExpireLicensesUseCase moves licenses past their expiry into the expired
// state. Validation expires licenses lazily as well; this job keeps listings
// and device counts accurate for licenses nobody validates.
type ExpireLicensesUseCase struct {
	licenseRepo license.Repository
	publisher   license.EventPublisher
	metrics     Metrics
	batchSize   int
	clock       biztime.Clock
	logger      logger.Interface
}

func NewExpireLicensesUseCase(
	licenseRepo license.Repository,
	publisher license.EventPublisher,
	metrics Metrics,
	batchSize int,
	clock biztime.Clock,
	logger logger.Interface,
) *ExpireLicensesUseCase {
	if batchSize <= 0 {
		batchSize = DefaultPolicy().SweepBatchSize
	}
	return &ExpireLicensesUseCase{
		licenseRepo: licenseRepo,
		publisher:   publisher,
		metrics:     metrics,
		batchSize:   batchSize,
		clock:       clock,
		logger:      logger,
	}
}

// Execute expires every overdue active license and returns how many it
// changed. Running it again with nothing overdue changes nothing.
func (uc *ExpireLicensesUseCase) Execute(ctx context.Context) (int, error) {
	now := uc.clock.Now()
	total := 0

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		batch, err := uc.licenseRepo.FindExpiredActive(ctx, now, uc.batchSize)
		if err != nil {
			return total, fmt.Errorf("failed to find expired licenses: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		ids := make([]uint, 0, len(batch))
		for _, l := range batch {
			if err := l.Expire(now); err != nil {
				uc.logger.Warnw("skipping license that is not expired", "license_sid", l.SID(), "error", err)
				continue
			}
			ids = append(ids, l.ID())
		}
		if len(ids) == 0 {
			break
		}

		expiredIDs, err := uc.licenseRepo.ExpireBatch(ctx, ids, now)
		if err != nil {
			return total, fmt.Errorf("failed to expire licenses: %w", err)
		}
		total += len(expiredIDs)
		uc.metrics.LicensesExpired(len(expiredIDs))

		// rows a concurrent revoke or validate already closed get no event here
		changed := make(map[uint]struct{}, len(expiredIDs))
		for _, id := range expiredIDs {
			changed[id] = struct{}{}
		}
		for _, l := range batch {
			if _, ok := changed[l.ID()]; ok {
				publishEvent(ctx, uc.publisher, uc.logger, license.NewEvent(license.EventExpired, l, now))
			}
		}

		if len(batch) < uc.batchSize {
			break
		}
	}

	if total > 0 {
		uc.logger.Infow("expired download licenses", "count", total)
	}
	return total, nil
}
