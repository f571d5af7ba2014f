package http

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/hrshiti/inplay-sub000/internal/application/delivery"
	entitlementApp "github.com/hrshiti/inplay-sub000/internal/application/entitlement"
	licenseApp "github.com/hrshiti/inplay-sub000/internal/application/license"
	licenseUsecases "github.com/hrshiti/inplay-sub000/internal/application/license/usecases"
	streamingUsecases "github.com/hrshiti/inplay-sub000/internal/application/streaming/usecases"
	"github.com/hrshiti/inplay-sub000/internal/domain/content"
	"github.com/hrshiti/inplay-sub000/internal/domain/license"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/auth"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/cache"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/config"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/metrics"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/pubsub"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/ratelimit"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/repository"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/scheduler"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/storage"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/token"
	"github.com/hrshiti/inplay-sub000/internal/shared/biztime"
	"github.com/hrshiti/inplay-sub000/internal/shared/id"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
)

const (
	jobLockPrefix   = "inplay:lock:"
	rateLimitPrefix = "inplay:ratelimit:"
)

// Container wires infrastructure, repositories and application services.
// The API server, the worker and the one-shot sweep all build one.
type Container struct {
	cfg   *config.Config
	db    *gorm.DB
	redis *redis.Client
	log   logger.Interface
	clock biztime.Clock

	metrics   *metrics.Metrics
	jwt       *auth.JWTService
	publisher license.EventPublisher
	limiter   ratelimit.RateLimiter

	licenseService *licenseApp.ServiceImpl
	getStreamURLUC *streamingUsecases.GetStreamURLUseCase
	scheduler      *scheduler.SchedulerManager
}

// NewContainer builds every component. redisClient may be nil, in which case
// events are only logged and the sweep and rate limits run without Redis.
func NewContainer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log logger.Interface) (*Container, error) {
	c := &Container{
		cfg:     cfg,
		db:      db,
		redis:   redisClient,
		log:     log,
		clock:   biztime.SystemClock{},
		metrics: metrics.New(),
		jwt:     auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.AccessExpMinutes),
	}

	if redisClient != nil {
		c.publisher = pubsub.NewRedisLicenseEventBus(redisClient, log.Named("events"))
		c.limiter = ratelimit.NewRedisRateLimiter(redisClient, rateLimitPrefix)
	} else {
		c.publisher = pubsub.NewLogEventPublisher(log.Named("events"))
	}

	signer, err := c.newSigner()
	if err != nil {
		return nil, err
	}
	links := delivery.NewLinkBuilder(signer, cfg.Streaming.LocalBaseURL)

	licenseRepo := repository.NewLicenseRepository(db, log)
	contentRepo := repository.NewContentRepository(db, log)
	userRepo := repository.NewUserRepository(db, log)
	purchaseRepo := repository.NewPurchaseRepository(db)
	historyRepo := repository.NewWatchHistoryRepository(db)

	resolver := entitlementApp.NewResolver(contentRepo, userRepo, purchaseRepo, c.clock, log.Named("entitlement"))

	c.licenseService = licenseApp.NewService(licenseApp.Dependencies{
		LicenseRepo: licenseRepo,
		ContentRepo: contentRepo,
		Resolver:    resolver,
		Links:       links,
		Keys:        token.NewLicenseKeyGenerator(),
		NewSID:      id.NewLicenseSID,
		Publisher:   c.publisher,
		Metrics:     c.metrics,
		Policy: licenseUsecases.Policy{
			DownloadExpiry:       cfg.License.DownloadExpiry(),
			FetchURLExpiry:       cfg.License.FetchURLExpiry(),
			MaxDevices:           cfg.License.MaxDevices,
			AccessCountThreshold: cfg.License.AccessCountThreshold,
			SweepBatchSize:       cfg.License.SweepBatchSize,
		},
		Clock:  c.clock,
		Logger: log,
	})

	c.getStreamURLUC = streamingUsecases.NewGetStreamURLUseCase(
		resolver, links, contentRepo, historyRepo, c.metrics,
		cfg.Streaming.Expiry(), c.clock, log.Named("streaming"),
	)

	var lock scheduler.JobLock
	if redisClient != nil {
		lock = cache.NewRedisJobLock(redisClient, jobLockPrefix, cfg.License.SweepLockTTL)
	}
	c.scheduler, err = scheduler.NewSchedulerManager(log.Named("scheduler"), lock)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return c, nil
}

func (c *Container) newSigner() (content.URLSigner, error) {
	if !c.cfg.Storage.Configured() {
		c.log.Warnw("object storage not configured, remote assets cannot be signed")
		return nil, nil
	}
	signer, err := storage.NewMinioSigner(c.cfg.Storage, c.clock)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage signer: %w", err)
	}
	return signer, nil
}

func (c *Container) LicenseService() *licenseApp.ServiceImpl {
	return c.licenseService
}

func (c *Container) Scheduler() *scheduler.SchedulerManager {
	return c.scheduler
}

func (c *Container) Metrics() *metrics.Metrics {
	return c.metrics
}

// StartScheduler registers the license sweep and starts the scheduler.
func (c *Container) StartScheduler() error {
	if err := c.scheduler.RegisterLicenseSweepJob(
		c.licenseService.ExpireJob(),
		c.cfg.License.SweepInterval,
		c.cfg.License.SweepLockTTL,
	); err != nil {
		return fmt.Errorf("failed to register license sweep: %w", err)
	}
	c.scheduler.Start()
	return nil
}

// SweepOnce runs a single locked expiry sweep and returns the expired count.
func (c *Container) SweepOnce(ctx context.Context) int {
	return c.scheduler.RunLocked(ctx, scheduler.LicenseSweepJobName, c.licenseService.ExpireJob())
}

// Shutdown stops background work. Connections are closed by their owners.
func (c *Container) Shutdown() {
	if err := c.scheduler.Stop(); err != nil {
		c.log.Warnw("failed to stop scheduler", "error", err)
	}
}
