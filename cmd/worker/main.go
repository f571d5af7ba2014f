package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hrshiti/inplay-sub000/internal/infrastructure/pubsub"
	"github.com/hrshiti/inplay-sub000/internal/interfaces/cli/common"
	httpRouter "github.com/hrshiti/inplay-sub000/internal/interfaces/http"
	"github.com/hrshiti/inplay-sub000/internal/shared/goroutine"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
)

func main() {
	env := "development"
	if len(os.Args) > 1 {
		env = os.Args[1]
	}

	if err := run(common.ResolveEnv(env)); err != nil {
		fmt.Fprintf(os.Stderr, "worker failed: %v\n", err)
		os.Exit(1)
	}
}

func run(env string) error {
	rt, err := common.Bootstrap(env)
	if err != nil {
		return err
	}
	defer rt.Close()

	log := rt.Log
	log.Infow("starting license worker", "environment", env)

	container, err := httpRouter.NewContainer(rt.Cfg, rt.DB, rt.Redis, log)
	if err != nil {
		return err
	}
	defer container.Shutdown()

	if err := container.StartScheduler(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if rt.Redis != nil {
		bus := pubsub.NewRedisLicenseEventBus(rt.Redis, log.Named("events"))
		audit := log.Named("audit")
		goroutine.SafeGo(log, "license-event-audit", func() {
			err := bus.Subscribe(ctx, auditHandler(audit))
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Errorw("license event subscription ended", "error", err)
			}
		})
	} else {
		log.Warnw("redis disabled, license events are not audited by the worker")
	}

	log.Infow("license worker started", "sweep_interval", rt.Cfg.License.SweepInterval.String())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Infow("received signal, shutting down", "signal", sig.String())
	return nil
}

func auditHandler(log logger.Interface) pubsub.LicenseEventHandler {
	return func(ctx context.Context, msg pubsub.LicenseEventMessage) {
		log.Infow("license event",
			"event_id", msg.ID,
			"source", msg.Source,
			"type", msg.Event.Type,
			"license_sid", msg.Event.LicenseSID,
			"user_id", msg.Event.UserID,
			"content_id", msg.Event.ContentID,
			"device_id", msg.Event.DeviceID,
			"reason", msg.Event.Reason,
			"occurred_at", msg.Event.OccurredAt,
		)
	}
}
