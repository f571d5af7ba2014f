package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/hrshiti/inplay-sub000/internal/infrastructure/migration"
	"github.com/hrshiti/inplay-sub000/internal/interfaces/cli/common"
	httpRouter "github.com/hrshiti/inplay-sub000/internal/interfaces/http"
	"github.com/hrshiti/inplay-sub000/internal/shared/version"
)

var (
	env           string
	autoMigrate   bool
	withScheduler bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the InPlay API server serving download licenses and stream URLs.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Run database migrations on startup")
	cmd.Flags().BoolVar(&withScheduler, "scheduler", true, "Run the license expiry sweep in this process")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	rt, err := common.Bootstrap(common.ResolveEnv(env))
	if err != nil {
		return err
	}
	defer rt.Close()

	log := rt.Log
	cfg := rt.Cfg
	log.Infow("starting server",
		"version", version.Current().Version,
		"environment", rt.Env,
		"auto_migrate", autoMigrate,
		"scheduler", withScheduler,
	)

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {}

	if autoMigrate || cfg.Database.AutoMigrate {
		if err := migration.NewManager(cfg.Database, log).Migrate(rt.DB); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	container, err := httpRouter.NewContainer(cfg, rt.DB, rt.Redis, log)
	if err != nil {
		return err
	}
	defer container.Shutdown()

	if withScheduler {
		if err := container.StartScheduler(); err != nil {
			return err
		}
	}

	router := httpRouter.NewRouter(container)
	router.SetupRoutes()

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infow("server starting", "address", cfg.Server.GetAddr(), "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	case sig := <-quit:
		log.Infow("shutting down server", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Infow("server exited gracefully")
	return nil
}
