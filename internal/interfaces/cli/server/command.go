// Package server implements the "server" command.
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

	"photopick/internal/infrastructure/migration"
	"photopick/internal/infrastructure/ratelimit"
	"photopick/internal/infrastructure/scheduler"
	"photopick/internal/interfaces/cli/bootstrap"
	httpRouter "photopick/internal/interfaces/http"
	"photopick/internal/interfaces/http/handlers"
	"photopick/internal/interfaces/http/middleware"
	"photopick/internal/interfaces/http/routes"
	"photopick/internal/shared/biztime"
	"photopick/internal/shared/goroutine"
)

const shutdownTimeout = 30 * time.Second

func NewCommand(opts *bootstrap.Options) *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the upload API together with the orphan sweeper and drift report jobs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, autoMigrate)
		},
	}

	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Run pending migrations on startup (sqlite always migrates)")
	return cmd
}

func run(ctx context.Context, opts *bootstrap.Options, autoMigrate bool) error {
	if envVar := os.Getenv("ENV"); envVar != "" && opts.Env == "" {
		opts.Env = envVar
	}

	cfg, log, err := bootstrap.LoadConfig(opts)
	if err != nil {
		return err
	}
	cfg.Server.Mode = mapEnvToGinMode(cfg.Server.Mode)

	log.Infow("starting server",
		"environment", opts.Env,
		"database", cfg.Database.Driver,
		"storage", cfg.Storage.Driver,
		"auto_migrate", autoMigrate)

	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(string, string, string, int) {}

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := handleMigrations(app, autoMigrate); err != nil {
		return fmt.Errorf("migration handling failed: %w", err)
	}

	sched, err := startScheduler(app)
	if err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Errorw("failed to stop scheduler", "error", err)
		}
	}()

	router := httpRouter.NewRouter(httpRouter.RouterConfig{
		Mode:           cfg.Server.Mode,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Quota: &routes.QuotaRouteConfig{
			LedgerHandler: handlers.NewLedgerHandler(app.Ledger, biztime.SystemClock, log.Named("http")),
			UploadHandler: handlers.NewUploadHandler(app.Uploads, cfg.Quota.MaxUploadBytes, log.Named("http")),
			UploadLimit:   uploadLimit(app),
		},
		Checks: healthChecks(app),
		Logger: log.Named("http"),
	})

	srv := &http.Server{
		Addr:              cfg.Server.GetAddr(),
		Handler:           router.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	goroutine.SafeGo(log, "http-server", func() {
		log.Infow("server starting", "address", srv.Addr, "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	}

	log.Infow("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Infow("server exited gracefully")
	return nil
}

func handleMigrations(app *bootstrap.App, autoMigrate bool) error {
	m, err := migration.NewManager(app.Config.Database.Driver, app.Logger)
	if err != nil {
		return err
	}

	if autoMigrate || app.Config.Database.Driver == "sqlite" {
		if app.Config.Server.Mode == gin.ReleaseMode && app.Config.Database.Driver != "sqlite" {
			app.Logger.Warnw("auto-migration is enabled in release mode")
		}
		return m.Migrate(app.DB)
	}

	version, err := m.Version(app.DB)
	if err != nil {
		app.Logger.Warnw("failed to check migration status", "error", err)
		return nil
	}
	app.Logger.Infow("current migration version", "version", version)
	return nil
}

func startScheduler(app *bootstrap.App) (*scheduler.SchedulerManager, error) {
	sched, err := scheduler.NewSchedulerManager(app.Logger.Named("scheduler"))
	if err != nil {
		return nil, err
	}

	sweeper := app.Config.Sweeper
	if sweeper.Enabled && sweeper.Interval > 0 {
		if err := sched.RegisterOrphanSweepJob(app.Sweeper, sweeper.Interval, sweeper.BatchSize); err != nil {
			return nil, err
		}
	}
	if sweeper.DriftReportInterval > 0 {
		if err := sched.RegisterDriftReportJob(app.Ledger, sweeper.DriftReportInterval); err != nil {
			return nil, err
		}
	}

	sched.Start()
	return sched, nil
}

func uploadLimit(app *bootstrap.App) gin.HandlerFunc {
	cfg := ratelimit.Config{
		PerMinute: app.Config.RateLimit.UploadsPerMinute,
		PerHour:   app.Config.RateLimit.UploadsPerHour,
	}
	if app.Redis == nil || !cfg.Enabled() {
		return nil
	}
	return middleware.UploadRateLimit(ratelimit.NewRedisRateLimiter(app.Redis), cfg, app.Logger.Named("ratelimit"))
}

func healthChecks(app *bootstrap.App) map[string]httpRouter.HealthCheck {
	checks := map[string]httpRouter.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := app.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if app.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		}
	}
	return checks
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return gin.ReleaseMode
	case "test", "testing":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
