// Package bootstrap wires configuration, storage and services for the
// command line entry points.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"photopick/internal/application/ledger"
	uploadapp "photopick/internal/application/upload"
	"photopick/internal/infrastructure/billing"
	"photopick/internal/infrastructure/cache"
	"photopick/internal/infrastructure/config"
	"photopick/internal/infrastructure/database"
	"photopick/internal/infrastructure/repository"
	"photopick/internal/infrastructure/storage"
	"photopick/internal/shared/biztime"
	"photopick/internal/shared/db"
	"photopick/internal/shared/logger"
)

// Options are the flags every command shares.
type Options struct {
	Env        string
	ConfigPath string
}

// AddFlags registers the shared flags as persistent flags of cmd.
func (o *Options) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&o.Env, "env", "e", "", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&o.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
}

// LoadConfig loads configuration and initializes the process logger.
func LoadConfig(opts *Options) (*config.Config, logger.Interface, error) {
	cfg, err := config.Load(opts.Env, opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(&cfg.Logger); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger.NewLogger(), nil
}

// App is the fully wired application.
type App struct {
	Config  *config.Config
	Logger  logger.Interface
	DB      *gorm.DB
	Redis   *redis.Client
	Store   uploadapp.ObjectStore
	Plans   *billing.ConfigPlanSource
	Ledger  *ledger.Service
	Uploads *uploadapp.Service
	Sweeper *uploadapp.OrphanSweeper
}

// New connects the database, the optional Redis cache and object storage and
// builds the services on top of them.
func New(ctx context.Context, cfg *config.Config, log logger.Interface) (*App, error) {
	if err := database.Init(&cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app := &App{
		Config: cfg,
		Logger: log,
		DB:     database.Get(),
	}

	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			// the status cache and rate limiter are optional; quota enforcement is not
			log.Warnw("redis unavailable, running without status cache and rate limiting", "error", err)
		} else {
			app.Redis = client
		}
	}

	store, err := storage.New(ctx, &cfg.Storage, log.Named("storage"))
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize object storage: %w", err)
	}
	app.Store = store

	plans, err := billing.NewConfigPlanSource(&cfg.Billing)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize plan source: %w", err)
	}
	app.Plans = plans

	ledgerRepo := repository.NewQuotaLedgerRepository(app.DB, cfg.Quota.LockWaitTimeout, log.Named("repository"))
	uploadRepo := repository.NewUploadRepository(app.DB, log.Named("repository"))
	orphanRepo := repository.NewOrphanedObjectRepository(app.DB, log.Named("repository"))

	var opts []ledger.Option
	if app.Redis != nil && cfg.Quota.StatusCacheTTL > 0 {
		opts = append(opts, ledger.WithStatusCache(
			cache.NewRedisLedgerStatusCache(app.Redis, cfg.Quota.StatusCacheTTL, log.Named("cache"))))
	}

	app.Ledger = ledger.NewService(
		ledgerRepo,
		uploadRepo,
		db.NewTransactionManager(app.DB),
		plans,
		ledger.Config{
			LockWait: cfg.Quota.LockWaitTimeout,
			Retry: db.RetryPolicy{
				MaxRetries: cfg.Quota.MaxRetries,
				BaseDelay:  cfg.Quota.RetryBaseDelay,
				MaxDelay:   cfg.Quota.RetryMaxDelay,
			},
		},
		log.Named("ledger"),
		opts...,
	)

	app.Uploads = uploadapp.NewService(app.Ledger, uploadRepo, orphanRepo, store,
		uploadapp.Config{
			MaxUploadBytes: cfg.Quota.MaxUploadBytes,
			CleanupTimeout: cfg.Quota.CleanupTimeout,
		},
		log.Named("upload"),
	)

	app.Sweeper = uploadapp.NewOrphanSweeper(orphanRepo, store, biztime.SystemClock,
		cfg.Quota.CleanupTimeout, log.Named("sweeper"))

	return app, nil
}

// Close releases the connections opened by New.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warnw("failed to close redis client", "error", err)
		}
	}
	if err := database.Close(); err != nil {
		a.Logger.Warnw("failed to close database", "error", err)
	}
}
