package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"unifiedpro/internal/domain/audit"
	"unifiedpro/internal/domain/auth"
	"unifiedpro/internal/domain/catalog"
	"unifiedpro/internal/domain/profile"
	"unifiedpro/internal/domain/salary"
	"unifiedpro/internal/domain/slip"
	"unifiedpro/internal/platform/cache"
	"unifiedpro/internal/platform/config"
	"unifiedpro/internal/platform/db"
	"unifiedpro/internal/platform/jobs"
	"unifiedpro/internal/platform/logging"
	"unifiedpro/internal/platform/metrics"
	"unifiedpro/internal/transport/http/middleware"
)

const readHeaderTimeout = 10 * time.Second

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Cache   *redis.Client
	Router  http.Handler
	Logger  *zap.Logger
	Jobs    *jobs.Service
	Metrics *metrics.Collector
}

// New connects the stores, prepares the schema and wires every service
// behind the router. Close releases what New opened.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)

	app := &App{Config: cfg, Logger: logger, Metrics: metrics.New()}
	if err := app.open(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) open(ctx context.Context) error {
	cfg := a.Config

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	a.DB = pool

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, os.DirFS(cfg.MigrationsDir)); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	if cfg.RunSeed {
		tenantID, err := db.Seed(ctx, pool, cfg, a.Logger)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		a.Logger.Info("seed complete", zap.String("tenant_id", tenantID))
	}

	rdb, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	a.Cache = rdb
	if rdb == nil {
		a.Logger.Info("catalog cache disabled")
	}

	perms, err := auth.NewEnforcer(auth.RolePermissions)
	if err != nil {
		return fmt.Errorf("build permission enforcer: %w", err)
	}

	a.Jobs = jobs.New(jobs.PGRecorder{DB: pool}, cfg.JobQueueSize, a.Logger.Named("jobs"))

	catalogSvc := catalog.NewService(catalog.NewStore(pool), rdb, cfg.CatalogCacheTTL, a.Logger.Named("catalog"))
	structures := salary.NewService(salary.NewStore(pool), catalogSvc, a.Logger.Named("salary"))

	a.Router = NewRouter(cfg, a.Logger, Services{
		Auth:        auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.TokenTTL, a.Logger.Named("auth")),
		Catalog:     catalogSvc,
		Profiles:    profile.NewService(profile.NewStore(pool), catalogSvc, a.Logger.Named("profile")),
		Structures:  structures,
		Slips:       slip.NewService(slip.NewStore(pool), structures, a.Jobs, a.Logger.Named("slip")),
		Audit:       audit.New(pool),
		Idempotency: middleware.NewIdempotencyStore(pool),
		Perms:       perms,
		Metrics:     a.Metrics,
		Ready:       pool.Ping,
	})
	return nil
}

// Run serves until ctx is cancelled, then drains requests and the job
// queue within the configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	jobCtx, stopJobs := context.WithCancel(context.WithoutCancel(ctx))
	defer stopJobs()
	a.Jobs.Start(jobCtx)

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("salary server listening", zap.String("addr", a.Config.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
	defer cancel()
	a.Logger.Info("shutting down")
	err := srv.Shutdown(shutdownCtx)
	stopJobs()
	a.Jobs.Wait()
	return err
}

func (a *App) Close() {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Logger.Warn("redis close failed", zap.Error(err))
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
	_ = a.Logger.Sync()
}
