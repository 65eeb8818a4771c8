package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/shrimpli/internal/config"
	"github.com/vadimbarashkov/shrimpli/internal/metrics"
	"github.com/vadimbarashkov/shrimpli/internal/usecase"
	"github.com/vadimbarashkov/shrimpli/migrations"
	"github.com/vadimbarashkov/shrimpli/pkg/postgres"
	"github.com/vadimbarashkov/shrimpli/pkg/ratelimit"
	"golang.org/x/sync/errgroup"

	delivery "github.com/vadimbarashkov/shrimpli/internal/adapter/delivery/http"
	repository "github.com/vadimbarashkov/shrimpli/internal/adapter/repository/postgres"
)

// App owns the connections shared by every request.
type App struct {
	db      *sqlx.DB
	redis   *redis.Client
	handler http.Handler
}

// New connects to Postgres (and Redis when configured), applies the
// migrations and builds the router.
func New(ctx context.Context, cfg *config.Config, logger *httplog.Logger) (*App, error) {
	const op = "app.New"

	db, err := postgres.New(
		ctx,
		cfg.Postgres.DSN(),
		postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}

	if err := postgres.RunMigrations(migrations.FS, cfg.Postgres.DSN()); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	a := &App{db: db}

	m := metrics.New()

	urlRepo := repository.NewURLRepository(db, repository.WithCollisionHook(func(shortCode string) {
		m.Collisions.Inc()
		logger.Debug("short code collision, retrying", slog.String("short_code", shortCode))
	}))
	urlUseCase := usecase.NewURLUseCase(urlRepo, m)

	opts := []delivery.Option{
		delivery.WithBaseURL(cfg.BaseURL),
		delivery.WithMetricsHandler(m.Handler()),
	}

	if cfg.RateLimit.Enabled {
		limiter, err := a.newLimiter(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		opts = append(opts, delivery.WithRateLimiter(limiter, cfg.RateLimit.Window, m.RateLimited.Inc))
	}

	a.handler = delivery.NewRouter(logger, urlUseCase, opts...)

	return a, nil
}

func (a *App) newLimiter(ctx context.Context, cfg *config.Config) (ratelimit.Limiter, error) {
	if cfg.Redis.Addr == "" {
		return ratelimit.NewMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst), nil
	}

	a.redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := a.redis.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return ratelimit.NewRedisLimiter(a.redis, cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.Redis.KeyPrefix), nil
}

func (a *App) Handler() http.Handler {
	return a.handler
}

// Close releases the database pool and the Redis client.
func (a *App) Close() error {
	var errs []error

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}

	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}

	return errors.Join(errs...)
}

// Run serves the API until ctx is cancelled, then drains in-flight requests
// for at most cfg.HTTPServer.ShutdownTimeout.
func Run(ctx context.Context, cfg *config.Config, logger *httplog.Logger) error {
	const op = "app.Run"

	a, err := New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer a.Close()

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        a.Handler(),
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", slog.String("addr", server.Addr), slog.String("env", cfg.Env))

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}
