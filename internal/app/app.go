package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/tixcore/internal/clock"
	"github.com/kirinyoku/tixcore/internal/config"
	"github.com/kirinyoku/tixcore/internal/metrics"
	"github.com/kirinyoku/tixcore/internal/postgres"
	"github.com/kirinyoku/tixcore/internal/redis"
	postgresrepo "github.com/kirinyoku/tixcore/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/tixcore/internal/repository/redis"
	"github.com/kirinyoku/tixcore/internal/service"
	"github.com/kirinyoku/tixcore/internal/service/query"
	httpgin "github.com/kirinyoku/tixcore/internal/transport/http/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const appName = "tixcore"

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	rdb        *goredis.Client
	httpServer *http.Server
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.New"

	pgxPool, err := postgres.New(ctx, postgres.Config{
		DSN:      cfg.Postgres.DSN(),
		MaxConns: cfg.Postgres.MaxConns,
		AppName:  appName,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: postgres: %w", op, err)
	}

	rdb, err := redis.New(ctx, redis.Config{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		ClientName: appName,
	})
	if err != nil {
		pgxPool.Close()
		return nil, fmt.Errorf("%s: redis: %w", op, err)
	}

	clk := clock.Real()
	m := metrics.New(prometheus.DefaultRegisterer)

	// Repositories
	store := postgresrepo.NewStore(pgxPool)
	if cfg.Postgres.Migrate {
		if err := store.Migrate(ctx); err != nil {
			pgxPool.Close()
			_ = rdb.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	cache := redisrepo.New(rdb, cfg.App.EventCacheTTL)
	pubsub := redisrepo.NewEventsPubSub(rdb, clk)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, clk, "mut", cfg.App.RateLimitPerMinute, time.Minute)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, cfg.App.IdempotencyTTL)

	// Services
	services := service.NewServices(store, cache, pubsub, clk, m, logger, service.Config{
		Location: cfg.App.Location,
		Query: query.Config{
			EventSummaryTTL:  cfg.App.EventCacheTTL,
			EventSectionsTTL: cfg.App.SectionsCacheTTL,
		},
	})

	router := httpgin.NewRouter(httpgin.Deps{
		Services:       services,
		Idempotency:    idempotencyStore,
		Limiter:        limiter,
		Changes:        pubsub,
		Metrics:        m,
		MetricsHandler: promhttp.Handler(),
		Logger:         logger,
	})

	return &App{
		cfg:    cfg,
		logger: logger,
		pool:   pgxPool,
		rdb:    rdb,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Run serves HTTP until ctx is cancelled or the process receives SIGINT or
// SIGTERM, then drains in-flight requests and closes the backing stores.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer a.pool.Close()
	defer func() {
		if err := a.rdb.Close(); err != nil {
			a.logger.Warn("redis close failed", "error", err)
		}
	}()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")

		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.App.ShutdownGracePeriod)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
