package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/altavia/airways/internal/config"
	"github.com/altavia/airways/internal/postgres"
	redisx "github.com/altavia/airways/internal/redis"
	postgresrepo "github.com/altavia/airways/internal/repository/postgres"
	redisrepo "github.com/altavia/airways/internal/repository/redis"
	"github.com/altavia/airways/internal/service"
	"github.com/altavia/airways/internal/service/query"
	httpgin "github.com/altavia/airways/internal/transport/http/gin"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	pubsub     *redisx.FlightsPubSub
	cache      *redisrepo.Cache
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Initialize dependencies
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Name,
		cfg.Postgres.SSLMode,
	)

	pgxPool, err := postgres.New(context.Background(), postgres.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redisx.New(context.Background(), redisx.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	// Initialize repositories
	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	pubsub := redisx.NewFlightsPubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, "rl", cfg.Booking.RateLimit, cfg.Booking.RateWindow)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, cfg.Booking.IdempotencyTTL)

	// Initialize services
	services := service.NewServices(store, cache, pubsub, limiter, service.Config{
		Query: query.Config{
			AvailabilityTTL: cfg.Booking.CacheTTL,
			SeatMapTTL:      cfg.Booking.CacheTTL,
		},
	})

	// Initialize Gin router
	router := httpgin.NewRouter(services, idempotencyStore, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
		pubsub: pubsub,
		cache:  cache,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Drop locally cached flight views when another instance commits a
	// purchase or a delay.
	g.Go(func() error {
		err := a.pubsub.Subscribe(gCtx, func(ctx context.Context, flightID int64) {
			if err := a.cache.InvalidateFlight(ctx, flightID); err != nil {
				a.logger.Warn("cache invalidation failed", "flight_id", flightID, "error", err)
			}
		})
		if err != nil && err != context.Canceled {
			return fmt.Errorf("flight change subscription: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
