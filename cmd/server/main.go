package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/cashclarity/ledgersync/internal/adapter/http"
	"github.com/cashclarity/ledgersync/internal/adapter/http/handler"
	"github.com/cashclarity/ledgersync/internal/adapter/http/middleware"
	"github.com/cashclarity/ledgersync/internal/adapter/idgen"
	postgresRepo "github.com/cashclarity/ledgersync/internal/adapter/repository/postgres"
	redisRepo "github.com/cashclarity/ledgersync/internal/adapter/repository/redis"
	"github.com/cashclarity/ledgersync/internal/infrastructure/config"
	"github.com/cashclarity/ledgersync/internal/infrastructure/eventpublisher"
	"github.com/cashclarity/ledgersync/internal/infrastructure/logger"
	"github.com/cashclarity/ledgersync/internal/infrastructure/metrics"
	"github.com/cashclarity/ledgersync/internal/infrastructure/postgres"
	"github.com/cashclarity/ledgersync/internal/infrastructure/redis"
	"github.com/cashclarity/ledgersync/internal/usecase"
)

const rateLimiterIdle = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "ledgersync-api"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log.Logger); err != nil {
		log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	pool, err := postgres.NewPool(connectCtx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	cancel()
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	logger.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	logger.Info().Msg("connected to redis")

	m := metrics.New(prometheus.DefaultRegisterer)

	txManager := postgresRepo.NewTxManager(pool, logger)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	overrideRepo := postgresRepo.NewPeriodOverrideRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	ledgerUC := usecase.NewLedgerUseCase(
		txManager,
		entryRepo,
		overrideRepo,
		outboxRepo,
		postgresRepo.NewRetrier(postgresRepo.WithRetryLogger(logger)),
		idgen.NewULIDGenerator(),
		m,
	)

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		go cleanupRateLimiter(ctx, rateLimiter)
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		EntryHandler:     handler.NewEntryHandler(ledgerUC),
		PeriodHandler:    handler.NewPeriodHandler(ledgerUC),
		HealthHandler:    handler.NewHealthHandler(handler.PostgresCheck(pool), handler.RedisCheck(redisClient)),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      rateLimiter,
		HTTPMetrics:      middleware.NewHTTPMetrics(prometheus.DefaultRegisterer),
		Logger:           logger,
	})

	publisher, closePublisher := newPublisher(cfg, logger)
	defer closePublisher()

	relay := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  publisher,
		Logger:     logger.With().Str("component", "outbox").Logger(),
		Metrics:    m,
		Interval:   cfg.OutboxInterval,
	})
	go func() {
		if err := relay.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	server := &http.Server{
		Addr:         serverAddr(cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info().Msg("server stopped")
	return nil
}

// newPublisher picks the outbox sink: Kafka when brokers are configured,
// the log otherwise.
func newPublisher(cfg *config.Config, logger zerolog.Logger) (eventpublisher.Publisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Warn().Msg("no kafka brokers configured, outbox events are only logged")
		return eventpublisher.NewLogPublisher(logger), func() {}
	}

	p := eventpublisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	return p, func() {
		if err := p.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close kafka writer")
		}
	}
}

func cleanupRateLimiter(ctx context.Context, rl *middleware.RateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Cleanup(rateLimiterIdle)
		}
	}
}

func serverAddr(port string) string {
	return fmt.Sprintf(":%s", port)
}
