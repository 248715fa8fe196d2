package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"soulcare/internal/api"
	"soulcare/internal/config"
	"soulcare/internal/dialogue"
	"soulcare/internal/domain"
	"soulcare/internal/events"
	"soulcare/internal/llm"
	"soulcare/internal/logging"
	"soulcare/internal/metrics"
	"soulcare/internal/notify"
	"soulcare/internal/repository"
	"soulcare/internal/store"
	"soulcare/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	availabilityStore, err := initStore(ctx, cfg, &logger)
	if err != nil {
		return err
	}

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	limiter := initLimiter(redisClient, &logger)

	extractor := llm.NewClient(cfg.LLM, cfg.Clinic, &logger)
	mailer := notify.NewMailer(cfg.SMTP, cfg.Clinic, extractor, &logger)

	eventBus := events.NewEventBus()
	subscribeMetrics(eventBus)

	machine := dialogue.NewMachine(availabilityStore, extractor, mailer, eventBus, &logger)

	httpServer := api.NewHTTPServer(cfg.Server, cfg.RateLimit, machine, availabilityStore, extractor, limiter, &logger)

	startMetrics(ctx, cfg, &logger)

	return serve(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := logging.Component(baseLogger, "server-main")

	return cfg, logger, closer, nil
}

func initStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (domain.AvailabilityStore, error) {
	var (
		backend domain.AvailabilityStore
		err     error
	)

	switch cfg.Store.Backend {
	case "sheets":
		backend, err = store.NewSheetsStore(ctx, cfg.Google.CredentialsFile, cfg.Google.SpreadsheetID, cfg.Store.SheetName, logger)
		if err == nil {
			checkCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Store.TimeoutSeconds)*time.Second)
			defer cancel()
			if pingErr := backend.(*store.SheetsStore).TestConnection(checkCtx); pingErr != nil {
				logger.Warn().Err(pingErr).Msg("sheets connection check failed, continuing anyway")
			}
		}
	case "excel":
		backend, err = store.NewExcelStore(cfg.Store.ExcelPath, cfg.Store.SheetName, logger)
	default:
		err = fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if err != nil {
		logger.Error().Err(err).Str("backend", cfg.Store.Backend).Msg("init availability store")
		return nil, err
	}

	// Availability reads are idempotent and retried; commits are not.
	policy := worker.RetryPolicy{
		MaxRetries:    cfg.Store.ReadRetries,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2,
	}
	return store.WithRetry(backend, policy), nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initLimiter(redisClient *redis.Client, logger *zerolog.Logger) domain.RateLimiter {
	memory := repository.NewMemoryRateLimiter()
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverRateLimiter(repository.NewRedisRateLimiter(redisClient), memory, logger)
}

func subscribeMetrics(bus *events.EventBus) {
	count := func(outcome string) events.EventHandler {
		return func(*events.Event) error {
			metrics.IncBooking(outcome)
			return nil
		}
	}
	bus.Subscribe(events.EventBookingCommitted, count("committed"))
	bus.Subscribe(events.EventBookingConflict, count("conflict"))
	bus.Subscribe(events.EventStoreWriteFailed, count("write_failed"))
	bus.Subscribe(events.EventNotificationFailed, count("notification_failed"))
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

func serve(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("port", cfg.Server.Port).Msg("server started")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}

	logger.Info().Msg("server stopped")
	return nil
}
