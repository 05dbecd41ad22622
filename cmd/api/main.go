package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tourcrm/internal/api"
	"tourcrm/internal/config"
	"tourcrm/internal/database"
	"tourcrm/internal/domain"
	"tourcrm/internal/events"
	"tourcrm/internal/export"
	"tourcrm/internal/logging"
	"tourcrm/internal/metrics"
	"tourcrm/internal/notify"
	"tourcrm/internal/repository"
	"tourcrm/internal/service"
	"tourcrm/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	yamlv2 "gopkg.in/yaml.v2"
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
		defer func() { _ = closer.Close() }()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Seed.Enabled {
		if err := seedDatabase(ctx, cfg, db, &logger); err != nil {
			return err
		}
	}

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	cache := initCache(cfg, redisClient, &logger)
	eventBus := events.NewEventBus()

	bookingService := service.NewBookingService(db, eventBus, &logger)
	dashboardService := service.NewDashboardService(db, cache, cfg.Dashboard.ChatHistorySize, &logger)
	chatService := service.NewChatService(db, cache, eventBus, cfg.Chat.RateLimitMessages, cfg.Chat.RateLimitWindow, &logger)
	userService := service.NewUserService(db, &logger)

	exportWorker := worker.NewExportWorker(db, export.NewBuilder(cfg.Exports.Path), redisClient, worker.RetryPolicy{}, &logger)
	go exportWorker.Start(ctx)

	subscribeConsumers(ctx, eventBus, dashboardService)
	initNotifier(cfg, eventBus, &logger)

	metrics.Register()
	startMetrics(ctx, cfg, &logger)

	handlers := api.NewHandlers(bookingService, dashboardService, chatService, userService, exportWorker, &logger)
	httpServer := api.NewHTTPServer(cfg.API, handlers, &logger)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.Port).Msg("CRM API started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("CRM API stopped")
	return nil
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
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func seedDatabase(ctx context.Context, cfg *config.Config, db *database.DB, logger *zerolog.Logger) error {
	seed := database.DefaultSeed()
	if cfg.Seed.Path != "" {
		data, err := os.ReadFile(cfg.Seed.Path)
		if err != nil {
			logger.Error().Err(err).Str("seed_path", cfg.Seed.Path).Msg("read seed file")
			return err
		}
		if err := yamlv2.Unmarshal(data, &seed); err != nil {
			logger.Error().Err(err).Str("seed_path", cfg.Seed.Path).Msg("parse seed file")
			return err
		}
	}

	seeded, err := db.SeedDemoData(ctx, seed)
	if err != nil {
		return fmt.Errorf("seed database: %w", err)
	}
	if seeded {
		logger.Info().Msg("database seeded with demo data")
	}
	return nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initCache(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.CacheRepository {
	ttl := time.Duration(cfg.Dashboard.CacheTTLSeconds) * time.Second
	memory := repository.NewMemoryCacheRepository(ttl)
	if redisClient == nil {
		return memory
	}
	primary := repository.NewRedisCacheRepository(redisClient, ttl)
	return repository.NewFailoverCacheRepository(primary, memory, logger)
}

// subscribeConsumers вешает на шину сброс кэша дашборда и счетчики.
func subscribeConsumers(ctx context.Context, bus *events.EventBus, dashboard *service.DashboardService) {
	invalidate := func(event *events.Event) error {
		dashboard.InvalidateCache(ctx)
		return nil
	}
	for _, eventType := range []string{
		events.EventBookingCreated,
		events.EventBookingUpdated,
		events.EventBookingStatusChanged,
		events.EventNoteAdded,
		events.EventChatMessage,
	} {
		bus.Subscribe(eventType, invalidate)
	}

	bus.Subscribe(events.EventBookingStatusChanged, func(event *events.Event) error {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
		metrics.IncStatusChange(payload.Status)
		return nil
	})
	bus.Subscribe(events.EventChatMessage, func(event *events.Event) error {
		metrics.IncChatMessage()
		return nil
	})
}

func initNotifier(cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) {
	if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == 0 {
		return
	}

	notifier, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram notifier init failed, continuing without notifications")
		return
	}
	notifier.Subscribe(bus)
	logger.Info().Int64("chat_id", cfg.Telegram.ChatID).Msg("telegram notifier connected")
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

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
