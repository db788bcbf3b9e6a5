package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wellnexa/cart-service/pkg/health"
	"github.com/wellnexa/cart-service/pkg/httpclient"
	pkgkafka "github.com/wellnexa/cart-service/pkg/kafka"

	"github.com/wellnexa/cart-service/internal/client"
	"github.com/wellnexa/cart-service/internal/config"
	"github.com/wellnexa/cart-service/internal/event"
	handler "github.com/wellnexa/cart-service/internal/handler/http"
	redisrepo "github.com/wellnexa/cart-service/internal/repository/redis"
	"github.com/wellnexa/cart-service/internal/service"
	"github.com/wellnexa/cart-service/internal/worker"
)

// App wires together all dependencies and runs the cart service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	rdb        *redis.Client
	producer   *pkgkafka.Producer
	writeback  *worker.Scheduler
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize Redis client.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Downstream clients share one retrying HTTP client; product and user
	// lookups sit on the request path, so they also get a circuit breaker.
	httpClient := httpclient.New(httpclient.DefaultConfig())
	breaker := httpclient.NewCircuitBreakerClient(httpClient, httpclient.DefaultCircuitBreakerConfig("downstream"), logger)

	productClient := client.NewProductClient(breaker, cfg.ProductServiceURL)
	userClient := client.NewUserClient(breaker, cfg.UserServiceURL)
	paymentClient := client.NewPaymentClient(httpClient, cfg.PaymentServiceURL)

	// Stores and write-back pool.
	cartStore := redisrepo.NewCartStore(rdb)
	intentStore := redisrepo.NewPaymentIntentStore(rdb)

	writebackCfg := worker.DefaultConfig()
	writebackCfg.MinWorkers = cfg.WritebackMinWorkers
	writebackCfg.MaxWorkers = cfg.WritebackMaxWorkers
	writebackCfg.IdleTimeout = time.Duration(cfg.WritebackIdleSeconds) * time.Second
	writeback := worker.NewScheduler(cartStore, writebackCfg, logger)

	// Build the dependency graph.
	eventProducer := event.NewProducer(producer, logger)
	cartService := service.NewCartService(cartStore, userClient, productClient, writeback, eventProducer, logger)
	paymentService := service.NewPaymentService(cartService, paymentClient, intentStore,
		cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	router := handler.NewRouter(cartService, paymentService, healthHandler, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		rdb:        rdb,
		producer:   producer,
		writeback:  writeback,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components. The HTTP server stops first so no
// new mutations arrive, then the write-back pool drains its backlog before
// the Redis connection closes.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.writeback.Close()
	a.logger.Info("write-back pool drained")

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
