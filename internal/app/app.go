// Package app wires together all dependencies and runs the service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/shopkart/shopkart/internal/auth"
	"github.com/shopkart/shopkart/internal/config"
	"github.com/shopkart/shopkart/internal/event"
	"github.com/shopkart/shopkart/internal/gateway"
	"github.com/shopkart/shopkart/internal/gateway/mock"
	"github.com/shopkart/shopkart/internal/gateway/razorpay"
	handler "github.com/shopkart/shopkart/internal/handler/http"
	"github.com/shopkart/shopkart/internal/repository/postgres"
	redisrepo "github.com/shopkart/shopkart/internal/repository/redis"
	"github.com/shopkart/shopkart/internal/service"
	"github.com/shopkart/shopkart/migrations"
	"github.com/shopkart/shopkart/pkg/database"
	"github.com/shopkart/shopkart/pkg/health"
	pkgkafka "github.com/shopkart/shopkart/pkg/kafka"
	"github.com/shopkart/shopkart/pkg/tracing"
)

const serviceName = "shopkart"

// App holds the wired dependency graph and runs the HTTP server.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	redis      *goredis.Client
	producer   *pkgkafka.Producer
	mockGw     *mock.Gateway
	httpServer *http.Server

	shutdownTracing func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownTracing, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  serviceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SampleRate:   cfg.TraceSample,
		Enabled:      cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	if err := database.RunMigrations(ctx, pool, migrations.FS, ".", logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr))

	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Repositories.
	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	cartRepo := redisrepo.NewCartRepository(redisClient)

	eventProducer := event.NewProducer(producer, logger)

	// Payment gateway. The mock gateway delivers its own webhooks back
	// into the payment service after a short delay.
	var (
		gw        gateway.Gateway
		mockGw    *mock.Gateway
		canceller service.PendingCanceller
	)
	if cfg.MockEnabled {
		mockGw = mock.New(mock.Config{CallbackDelay: cfg.MockCallbackDelay}, logger)
		gw = mockGw
		canceller = mockGw
		logger.Info("using mock payment gateway",
			slog.Duration("callback_delay", cfg.MockCallbackDelay),
		)
	} else {
		gw = razorpay.New(razorpay.Config{
			KeyID:     cfg.RazorpayKeyID,
			KeySecret: cfg.RazorpayKeySecret,
		}, logger)
		logger.Info("using razorpay payment gateway")
	}

	// Services.
	userService := service.NewUserService(userRepo, logger)
	productService := service.NewProductService(productRepo, logger)
	cartService := service.NewCartService(cartRepo, productRepo, userRepo, logger)
	paymentService := service.NewPaymentService(paymentRepo, orderRepo, gw, canceller, eventProducer, cfg.Currency, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, cartRepo, userRepo, paymentService, eventProducer, logger)

	if mockGw != nil {
		mockGw.SetCallback(paymentService.DeliverMockCallback)
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	router := handler.NewRouter(handler.RouterConfig{
		Logger:         logger,
		Health:         healthHandler,
		TokenValidator: jwtManager.Validator(),
		WebhookRPS:     cfg.WebhookRPS,
		WebhookBurst:   cfg.WebhookBurst,
		ServiceName:    serviceName,
	}, handler.Handlers{
		Users:    handler.NewUserHandler(userService, logger),
		Products: handler.NewProductHandler(productService, logger),
		Carts:    handler.NewCartHandler(cartService, logger),
		Orders:   handler.NewOrderHandler(orderService, logger),
		Payments: handler.NewPaymentHandler(paymentService, logger),
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		pool:            pool,
		redis:           redisClient,
		producer:        producer,
		mockGw:          mockGw,
		httpServer:      httpServer,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
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

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	// Cancel pending mock webhook deliveries before tearing down the
	// services they would call into.
	if a.mockGw != nil {
		a.mockGw.Close()
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.pool.Close()

	if err := a.shutdownTracing(shutdownCtx); err != nil {
		a.logger.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
