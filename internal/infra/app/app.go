package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/port"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/infra/config"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/infra/database"
	kafkainfra "github.com/HoneyCombLTD/prodigy-registration-client/internal/infra/kafka"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/infra/logger"
	redisinfra "github.com/HoneyCombLTD/prodigy-registration-client/internal/infra/redis"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/infra/storage"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/infra/telemetry"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/repository/memory"
	postgresrepo "github.com/HoneyCombLTD/prodigy-registration-client/internal/repository/postgres"
	redisrepo "github.com/HoneyCombLTD/prodigy-registration-client/internal/repository/redis"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/transport/http/middleware"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/transport/http/routes"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/usecase"
)

// Application owns the process-level resources of the registration client
// service and their shutdown order.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
}

// New wires configuration into a runnable application.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	metrics, err := telemetry.Attach(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{
		Namespace: cfg.Telemetry.Namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	// Redis backs the cross-instance user lease and the upload throttle.
	// Without it the service falls back to in-process locking, which is
	// correct for a single instance.
	var (
		redisClient    *redisinfra.Client
		userLock       port.UserLocker
		uploadThrottle *middleware.UploadThrottle
	)
	if cfg.Redis.Host != "" {
		redisClient, err = redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}

		userLock = redisrepo.NewUserLock(redisClient.Client(), redisrepo.UserLockConfig{
			KeyPrefix: cfg.Redis.UserLockPrefix,
			LeaseTTL:  cfg.Redis.UserLockTTL,
		})

		throttleStore := redisrepo.NewThrottleStore(redisClient.Client(), redisrepo.ThrottleConfig{
			TTL: cfg.Upload.ThrottleWindow * 2,
		})
		uploadThrottle = middleware.NewUploadThrottle(throttleStore, cfg.Upload.ThrottleLimit, cfg.Upload.ThrottleWindow, log)
	} else {
		log.Info("redis not configured, using in-process user lock")
		userLock = memory.NewUserLock()
	}

	var (
		audit    port.AuditPublisher
		producer *kafkainfra.Producer
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			audit = kafkainfra.NewStubPublisher(log)
		} else {
			audit = kafkainfra.NewAuditPublisher(producer, cfg.App, cfg.Kafka.AuditTopic, log).
				WithMetrics(metrics)
			log.Info("kafka audit publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		audit = kafkainfra.NewStubPublisher(log)
	}

	recorder := usecase.NewOutcomeRecorder(
		repos.Users,
		userLock,
		audit,
		log,
		cfg.Lockout.MaxFailedAttempts,
		cfg.Lockout.Duration,
	).WithMetrics(metrics)

	loginService := usecase.NewLoginService(
		repos.Users,
		repos.AuthPolicies,
		repos.Centers,
		repos.ScreenAuth,
		recorder,
		audit,
		log,
	)

	packetStore, err := storage.NewPacketStore(cfg.Upload.Directory, cfg.Upload.MaxSizeBytes, log)
	if err != nil {
		pool.Close()
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, fmt.Errorf("init packet store: %w", err)
	}

	deps := routes.Dependencies{
		Config:         cfg,
		Logger:         log,
		Login:          loginService,
		Packets:        packetStore,
		Audit:          audit,
		HTTPMetrics:    httpMetrics,
		UploadThrottle: uploadThrottle,
		Database:       pool,
	}
	if redisClient != nil {
		deps.Cache = redisClient
	}

	return &Application{
		cfg:      cfg,
		engine:   routes.Register(deps),
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting registration client API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
