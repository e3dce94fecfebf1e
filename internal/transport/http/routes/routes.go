package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/port"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/infra/config"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/infra/storage"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/transport/http/handlers"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/transport/http/middleware"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/usecase"
)

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config         *config.AppConfig
	Logger         *zap.Logger
	Login          *usecase.LoginService
	Packets        *storage.PacketStore
	Audit          port.AuditPublisher
	HTTPMetrics    *middleware.HTTPMetrics
	UploadThrottle *middleware.UploadThrottle
	Database       DatabaseChecker
	Cache          CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config != nil && deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(deps.HTTPMetrics.Handler())

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		loginHandler := handlers.NewLoginHandler(deps.Login)
		loginHandler.RegisterRoutes(api)

		if deps.Packets != nil {
			packetHandler := handlers.NewPacketHandler(deps.Packets, deps.Audit, deps.Logger)
			packetHandler.RegisterRoutes(api, buildUploadMiddlewares(deps)...)
		}
	}

	return r
}

func buildUploadMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.UploadThrottle == nil {
		return nil
	}
	return []gin.HandlerFunc{deps.UploadThrottle.Handler()}
}
