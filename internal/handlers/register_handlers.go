package handlers

import (
	"fmt"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/SscSPs/hera_engine/cmd/docs"
	portssvc "github.com/SscSPs/hera_engine/internal/core/ports/services"
	"github.com/SscSPs/hera_engine/internal/gateway"
	"github.com/SscSPs/hera_engine/internal/metrics"
	"github.com/SscSPs/hera_engine/internal/middleware"
	"github.com/SscSPs/hera_engine/pkg/config"
)

// Dependencies are the collaborators the HTTP layer needs.
type Dependencies struct {
	Services   *portssvc.ServiceContainer
	Dispatcher *gateway.Dispatcher
	// Metrics is optional; nil disables /metrics and request metrics.
	Metrics *metrics.Recorder
	// DB is optional; nil makes /health answer without a database check.
	DB Pinger
}

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Dependencies) error {
	registerValidators()

	r.Use(cors.New(corsConfig(cfg)))
	if deps.Metrics != nil {
		r.Use(middleware.RequestMetrics(deps.Metrics))
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	r.GET("/health", healthHandler(deps.DB))

	if err := setupAPIV1Routes(r, cfg, deps); err != nil {
		return err
	}

	// Swagger routes (typically public or conditionally available)
	setupSwaggerRoutes(r, cfg)
	return nil
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific route registrations
func setupAPIV1Routes(r *gin.Engine, cfg *config.Config, deps Dependencies) error {
	chain, err := authChain(cfg)
	if err != nil {
		return err
	}
	if cfg.RateLimit != "" {
		l, err := middleware.NewRateLimiter(cfg.RateLimit)
		if err != nil {
			return err
		}
		chain = append(chain, middleware.RateLimit(l))
	}

	v1 := r.Group("/api/v1", chain...)

	registerRPCRoutes(v1, deps.Dispatcher)
	registerOrganizationRoutes(v1, deps.Services.Organization)
	registerSmartCodeRoutes(v1)
	return nil
}

// authChain picks the authentication middlewares for cfg.AuthMode.
func authChain(cfg *config.Config) ([]gin.HandlerFunc, error) {
	var chain []gin.HandlerFunc
	if cfg.UsesAPIKeys() {
		keys, err := middleware.ParseAPIKeyHashes(cfg.APIKeyHashes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse API_KEY_HASHES: %w", err)
		}
		chain = append(chain, middleware.APIKeyAuth(keys))
	}
	switch {
	case cfg.UsesJWT():
		chain = append(chain, middleware.AuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))
	case cfg.UsesAPIKeys():
		chain = append(chain, middleware.RequireAuthenticated())
	}
	return chain, nil
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	c.AllowOrigins = cfg.CORSAllowOrigins
	if len(c.AllowOrigins) == 0 || slices.Contains(c.AllowOrigins, "*") {
		c.AllowOrigins = nil
		c.AllowAllOrigins = true
	}
	c.AllowHeaders = append(c.AllowHeaders, "Authorization", middleware.APIKeyHeader, middleware.RequestIDHeader)
	c.ExposeHeaders = []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"}
	return c
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
