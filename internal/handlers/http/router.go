package http

import (
	"context"
	"net/http"
	"time"

	"agentmart/internal/core/ports"
	"agentmart/internal/core/routing"
	"agentmart/internal/core/session"
	"agentmart/internal/infrastructure/middleware"
	"agentmart/internal/infrastructure/monitoring"
	"agentmart/pkg/config"
	"agentmart/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const readinessTimeout = 2 * time.Second

type RouterDeps struct {
	Config        *config.Config
	Logger        *zap.SugaredLogger
	ContextLogger *logger.ContextLogger
	Codec         *session.Codec
	Gate          *routing.Gate
	Auth          ports.AuthService
	Agents        ports.AgentService
	Admin         ports.AdminService
	Metrics       *monitoring.PrometheusCollector
	Health        *monitoring.HealthChecker
	Gatherer      prometheus.Gatherer
}

// NewRouter assembles the middleware chain and every route. The edge gate
// runs before identity resolution so a redirect never touches the store.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	startTime := time.Now()

	router := gin.New()
	router.Use(
		middleware.RecoveryMiddleware(deps.Logger),
		middleware.RequestIDMiddleware(),
		middleware.TracingMiddleware(),
		middleware.RequestLoggerMiddleware(deps.ContextLogger, deps.Metrics),
		middleware.ErrorHandlerMiddleware(deps.Logger),
		middleware.NewHTTPRateLimitMiddleware(cfg),
		// Engine level: gin runs group middleware on matched routes only.
		middleware.EdgeGateMiddleware(deps.Codec, deps.Gate, deps.Metrics, deps.Logger),
		middleware.IdentityMiddleware(deps.Auth, deps.Codec, deps.Metrics, deps.Logger),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"uptime":    time.Since(startTime).String(),
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		status := deps.Health.CheckAll(ctx)
		code := http.StatusOK
		if status.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})

	if cfg.Monitoring.PrometheusEnabled && deps.Gatherer != nil {
		router.GET(cfg.Monitoring.MetricsPath, gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	NewAuthHandler(deps.Auth, deps.Codec, deps.Gate.Rules(), deps.Metrics, deps.Logger).
		SetupRoutes(router, middleware.NewAuthRateLimitMiddleware(cfg))
	NewPageHandler(deps.Agents, deps.Admin, deps.Gate.Rules().SignInPath).SetupRoutes(router)
	NewAgentHandler(deps.Agents).SetupRoutes(router)
	NewAdminHandler(deps.Admin).SetupRoutes(router)

	return router
}
