package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quotevault/quotesync/internal/adapters/http/handlers"
	"github.com/quotevault/quotesync/internal/adapters/http/middleware"
	"github.com/quotevault/quotesync/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig contains everything the router needs to wire the API.
type RouterConfig struct {
	// Logger is the structured logger for request logging.
	Logger *slog.Logger

	// ServiceName names the service in telemetry spans.
	ServiceName string

	// QuoteHandler serves the quote collection endpoints.
	QuoteHandler *handlers.QuoteHandler

	// SyncHandler serves manual sync trigger and status.
	SyncHandler *handlers.SyncHandler

	// HealthHandler serves liveness/readiness/metrics under /-/.
	HealthHandler *handlers.HealthHandler

	// Timeout is the per-request deadline for API routes.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware order (first to last): recovery, request id, correlation id,
// telemetry, logging; API routes additionally get a timeout.
//
// Route groups:
//   - /-/        internal: health probes and metrics, no timeout
//   - /api/v1/   the quote API
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.Tracing(cfg.ServiceName),
		telemetry.Metrics(),
		middleware.Logging(cfg.Logger),
	)

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	apiV1 := engine.Group("/api/v1")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	apiV1.Use(middleware.SimpleTimeout(timeout))

	if cfg.QuoteHandler != nil {
		cfg.QuoteHandler.RegisterQuoteRoutes(apiV1)
	}

	if cfg.SyncHandler != nil {
		cfg.SyncHandler.RegisterSyncRoutes(apiV1)
	}
}

// SetupMinimalRouter sets up a router with just health endpoints. Useful
// for tests and for serving probes before the app is fully wired.
func SetupMinimalRouter(engine *gin.Engine, logger *slog.Logger, healthHandler *handlers.HealthHandler) {
	engine.Use(
		middleware.Recovery(logger),
		middleware.RequestID(),
	)

	if healthHandler != nil {
		healthHandler.RegisterHealthRoutesOnEngine(engine)
	}
}
