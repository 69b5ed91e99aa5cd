package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kmankan/converse-chronicle/internal/health"
	"github.com/kmankan/converse-chronicle/internal/observe"
	"github.com/kmankan/converse-chronicle/internal/service"
)

// NewRouter assembles the HTTP surface: health and metrics endpoints
// unauthenticated, the recordings API behind bearer auth.
func NewRouter(
	recordingService *service.RecordingService,
	healthHandler *health.Handler,
	metrics *observe.Metrics,
	apiToken string,
	logger *slog.Logger,
) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), observe.Middleware(metrics, logger))

	r.GET("/healthz", gin.WrapF(healthHandler.Healthz))
	r.GET("/readyz", gin.WrapF(healthHandler.Readyz))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := &API{recordings: recordingService, logger: logger}

	v1 := r.Group("/api/v1")
	v1.Use(bearerAuth(apiToken))
	api.registerRoutes(v1)

	return r
}
