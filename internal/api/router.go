// Package api serves the scenario pipeline over HTTP for the browser client.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"worldbuilder/internal/common/config"
	"worldbuilder/internal/common/logger"
)

// ReadinessCheck probes one dependency. A nil error means ready.
type ReadinessCheck func(ctx context.Context) error

type RouterConfig struct {
	ServiceName string
	Version     string
	CORSOrigins []string
	Readiness   map[string]ReadinessCheck
}

// NewRouter builds the engine. Order matters: the otel span is opened first
// so recovery and logging run inside it.
func NewRouter(svc ScenarioService, cfg RouterConfig, log logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))
	router.Use(Metrics())
	router.Use(CORS(cfg.CORSOrigins))

	health := NewHealthHandler(cfg.Version, cfg.Readiness)
	router.GET("/health", health.Health)
	router.GET("/ready", health.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := NewScenarioHandler(svc, log)
	api := router.Group("/api")
	{
		api.POST("/generate-scenario", h.GenerateScenario)
		api.POST("/refine-scenario", h.RefineScenario)
		api.POST("/validate-input", h.ValidateInput)
		api.POST("/sanitize-input", h.SanitizeInput)

		api.GET("/regions", h.ListRegions)
		api.GET("/regions/:region", h.GetRegion)
		api.GET("/time-frames", h.ListTimeFrames)
		api.GET("/age-context", h.AgeContext)
	}

	return router
}

// Server runs the router until its context is cancelled.
type Server struct {
	http            *http.Server
	shutdownTimeout time.Duration
	logger          logger.Logger
}

func NewServer(cfg config.ServerConfig, handler http.Handler, log logger.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              cfg.Address(),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			// Generation may wait the full gateway timeout.
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		shutdownTimeout: config.GetDuration(cfg.ShutdownTimeout),
		logger:          log,
	}
}

// Run blocks until ctx is done or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server starting", map[string]interface{}{"addr": s.http.Addr})
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	s.logger.Info("HTTP server shutting down", nil)
	return s.http.Shutdown(shutdownCtx)
}
