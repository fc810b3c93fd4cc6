package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-cards/internal/config"
	"github.com/vzahanych/weather-cards/internal/forecast"
	"github.com/vzahanych/weather-cards/internal/render"
	"github.com/vzahanych/weather-cards/internal/server/handlers"
	"github.com/vzahanych/weather-cards/internal/server/middlewares"
	"github.com/vzahanych/weather-cards/internal/service"
	"github.com/vzahanych/weather-cards/pkg/telemetry"
	"go.uber.org/zap"
)

// Server is the root container: it owns the configured coordinates and the
// forecast view mounted on them.
type Server struct {
	cfg       *config.Config
	engine    *gin.Engine
	server    *http.Server
	forecasts *forecast.Service
	view      *forecast.View
	logger    *zap.Logger
	tele      *telemetry.Telemetry

	// lifetime of background view fetches
	ctx    context.Context
	cancel context.CancelFunc
}

func NewServer(cfg *config.Config, provider service.ForecastProvider, logger *zap.Logger, tele *telemetry.Telemetry) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	httpMetrics := middlewares.NewHTTPMetrics()
	metrics := handlers.NewMetricsHandler(httpMetrics)

	forecasts := forecast.NewService(provider, cfg.Forecast, logger, tele)
	forecasts.SetMetricsRecorder(metrics)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.SetHTMLTemplate(render.HTMLTemplates())

	engine.Use(middlewares.RequestIDMiddleware())
	engine.Use(middlewares.LoggingMiddleware(logger, true))
	engine.Use(middlewares.RecoveryMiddleware(logger, true))
	engine.Use(middlewares.TelemetryMiddleware(logger, tele))
	engine.Use(httpMetrics.Handler())

	s := &Server{
		cfg:       cfg,
		engine:    engine,
		forecasts: forecasts,
		view:      forecast.NewView(forecasts.Fresh(), logger, tele),
		logger:    logger,
		tele:      tele,
		ctx:       ctx,
		cancel:    cancel,
	}

	s.setupRoutes(metrics)

	return s
}

func (s *Server) setupRoutes(metrics *handlers.MetricsHandler) {
	page := handlers.NewPageHandler(s.view)
	location := handlers.NewLocationHandler(s.ctx, s.view, s.logger)
	health := handlers.NewHealthHandler(s.view)

	s.engine.GET("/", page.Index)
	s.engine.GET("/cards", page.Fragment)

	s.engine.GET("/forecast", handlers.NewForecastHandler(s.forecasts, s.logger).GetForecast)
	s.engine.GET("/location", location.GetLocation)
	s.engine.PUT("/location", location.PutLocation)

	// Health endpoints (Kubernetes friendly)
	s.engine.GET("/health", health.Health)
	s.engine.GET("/health/live", health.Liveness)
	s.engine.GET("/health/ready", health.Readiness)

	s.engine.GET("/metrics", metrics.ServeMetrics)
}

// Mount starts the initial fetch for the configured location.
func (s *Server) Mount() {
	coords := forecast.Coordinates{
		Latitude:  s.cfg.Location.Latitude,
		Longitude: s.cfg.Location.Longitude,
	}
	if s.view.SetCoordinates(s.ctx, coords) {
		s.logger.Info("Forecast view mounted", zap.String("coordinates", coords.String()))
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) View() *forecast.View {
	return s.view
}

func (s *Server) Start() error {
	s.Mount()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      s.engine,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeout) * time.Second,
	}

	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	defer s.view.Wait()

	if s.server == nil {
		return nil
	}

	return s.server.Shutdown(ctx)
}
