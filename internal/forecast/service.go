package forecast

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vzahanych/weather-cards/internal/config"
	"github.com/vzahanych/weather-cards/internal/service"
	"github.com/vzahanych/weather-cards/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type CacheEntry struct {
	Data      *WeatherData
	Timestamp time.Time
}

// MetricsRecorder interface for recording metrics
type MetricsRecorder interface {
	RecordCacheHit(ctx context.Context, cacheType string)
	RecordCacheMiss(ctx context.Context, cacheType string)
	RecordWeatherServiceCall(ctx context.Context, service string, success bool)
}

// Fetcher produces a view model for a coordinate pair.
type Fetcher interface {
	Fetch(ctx context.Context, coords Coordinates) (*WeatherData, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, coords Coordinates) (*WeatherData, error)

func (f FetcherFunc) Fetch(ctx context.Context, coords Coordinates) (*WeatherData, error) {
	return f(ctx, coords)
}

// Service fetches and transforms forecasts, caching results per coordinate
// pair for the configured TTL.
type Service struct {
	provider service.ForecastProvider
	cache    map[string]*CacheEntry
	mutex    sync.RWMutex
	cacheTTL time.Duration
	logger   *zap.Logger
	tele     *telemetry.Telemetry
	metrics  MetricsRecorder
	now      func() time.Time
}

func NewService(provider service.ForecastProvider, cfg config.ForecastConfig, logger *zap.Logger, tele *telemetry.Telemetry) *Service {
	return &Service{
		provider: provider,
		cache:    make(map[string]*CacheEntry),
		cacheTTL: time.Duration(cfg.CacheTTL) * time.Second,
		logger:   logger.With(zap.String("component", "forecast"), zap.String("provider", provider.Name())),
		tele:     tele,
		now:      time.Now,
	}
}

// SetMetricsRecorder sets the metrics recorder for the service
func (s *Service) SetMetricsRecorder(metrics MetricsRecorder) {
	s.metrics = metrics
}

// Fetch serves from the cache when it holds a fresh entry for coords.
func (s *Service) Fetch(ctx context.Context, coords Coordinates) (*WeatherData, error) {
	tracer := s.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "forecast.Fetch")
	defer span.End()

	span.SetAttributes(
		attribute.Float64("lat", coords.Latitude),
		attribute.Float64("lon", coords.Longitude),
	)

	cacheKey := coords.String()

	if cached := s.getFromCache(cacheKey); cached != nil {
		s.logger.Debug("Cache hit", zap.String("cache_key", cacheKey))
		span.SetAttributes(attribute.Bool("cache_hit", true))
		if s.metrics != nil {
			s.metrics.RecordCacheHit(ctx, "forecast")
		}
		return cached, nil
	}

	span.SetAttributes(attribute.Bool("cache_hit", false))
	if s.metrics != nil {
		s.metrics.RecordCacheMiss(ctx, "forecast")
	}

	return s.fetch(ctx, coords)
}

// Refresh always calls the provider. The result still refreshes the cache.
func (s *Service) Refresh(ctx context.Context, coords Coordinates) (*WeatherData, error) {
	tracer := s.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "forecast.Refresh")
	defer span.End()

	span.SetAttributes(
		attribute.Float64("lat", coords.Latitude),
		attribute.Float64("lon", coords.Longitude),
	)

	return s.fetch(ctx, coords)
}

// Fresh returns a Fetcher that bypasses the cache.
func (s *Service) Fresh() Fetcher {
	return FetcherFunc(s.Refresh)
}

func (s *Service) fetch(ctx context.Context, coords Coordinates) (*WeatherData, error) {
	span := trace.SpanFromContext(ctx)
	cacheKey := coords.String()

	resp, err := s.provider.Forecast(ctx, NewParams(coords))
	if s.metrics != nil {
		s.metrics.RecordWeatherServiceCall(ctx, s.provider.Name(), err == nil)
	}
	if err != nil {
		span.SetAttributes(attribute.Bool("success", false))
		s.tele.RecordError(ctx, err)
		return nil, fmt.Errorf("fetch forecast for %s: %w", cacheKey, err)
	}

	data, err := Transform(resp)
	if err != nil {
		span.SetAttributes(attribute.Bool("success", false))
		s.tele.RecordError(ctx, err)
		return nil, fmt.Errorf("transform forecast for %s: %w", cacheKey, err)
	}

	s.setCache(cacheKey, data)
	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("days", len(data.Daily.Time)),
	)

	s.logger.Info("Forecast fetched",
		zap.String("cache_key", cacheKey),
		zap.Int("days", len(data.Daily.Time)))

	return data, nil
}

func (s *Service) getFromCache(key string) *WeatherData {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, exists := s.cache[key]
	if !exists {
		return nil
	}

	if s.now().Sub(entry.Timestamp) >= s.cacheTTL {
		delete(s.cache, key)
		return nil
	}

	return entry.Data
}

func (s *Service) setCache(key string, data *WeatherData) {
	if s.cacheTTL <= 0 {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.cache[key] = &CacheEntry{
		Data:      data,
		Timestamp: s.now(),
	}
}

func (s *Service) ClearCache() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.cache = make(map[string]*CacheEntry)
}

func (s *Service) GetCacheStats() map[string]interface{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return map[string]interface{}{
		"cache_size": len(s.cache),
		"cache_ttl":  s.cacheTTL.String(),
		"provider":   s.provider.Name(),
	}
}
