package forecast

import (
	"context"
	"fmt"
	"sync"

	"github.com/vzahanych/weather-cards/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// View owns the single view-model slot for one mounted coordinate pair.
//
// A fetch is started when the view is first mounted and again whenever the
// coordinates change. In-flight fetches are never cancelled, so when they
// overlap the last one to finish wins. A failed fetch leaves the slot as it
// was and is only logged and recorded in LastError.
type View struct {
	fetcher Fetcher
	logger  *zap.Logger
	tele    *telemetry.Telemetry

	mu      sync.RWMutex
	coords  Coordinates
	mounted bool
	model   *WeatherData
	lastErr error

	wg sync.WaitGroup
}

func NewView(fetcher Fetcher, logger *zap.Logger, tele *telemetry.Telemetry) *View {
	return &View{
		fetcher: fetcher,
		logger:  logger.With(zap.String("component", "view")),
		tele:    tele,
	}
}

// SetCoordinates mounts the view on coords. It reports whether a new fetch
// was started, which is the case on first mount and on every change.
func (v *View) SetCoordinates(ctx context.Context, coords Coordinates) bool {
	v.mu.Lock()
	if v.mounted && v.coords == coords {
		v.mu.Unlock()
		return false
	}
	v.mounted = true
	v.coords = coords
	v.wg.Add(1)
	v.mu.Unlock()

	go v.fetch(ctx, coords)
	return true
}

func (v *View) fetch(ctx context.Context, coords Coordinates) {
	defer v.wg.Done()

	tracer := v.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "view.fetch")
	defer span.End()

	span.SetAttributes(
		attribute.Float64("lat", coords.Latitude),
		attribute.Float64("lon", coords.Longitude),
	)

	data, err := v.safeFetch(ctx, coords)
	if err != nil {
		span.SetAttributes(attribute.Bool("success", false))
		v.logger.Error("Error fetching weather data",
			zap.String("coordinates", coords.String()),
			zap.Error(err))

		v.mu.Lock()
		v.lastErr = err
		v.mu.Unlock()
		return
	}

	span.SetAttributes(attribute.Bool("success", true))

	v.mu.Lock()
	v.model = data
	v.lastErr = nil
	v.mu.Unlock()

	v.logger.Debug("View model replaced",
		zap.String("coordinates", coords.String()),
		zap.Int("days", len(data.Daily.Time)))
}

func (v *View) safeFetch(ctx context.Context, coords Coordinates) (data *WeatherData, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("fetch panicked: %v", r)
		}
	}()

	data, err = v.fetcher.Fetch(ctx, coords)
	if err == nil && data == nil {
		err = fmt.Errorf("fetcher returned no data")
	}
	return data, err
}

// Model returns the current view model, or nil while loading.
func (v *View) Model() *WeatherData {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.model
}

func (v *View) Loading() bool {
	return v.Model() == nil
}

// LastError returns the error of the most recent failed fetch, cleared by
// the next successful one.
func (v *View) LastError() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastErr
}

func (v *View) Coordinates() (Coordinates, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.coords, v.mounted
}

// Wait blocks until every started fetch has finished.
func (v *View) Wait() {
	v.wg.Wait()
}
