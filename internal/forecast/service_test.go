package forecast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-cards/internal/config"
	"github.com/vzahanych/weather-cards/internal/service"
	"github.com/vzahanych/weather-cards/pkg/telemetry"
	"go.uber.org/zap/zaptest"
)

type fakeProvider struct {
	mu    sync.Mutex
	calls []service.Params
	resp  *service.Response
	err   error
}

func (p *fakeProvider) Forecast(ctx context.Context, params service.Params) (*service.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, params)
	return p.resp, p.err
}

func (p *fakeProvider) Name() string {
	return "fake"
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type fakeMetrics struct {
	hits, misses int
	calls        map[string]int
	failures     map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{calls: map[string]int{}, failures: map[string]int{}}
}

func (m *fakeMetrics) RecordCacheHit(ctx context.Context, cacheType string)  { m.hits++ }
func (m *fakeMetrics) RecordCacheMiss(ctx context.Context, cacheType string) { m.misses++ }
func (m *fakeMetrics) RecordWeatherServiceCall(ctx context.Context, svc string, success bool) {
	m.calls[svc]++
	if !success {
		m.failures[svc]++
	}
}

func newTestForecastService(t *testing.T, p service.ForecastProvider, ttl int) *Service {
	return NewService(p, config.ForecastConfig{CacheTTL: ttl}, zaptest.NewLogger(t), &telemetry.Telemetry{})
}

var sarajevo = Coordinates{Latitude: 43.8486, Longitude: 18.3564}

func TestService_Fetch(t *testing.T) {
	provider := &fakeProvider{resp: sampleResponse()}
	svc := newTestForecastService(t, provider, 300)

	data, err := svc.Fetch(context.Background(), sarajevo)
	require.NoError(t, err)
	require.Len(t, data.Daily.Time, 3)

	require.Len(t, provider.calls, 1)
	assert.Equal(t, sarajevo.Latitude, provider.calls[0].Latitude)
	assert.Equal(t, sarajevo.Longitude, provider.calls[0].Longitude)
	assert.Equal(t, CurrentVariables.String(), provider.calls[0].Current.String())
	assert.Equal(t, DailyVariables.String(), provider.calls[0].Daily.String())
}

func TestService_Cache(t *testing.T) {
	provider := &fakeProvider{resp: sampleResponse()}
	metrics := newFakeMetrics()
	svc := newTestForecastService(t, provider, 300)
	svc.SetMetricsRecorder(metrics)

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	first, err := svc.Fetch(context.Background(), sarajevo)
	require.NoError(t, err)
	second, err := svc.Fetch(context.Background(), sarajevo)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, provider.callCount())
	assert.Equal(t, 1, metrics.hits)
	assert.Equal(t, 1, metrics.misses)
	assert.Equal(t, 1, metrics.calls["fake"])
	assert.Equal(t, 1, svc.GetCacheStats()["cache_size"])

	now = now.Add(5 * time.Minute)
	_, err = svc.Fetch(context.Background(), sarajevo)
	require.NoError(t, err)
	assert.Equal(t, 2, provider.callCount())

	svc.ClearCache()
	assert.Equal(t, 0, svc.GetCacheStats()["cache_size"])
}

func TestService_CacheDisabled(t *testing.T) {
	provider := &fakeProvider{resp: sampleResponse()}
	svc := newTestForecastService(t, provider, 0)

	for i := 0; i < 3; i++ {
		_, err := svc.Fetch(context.Background(), sarajevo)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, provider.callCount())
	assert.Equal(t, 0, svc.GetCacheStats()["cache_size"])
	assert.Equal(t, "0s", svc.GetCacheStats()["cache_ttl"])
}

func TestService_ProviderError(t *testing.T) {
	boom := errors.New("connection refused")
	provider := &fakeProvider{err: boom}
	metrics := newFakeMetrics()
	svc := newTestForecastService(t, provider, 300)
	svc.SetMetricsRecorder(metrics)

	data, err := svc.Fetch(context.Background(), sarajevo)
	assert.Nil(t, data)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, metrics.failures["fake"])
	assert.Equal(t, 0, svc.GetCacheStats()["cache_size"])
}

func TestService_TransformErrorIsNotCached(t *testing.T) {
	resp := sampleResponse()
	resp.Daily.Values = resp.Daily.Values[:1]
	provider := &fakeProvider{resp: resp}
	svc := newTestForecastService(t, provider, 300)

	_, err := svc.Fetch(context.Background(), sarajevo)
	assert.ErrorIs(t, err, service.ErrMissingVariable)

	_, err = svc.Fetch(context.Background(), sarajevo)
	assert.Error(t, err)
	assert.Equal(t, 2, provider.callCount())
}

func TestService_RefreshBypassesCache(t *testing.T) {
	provider := &fakeProvider{resp: sampleResponse()}
	metrics := newFakeMetrics()
	svc := newTestForecastService(t, provider, 300)
	svc.SetMetricsRecorder(metrics)

	_, err := svc.Fetch(context.Background(), sarajevo)
	require.NoError(t, err)

	fresh, err := svc.Fresh().Fetch(context.Background(), sarajevo)
	require.NoError(t, err)
	assert.Equal(t, 2, provider.callCount())
	assert.Equal(t, 0, metrics.hits)
	assert.Equal(t, 1, metrics.misses)
	assert.Equal(t, 2, metrics.calls["fake"])

	cached, err := svc.Fetch(context.Background(), sarajevo)
	require.NoError(t, err)
	assert.Same(t, fresh, cached)
	assert.Equal(t, 2, provider.callCount())
}
