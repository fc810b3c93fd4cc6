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
	"github.com/vzahanych/weather-cards/pkg/telemetry"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// recordingFetcher counts calls and returns a model tagged with the
// requested latitude.
type recordingFetcher struct {
	mu    sync.Mutex
	calls []Coordinates
	err   error
}

func (f *recordingFetcher) Fetch(ctx context.Context, coords Coordinates) (*WeatherData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, coords)
	if f.err != nil {
		return nil, f.err
	}
	return modelFor(coords), nil
}

func (f *recordingFetcher) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *recordingFetcher) callsSnapshot() []Coordinates {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Coordinates(nil), f.calls...)
}

func modelFor(c Coordinates) *WeatherData {
	return &WeatherData{Current: Current{ApparentTemperature: c.Latitude}}
}

func newTestView(t *testing.T, f Fetcher) *View {
	return NewView(f, zaptest.NewLogger(t), &telemetry.Telemetry{})
}

func TestView_LoadingUntilFetchCompletes(t *testing.T) {
	release := make(chan struct{})
	view := newTestView(t, FetcherFunc(func(ctx context.Context, c Coordinates) (*WeatherData, error) {
		<-release
		return modelFor(c), nil
	}))

	assert.True(t, view.Loading())
	_, mounted := view.Coordinates()
	assert.False(t, mounted)

	require.True(t, view.SetCoordinates(context.Background(), sarajevo))
	assert.True(t, view.Loading())

	close(release)
	view.Wait()

	require.False(t, view.Loading())
	assert.Equal(t, sarajevo.Latitude, view.Model().Current.ApparentTemperature)
	assert.NoError(t, view.LastError())
}

func TestView_FailureStaysLoadingAndLogs(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	boom := errors.New("network down")
	view := NewView(&recordingFetcher{err: boom}, zap.New(core), &telemetry.Telemetry{})

	view.SetCoordinates(context.Background(), sarajevo)
	view.Wait()

	assert.True(t, view.Loading())
	assert.Nil(t, view.Model())
	assert.ErrorIs(t, view.LastError(), boom)

	entries := logs.FilterMessage("Error fetching weather data").All()
	require.Len(t, entries, 1)
	assert.Equal(t, boom.Error(), entries[0].ContextMap()["error"])
}

func TestView_SameCoordinatesDoNotRefetch(t *testing.T) {
	fetcher := &recordingFetcher{}
	view := newTestView(t, fetcher)

	assert.True(t, view.SetCoordinates(context.Background(), sarajevo))
	view.Wait()
	assert.False(t, view.SetCoordinates(context.Background(), sarajevo))
	view.Wait()

	assert.Len(t, fetcher.callsSnapshot(), 1)
}

func TestView_CoordinateChangeFetchesOnce(t *testing.T) {
	fetcher := &recordingFetcher{}
	view := newTestView(t, fetcher)

	view.SetCoordinates(context.Background(), sarajevo)
	view.Wait()
	first := view.Model()

	london := Coordinates{Latitude: 51.5074, Longitude: -0.1278}
	require.True(t, view.SetCoordinates(context.Background(), london))
	view.Wait()

	calls := fetcher.callsSnapshot()
	require.Len(t, calls, 2)
	assert.Equal(t, london, calls[1])

	second := view.Model()
	assert.NotSame(t, first, second)
	assert.Equal(t, london.Latitude, second.Current.ApparentTemperature)

	coords, mounted := view.Coordinates()
	assert.True(t, mounted)
	assert.Equal(t, london, coords)
}

func TestView_FailedRefetchKeepsPreviousModel(t *testing.T) {
	fetcher := &recordingFetcher{}
	view := newTestView(t, fetcher)

	view.SetCoordinates(context.Background(), sarajevo)
	view.Wait()
	previous := view.Model()
	require.NotNil(t, previous)

	fetcher.setErr(errors.New("timeout"))
	view.SetCoordinates(context.Background(), Coordinates{Latitude: 1, Longitude: 2})
	view.Wait()

	assert.Same(t, previous, view.Model())
	assert.Error(t, view.LastError())

	fetcher.setErr(nil)
	view.SetCoordinates(context.Background(), Coordinates{Latitude: 3, Longitude: 4})
	view.Wait()

	assert.Equal(t, 3.0, view.Model().Current.ApparentTemperature)
	assert.NoError(t, view.LastError())
}

func TestView_PanickingFetcherIsRecorded(t *testing.T) {
	view := newTestView(t, FetcherFunc(func(ctx context.Context, c Coordinates) (*WeatherData, error) {
		panic("client exploded")
	}))

	view.SetCoordinates(context.Background(), sarajevo)
	view.Wait()

	assert.True(t, view.Loading())
	require.Error(t, view.LastError())
	assert.Contains(t, view.LastError().Error(), "client exploded")
}

func TestView_NilModelIsAnError(t *testing.T) {
	view := newTestView(t, FetcherFunc(func(ctx context.Context, c Coordinates) (*WeatherData, error) {
		return nil, nil
	}))

	view.SetCoordinates(context.Background(), sarajevo)
	view.Wait()

	assert.True(t, view.Loading())
	assert.Error(t, view.LastError())
}

func TestView_OverlappingFetchesLastCompletionWins(t *testing.T) {
	a := Coordinates{Latitude: 10, Longitude: 10}
	b := Coordinates{Latitude: 20, Longitude: 20}

	gates := map[Coordinates]chan struct{}{
		a: make(chan struct{}),
		b: make(chan struct{}),
	}

	view := newTestView(t, FetcherFunc(func(ctx context.Context, c Coordinates) (*WeatherData, error) {
		<-gates[c]
		return modelFor(c), nil
	}))

	view.SetCoordinates(context.Background(), a)
	view.SetCoordinates(context.Background(), b)

	close(gates[b])
	require.Eventually(t, func() bool {
		m := view.Model()
		return m != nil && m.Current.ApparentTemperature == b.Latitude
	}, time.Second, time.Millisecond)

	close(gates[a])
	view.Wait()

	assert.Equal(t, a.Latitude, view.Model().Current.ApparentTemperature)
}

func TestEndToEnd_SampleForecast(t *testing.T) {
	provider := &fakeProvider{resp: sampleResponse()}
	svc := newTestForecastService(t, provider, 300)
	view := newTestView(t, svc.Fresh())

	view.SetCoordinates(context.Background(), sarajevo)
	view.Wait()

	model := view.Model()
	require.NotNil(t, model)
	assert.Len(t, model.Daily.Time, 3)
	assert.Equal(t, 5.5, model.Current.ApparentTemperature)
	assert.Equal(t, 1.0, model.Current.IsDay)
}

func TestView_ReturningToCachedCoordinatesFetchesAgain(t *testing.T) {
	provider := &fakeProvider{resp: sampleResponse()}
	svc := NewService(provider, config.NewDefaultConfig().Forecast, zaptest.NewLogger(t), &telemetry.Telemetry{})
	view := newTestView(t, svc.Fresh())

	other := Coordinates{Latitude: 51.5074, Longitude: -0.1278}
	for _, c := range []Coordinates{sarajevo, other, sarajevo} {
		require.True(t, view.SetCoordinates(context.Background(), c))
		view.Wait()
	}

	require.Equal(t, 3, provider.callCount())
	assert.Equal(t, sarajevo.Latitude, provider.calls[2].Latitude)
	assert.Equal(t, 2, svc.GetCacheStats()["cache_size"])
}
