package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vzahanych/weather-cards/internal/config"
	"github.com/vzahanych/weather-cards/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Open-Meteo daily series are always one calendar day apart.
const dailyInterval = int64(24 * time.Hour / time.Second)

const maxErrorBody = 64 << 10

type OpenMeteoService struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

func NewOpenMeteoServiceWithConfig(cfg config.ProviderConfig, logger *zap.Logger, tele *telemetry.Telemetry) *OpenMeteoService {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &OpenMeteoService{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.With(zap.String("service", "open-meteo")),
		tele:    tele,
	}
}

// WithHTTPClient swaps the transport, mostly for tests.
func (s *OpenMeteoService) WithHTTPClient(client *http.Client) *OpenMeteoService {
	s.client = client
	return s
}

func (s *OpenMeteoService) Name() string {
	return "open-meteo"
}

func (s *OpenMeteoService) Forecast(ctx context.Context, params Params) (*Response, error) {
	tracer := s.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "open-meteo.Forecast")
	defer span.End()

	span.SetAttributes(
		attribute.Float64("lat", params.Latitude),
		attribute.Float64("lon", params.Longitude),
		attribute.String("current", params.Current.String()),
		attribute.String("daily", params.Daily.String()),
	)

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	resp, err := s.fetch(ctx, params)
	if err != nil {
		s.tele.RecordError(ctx, err)
		span.SetAttributes(attribute.Bool("success", false))
		s.logger.Warn("Forecast request failed",
			zap.Float64("lat", params.Latitude),
			zap.Float64("lon", params.Longitude),
			zap.Error(err))
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int64("utc_offset_seconds", resp.UTCOffsetSeconds),
	)

	return resp, nil
}

func (s *OpenMeteoService) fetch(ctx context.Context, params Params) (*Response, error) {
	u, err := url.Parse(fmt.Sprintf("%s/forecast", s.baseURL))
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("latitude", fmt.Sprintf("%.6f", params.Latitude))
	q.Set("longitude", fmt.Sprintf("%.6f", params.Longitude))
	if params.Current.Len() > 0 {
		q.Set("current", params.Current.String())
	}
	if params.Daily.Len() > 0 {
		q.Set("daily", params.Daily.String())
	}
	q.Set("timeformat", "unixtime")
	q.Set("timezone", "auto")
	if s.apiKey != "" {
		q.Set("apikey", s.apiKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	s.logger.Debug("Fetching forecast",
		zap.Float64("lat", params.Latitude),
		zap.Float64("lon", params.Longitude))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var payload forecastPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}

	return payload.toResponse(params)
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}

	var payload struct {
		Error  bool   `json:"error"`
		Reason string `json:"reason"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Reason != "" {
		apiErr.Reason = payload.Reason
	}

	return apiErr
}

type forecastPayload struct {
	UTCOffsetSeconds *int64                     `json:"utc_offset_seconds"`
	Current          map[string]json.RawMessage `json:"current"`
	Daily            map[string]json.RawMessage `json:"daily"`
}

func (p *forecastPayload) toResponse(params Params) (*Response, error) {
	if p.UTCOffsetSeconds == nil {
		return nil, fmt.Errorf("utc_offset_seconds: %w", ErrMissingVariable)
	}

	resp := &Response{UTCOffsetSeconds: *p.UTCOffsetSeconds}

	if params.Current.Len() > 0 {
		current, err := decodeCurrent(p.Current, params.Current)
		if err != nil {
			return nil, err
		}
		resp.Current = current
	}

	if params.Daily.Len() > 0 {
		daily, err := decodeDaily(p.Daily, params.Daily)
		if err != nil {
			return nil, err
		}
		resp.Daily = daily
	}

	return resp, nil
}

func decodeCurrent(block map[string]json.RawMessage, vars VariableSet) (*CurrentBlock, error) {
	if block == nil {
		return nil, fmt.Errorf("current: %w", ErrMissingBlock)
	}

	current := &CurrentBlock{Values: make([]float64, vars.Len())}

	if err := decodeField(block, "time", &current.Time); err != nil {
		return nil, fmt.Errorf("current: %w", err)
	}
	if raw, ok := block["interval"]; ok {
		if err := json.Unmarshal(raw, &current.Interval); err != nil {
			return nil, fmt.Errorf("current.interval: %w", err)
		}
	}

	for i, v := range vars.Variables() {
		raw, ok := block[string(v)]
		if !ok {
			return nil, fmt.Errorf("current.%s: %w", v, ErrMissingVariable)
		}
		var value *float64
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("current.%s: %w", v, err)
		}
		current.Values[i] = orNaN(value)
	}

	return current, nil
}

func decodeDaily(block map[string]json.RawMessage, vars VariableSet) (*DailyBlock, error) {
	if block == nil {
		return nil, fmt.Errorf("daily: %w", ErrMissingBlock)
	}

	var times []int64
	if err := decodeField(block, "time", &times); err != nil {
		return nil, fmt.Errorf("daily: %w", err)
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("daily.time is empty")
	}

	daily := &DailyBlock{
		Time:     times[0],
		TimeEnd:  times[0] + int64(len(times))*dailyInterval,
		Interval: dailyInterval,
		Values:   make([][]float64, vars.Len()),
	}

	for i, v := range vars.Variables() {
		raw, ok := block[string(v)]
		if !ok {
			return nil, fmt.Errorf("daily.%s: %w", v, ErrMissingVariable)
		}
		var values []*float64
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, fmt.Errorf("daily.%s: %w", v, err)
		}
		series := make([]float64, len(values))
		for j, value := range values {
			series[j] = orNaN(value)
		}
		daily.Values[i] = series
	}

	return daily, nil
}

func decodeField(block map[string]json.RawMessage, name string, dst any) error {
	raw, ok := block[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrMissingVariable)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Open-Meteo reports gaps as null.
func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
