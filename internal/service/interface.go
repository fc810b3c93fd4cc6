package service

import (
	"context"
	"errors"
	"fmt"
)

// ForecastProvider fetches raw forecast blocks for a coordinate pair.
type ForecastProvider interface {
	Forecast(ctx context.Context, params Params) (*Response, error)
	Name() string
}

var (
	ErrMissingBlock    = errors.New("missing block")
	ErrMissingVariable = errors.New("missing variable")
)

// APIError is returned when the provider answers with a non-200 status.
type APIError struct {
	StatusCode int
	Reason     string
}

func (e *APIError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("API request failed with status: %d", e.StatusCode)
	}
	return fmt.Sprintf("API request failed with status: %d: %s", e.StatusCode, e.Reason)
}

// Params is one forecast request. Current and Daily fix both the requested
// fields and the positions they are read back from.
type Params struct {
	Latitude  float64
	Longitude float64
	Current   VariableSet
	Daily     VariableSet
}

// Response is the provider payload with variables addressed by position.
type Response struct {
	UTCOffsetSeconds int64
	Current          *CurrentBlock
	Daily            *DailyBlock
}

type CurrentBlock struct {
	Time     int64
	Interval int64
	Values   []float64
}

// Variable returns the i-th requested current value.
func (b *CurrentBlock) Variable(i int) (float64, error) {
	if b == nil {
		return 0, fmt.Errorf("current: %w", ErrMissingBlock)
	}
	if i < 0 || i >= len(b.Values) {
		return 0, fmt.Errorf("current variable %d: %w", i, ErrMissingVariable)
	}
	return b.Values[i], nil
}

// DailyBlock covers [Time, TimeEnd) in steps of Interval seconds.
type DailyBlock struct {
	Time     int64
	TimeEnd  int64
	Interval int64
	Values   [][]float64
}

// Variable returns the i-th requested daily series.
func (b *DailyBlock) Variable(i int) ([]float64, error) {
	if b == nil {
		return nil, fmt.Errorf("daily: %w", ErrMissingBlock)
	}
	if i < 0 || i >= len(b.Values) || b.Values[i] == nil {
		return nil, fmt.Errorf("daily variable %d: %w", i, ErrMissingVariable)
	}
	return b.Values[i], nil
}
