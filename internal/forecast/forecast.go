package forecast

import (
	"fmt"
	"time"

	"github.com/vzahanych/weather-cards/internal/service"
)

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// Requested fields. Their order is the order values are read back in.
var (
	CurrentVariables = service.MustVariableSet(
		service.ApparentTemperature,
		service.IsDay,
		service.Precipitation,
		service.Rain,
		service.Showers,
		service.Snowfall,
	)
	DailyVariables = service.MustVariableSet(
		service.Temperature2mMax,
		service.Temperature2mMin,
	)
)

// WeatherData is the view model. Daily slices are index aligned and in
// ascending date order.
type WeatherData struct {
	Daily   Daily   `json:"daily"`
	Current Current `json:"current"`
}

type Daily struct {
	Time             []time.Time `json:"time"`
	Temperature2mMax []float64   `json:"temperature_2m_max"`
	Temperature2mMin []float64   `json:"temperature_2m_min"`
}

type Current struct {
	Time                time.Time `json:"time"`
	ApparentTemperature float64   `json:"apparent_temperature"`
	IsDay               float64   `json:"is_day"`
	Precipitation       float64   `json:"precipitation"`
	Rain                float64   `json:"rain"`
	Showers             float64   `json:"showers"`
	Snowfall            float64   `json:"snowfall"`
}

func NewParams(c Coordinates) service.Params {
	return service.Params{
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
		Current:   CurrentVariables,
		Daily:     DailyVariables,
	}
}

// LocalTime shifts a provider epoch by the location offset. The result is a
// UTC instant whose wall clock reads as the location's local time.
func LocalTime(epochSeconds, utcOffsetSeconds int64) time.Time {
	return time.UnixMilli((epochSeconds + utcOffsetSeconds) * 1000).UTC()
}

// DayRange expands [start, end) in steps of interval into local instants.
func DayRange(start, end, interval, utcOffsetSeconds int64) ([]time.Time, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("invalid daily interval %d", interval)
	}
	if end < start {
		return nil, fmt.Errorf("daily range ends before it starts: %d < %d", end, start)
	}

	n := (end - start) / interval
	days := make([]time.Time, n)
	for i := int64(0); i < n; i++ {
		days[i] = LocalTime(start+i*interval, utcOffsetSeconds)
	}
	return days, nil
}

// Transform reshapes a provider response into a WeatherData. It fails
// rather than returning a partially filled model.
func Transform(resp *service.Response) (*WeatherData, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil response")
	}
	offset := resp.UTCOffsetSeconds

	current, err := transformCurrent(resp.Current, offset)
	if err != nil {
		return nil, err
	}

	daily, err := transformDaily(resp.Daily, offset)
	if err != nil {
		return nil, err
	}

	return &WeatherData{Daily: daily, Current: current}, nil
}

func transformCurrent(block *service.CurrentBlock, offset int64) (Current, error) {
	if block == nil {
		return Current{}, fmt.Errorf("current: %w", service.ErrMissingBlock)
	}

	current := Current{Time: LocalTime(block.Time, offset)}
	fields := []struct {
		v   service.Variable
		dst *float64
	}{
		{service.ApparentTemperature, &current.ApparentTemperature},
		{service.IsDay, &current.IsDay},
		{service.Precipitation, &current.Precipitation},
		{service.Rain, &current.Rain},
		{service.Showers, &current.Showers},
		{service.Snowfall, &current.Snowfall},
	}

	for _, f := range fields {
		value, err := block.Variable(mustIndex(CurrentVariables, f.v))
		if err != nil {
			return Current{}, fmt.Errorf("%s: %w", f.v, err)
		}
		*f.dst = value
	}

	return current, nil
}

func transformDaily(block *service.DailyBlock, offset int64) (Daily, error) {
	if block == nil {
		return Daily{}, fmt.Errorf("daily: %w", service.ErrMissingBlock)
	}

	days, err := DayRange(block.Time, block.TimeEnd, block.Interval, offset)
	if err != nil {
		return Daily{}, err
	}

	maxes, err := dailySeries(block, service.Temperature2mMax, len(days))
	if err != nil {
		return Daily{}, err
	}
	mins, err := dailySeries(block, service.Temperature2mMin, len(days))
	if err != nil {
		return Daily{}, err
	}

	return Daily{
		Time:             days,
		Temperature2mMax: maxes,
		Temperature2mMin: mins,
	}, nil
}

func dailySeries(block *service.DailyBlock, v service.Variable, days int) ([]float64, error) {
	values, err := block.Variable(mustIndex(DailyVariables, v))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", v, err)
	}
	if len(values) < days {
		return nil, fmt.Errorf("%s: got %d values for %d days", v, len(values), days)
	}

	// values past the end of the range have no day to go on
	out := make([]float64, days)
	copy(out, values[:days])
	return out, nil
}

func mustIndex(set service.VariableSet, v service.Variable) int {
	i, ok := set.Index(v)
	if !ok {
		panic(fmt.Sprintf("variable %q is not requested", v))
	}
	return i
}
