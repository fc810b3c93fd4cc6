package handlers

import (
	"math"
	"time"

	"github.com/vzahanych/weather-cards/internal/forecast"
	"github.com/vzahanych/weather-cards/internal/server/utils"
)

// ForecastRequest is the query of GET /forecast.
type ForecastRequest struct {
	Lat *float64 `form:"lat" json:"lat" validate:"required,latitude" binding:"required"`
	Lon *float64 `form:"lon" json:"lon" validate:"required,longitude" binding:"required"`
}

// LocationRequest moves the mounted view. Any finite pair is accepted;
// range checks are left to the provider.
type LocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

type LocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Loading   bool    `json:"loading"`
	Refetch   bool    `json:"refetch,omitempty"`
}

type ErrorResponse struct {
	Error      string                  `json:"error"`
	Code       string                  `json:"code,omitempty"`
	Details    string                  `json:"details,omitempty"`
	Validation []utils.ValidationError `json:"validation,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ForecastResponse mirrors forecast.WeatherData with missing values as null.
type ForecastResponse struct {
	Daily   DailyResponse   `json:"daily"`
	Current CurrentResponse `json:"current"`
}

type DailyResponse struct {
	Time             []time.Time `json:"time"`
	Temperature2mMax []*float64  `json:"temperature_2m_max"`
	Temperature2mMin []*float64  `json:"temperature_2m_min"`
}

type CurrentResponse struct {
	Time                time.Time `json:"time"`
	ApparentTemperature *float64  `json:"apparent_temperature"`
	IsDay               *float64  `json:"is_day"`
	Precipitation       *float64  `json:"precipitation"`
	Rain                *float64  `json:"rain"`
	Showers             *float64  `json:"showers"`
	Snowfall            *float64  `json:"snowfall"`
}

func NewForecastResponse(data *forecast.WeatherData) ForecastResponse {
	cur := data.Current
	return ForecastResponse{
		Daily: DailyResponse{
			Time:             data.Daily.Time,
			Temperature2mMax: nullable(data.Daily.Temperature2mMax),
			Temperature2mMin: nullable(data.Daily.Temperature2mMin),
		},
		Current: CurrentResponse{
			Time:                cur.Time,
			ApparentTemperature: nullableValue(cur.ApparentTemperature),
			IsDay:               nullableValue(cur.IsDay),
			Precipitation:       nullableValue(cur.Precipitation),
			Rain:                nullableValue(cur.Rain),
			Showers:             nullableValue(cur.Showers),
			Snowfall:            nullableValue(cur.Snowfall),
		},
	}
}

func nullable(series []float64) []*float64 {
	out := make([]*float64, len(series))
	for i, v := range series {
		out[i] = nullableValue(v)
	}
	return out
}

func nullableValue(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
