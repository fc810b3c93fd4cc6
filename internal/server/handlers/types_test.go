package handlers

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-cards/internal/forecast"
)

func TestNewForecastResponse_MissingValuesAreNull(t *testing.T) {
	data := &forecast.WeatherData{}
	data.Daily.Time = []time.Time{time.Unix(0, 0).UTC(), time.Unix(86400, 0).UTC()}
	data.Daily.Temperature2mMax = []float64{10.4, math.NaN()}
	data.Daily.Temperature2mMin = []float64{2.1, 3}
	data.Current.ApparentTemperature = math.NaN()
	data.Current.IsDay = 1

	body, err := json.Marshal(NewForecastResponse(data))
	require.NoError(t, err)

	var decoded map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))

	assert.Equal(t, []interface{}{10.4, nil}, decoded["daily"]["temperature_2m_max"])
	assert.Equal(t, []interface{}{2.1, 3.0}, decoded["daily"]["temperature_2m_min"])
	assert.Nil(t, decoded["current"]["apparent_temperature"])
	assert.Equal(t, 1.0, decoded["current"]["is_day"])
	assert.Equal(t, 0.0, decoded["current"]["rain"])
}
