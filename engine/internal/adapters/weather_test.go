package adapters

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99souls/ariadne/engine/telemetry/logging"
)

const sampleForecast = `{
  "hourly": {
    "time": ["2026-07-31T00:00", "2026-07-31T01:00", "2026-07-31T02:00"],
    "temperature_2m": [20.0, 21.0, 22.0],
    "relative_humidity_2m": [50.0, 52.0, 55.0],
    "wind_speed_10m": [10.0, 12.0, 14.0],
    "wind_direction_10m": [180.0, 182.0, 184.0],
    "uv_index": [3.0, 4.0, 5.0],
    "precipitation": [0.0, 0.0, 1.0],
    "cloud_cover": [10.0, 20.0, 30.0]
  }
}`

func TestWeatherAdapter_ParsesHourlyForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleForecast))
	}))
	defer srv.Close()

	a := NewWeatherAdapter(WeatherConfig{BaseURL: srv.URL}, logging.New(nil))
	res := a.Fetch(t.Context(), 40.7, -74.0, 2)
	require.True(t, res.Present)
	require.Len(t, res.Value, 2)
	assert.Equal(t, 20.0, res.Value[0].TempC)
	assert.Equal(t, 21.0, res.Value[1].TempC)
}

func TestWeatherAdapter_DurationZeroReturnsAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleForecast))
	}))
	defer srv.Close()

	a := NewWeatherAdapter(WeatherConfig{BaseURL: srv.URL}, logging.New(nil))
	res := a.Fetch(t.Context(), 40.7, -74.0, 0)
	require.True(t, res.Present)
	assert.Len(t, res.Value, 3)
}

func TestWeatherAdapter_AbsentOnNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := NewWeatherAdapter(WeatherConfig{BaseURL: srv.URL}, logging.New(nil))
	res := a.Fetch(t.Context(), 40.7, -74.0, 24)
	assert.False(t, res.Present)
	assert.Contains(t, res.Reason, "503")
}

func TestWeatherAdapter_AbsentOnMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	a := NewWeatherAdapter(WeatherConfig{BaseURL: srv.URL}, logging.New(nil))
	res := a.Fetch(t.Context(), 40.7, -74.0, 24)
	assert.False(t, res.Present)
}

func TestWeatherAdapter_AbsentOnEmptyHourly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hourly":{"time":[]}}`))
	}))
	defer srv.Close()

	a := NewWeatherAdapter(WeatherConfig{BaseURL: srv.URL}, logging.New(nil))
	res := a.Fetch(t.Context(), 40.7, -74.0, 24)
	assert.False(t, res.Present)
}
