package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/99souls/ariadne/engine/models"
	"github.com/99souls/ariadne/engine/telemetry/logging"
)

// WeatherConfig points at an Open-Meteo-compatible forecast endpoint.
type WeatherConfig struct {
	BaseURL    string
	HTTPClient *http.Client
}

// WeatherAdapter fetches an hourly forecast for a point.
type WeatherAdapter struct {
	cfg WeatherConfig
	log logging.Logger
}

func NewWeatherAdapter(cfg WeatherConfig, log logging.Logger) *WeatherAdapter {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 8 * time.Second}
	}
	return &WeatherAdapter{cfg: cfg, log: log}
}

// openMeteoHourlyResponse mirrors the upstream field names directly, the
// same "JSON struct named after the upstream fields" shape used for every
// Open-Meteo-style integration.
type openMeteoHourlyResponse struct {
	Hourly struct {
		Time          []string  `json:"time"`
		Temperature2m []float64 `json:"temperature_2m"`
		RelHumidity2m []float64 `json:"relative_humidity_2m"`
		WindSpeed10m  []float64 `json:"wind_speed_10m"`
		WindDir10m    []float64 `json:"wind_direction_10m"`
		UVIndex       []float64 `json:"uv_index"`
		Precipitation []float64 `json:"precipitation"`
		CloudCover    []float64 `json:"cloud_cover"`
	} `json:"hourly"`
}

// Fetch returns the first durationHours hourly entries of the upstream
// forecast, in upstream order (all entries when durationHours <= 0). The
// entries are not filtered by the current time or the request's start time.
// Never returns an error: any transport or decode failure yields Absent.
func (a *WeatherAdapter) Fetch(ctx context.Context, lat, lon float64, durationHours int) Result[[]models.WeatherHour] {
	url := fmt.Sprintf("%s?latitude=%f&longitude=%f&hourly=temperature_2m,relative_humidity_2m,wind_speed_10m,wind_direction_10m,uv_index,precipitation,cloud_cover",
		a.cfg.BaseURL, lat, lon)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		a.log.ErrorCtx(ctx, "weather: build request failed", "cause", err.Error())
		return Absent[[]models.WeatherHour]("build request failed: " + err.Error())
	}
	resp, err := a.cfg.HTTPClient.Do(req)
	if err != nil {
		a.log.ErrorCtx(ctx, "weather: request failed", "cause", err.Error())
		return Absent[[]models.WeatherHour]("request failed: " + err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		a.log.ErrorCtx(ctx, "weather: non-200 response", "status", resp.StatusCode)
		return Absent[[]models.WeatherHour](fmt.Sprintf("upstream status %d", resp.StatusCode))
	}

	var body openMeteoHourlyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		a.log.ErrorCtx(ctx, "weather: decode failed", "cause", err.Error())
		return Absent[[]models.WeatherHour]("decode failed: " + err.Error())
	}

	n := len(body.Hourly.Time)
	if durationHours > 0 && durationHours < n {
		n = durationHours
	}
	if n == 0 {
		return Absent[[]models.WeatherHour]("forecast returned no hourly entries")
	}

	hours := make([]models.WeatherHour, 0, n)
	for i := 0; i < n; i++ {
		ts, err := time.Parse("2006-01-02T15:04", body.Hourly.Time[i])
		if err != nil {
			continue
		}
		hours = append(hours, models.WeatherHour{
			Timestamp:     ts,
			TempC:         at(body.Hourly.Temperature2m, i),
			HumidityPct:   at(body.Hourly.RelHumidity2m, i),
			WindKmh:       at(body.Hourly.WindSpeed10m, i),
			WindDirDeg:    at(body.Hourly.WindDir10m, i),
			UVIndex:       at(body.Hourly.UVIndex, i),
			PrecipMM:      at(body.Hourly.Precipitation, i),
			CloudCoverPct: at(body.Hourly.CloudCover, i),
		})
	}
	if len(hours) == 0 {
		return Absent[[]models.WeatherHour]("forecast entries failed to parse")
	}
	return Ok(hours)
}

func at(xs []float64, i int) float64 {
	if i < 0 || i >= len(xs) {
		return 0
	}
	return xs[i]
}
