package engine

import (
	"time"

	"github.com/99souls/ariadne/engine/internal/adapters"
	"github.com/99souls/ariadne/engine/internal/cache"
	"github.com/99souls/ariadne/engine/internal/resilience"
)

// Config is the public configuration surface for the Engine facade. It
// narrows and normalizes underlying component configs while allowing
// advanced callers to inject custom HTTP clients via the adapter configs.
type Config struct {
	// JoinTimeout bounds the fan-out/fan-in join across all four adapters.
	JoinTimeout time.Duration

	Satellite     adapters.SatelliteConfig
	GroundStation adapters.GroundStationConfig
	Weather       adapters.WeatherConfig
	Elevation     adapters.ElevationConfig
	Summary       adapters.SummaryConfig

	Resilience resilience.Config
	Cache      cache.Config

	// Telemetry
	MetricsEnabled bool
	// MetricsBackend selects the implementation when MetricsEnabled is true:
	// "prom" (default), "otel", or "noop".
	MetricsBackend string
}

// Defaults returns a Config with sensible defaults: public endpoints for the
// weather/elevation services, conservative resilience settings, and
// metrics/caching enabled.
func Defaults() Config {
	return Config{
		JoinTimeout: 25 * time.Second,
		Satellite: adapters.SatelliteConfig{
			CatalogURL: "https://example-satellite-catalog.invalid/v1/granules",
		},
		GroundStation: adapters.GroundStationConfig{
			CatalogURL: "https://example-groundstation.invalid/v1/stations",
			RadiusKM:   25,
		},
		Weather: adapters.WeatherConfig{
			BaseURL: "https://api.open-meteo.com/v1/forecast",
		},
		Elevation: adapters.ElevationConfig{
			PrimaryURL:   "https://api.open-elevation.com/api/v1/lookup",
			SecondaryURL: "",
		},
		Summary:        adapters.SummaryConfig{},
		Resilience:     resilience.DefaultConfig(),
		Cache:          cache.DefaultConfig(),
		MetricsEnabled: true,
		MetricsBackend: "prom",
	}
}
