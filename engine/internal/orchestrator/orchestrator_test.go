package orchestrator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99souls/ariadne/engine/internal/adapters"
	"github.com/99souls/ariadne/engine/internal/adapters/satellite"
	"github.com/99souls/ariadne/engine/internal/cache"
	"github.com/99souls/ariadne/engine/internal/resilience"
	"github.com/99souls/ariadne/engine/internal/telemetry/metrics"
	"github.com/99souls/ariadne/engine/models"
	"github.com/99souls/ariadne/engine/telemetry/events"
	"github.com/99souls/ariadne/engine/telemetry/logging"
)

func testOrchestrator(ad Adapters) *Orchestrator {
	rcfg := resilience.DefaultConfig()
	rcfg.RetryBaseDelay = time.Millisecond
	rcfg.RetryMaxDelay = 2 * time.Millisecond
	rcfg.RetryMaxAttempts = 1
	guard := resilience.NewGuard(rcfg)
	c := cache.New(cache.DefaultConfig())
	log := logging.New(nil)
	bus := events.NewBus(nil)
	return New(ad, guard, c, log, bus, metrics.NewNoopProvider(), 5*time.Second)
}

func TestAnalyze_RejectsInvalidLatitude(t *testing.T) {
	o := testOrchestrator(Adapters{})
	_, err := o.Analyze(t.Context(), models.AnalyzeRequest{Activity: "hiking", Lat: 900, Lon: 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidLatitude)
}

func TestAnalyze_RejectsMissingActivity(t *testing.T) {
	o := testOrchestrator(Adapters{})
	_, err := o.Analyze(t.Context(), models.AnalyzeRequest{Lat: 40, Lon: -74})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrMissingActivity)
}

func TestAnalyze_RejectsOutOfRangeDuration(t *testing.T) {
	o := testOrchestrator(Adapters{})
	_, err := o.Analyze(t.Context(), models.AnalyzeRequest{Activity: "hiking", Lat: 40, Lon: -74, DurationHours: 200})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidDuration)
}

func TestAnalyze_NoAdaptersConfiguredUsesNeutralDefaults(t *testing.T) {
	o := testOrchestrator(Adapters{})
	resp, err := o.Analyze(t.Context(), models.AnalyzeRequest{Activity: "hiking", Lat: 40, Lon: -74})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.RequestID)
	assert.Empty(t, resp.DataSources)
	assert.Equal(t, models.AQIGood, resp.AirQuality.Category)
	assert.Equal(t, "", resp.AISummary)
	assert.Len(t, resp.RiskFactors, 4)
	assert.NotEmpty(t, resp.Checklist)
}

func TestAnalyze_DataSourcesReflectPresentAdapters(t *testing.T) {
	elevSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []map[string]float64{{"elevation": 2200}}})
	}))
	defer elevSrv.Close()

	ad := Adapters{
		Elevation: adapters.NewElevationAdapter(adapters.ElevationConfig{PrimaryURL: elevSrv.URL}, logging.New(nil)),
	}
	o := testOrchestrator(ad)
	resp, err := o.Analyze(t.Context(), models.AnalyzeRequest{Activity: "hiking", Lat: 39.0, Lon: -106.0})
	require.NoError(t, err)
	assert.Equal(t, []string{adapters.SourceElevation}, resp.DataSources)
	assert.Equal(t, 2200.0, resp.Elevation.ElevationM)
	assert.Equal(t, string(models.TerrainMountains), resp.Elevation.TerrainType)
}

func TestAnalyze_MergesSatelliteAndGroundStationPollutants(t *testing.T) {
	satSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"granule_id": "G1", "path": "fake.nc"})
	}))
	defer satSrv.Close()

	gsMux := http.NewServeMux()
	gsMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{{"id": "s1", "lat": 40.0, "lon": -74.0,
			"sensors": []map[string]string{{"sensor_id": "s1-pm25", "parameter_name": "pm25"}}}})
	})
	gsMux.HandleFunc("/s1/latest", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{{"sensorsId": "s1-pm25", "value": 8.0}})
	})
	gsSrv := httptest.NewServer(gsMux)
	defer gsSrv.Close()

	sat := adapters.NewSatelliteAdapter(adapters.SatelliteConfig{CatalogURL: satSrv.URL}, logging.New(nil)).
		WithOpener(func(path string) (satellite.Dataset, error) {
			return &satellite.FakeDataset{
				Lat:       []float64{40.0},
				Lon:       []float64{-74.0},
				NO2Column: [][]float64{{2.46e15}},
				Quality:   [][]int{{2}},
			}, nil
		})

	ad := Adapters{
		Satellite:     sat,
		GroundStation: adapters.NewGroundStationAdapter(adapters.GroundStationConfig{CatalogURL: gsSrv.URL}, logging.New(nil)),
	}
	o := testOrchestrator(ad)
	resp, err := o.Analyze(t.Context(), models.AnalyzeRequest{Activity: "hiking", Lat: 40.0, Lon: -74.0})
	require.NoError(t, err)
	assert.Equal(t, 8.0, resp.AirQuality.PM25)
	assert.InDelta(t, 1.0, resp.AirQuality.NO2, 0.01)
	assert.ElementsMatch(t, []string{adapters.SourceSatellite, adapters.SourceGroundStation}, resp.DataSources)
}

func TestAnalyze_AbsentAdapterResultDoesNotBreakPipeline(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	ad := Adapters{
		Weather: adapters.NewWeatherAdapter(adapters.WeatherConfig{BaseURL: failing.URL}, logging.New(nil)),
	}
	o := testOrchestrator(ad)
	resp, err := o.Analyze(t.Context(), models.AnalyzeRequest{Activity: "hiking", Lat: 40, Lon: -74})
	require.NoError(t, err)
	require.Len(t, resp.WeatherForecast, 1)
	synth := resp.WeatherForecast[0]
	assert.Equal(t, 20.0, synth.TempC)
	assert.Equal(t, 50.0, synth.Humidity)
	assert.Equal(t, 10.0, synth.WindSpeedKmh)
	assert.Equal(t, 5.0, synth.UVIndex)
	assert.Equal(t, 0.0, synth.PrecipitationMM)
	assert.Equal(t, 20.0, synth.CloudCover)
	assert.Empty(t, resp.DataSources)
}

func TestAnalyze_CachesRepeatedRequestsForSameCoordinates(t *testing.T) {
	var calls int
	elevSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []map[string]float64{{"elevation": 1000}}})
	}))
	defer elevSrv.Close()

	ad := Adapters{
		Elevation: adapters.NewElevationAdapter(adapters.ElevationConfig{PrimaryURL: elevSrv.URL}, logging.New(nil)),
	}
	o := testOrchestrator(ad)

	_, err := o.Analyze(t.Context(), models.AnalyzeRequest{Activity: "hiking", Lat: 40.0, Lon: -74.0})
	require.NoError(t, err)
	_, err = o.Analyze(t.Context(), models.AnalyzeRequest{Activity: "hiking", Lat: 40.0, Lon: -74.0})
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second request should be served from cache")
}

func TestValidationError_UnwrapsToSentinel(t *testing.T) {
	err := &ValidationError{Cause: models.ErrInvalidLatitude}
	assert.ErrorIs(t, err, models.ErrInvalidLatitude)
	assert.Contains(t, err.Error(), "invalid request")
}

func TestNormalize_DefaultsDurationHours(t *testing.T) {
	req, err := Normalize(models.AnalyzeRequest{Activity: "hiking", Lat: 40, Lon: -74})
	require.NoError(t, err)
	assert.Equal(t, 4, req.DurationHours)
}

func TestNormalize_RejectsNaNCoordinates(t *testing.T) {
	req := models.AnalyzeRequest{Activity: "hiking", Lat: nan(), Lon: 0}
	_, err := Normalize(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidLatitude)
}

func nan() float64 {
	var zero float64
	return zero / zero
}
