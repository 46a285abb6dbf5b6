// Package orchestrator runs the fan-out/fan-in analysis pipeline: query
// every adapter concurrently, merge whatever came back (substituting
// conservative defaults for anything absent), derive AQI/risk/checklist,
// and assemble the single response record. It generalizes the teacher's
// multi-stage worker pool to a fan-out of exactly four independent tasks —
// one request in, one response out, no queue depth to manage.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/99souls/ariadne/engine/internal/adapters"
	"github.com/99souls/ariadne/engine/internal/cache"
	"github.com/99souls/ariadne/engine/internal/checklist"
	"github.com/99souls/ariadne/engine/internal/resilience"
	"github.com/99souls/ariadne/engine/internal/scoring"
	"github.com/99souls/ariadne/engine/models"
	"github.com/99souls/ariadne/engine/telemetry/events"
	"github.com/99souls/ariadne/engine/telemetry/logging"
	intmetrics "github.com/99souls/ariadne/engine/internal/telemetry/metrics"
)

// Adapters bundles every external data source the orchestrator fans out to.
type Adapters struct {
	Satellite     *adapters.SatelliteAdapter
	GroundStation *adapters.GroundStationAdapter
	Weather       *adapters.WeatherAdapter
	Elevation     *adapters.ElevationAdapter
	Summary       *adapters.SummaryAdapter
}

// Orchestrator implements the concurrent fan-out/fan-in analysis described
// in spec.md §4.1.
type Orchestrator struct {
	adapters  Adapters
	guard     *resilience.Guard
	cache     *cache.Cache
	log       logging.Logger
	bus       events.Bus
	requests  intmetrics.Counter
	duration  intmetrics.Timer
	joinTimeout time.Duration
}

// New builds an Orchestrator wired to its adapters and ambient telemetry.
func New(ad Adapters, guard *resilience.Guard, c *cache.Cache, log logging.Logger, bus events.Bus, provider intmetrics.Provider, joinTimeout time.Duration) *Orchestrator {
	if joinTimeout <= 0 {
		joinTimeout = 25 * time.Second
	}
	o := &Orchestrator{adapters: ad, guard: guard, cache: c, log: log, bus: bus, joinTimeout: joinTimeout}
	if provider != nil {
		o.requests = provider.NewCounter(intmetrics.CounterOpts{CommonOpts: intmetrics.CommonOpts{
			Namespace: "trailsafe", Subsystem: "adapter", Name: "requests_total", Help: "Total adapter requests by outcome",
			Labels: []string{"adapter", "outcome"},
		}})
	}
	return o
}

type adapterOutcome struct {
	satellite     *models.SatellitePixel
	groundStation *models.PollutantSample
	weather       []models.WeatherHour
	terrain       *models.Terrain
	sources       []string
}

// Analyze runs the full pipeline for a validated request.
func (o *Orchestrator) Analyze(ctx context.Context, req models.AnalyzeRequest) (models.AnalyzeResponse, error) {
	req, err := Normalize(req)
	if err != nil {
		return models.AnalyzeResponse{}, err
	}

	requestID := uuid.NewString()
	jctx, cancel := context.WithTimeout(ctx, o.joinTimeout)
	defer cancel()

	outcome := o.fanOut(jctx, req)

	pm25 := outcome.groundStation
	no2Ptr := mergeNO2(outcome.satellite, outcome.groundStation)
	pm25Ptr := mergePM25(pm25)

	air := scoring.AirQualityFromMerged(pm25Ptr, no2Ptr)

	weatherHours := outcome.weather
	if len(weatherHours) == 0 {
		weatherHours = []models.WeatherHour{synthesizedWeatherHour()}
	}
	weatherHour := &weatherHours[0]
	uvIndex := new(float64)
	*uvIndex = weatherHour.UVIndex
	apparentTempC := scoring.ApparentTemperature(weatherHour.TempC, weatherHour.HumidityPct, weatherHour.WindKmh)
	var elevationM *int
	if outcome.terrain != nil {
		v := outcome.terrain.ElevationM
		elevationM = &v
	}
	aqi := air.AQI

	risk := scoring.Score(scoring.Inputs{
		Activity:    req.Activity,
		AQI:         &aqi,
		PM25UgM3:    pm25Ptr,
		NO2PPB:      no2Ptr,
		UVIndex:     uvIndex,
		ElevationM:  elevationM,
		WeatherHour: weatherHour,
	})

	items := checklist.Build(checklist.Inputs{
		Activity:      req.Activity,
		AQI:           &aqi,
		UVIndex:       uvIndex,
		ElevationM:    elevationM,
		WeatherHour:   weatherHour,
		ApparentTempC: &apparentTempC,
	})

	overall := computeOverallSafety(air.AQI, risk.Score, elevationM)

	var summary string
	if weatherHour != nil && o.adapters.Summary != nil {
		summary = o.adapters.Summary.Generate(jctx, req.Activity, air, *weatherHour, risk)
	} else if o.adapters.Summary != nil {
		summary = o.adapters.Summary.Generate(jctx, req.Activity, air, models.WeatherHour{}, risk)
	}

	resp := models.AnalyzeResponse{
		RequestID:       requestID,
		RiskScore:       risk.Score,
		Category:        risk.Category,
		OverallSafety:   overall,
		AirQuality:      air,
		WeatherForecast: toWeatherView(weatherHours),
		Elevation:       toElevationView(outcome.terrain),
		Checklist:       items,
		Warnings:        risk.Warnings,
		AISummary:       summary,
		RiskFactors:     toRiskFactors(risk),
		DataSources:     outcome.sources,
		GeneratedAt:     time.Now().UTC(),
	}

	o.publish(jctx, events.Event{
		Category: events.CategoryOrchestrator,
		Type:     "analysis.completed",
		Fields: map[string]interface{}{
			"request_id": requestID,
			"risk_score": risk.Score,
		},
	})

	return resp, nil
}

func (o *Orchestrator) fanOut(ctx context.Context, req models.AnalyzeRequest) adapterOutcome {
	var wg sync.WaitGroup
	var mu sync.Mutex
	out := adapterOutcome{}

	run := func(name string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			fn()
			o.recordOutcome(ctx, name, time.Since(start))
		}()
	}

	if o.adapters.Satellite != nil && inSatelliteCoverage(req.Lat, req.Lon) {
		run(adapters.SourceSatellite, func() {
			key := cacheKey(adapters.SourceSatellite, req.Lat, req.Lon)
			r := cachedCall(o.cache, key, func() adapters.Result[models.SatellitePixel] {
				return viaGuard(ctx, o.guard, adapters.SourceSatellite, func(ctx context.Context) adapters.Result[models.SatellitePixel] {
					return o.adapters.Satellite.Fetch(ctx, req.Lat, req.Lon)
				})
			})
			mu.Lock()
			defer mu.Unlock()
			if r.Present {
				v := r.Value
				out.satellite = &v
				out.sources = append(out.sources, adapters.SourceSatellite)
			}
		})
	}
	if o.adapters.GroundStation != nil {
		run(adapters.SourceGroundStation, func() {
			key := cacheKey(adapters.SourceGroundStation, req.Lat, req.Lon)
			r := cachedCall(o.cache, key, func() adapters.Result[models.PollutantSample] {
				return viaGuard(ctx, o.guard, adapters.SourceGroundStation, func(ctx context.Context) adapters.Result[models.PollutantSample] {
					return o.adapters.GroundStation.Fetch(ctx, req.Lat, req.Lon)
				})
			})
			mu.Lock()
			defer mu.Unlock()
			if r.Present {
				v := r.Value
				out.groundStation = &v
				out.sources = append(out.sources, adapters.SourceGroundStation)
			}
		})
	}
	if o.adapters.Weather != nil {
		run(adapters.SourceWeather, func() {
			key := cacheKey(adapters.SourceWeather, req.Lat, req.Lon)
			r := cachedCall(o.cache, key, func() adapters.Result[[]models.WeatherHour] {
				return viaGuard(ctx, o.guard, adapters.SourceWeather, func(ctx context.Context) adapters.Result[[]models.WeatherHour] {
					return o.adapters.Weather.Fetch(ctx, req.Lat, req.Lon, req.DurationHours)
				})
			})
			mu.Lock()
			defer mu.Unlock()
			if r.Present {
				out.weather = r.Value
				out.sources = append(out.sources, adapters.SourceWeather)
			}
		})
	}
	if o.adapters.Elevation != nil {
		run(adapters.SourceElevation, func() {
			key := cacheKey(adapters.SourceElevation, req.Lat, req.Lon)
			r := cachedCall(o.cache, key, func() adapters.Result[models.Terrain] {
				return viaGuard(ctx, o.guard, adapters.SourceElevation, func(ctx context.Context) adapters.Result[models.Terrain] {
					return o.adapters.Elevation.Fetch(ctx, req.Lat, req.Lon)
				})
			})
			mu.Lock()
			defer mu.Unlock()
			if r.Present {
				v := r.Value
				out.terrain = &v
				out.sources = append(out.sources, adapters.SourceElevation)
			}
		})
	}

	wg.Wait()
	sort.Strings(out.sources)
	return out
}

func (o *Orchestrator) recordOutcome(ctx context.Context, name string, dur time.Duration) {
	outcome := "present"
	o.publish(ctx, events.Event{
		Category: events.CategoryAdapter,
		Type:     "adapter.completed",
		Fields: map[string]interface{}{
			"name":     name,
			"duration": dur.String(),
		},
	})
	if o.requests != nil {
		o.requests.Inc(1, name, outcome)
	}
}

func (o *Orchestrator) publish(ctx context.Context, ev events.Event) {
	if o.bus == nil {
		return
	}
	_ = o.bus.PublishCtx(ctx, ev)
}

// viaGuard retries an adapter's Result-returning call under its domain's
// circuit breaker. An Absent result is treated as a retryable failure; an
// open circuit or exhausted retry budget both collapse back to Absent, so
// the orchestrator never has to special-case breaker state.
func viaGuard[T any](ctx context.Context, g *resilience.Guard, domain string, fn func(ctx context.Context) adapters.Result[T]) adapters.Result[T] {
	if g == nil {
		return fn(ctx)
	}
	v, err := resilience.Do(ctx, g, domain, func(ctx context.Context) (T, error) {
		r := fn(ctx)
		if !r.Present {
			var zero T
			return zero, errors.New(r.Reason)
		}
		return r.Value, nil
	})
	if err != nil {
		return adapters.Absent[T](err.Error())
	}
	return adapters.Ok(v)
}

// cachedCall wraps fn with the shared result cache, keyed by adapter name
// and rounded coordinates. Only Present results are cached; an Absent
// result always re-queries on the next request.
func cachedCall[T any](c *cache.Cache, key string, fn func() adapters.Result[T]) adapters.Result[T] {
	if c == nil {
		return fn()
	}
	if v, ok := c.Get(key); ok {
		return v.(adapters.Result[T])
	}
	r := fn()
	if r.Present {
		c.Put(key, r)
	}
	return r
}

func cacheKey(adapter string, lat, lon float64) string {
	return fmt.Sprintf("%s:%.3f,%.3f", adapter, lat, lon)
}

// inSatelliteCoverage reports whether (lat,lon) falls within the
// subsetter's coverage box. Edges are inclusive.
func inSatelliteCoverage(lat, lon float64) bool {
	return lat >= 15 && lat <= 70 && lon >= -170 && lon <= -40
}

// synthesizedWeatherHour is the single substituted hour used whenever the
// weather adapter returns nothing, so downstream scoring and the response's
// weather_forecast always have at least one hour to work with.
func synthesizedWeatherHour() models.WeatherHour {
	return models.WeatherHour{
		Timestamp:     time.Now().UTC(),
		TempC:         20,
		HumidityPct:   50,
		WindKmh:       10,
		UVIndex:       5,
		PrecipMM:      0,
		CloudCoverPct: 20,
	}
}

func mergeNO2(sat *models.SatellitePixel, ground *models.PollutantSample) *float64 {
	if sat != nil {
		v := sat.NO2PPB
		return &v
	}
	if ground != nil && ground.NO2PPB != nil {
		return ground.NO2PPB
	}
	return nil
}

func mergePM25(ground *models.PollutantSample) *float64 {
	if ground != nil && ground.PM25UgM3 != nil {
		return ground.PM25UgM3
	}
	return nil
}

func computeOverallSafety(aqi int, riskScore float64, elevationM *int) models.OverallSafety {
	environmental := clamp((100-float64(aqi))/10, 0, 10)
	health := riskScore

	terrain := scoring.DefaultOverallNeutral
	if elevationM != nil {
		e := float64(*elevationM)
		switch {
		case e < 1000:
			terrain = 9.0
		case e < 2000:
			terrain = 7.5
		case e < 3000:
			terrain = 6.0
		default:
			terrain = 4.5
		}
	}

	overall := scoring.WeightEnvironmental*environmental + scoring.WeightHealth*health + scoring.WeightTerrainOA*terrain
	round1 := func(v float64) float64 { return float64(int(v*10+0.5)) / 10 }
	return models.OverallSafety{
		Environmental: round1(environmental),
		Health:        round1(health),
		Terrain:       round1(terrain),
		Overall:       round1(overall),
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func toWeatherView(hours []models.WeatherHour) []models.WeatherHourView {
	out := make([]models.WeatherHourView, 0, len(hours))
	for _, h := range hours {
		out = append(out, models.WeatherHourView{
			Timestamp:       h.Timestamp,
			TempC:           h.TempC,
			Humidity:        h.HumidityPct,
			WindSpeedKmh:    h.WindKmh,
			WindDirection:   h.WindDirDeg,
			UVIndex:         h.UVIndex,
			PrecipitationMM: h.PrecipMM,
			CloudCover:      h.CloudCoverPct,
		})
	}
	return out
}

func toElevationView(t *models.Terrain) models.ElevationView {
	if t == nil {
		return models.ElevationView{TerrainType: string(models.TerrainLowland)}
	}
	return models.ElevationView{
		ElevationM:  float64(t.ElevationM),
		TerrainType: string(t.TerrainType),
	}
}

func toRiskFactors(r models.RiskScore) []models.RiskFactor {
	return []models.RiskFactor{
		{Factor: "air", Score: r.SubScores.Air, Weight: scoring.WeightAir},
		{Factor: "weather", Score: r.SubScores.Weather, Weight: scoring.WeightWeather},
		{Factor: "uv", Score: r.SubScores.UV, Weight: scoring.WeightUV},
		{Factor: "terrain", Score: r.SubScores.Terrain, Weight: scoring.WeightTerrain},
	}
}

// ValidationError wraps a request-validation failure.
type ValidationError struct{ Cause error }

func (e *ValidationError) Error() string { return fmt.Sprintf("invalid request: %v", e.Cause) }
func (e *ValidationError) Unwrap() error { return e.Cause }
