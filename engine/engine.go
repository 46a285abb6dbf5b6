package engine

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/99souls/ariadne/engine/internal/adapters"
	"github.com/99souls/ariadne/engine/internal/cache"
	"github.com/99souls/ariadne/engine/internal/orchestrator"
	"github.com/99souls/ariadne/engine/internal/resilience"
	intmetrics "github.com/99souls/ariadne/engine/internal/telemetry/metrics"
	inttelempolicy "github.com/99souls/ariadne/engine/internal/telemetry/policy"
	engmodels "github.com/99souls/ariadne/engine/models"
	engevents "github.com/99souls/ariadne/engine/telemetry/events"
	"github.com/99souls/ariadne/engine/telemetry/health"
	"github.com/99souls/ariadne/engine/telemetry/logging"
	metrics "github.com/99souls/ariadne/engine/telemetry/metrics"
)

// TelemetryEvent is a reduced, stable event representation for external
// observers, decoupling callers from the internal event bus.
type TelemetryEvent struct {
	Time     time.Time              `json:"time"`
	Category string                 `json:"category"`
	Type     string                 `json:"type"`
	Severity string                 `json:"severity,omitempty"`
	TraceID  string                 `json:"trace_id,omitempty"`
	SpanID   string                 `json:"span_id,omitempty"`
	Fields   map[string]interface{} `json:"fields,omitempty"`
}

// EventObserver receives TelemetryEvent notifications.
type EventObserver func(ev TelemetryEvent)

// Re-export telemetry policy types: stable facade surface over an internal
// implementation, exactly as the teacher's telemetry policy facade does.
type TelemetryPolicy = inttelempolicy.TelemetryPolicy
type HealthPolicy = inttelempolicy.HealthPolicy

// DefaultTelemetryPolicy returns library defaults for health/tracing/events.
func DefaultTelemetryPolicy() TelemetryPolicy { return inttelempolicy.Default() }

// Engine composes the orchestrator and its ambient telemetry behind a
// single facade — the only type embedding applications need to import.
type Engine struct {
	cfg       Config
	orch      *orchestrator.Orchestrator
	startedAt time.Time

	metricsProvider metrics.Provider
	eventBus        engevents.Bus
	healthEval      *health.Evaluator

	eventObserversMu sync.RWMutex
	eventObservers   []EventObserver

	lastHealth atomic.Value // string

	telemetryPolicy atomic.Pointer[inttelempolicy.TelemetryPolicy]
}

// New constructs an Engine from cfg, wiring every adapter, the resilience
// guard, the result cache, and ambient telemetry.
func New(cfg Config) (*Engine, error) {
	log := logging.New(nil)

	e := &Engine{cfg: cfg, startedAt: time.Now()}
	e.metricsProvider = selectMetricsProvider(cfg)
	e.eventBus = engevents.NewBus(e.metricsProvider)

	policy := inttelempolicy.Default()
	e.telemetryPolicy.Store(&policy)

	guard := resilience.NewGuard(cfg.Resilience)
	resultCache := cache.New(cfg.Cache)

	ad := orchestrator.Adapters{
		Satellite:     adapters.NewSatelliteAdapter(cfg.Satellite, log),
		GroundStation: adapters.NewGroundStationAdapter(cfg.GroundStation, log),
		Weather:       adapters.NewWeatherAdapter(cfg.Weather, log),
		Elevation:     adapters.NewElevationAdapter(cfg.Elevation, log),
		Summary:       adapters.NewSummaryAdapter(cfg.Summary, log),
	}

	// The orchestrator's own request counter uses the internal noop metrics
	// provider: internal and public Provider interfaces are structurally
	// distinct named types across package boundaries, so the two cannot
	// share a backend directly. Real observability surfaces through the
	// public provider via the event bus and MetricsHandler below.
	e.orch = orchestrator.New(ad, guard, resultCache, log, e.eventBus, intmetrics.NewNoopProvider(), cfg.JoinTimeout)

	limiterProbe := health.ProbeFunc(func(ctx context.Context) health.ProbeResult {
		return health.Healthy("resilience_guard")
	})
	e.healthEval = health.NewEvaluator(policy.Health.ProbeTTL, limiterProbe)

	return e, nil
}

// Analyze runs the full concurrent analysis pipeline for req.
func (e *Engine) Analyze(ctx context.Context, req engmodels.AnalyzeRequest) (engmodels.AnalyzeResponse, error) {
	resp, err := e.orch.Analyze(ctx, req)
	if err != nil {
		return engmodels.AnalyzeResponse{}, err
	}
	return resp, nil
}

// Policy returns the current telemetry policy snapshot. Never nil.
func (e *Engine) Policy() TelemetryPolicy {
	if p := e.telemetryPolicy.Load(); p != nil {
		return *p
	}
	d := inttelempolicy.Default()
	return d
}

// MetricsHandler returns the HTTP handler for metrics exposition
// (Prometheus backend only; nil for other backends).
func (e *Engine) MetricsHandler() http.Handler {
	if e.metricsProvider == nil {
		return nil
	}
	if hp, ok := e.metricsProvider.(interface{ MetricsHandler() http.Handler }); ok {
		return hp.MetricsHandler()
	}
	return nil
}

// HealthSnapshot evaluates every registered probe and rolls up the result,
// publishing a health_change event when the overall status transitions.
func (e *Engine) HealthSnapshot(ctx context.Context) health.Snapshot {
	if e.healthEval == nil {
		return health.Snapshot{}
	}
	snap := e.healthEval.Evaluate(ctx)

	prev, _ := e.lastHealth.Load().(string)
	cur := string(snap.Overall)
	if prev != "" && prev != cur && e.eventBus != nil {
		ev := engevents.Event{
			Category: engevents.CategoryHealth,
			Type:     "health_change",
			Severity: "info",
			Fields:   map[string]interface{}{"previous": prev, "current": cur},
		}
		_ = e.eventBus.Publish(ev)
		e.dispatchEvent(ev)
	}
	e.lastHealth.Store(cur)
	return snap
}

// RegisterEventObserver subscribes obs to every published telemetry event.
func (e *Engine) RegisterEventObserver(obs EventObserver) {
	if obs == nil {
		return
	}
	e.eventObserversMu.Lock()
	e.eventObservers = append(e.eventObservers, obs)
	e.eventObserversMu.Unlock()
}

func (e *Engine) dispatchEvent(ev engevents.Event) {
	e.eventObserversMu.RLock()
	observers := append([]EventObserver(nil), e.eventObservers...)
	e.eventObserversMu.RUnlock()
	if len(observers) == 0 {
		return
	}
	pub := TelemetryEvent{
		Time: ev.Time, Category: ev.Category, Type: ev.Type, Severity: ev.Severity,
		TraceID: ev.TraceID, SpanID: ev.SpanID, Fields: ev.Fields,
	}
	for _, obs := range observers {
		obs(pub)
	}
}

// selectMetricsProvider returns the public telemetry/metrics.Provider based
// on Config, mirroring the teacher's backend-selection pattern.
func selectMetricsProvider(cfg Config) metrics.Provider {
	if !cfg.MetricsEnabled {
		return nil
	}
	switch strings.ToLower(cfg.MetricsBackend) {
	case "otel", "opentelemetry":
		return metrics.NewOTelProvider(metrics.OTelProviderOptions{})
	case "noop":
		return metrics.NewNoopProvider()
	default:
		return metrics.NewPrometheusProvider(metrics.PrometheusProviderOptions{})
	}
}
