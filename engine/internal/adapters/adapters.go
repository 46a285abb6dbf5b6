// Package adapters isolates every call to an external data source (satellite
// product, ground-station network, weather forecast, elevation service, LLM
// summarizer) behind a uniform Present/Absent result. No adapter ever returns
// a bare error to the orchestrator: a failed or degraded upstream call
// becomes an Absent result with a Reason, and the caller decides how to
// degrade gracefully instead of unwinding a Go error up the call stack.
package adapters

// Result[T] is either Present (carrying a value) or Absent (carrying why).
// Adapters build these explicitly; callers must check Present before reading
// Value.
type Result[T any] struct {
	Present bool
	Value   T
	Reason  string
}

// Ok builds a Present result.
func Ok[T any](v T) Result[T] { return Result[T]{Present: true, Value: v} }

// Absent builds an Absent result carrying a human-readable reason, used for
// both transport failures and deliberate skips (disabled adapter, missing
// credentials).
func Absent[T any](reason string) Result[T] { return Result[T]{Reason: reason} }

// Source names used consistently across adapters for DataSources bookkeeping
// and resilience/cache keys.
const (
	SourceSatellite     = "satellite"
	SourceGroundStation = "ground_station"
	SourceWeather       = "weather"
	SourceElevation     = "elevation"
	SourceSummary       = "summary"
)
