// Package resilience wraps every outbound adapter call with a per-domain
// circuit breaker and bounded retry, the same sharded-per-domain shape the
// engine previously used for crawl rate limiting, retargeted at upstream
// weather/satellite/station APIs instead of HTTP fetch targets.
package resilience

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned (wrapped) when a domain's breaker is open.
var ErrCircuitOpen = errors.New("resilience: circuit open")

// Config controls breaker trip thresholds and retry shape, shared by every
// domain shard.
type Config struct {
	// MaxRequests allowed through the breaker while half-open.
	MaxRequests uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// ConsecutiveFailures trips the breaker open.
	ConsecutiveFailures uint32

	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	RetryMaxAttempts int

	Shards int
}

// DefaultConfig mirrors the conservative defaults used across adapters.
func DefaultConfig() Config {
	return Config{
		MaxRequests:         2,
		OpenTimeout:         30 * time.Second,
		ConsecutiveFailures: 5,
		RetryBaseDelay:      250 * time.Millisecond,
		RetryMaxDelay:       4 * time.Second,
		RetryMaxAttempts:    3,
		Shards:              8,
	}
}

// Guard runs calls for a fixed set of named domains (e.g. "satellite",
// "ground-station", "weather", "elevation", "summary") through a sharded set
// of independent circuit breakers, so one domain tripping never throttles
// another.
type Guard struct {
	cfg    Config
	mask   uint64
	shards []*shard
}

type shard struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

// NewGuard builds a Guard. Shards is rounded up to the next power of two.
func NewGuard(cfg Config) *Guard {
	n := nextPow2(cfg.Shards)
	shards := make([]*shard, n)
	for i := range shards {
		shards[i] = &shard{breakers: make(map[string]*gobreaker.CircuitBreaker[any])}
	}
	return &Guard{cfg: cfg, mask: uint64(n - 1), shards: shards}
}

func nextPow2(n int) int {
	if n < 1 {
		n = 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (g *Guard) shardFor(domain string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(domain))
	return g.shards[uint64(h.Sum32())&g.mask]
}

func (g *Guard) breakerFor(domain string) *gobreaker.CircuitBreaker[any] {
	sh := g.shardFor(domain)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if b, ok := sh.breakers[domain]; ok {
		return b
	}
	settings := gobreaker.Settings{
		Name:        domain,
		MaxRequests: g.cfg.MaxRequests,
		Timeout:     g.cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= g.cfg.ConsecutiveFailures
		},
	}
	b := gobreaker.NewCircuitBreaker[any](settings)
	sh.breakers[domain] = b
	return b
}

// Do runs fn through domain's breaker, retrying with bounded exponential
// backoff on failure while the breaker stays closed. Context cancellation
// and circuit-open short-circuit immediately without consuming a retry.
func Do[T any](ctx context.Context, g *Guard, domain string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	b := g.breakerFor(domain)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = g.cfg.RetryBaseDelay
	bo.MaxInterval = g.cfg.RetryMaxDelay
	bo.MaxElapsedTime = 0
	bctx := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxInt(g.cfg.RetryMaxAttempts-1, 0))), ctx)

	var result T
	op := func() error {
		out, err := b.Execute(func() (any, error) {
			return fn(ctx)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			return err
		}
		result = out.(T)
		return nil
	}

	if err := backoff.Retry(op, bctx); err != nil {
		return zero, err
	}
	return result, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
