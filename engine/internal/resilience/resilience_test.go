package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryBaseDelay = time.Millisecond
	cfg.RetryMaxDelay = 5 * time.Millisecond
	cfg.RetryMaxAttempts = 3
	cfg.ConsecutiveFailures = 2
	cfg.OpenTimeout = 20 * time.Millisecond
	return cfg
}

func TestDo_SucceedsOnFirstAttempt(t *testing.T) {
	g := NewGuard(testConfig())
	calls := 0
	got, err := Do(context.Background(), g, "weather", func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesOnTransientFailure(t *testing.T) {
	g := NewGuard(testConfig())
	calls := 0
	got, err := Do(context.Background(), g, "weather", func(ctx context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 2, calls)
}

func TestDo_GivesUpAfterMaxAttempts(t *testing.T) {
	g := NewGuard(testConfig())
	calls := 0
	_, err := Do(context.Background(), g, "weather", func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("permanent failure")
	})
	require.Error(t, err)
	assert.LessOrEqual(t, calls, 3)
}

func TestDo_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	cfg := testConfig()
	cfg.RetryMaxAttempts = 1 // isolate the breaker trip from retry exhaustion
	g := NewGuard(cfg)

	failing := func(ctx context.Context) (string, error) { return "", errors.New("boom") }

	// Two failures trip the breaker (ConsecutiveFailures: 2).
	_, _ = Do(context.Background(), g, "satellite", failing)
	_, _ = Do(context.Background(), g, "satellite", failing)

	_, err := Do(context.Background(), g, "satellite", func(ctx context.Context) (string, error) {
		t.Fatal("fn should not run while the circuit is open")
		return "", nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestDo_DomainsAreIndependent(t *testing.T) {
	cfg := testConfig()
	cfg.RetryMaxAttempts = 1
	g := NewGuard(cfg)

	failing := func(ctx context.Context) (string, error) { return "", errors.New("boom") }
	_, _ = Do(context.Background(), g, "satellite", failing)
	_, _ = Do(context.Background(), g, "satellite", failing)

	got, err := Do(context.Background(), g, "weather", func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestDo_ContextCancellationPropagates(t *testing.T) {
	g := NewGuard(testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, g, "elevation", func(ctx context.Context) (string, error) {
		return "", ctx.Err()
	})
	require.Error(t, err)
}
