package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrierSucceedsAfterTransientFailures(t *testing.T) {
	metrics := newTestMetrics()
	r := NewRetrier(3, time.Millisecond, metrics)

	calls := 0
	err := r.Do(context.Background(), "save", func(_ context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.Retries))
}

func TestRetrierExhaustsAttempts(t *testing.T) {
	metrics := newTestMetrics()
	r := NewRetrier(3, time.Millisecond, metrics)

	calls := 0
	boom := errors.New("upstream unavailable")
	err := r.Do(context.Background(), "save", func(_ context.Context) error {
		calls++
		return boom
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.Retries))
}

func TestRetrierSingleAttemptNoRetry(t *testing.T) {
	metrics := newTestMetrics()
	r := NewRetrier(1, time.Millisecond, metrics)

	calls := 0
	err := r.Do(context.Background(), "save", func(_ context.Context) error {
		calls++
		return errors.New("nope")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.Retries))
}

func TestRetrierStopsOnContextCancel(t *testing.T) {
	metrics := newTestMetrics()
	r := NewRetrier(10, 50*time.Millisecond, metrics)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := r.Do(ctx, "save", func(_ context.Context) error {
		calls++
		cancel()
		return errors.New("failing")
	})

	require.Error(t, err)
	assert.LessOrEqual(t, calls, 2)
}
