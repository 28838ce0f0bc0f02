package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-configspace/internal/application"
	"github.com/ahrav/go-configspace/internal/domain"
	"github.com/ahrav/go-configspace/internal/ports"
	"github.com/ahrav/go-configspace/internal/testutils"
)

func TestRateLimitedTunerAsk(t *testing.T) {
	metrics := testutils.NewMockMetricsCollector()
	limited := NewRateLimitedTuner(newRandomTuner(t), rate.Limit(1), 3, metrics)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limited.now = func() time.Time { return now }

	configs, err := limited.Ask(t.Context(), 3)
	require.NoError(t, err)
	assert.Len(t, configs, 3)

	_, err = limited.Ask(t.Context(), 1)
	require.Error(t, err)
	var tErr *ports.TunerError
	require.True(t, errors.As(err, &tErr))
	assert.True(t, errors.Is(err, ports.ErrRateLimited))
	assert.True(t, tErr.IsRetryable())
	require.NotNil(t, tErr.RetryAfter)
	assert.Equal(t, time.Second, *tErr.RetryAfter)
	assert.Equal(t, 1.0, metrics.Counter(MetricRateLimited))

	// The rejected reservation was cancelled, so one second later exactly
	// one token is available again.
	now = now.Add(time.Second)
	configs, err = limited.Ask(t.Context(), 1)
	require.NoError(t, err)
	assert.Len(t, configs, 1)
}

func TestRateLimitedTunerRefundsFailedCalls(t *testing.T) {
	errBackend := errors.New("backend unavailable")
	tests := []struct {
		name string
		fail func(*faultyTuner)
		call func(*RateLimitedTuner) error
	}{
		{
			name: "ask",
			fail: func(f *faultyTuner) { f.askErr = errBackend },
			call: func(l *RateLimitedTuner) error {
				_, err := l.Ask(t.Context(), 1)
				return err
			},
		},
		{
			name: "suggest",
			fail: func(f *faultyTuner) { f.suggestErr = errBackend },
			call: func(l *RateLimitedTuner) error {
				_, err := l.Suggest(t.Context())
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &faultyTuner{Tuner: newRandomTuner(t)}
			limited := NewRateLimitedTuner(inner, rate.Every(time.Hour), 1, nil)
			now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			limited.now = func() time.Time { return now }

			tt.fail(inner)
			assert.ErrorIs(t, tt.call(limited), errBackend)

			// The clock has not moved: only a refunded token lets this through.
			inner.askErr, inner.suggestErr = nil, nil
			require.NoError(t, tt.call(limited))
			assert.ErrorIs(t, tt.call(limited), ports.ErrRateLimited)
		})
	}
}

func TestRateLimitedTunerRejections(t *testing.T) {
	limited := NewRateLimitedTuner(newRandomTuner(t), rate.Limit(10), 2, nil)

	t.Run("request larger than burst", func(t *testing.T) {
		_, err := limited.Ask(t.Context(), 5)
		require.Error(t, err)
		var tErr *ports.TunerError
		require.True(t, errors.As(err, &tErr))
		assert.True(t, errors.Is(err, ports.ErrRateLimited))
		assert.Nil(t, tErr.RetryAfter)
	})

	t.Run("negative count reaches the tuner", func(t *testing.T) {
		_, err := limited.Ask(t.Context(), -1)
		assert.True(t, errors.Is(err, domain.ErrInvalidValue))
	})

	t.Run("suggest consumes a token", func(t *testing.T) {
		limited := NewRateLimitedTuner(newRandomTuner(t), rate.Limit(0.001), 1, nil)
		_, err := limited.Suggest(t.Context())
		require.NoError(t, err)
		_, err = limited.Suggest(t.Context())
		assert.True(t, errors.Is(err, ports.ErrRateLimited))
	})

	assert.Panics(t, func() { NewRateLimitedTuner(nil, rate.Inf, 1, nil) })
}

func TestRateLimitFromConfig(t *testing.T) {
	_, _, ok := RateLimitFromConfig(nil)
	assert.False(t, ok)

	limit, burst, ok := RateLimitFromConfig(&application.RateLimitConfig{PerSecond: 2.5})
	require.True(t, ok)
	assert.Equal(t, rate.Limit(2.5), limit)
	assert.Equal(t, 1, burst)

	_, burst, _ = RateLimitFromConfig(&application.RateLimitConfig{PerSecond: 1, Burst: 8})
	assert.Equal(t, 8, burst)
}
