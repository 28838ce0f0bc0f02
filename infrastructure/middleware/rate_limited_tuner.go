package middleware

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/ahrav/go-configspace/internal/application"
	"github.com/ahrav/go-configspace/internal/domain/space"
	"github.com/ahrav/go-configspace/internal/ports"
)

var _ ports.Tuner = (*RateLimitedTuner)(nil)

// RateLimitedTuner throttles how fast configurations are handed out. Each
// configuration requested by Ask consumes one token from a token bucket;
// a request that cannot be served right away fails with a TunerError
// wrapping ports.ErrRateLimited whose RetryAfter says when it would fit.
// The limiter never blocks, so callers choose their own backoff.
type RateLimitedTuner struct {
	ports.Tuner
	limiter *rate.Limiter
	metrics ports.MetricsCollector
	now     func() time.Time
}

// NewRateLimitedTuner wraps next with a limiter refilling at r
// configurations per second up to burst. metrics may be nil.
func NewRateLimitedTuner(next ports.Tuner, r rate.Limit, burst int, metrics ports.MetricsCollector) *RateLimitedTuner {
	if next == nil {
		panic("rate limited tuner: next tuner is required")
	}
	return &RateLimitedTuner{
		Tuner:   next,
		limiter: rate.NewLimiter(r, burst),
		metrics: metrics,
		now:     time.Now,
	}
}

// Ask implements ports.Tuner. Non-positive counts are forwarded so the
// wrapped tuner reports its own validation error. Tokens are handed back
// when the wrapped tuner fails.
func (t *RateLimitedTuner) Ask(ctx context.Context, n int) ([]*space.Configuration, error) {
	if n <= 0 {
		return t.Tuner.Ask(ctx, n)
	}
	r, now, err := t.reserve(n)
	if err != nil {
		return nil, err
	}
	configs, err := t.Tuner.Ask(ctx, n)
	if err != nil {
		r.CancelAt(now)
		return nil, err
	}
	return configs, nil
}

// Suggest implements ports.Tuner and consumes a single token.
func (t *RateLimitedTuner) Suggest(ctx context.Context) (*space.Configuration, error) {
	r, now, err := t.reserve(1)
	if err != nil {
		return nil, err
	}
	c, err := t.Tuner.Suggest(ctx)
	if err != nil {
		r.CancelAt(now)
		return nil, err
	}
	return c, nil
}

// reserve takes n tokens at the current time. The reservation and that
// time are returned so a failed call can cancel it.
func (t *RateLimitedTuner) reserve(n int) (*rate.Reservation, time.Time, error) {
	now := t.now()
	r := t.limiter.ReserveN(now, n)
	if !r.OK() {
		return nil, now, t.limited(n, fmt.Errorf("%d configurations exceed burst %d: %w", n, t.limiter.Burst(), ports.ErrRateLimited), nil)
	}
	delay := r.DelayFrom(now)
	if delay <= 0 {
		return r, now, nil
	}
	r.CancelAt(now)
	return nil, now, t.limited(n, ports.ErrRateLimited, &delay)
}

func (t *RateLimitedTuner) limited(n int, err error, retryAfter *time.Duration) error {
	if t.metrics != nil {
		t.metrics.RecordCounter(MetricRateLimited, float64(n), map[string]string{
			"tuner":     t.Name(),
			"operation": "ask",
		})
	}
	tErr := ports.NewTunerError(t.ID(), "ask", err)
	tErr.RetryAfter = retryAfter
	return tErr
}

// RateLimitFromConfig converts a declared rate limit. ok is false when the
// declaration is absent and no limiter should be installed.
func RateLimitFromConfig(config *application.RateLimitConfig) (limit rate.Limit, burst int, ok bool) {
	if config == nil {
		return 0, 0, false
	}
	burst = config.Burst
	if burst == 0 {
		burst = 1
	}
	return rate.Limit(config.PerSecond), burst, true
}
