package scrape

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/donaldgifford/product-price-tracker/internal/metrics"
)

// ErrDailyLimitReached is returned when the daily fetch budget is exhausted.
var ErrDailyLimitReached = errors.New("daily fetch limit reached")

// RateLimiter spaces out marketplace requests with a token bucket and caps
// the number of requests in a rolling 24-hour window.
type RateLimiter struct {
	limiter *rate.Limiter
	nowFunc func() time.Time

	mu       sync.Mutex
	used     int64
	maxDaily int64
	resetAt  time.Time
}

// Usage is a point-in-time view of the daily budget.
type Usage struct {
	Used      int64     `json:"used"`
	Limit     int64     `json:"limit"`
	Remaining int64     `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// RateLimiterOption configures the RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithRateLimiterNowFunc overrides the time function for testing.
func WithRateLimiterNowFunc(f func() time.Time) RateLimiterOption {
	return func(r *RateLimiter) {
		r.nowFunc = f
	}
}

// NewRateLimiter creates a limiter allowing perSecond requests with the given
// burst and at most maxDaily requests per window. maxDaily <= 0 disables the
// daily cap.
func NewRateLimiter(
	perSecond float64,
	burst int,
	maxDaily int64,
	opts ...RateLimiterOption,
) *RateLimiter {
	r := &RateLimiter{
		limiter:  rate.NewLimiter(rate.Limit(perSecond), burst),
		maxDaily: maxDaily,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.resetAt = r.nowFunc().Add(24 * time.Hour)
	return r
}

// Wait reserves one request from the daily budget, then blocks until the
// token bucket allows it or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.reserve(); err != nil {
		return err
	}

	if err := r.limiter.Wait(ctx); err != nil {
		r.release()
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}

// Usage returns the current daily budget state.
func (r *RateLimiter) Usage() Usage {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollWindow()

	u := Usage{Used: r.used, Limit: r.maxDaily, ResetAt: r.resetAt}
	if r.maxDaily > 0 {
		u.Remaining = max(r.maxDaily-r.used, 0)
	}
	return u
}

func (r *RateLimiter) reserve() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollWindow()

	if r.maxDaily > 0 && r.used >= r.maxDaily {
		metrics.ScrapeDailyLimitHits.Inc()
		return fmt.Errorf("%w (%d/%d)", ErrDailyLimitReached, r.used, r.maxDaily)
	}

	r.used++
	metrics.ScrapeDailyUsage.Set(float64(r.used))
	return nil
}

func (r *RateLimiter) release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.used > 0 {
		r.used--
	}
	metrics.ScrapeDailyUsage.Set(float64(r.used))
}

// rollWindow must be called with mu held.
func (r *RateLimiter) rollWindow() {
	now := r.nowFunc()
	if now.After(r.resetAt) {
		r.used = 0
		r.resetAt = now.Add(24 * time.Hour)
	}
}
