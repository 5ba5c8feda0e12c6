package scrape_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/product-price-tracker/internal/scrape"
)

func TestRateLimiter_Wait(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rate    float64
		burst   int
		daily   int64
		calls   int
		wantErr bool
	}{
		{name: "allows calls within rate", rate: 100, burst: 10, daily: 100, calls: 3},
		{name: "allows burst", rate: 100, burst: 5, daily: 100, calls: 5},
		{name: "no daily cap", rate: 1000, burst: 10, daily: 0, calls: 10},
		{name: "rejects when daily limit reached", rate: 100, burst: 10, daily: 2, calls: 3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rl := scrape.NewRateLimiter(tt.rate, tt.burst, tt.daily)

			var lastErr error
			for range tt.calls {
				lastErr = rl.Wait(context.Background())
				if lastErr != nil {
					break
				}
			}

			if tt.wantErr {
				require.ErrorIs(t, lastErr, scrape.ErrDailyLimitReached)
				return
			}
			require.NoError(t, lastErr)
		})
	}
}

func TestRateLimiter_CancelledContextReleasesBudget(t *testing.T) {
	t.Parallel()

	rl := scrape.NewRateLimiter(0.001, 1, 10)
	require.NoError(t, rl.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, rl.Wait(ctx))
	assert.Equal(t, int64(1), rl.Usage().Used)
}

func TestRateLimiter_WindowResets(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	rl := scrape.NewRateLimiter(1000, 10, 1, scrape.WithRateLimiterNowFunc(clock))
	require.NoError(t, rl.Wait(context.Background()))
	require.ErrorIs(t, rl.Wait(context.Background()), scrape.ErrDailyLimitReached)

	mu.Lock()
	now = now.Add(25 * time.Hour)
	mu.Unlock()

	require.NoError(t, rl.Wait(context.Background()))

	u := rl.Usage()
	assert.Equal(t, int64(1), u.Used)
	assert.Equal(t, int64(1), u.Limit)
	assert.Zero(t, u.Remaining)
}
