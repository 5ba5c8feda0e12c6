package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	notifyMocks "github.com/donaldgifford/product-price-tracker/internal/notify/mocks"
	scrapeMocks "github.com/donaldgifford/product-price-tracker/internal/scrape/mocks"
	"github.com/donaldgifford/product-price-tracker/internal/store"
	storeMocks "github.com/donaldgifford/product-price-tracker/internal/store/mocks"
	"github.com/donaldgifford/product-price-tracker/pkg/pricing"
	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

// echoUpsert behaves like a store upsert that persists p unchanged.
func echoUpsert(_ context.Context, p *domain.Product) (*domain.Product, error) {
	out := *p
	if out.ID == "" {
		out.ID = "generated-id"
	}
	return &out, nil
}

func trackedProduct(id, url string, price float64, subscribers ...string) domain.Product {
	p := domain.Product{
		ID:            id,
		URL:           url,
		Title:         "Product " + id,
		Currency:      "$",
		CurrentPrice:  price,
		OriginalPrice: price,
		PriceHistory: []domain.PriceEntry{
			{Price: price, ObservedAt: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
		},
		LowestPrice:  price,
		HighestPrice: price,
		AveragePrice: price,
	}
	for _, email := range subscribers {
		p.Users = append(p.Users, domain.User{Email: email})
	}
	return p
}

func snapshotFor(url string, price float64) *domain.Snapshot {
	return &domain.Snapshot{
		URL:           url,
		Currency:      "$",
		Title:         "Fresh title",
		CurrentPrice:  price,
		OriginalPrice: price,
		Description:   "Description",
	}
}

func TestRunRefresh_IsolatesFetchFailure(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockStore(t)
	mf := scrapeMocks.NewMockFetcher(t)
	mn := notifyMocks.NewMockNotifier(t)

	products := []domain.Product{
		trackedProduct("a", "https://www.amazon.com/dp/A", 100),
		trackedProduct("b", "https://www.amazon.com/dp/B", 100),
		trackedProduct("c", "https://www.amazon.com/dp/C", 100),
	}
	ms.EXPECT().ListProducts(mock.Anything).Return(products, nil)
	mf.EXPECT().Fetch(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, url string) (*domain.Snapshot, error) {
			if url == "https://www.amazon.com/dp/B" {
				return nil, errors.New("connection reset")
			}
			return snapshotFor(url, 100), nil
		})
	ms.EXPECT().UpsertProduct(mock.Anything, mock.Anything).RunAndReturn(echoUpsert).Times(2)

	eng := newTestEngine(ms, mf, mn)
	summary, err := eng.RunRefresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, summary.Notified)

	require.Len(t, summary.Outcomes, 3)
	assert.Equal(t, domain.OutcomeSuccess, summary.Outcomes[0].Status)
	assert.Equal(t, domain.OutcomeSuccess, summary.Outcomes[2].Status)

	failed := summary.Outcomes[1]
	assert.Equal(t, "https://www.amazon.com/dp/B", failed.URL)
	assert.Equal(t, domain.OutcomeFailed, failed.Status)
	assert.Equal(t, domain.StageFetch, failed.Stage)
	assert.Contains(t, failed.Error, "connection reset")
	assert.Nil(t, failed.Product)
}

func TestRunRefresh_NoSubscribersStillPersists(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockStore(t)
	mf := scrapeMocks.NewMockFetcher(t)
	mn := notifyMocks.NewMockNotifier(t)

	url := "https://www.amazon.com/dp/A"
	ms.EXPECT().ListProducts(mock.Anything).
		Return([]domain.Product{trackedProduct("a", url, 100)}, nil)
	mf.EXPECT().Fetch(mock.Anything, url).Return(snapshotFor(url, 60), nil)

	var saved *domain.Product
	ms.EXPECT().UpsertProduct(mock.Anything, mock.Anything).
		Run(func(_ context.Context, p *domain.Product) { saved = p }).
		RunAndReturn(echoUpsert).Once()

	eng := newTestEngine(ms, mf, mn)
	summary, err := eng.RunRefresh(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Outcomes, 1)
	out := summary.Outcomes[0]
	assert.Equal(t, domain.OutcomeSuccess, out.Status)
	assert.Equal(t, domain.LowestPriceEver, out.Notification)
	assert.False(t, out.Notified)

	require.NotNil(t, saved)
	assert.InDelta(t, 60.0, saved.CurrentPrice, 0.001)
	assert.InDelta(t, 60.0, saved.LowestPrice, 0.001)
	assert.Len(t, saved.PriceHistory, 2)
	mn.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunRefresh_Notifications(t *testing.T) {
	t.Parallel()

	url := "https://www.amazon.com/dp/A"

	tests := []struct {
		name     string
		prev     func() domain.Product
		snap     *domain.Snapshot
		opts     []EngineOption
		wantCat  domain.NotificationCategory
		notified bool
	}{
		{
			name: "lowest price ever",
			prev: func() domain.Product { return trackedProduct("a", url, 100, "a@example.com") },
			snap: snapshotFor(url, 90),
			wantCat:  domain.LowestPriceEver,
			notified: true,
		},
		{
			name: "returned to stock",
			prev: func() domain.Product {
				p := trackedProduct("a", url, 100, "a@example.com")
				p.IsOutOfStock = true
				return p
			},
			snap:     snapshotFor(url, 100),
			wantCat:  domain.ReturnedToStock,
			notified: true,
		},
		{
			name: "bigger discount",
			prev: func() domain.Product { return trackedProduct("a", url, 100, "a@example.com") },
			snap: &domain.Snapshot{
				URL: url, Currency: "$", Title: "t",
				CurrentPrice: 100, OriginalPrice: 125, DiscountRate: 20,
			},
			wantCat:  domain.PriceDropAboveThreshold,
			notified: true,
		},
		{
			name: "unchanged price",
			prev: func() domain.Product { return trackedProduct("a", url, 100, "a@example.com") },
			snap:     snapshotFor(url, 100),
			wantCat:  domain.NoNotification,
			notified: false,
		},
		{
			name: "first observation is quiet by default",
			prev: func() domain.Product {
				p := trackedProduct("a", url, 100, "a@example.com")
				p.PriceHistory = nil
				return p
			},
			snap:     snapshotFor(url, 90),
			wantCat:  domain.NoNotification,
			notified: false,
		},
		{
			name: "first observation alerts when enabled",
			prev: func() domain.Product {
				p := trackedProduct("a", url, 100, "a@example.com")
				p.PriceHistory = nil
				return p
			},
			snap:     snapshotFor(url, 90),
			opts:     []EngineOption{WithDecideOptions(pricing.WithNotifyOnFirstObservation(true))},
			wantCat:  domain.LowestPriceEver,
			notified: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ms := storeMocks.NewMockStore(t)
			mf := scrapeMocks.NewMockFetcher(t)
			mn := notifyMocks.NewMockNotifier(t)

			ms.EXPECT().ListProducts(mock.Anything).Return([]domain.Product{tt.prev()}, nil)
			mf.EXPECT().Fetch(mock.Anything, url).Return(tt.snap, nil)
			ms.EXPECT().UpsertProduct(mock.Anything, mock.Anything).RunAndReturn(echoUpsert)
			if tt.notified {
				mn.EXPECT().Dispatch(mock.Anything, tt.wantCat, mock.Anything, []string{"a@example.com"}).
					Return(nil).Once()
			}

			eng := newTestEngine(ms, mf, mn, tt.opts...)
			summary, err := eng.RunRefresh(context.Background())
			require.NoError(t, err)

			require.Len(t, summary.Outcomes, 1)
			out := summary.Outcomes[0]
			assert.Equal(t, domain.OutcomeSuccess, out.Status)
			assert.Equal(t, tt.wantCat, out.Notification)
			assert.Equal(t, tt.notified, out.Notified)
			if tt.notified {
				assert.Equal(t, 1, summary.Notified)
			}
		})
	}
}

func TestRunRefresh_NotifyFailureKeepsUpdate(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockStore(t)
	mf := scrapeMocks.NewMockFetcher(t)
	mn := notifyMocks.NewMockNotifier(t)

	url := "https://www.amazon.com/dp/A"
	ms.EXPECT().ListProducts(mock.Anything).
		Return([]domain.Product{trackedProduct("a", url, 100, "a@example.com")}, nil)
	mf.EXPECT().Fetch(mock.Anything, url).Return(snapshotFor(url, 50), nil)
	ms.EXPECT().UpsertProduct(mock.Anything, mock.Anything).RunAndReturn(echoUpsert).Once()
	mn.EXPECT().Dispatch(mock.Anything, domain.LowestPriceEver, mock.Anything, mock.Anything).
		Return(errors.New("smtp unavailable"))

	eng := newTestEngine(ms, mf, mn)
	summary, err := eng.RunRefresh(context.Background())
	require.NoError(t, err)

	out := summary.Outcomes[0]
	assert.Equal(t, domain.OutcomeFailed, out.Status)
	assert.Equal(t, domain.StageNotify, out.Stage)
	assert.Contains(t, out.Error, "smtp unavailable")
	require.NotNil(t, out.Product)
	assert.InDelta(t, 50.0, out.Product.CurrentPrice, 0.001)
	assert.False(t, out.Notified)
}

func TestRunRefresh_PersistFailure(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockStore(t)
	mf := scrapeMocks.NewMockFetcher(t)
	mn := notifyMocks.NewMockNotifier(t)

	url := "https://www.amazon.com/dp/A"
	ms.EXPECT().ListProducts(mock.Anything).
		Return([]domain.Product{trackedProduct("a", url, 100, "a@example.com")}, nil)
	mf.EXPECT().Fetch(mock.Anything, url).Return(snapshotFor(url, 50), nil)
	ms.EXPECT().UpsertProduct(mock.Anything, mock.Anything).Return(nil, errors.New("disk full"))

	eng := newTestEngine(ms, mf, mn)
	summary, err := eng.RunRefresh(context.Background())
	require.NoError(t, err)

	out := summary.Outcomes[0]
	assert.Equal(t, domain.OutcomeFailed, out.Status)
	assert.Equal(t, domain.StagePersist, out.Stage)
	assert.Contains(t, out.Error, "disk full")
	mn.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunRefresh_EmptySnapshot(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockStore(t)
	mf := scrapeMocks.NewMockFetcher(t)
	mn := notifyMocks.NewMockNotifier(t)

	url := "https://www.amazon.com/dp/A"
	ms.EXPECT().ListProducts(mock.Anything).Return([]domain.Product{trackedProduct("a", url, 100)}, nil)
	mf.EXPECT().Fetch(mock.Anything, url).Return(nil, nil)

	eng := newTestEngine(ms, mf, mn)
	summary, err := eng.RunRefresh(context.Background())
	require.NoError(t, err)

	out := summary.Outcomes[0]
	assert.Equal(t, domain.OutcomeFailed, out.Status)
	assert.Equal(t, domain.StageFetch, out.Stage)
	assert.Contains(t, out.Error, "empty product snapshot")
}

func TestRunRefresh_StoreReadError(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockStore(t)
	mf := scrapeMocks.NewMockFetcher(t)
	mn := notifyMocks.NewMockNotifier(t)

	ms.EXPECT().InsertJobRun(mock.Anything, RefreshJobName).Return("run-9", nil)
	ms.EXPECT().ListProducts(mock.Anything).Return(nil, errors.New("connection refused"))
	ms.EXPECT().CompleteJobRun(mock.Anything, "run-9", domain.JobFailed, mock.Anything, 0).
		Run(func(_ context.Context, _, _, errText string, _ int) {
			assert.Contains(t, errText, "connection refused")
		}).
		Return(nil)

	eng := NewEngine(ms, mf, mn, WithLogger(quietLogger()))
	summary, err := eng.RunRefresh(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreRead)
	assert.Nil(t, summary)
	mf.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestRunRefresh_RecordsJobRun(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockStore(t)
	mf := scrapeMocks.NewMockFetcher(t)
	mn := notifyMocks.NewMockNotifier(t)

	url := "https://www.amazon.com/dp/A"
	ms.EXPECT().InsertJobRun(mock.Anything, RefreshJobName).Return("run-1", nil)
	ms.EXPECT().ListProducts(mock.Anything).Return([]domain.Product{trackedProduct("a", url, 100)}, nil)
	mf.EXPECT().Fetch(mock.Anything, url).Return(snapshotFor(url, 100), nil)
	ms.EXPECT().UpsertProduct(mock.Anything, mock.Anything).RunAndReturn(echoUpsert)
	ms.EXPECT().CompleteJobRun(mock.Anything, "run-1", domain.JobSucceeded, "", 1).Return(nil)

	eng := NewEngine(ms, mf, mn, WithLogger(quietLogger()))
	_, err := eng.RunRefresh(context.Background())
	require.NoError(t, err)
}

func TestRunRefresh_JobRunBookkeepingFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockStore(t)
	mf := scrapeMocks.NewMockFetcher(t)
	mn := notifyMocks.NewMockNotifier(t)

	ms.EXPECT().InsertJobRun(mock.Anything, RefreshJobName).Return("", errors.New("table missing"))
	ms.EXPECT().ListProducts(mock.Anything).Return(nil, nil)

	eng := NewEngine(ms, mf, mn, WithLogger(quietLogger()))
	summary, err := eng.RunRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total)
	ms.AssertNotCalled(t, "CompleteJobRun",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunRefresh_TimeoutFailsRemainingProducts(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockStore(t)
	mf := scrapeMocks.NewMockFetcher(t)
	mn := notifyMocks.NewMockNotifier(t)

	ms.EXPECT().ListProducts(mock.Anything).Return([]domain.Product{
		trackedProduct("a", "https://www.amazon.com/dp/A", 100),
		trackedProduct("b", "https://www.amazon.com/dp/B", 100),
	}, nil)
	mf.EXPECT().Fetch(mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, _ string) (*domain.Snapshot, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	eng := newTestEngine(ms, mf, mn,
		WithConcurrency(1),
		WithRefreshTimeout(20*time.Millisecond),
	)
	summary, err := eng.RunRefresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Failed)
	for _, out := range summary.Outcomes {
		assert.Equal(t, domain.StageFetch, out.Stage)
		assert.Contains(t, out.Error, "deadline exceeded")
	}
}

func TestRunRefresh_EmptyStore(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockStore(t)
	ms.EXPECT().ListProducts(mock.Anything).Return([]domain.Product{}, nil)

	eng := newTestEngine(ms, scrapeMocks.NewMockFetcher(t), notifyMocks.NewMockNotifier(t))
	summary, err := eng.RunRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total)
	assert.Empty(t, summary.Outcomes)
}

func TestRunRefresh_HistoryGrowsByOnePerCycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := store.NewSQLiteStore(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))

	url := "https://www.amazon.com/dp/A"
	_, err = db.UpsertProduct(ctx, NewProduct(url, snapshotFor(url, 100)))
	require.NoError(t, err)

	prices := []float64{100, 90, 95, 80, 110}
	var cycle atomic.Int64
	mf := scrapeMocks.NewMockFetcher(t)
	mf.EXPECT().Fetch(mock.Anything, url).
		RunAndReturn(func(context.Context, string) (*domain.Snapshot, error) {
			return snapshotFor(url, prices[cycle.Load()]), nil
		})

	var tick atomic.Int64
	clock := func() time.Time {
		return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(tick.Add(1)) * time.Hour)
	}

	// No subscribers, so the notifier must never be reached.
	eng := NewEngine(db, mf, notifyMocks.NewMockNotifier(t),
		WithLogger(quietLogger()),
		WithNowFunc(clock),
	)

	var previous []domain.PriceEntry
	for i := range prices {
		cycle.Store(int64(i))

		summary, err := eng.RunRefresh(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, summary.Succeeded)

		got, err := db.GetProductByURL(ctx, url)
		require.NoError(t, err)
		require.Len(t, got.PriceHistory, i+1)
		if i > 0 {
			assert.Equal(t, previous, got.PriceHistory[:i], "earlier entries must be preserved")
		}
		assert.InDelta(t, prices[i], got.PriceHistory[i].Price, 0.001)
		previous = got.PriceHistory
	}

	final, err := db.GetProductByURL(ctx, url)
	require.NoError(t, err)
	assert.InDelta(t, 80.0, final.LowestPrice, 0.001)
	assert.InDelta(t, 110.0, final.HighestPrice, 0.001)
	assert.InDelta(t, 95.0, final.AveragePrice, 0.001)

	runs, err := db.ListJobRuns(ctx, RefreshJobName, "", 10)
	require.NoError(t, err)
	assert.Len(t, runs, len(prices))
}

func TestTrackThenRefresh_FirstCycleIsQuiet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := store.NewSQLiteStore(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))

	const url = "https://www.amazon.com/dp/B0TRACK01"
	const subscriber = "sub@example.com"

	// Track at 100, then refresh at 95 (first observation) and 90.
	prices := []float64{100, 95, 90}
	var step atomic.Int64
	mf := scrapeMocks.NewMockFetcher(t)
	mf.EXPECT().Fetch(mock.Anything, url).
		RunAndReturn(func(context.Context, string) (*domain.Snapshot, error) {
			return snapshotFor(url, prices[step.Load()]), nil
		})

	mn := notifyMocks.NewMockNotifier(t)
	mn.EXPECT().SendWelcome(mock.Anything, mock.Anything, subscriber).Return(nil).Once()

	var tick atomic.Int64
	clock := func() time.Time {
		return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(tick.Add(1)) * time.Minute)
	}
	eng := NewEngine(db, mf, mn, WithLogger(quietLogger()), WithNowFunc(clock))

	tracked, err := eng.TrackProduct(ctx, url)
	require.NoError(t, err)
	assert.Empty(t, tracked.PriceHistory)
	_, err = eng.Subscribe(ctx, tracked.ID, subscriber)
	require.NoError(t, err)

	// Cycle 1: no Dispatch expectation is registered, so any alert fails the mock.
	step.Store(1)
	summary, err := eng.RunRefresh(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Succeeded)
	assert.Zero(t, summary.Notified)
	assert.Equal(t, domain.NoNotification, summary.Outcomes[0].Notification)

	// Cycle 2: a real new low reaches the subscriber.
	mn.EXPECT().Dispatch(mock.Anything, domain.LowestPriceEver, mock.Anything, []string{subscriber}).
		Return(nil).Once()
	step.Store(2)
	summary, err = eng.RunRefresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Notified)

	got, err := db.GetProductByURL(ctx, url)
	require.NoError(t, err)
	require.Len(t, got.PriceHistory, 2)
	assert.InDelta(t, 90.0, got.LowestPrice, 0.001)
}
