package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

func TestDecide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		prev domain.Product
		snap domain.Snapshot
		want domain.NotificationCategory
	}{
		{
			name: "restock wins over new low",
			prev: domain.Product{IsOutOfStock: true, LowestPrice: 50, PriceHistory: history(50)},
			snap: domain.Snapshot{IsOutOfStock: false, CurrentPrice: 45},
			want: domain.ReturnedToStock,
		},
		{
			name: "strictly lower than every previous price",
			prev: domain.Product{LowestPrice: 100, DiscountRate: 10, PriceHistory: history(120, 100)},
			snap: domain.Snapshot{CurrentPrice: 80, DiscountRate: 10},
			want: domain.LowestPriceEver,
		},
		{
			name: "equal to lowest is not a new low",
			prev: domain.Product{LowestPrice: 80, DiscountRate: 10, PriceHistory: history(80)},
			snap: domain.Snapshot{CurrentPrice: 80, DiscountRate: 10},
			want: domain.NoNotification,
		},
		{
			name: "discount rate increased",
			prev: domain.Product{LowestPrice: 80, DiscountRate: 5, PriceHistory: history(80, 95)},
			snap: domain.Snapshot{CurrentPrice: 90, DiscountRate: 20},
			want: domain.PriceDropAboveThreshold,
		},
		{
			name: "nothing changed",
			prev: domain.Product{LowestPrice: 80, DiscountRate: 20, PriceHistory: history(80, 90)},
			snap: domain.Snapshot{CurrentPrice: 90, DiscountRate: 20},
			want: domain.NoNotification,
		},
		{
			name: "still out of stock",
			prev: domain.Product{IsOutOfStock: true, LowestPrice: 50, PriceHistory: history(50)},
			snap: domain.Snapshot{IsOutOfStock: true, CurrentPrice: 60},
			want: domain.NoNotification,
		},
		{
			name: "went out of stock",
			prev: domain.Product{LowestPrice: 50, PriceHistory: history(50)},
			snap: domain.Snapshot{IsOutOfStock: true, CurrentPrice: 50},
			want: domain.NoNotification,
		},
		{
			name: "no history never reports a new low",
			prev: domain.Product{LowestPrice: 100},
			snap: domain.Snapshot{CurrentPrice: 10},
			want: domain.NoNotification,
		},
		{
			name: "no history with a higher price is quiet",
			prev: domain.Product{LowestPrice: 100},
			snap: domain.Snapshot{CurrentPrice: 150},
			want: domain.NoNotification,
		},
		{
			name: "no history with an unchanged price is quiet",
			prev: domain.Product{LowestPrice: 100, DiscountRate: 5},
			snap: domain.Snapshot{CurrentPrice: 100, DiscountRate: 5},
			want: domain.NoNotification,
		},
		{
			name: "no history still reports a bigger discount",
			prev: domain.Product{LowestPrice: 100, DiscountRate: 0},
			snap: domain.Snapshot{CurrentPrice: 90, DiscountRate: 10},
			want: domain.PriceDropAboveThreshold,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Decide(&tt.snap, &tt.prev)
			assert.Equal(t, tt.want, got)

			// Pure function: identical inputs, identical output.
			assert.Equal(t, got, Decide(&tt.snap, &tt.prev))
		})
	}
}

func TestDecide_NotifyOnFirstObservation(t *testing.T) {
	t.Parallel()

	prev := &domain.Product{LowestPrice: 100}
	snap := &domain.Snapshot{CurrentPrice: 90}

	assert.Equal(t, domain.NoNotification, Decide(snap, prev))
	assert.Equal(t, domain.LowestPriceEver,
		Decide(snap, prev, WithNotifyOnFirstObservation(true)))
	assert.Equal(t, domain.NoNotification,
		Decide(&domain.Snapshot{CurrentPrice: 100}, prev, WithNotifyOnFirstObservation(true)))
	assert.Equal(t, domain.PriceDropAboveThreshold,
		Decide(&domain.Snapshot{CurrentPrice: 120, DiscountRate: 15}, prev, WithNotifyOnFirstObservation(true)),
		"a first observation above the lowest price falls through to the discount rule")
}
