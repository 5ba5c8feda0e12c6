package pricing

import (
	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

type decideConfig struct {
	notifyOnFirstObservation bool
}

// DecideOption configures Decide.
type DecideOption func(*decideConfig)

// WithNotifyOnFirstObservation lets LowestPriceEver fire for a product that
// has no price history yet, comparing against its stored LowestPrice.
func WithNotifyOnFirstObservation(enabled bool) DecideOption {
	return func(c *decideConfig) {
		c.notifyOnFirstObservation = enabled
	}
}

// Decide maps a fresh snapshot and the previously stored product to the
// notification its subscribers should receive. Rules are evaluated in
// priority order; the first match wins.
func Decide(
	snap *domain.Snapshot,
	prev *domain.Product,
	opts ...DecideOption,
) domain.NotificationCategory {
	cfg := decideConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	if prev.IsOutOfStock && !snap.IsOutOfStock {
		return domain.ReturnedToStock
	}

	if comparesLowest(prev, cfg) && snap.CurrentPrice < prev.LowestPrice {
		return domain.LowestPriceEver
	}

	if snap.DiscountRate > prev.DiscountRate {
		return domain.PriceDropAboveThreshold
	}

	return domain.NoNotification
}

// comparesLowest reports whether the new-low rule applies. A product that
// has never been observed has no lowest price to beat unless first
// observations are opted in.
func comparesLowest(prev *domain.Product, cfg decideConfig) bool {
	return len(prev.PriceHistory) > 0 || cfg.notifyOnFirstObservation
}
