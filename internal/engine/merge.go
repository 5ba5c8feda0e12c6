package engine

import (
	"slices"
	"time"

	"github.com/donaldgifford/product-price-tracker/pkg/pricing"
	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

// MergeSnapshot returns the next stored state of prev after observing snap
// at observedAt. prev is not modified. Scraped fields overwrite stored ones;
// catalog fields the scraper does not produce are carried over. Exactly one
// history entry is appended and the statistics are recomputed from the
// full history.
func MergeSnapshot(prev *domain.Product, snap *domain.Snapshot, observedAt time.Time) *domain.Product {
	next := *prev

	next.Title = snap.Title
	next.Currency = snap.Currency
	next.ImageURL = snap.ImageURL
	next.CurrentPrice = snap.CurrentPrice
	next.OriginalPrice = snap.OriginalPrice
	next.DiscountRate = snap.DiscountRate
	next.IsOutOfStock = snap.IsOutOfStock
	next.Description = snap.Description

	next.PriceHistory = append(slices.Clone(prev.PriceHistory), domain.PriceEntry{
		Price:      snap.CurrentPrice,
		ObservedAt: observedAt,
	})
	next.Users = slices.Clone(prev.Users)

	pricing.Summarize(next.PriceHistory, snap.CurrentPrice).Apply(&next)
	return &next
}

// NewProduct builds a never-observed product from its first snapshot. The
// history starts empty, so a first refresh cannot look like a new low.
func NewProduct(url string, snap *domain.Snapshot) *domain.Product {
	p := &domain.Product{
		URL:           url,
		Title:         snap.Title,
		Currency:      snap.Currency,
		ImageURL:      snap.ImageURL,
		CurrentPrice:  snap.CurrentPrice,
		OriginalPrice: snap.OriginalPrice,
		DiscountRate:  snap.DiscountRate,
		IsOutOfStock:  snap.IsOutOfStock,
		Description:   snap.Description,
		PriceHistory:  []domain.PriceEntry{},
		Users:         []domain.User{},
	}

	p.LowestPrice = firstNonZero(snap.CurrentPrice, snap.OriginalPrice)
	p.HighestPrice = firstNonZero(snap.OriginalPrice, snap.CurrentPrice)
	p.AveragePrice = firstNonZero(snap.CurrentPrice, snap.OriginalPrice)
	return p
}

func firstNonZero(a, b float64) float64 {
	if a != 0 {
		return a
	}
	return b
}
