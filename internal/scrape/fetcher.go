// Package scrape fetches marketplace product pages and turns them into
// strictly typed domain.Snapshot values.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"math"

	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

var (
	// ErrEmptySnapshot is returned when a page was fetched but holds no product.
	ErrEmptySnapshot = errors.New("empty product snapshot")
	// ErrBlocked is returned when the marketplace served a robot check instead
	// of the product page.
	ErrBlocked = errors.New("request blocked by robot check")
	// ErrNoPrice is returned for a product page that shows no current price.
	// Recording it as 0 would pin the lowest price at zero.
	ErrNoPrice = fmt.Errorf("%w: no current price", ErrEmptySnapshot)
)

// Fetcher returns a point-in-time snapshot of the product at url.
// Missing discount or original price is not an error; only network and
// parse failures are.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*domain.Snapshot, error)
}

// Default snapshot values applied when the page does not provide them.
const (
	DefaultCurrency = "$"
	DefaultTitle    = "No title"
)

// ApplyDefaults fills unset snapshot fields so callers never see partial data.
func ApplyDefaults(s *domain.Snapshot) {
	if s.Currency == "" {
		s.Currency = DefaultCurrency
	}
	if s.Title == "" {
		s.Title = DefaultTitle
	}

	s.CurrentPrice = nonNegative(s.CurrentPrice)
	s.OriginalPrice = nonNegative(s.OriginalPrice)
	s.DiscountRate = nonNegative(s.DiscountRate)

	// A page without a savings badge has no discount, even when the list
	// price is higher; the discount rule only fires on what the page shows.
	if s.OriginalPrice == 0 {
		s.OriginalPrice = s.CurrentPrice
	}
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
