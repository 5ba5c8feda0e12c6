// Package pricing holds the pure price-history aggregation and notification
// decision rules used by the refresh engine.
package pricing

import (
	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

// Stats holds the derived statistics of a price history.
type Stats struct {
	Lowest  float64 `json:"lowest"`
	Highest float64 `json:"highest"`
	Average float64 `json:"average"`
}

// Lowest returns the minimum price in history, or fallback when history is empty.
func Lowest(history []domain.PriceEntry, fallback float64) float64 {
	if len(history) == 0 {
		return fallback
	}
	lowest := history[0].Price
	for _, e := range history[1:] {
		lowest = min(lowest, e.Price)
	}
	return lowest
}

// Highest returns the maximum price in history, or fallback when history is empty.
func Highest(history []domain.PriceEntry, fallback float64) float64 {
	if len(history) == 0 {
		return fallback
	}
	highest := history[0].Price
	for _, e := range history[1:] {
		highest = max(highest, e.Price)
	}
	return highest
}

// Average returns the arithmetic mean of history, or fallback when history is empty.
func Average(history []domain.PriceEntry, fallback float64) float64 {
	if len(history) == 0 {
		return fallback
	}
	var sum float64
	for _, e := range history {
		sum += e.Price
	}
	return sum / float64(len(history))
}

// Summarize computes all three statistics at once.
func Summarize(history []domain.PriceEntry, fallback float64) Stats {
	return Stats{
		Lowest:  Lowest(history, fallback),
		Highest: Highest(history, fallback),
		Average: Average(history, fallback),
	}
}

// Apply writes s onto the derived fields of p.
func (s Stats) Apply(p *domain.Product) {
	p.LowestPrice = s.Lowest
	p.HighestPrice = s.Highest
	p.AveragePrice = s.Average
}
