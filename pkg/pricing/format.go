package pricing

import "github.com/shopspring/decimal"

// FormatPrice renders a price with its currency symbol and two decimals.
func FormatPrice(currency string, price float64) string {
	return currency + decimal.NewFromFloat(price).StringFixed(2)
}
