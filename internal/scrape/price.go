package scrape

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// priceRegex finds the first number-like pattern, allowing thousands
// separators and a decimal part ("AED 1,079.00", "$19.99$19.99", "1,299.").
var priceRegex = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

var percentRegex = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParsePrice extracts the first price in s. The second return value is
// false when s holds no number.
func ParsePrice(s string) (decimal.Decimal, bool) {
	found := priceRegex.FindString(s)
	if found == "" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(strings.ReplaceAll(found, ",", ""))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParsePercent extracts a percentage such as "-23%" or "23 percent savings".
func ParsePercent(s string) float64 {
	found := percentRegex.FindString(s)
	if found == "" {
		return 0
	}
	d, err := decimal.NewFromString(found)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}
