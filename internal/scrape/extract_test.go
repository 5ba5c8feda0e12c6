package scrape_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/product-price-tracker/internal/scrape"
)

func loadFixture(t *testing.T, name string) *goquery.Document {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	require.NoError(t, err)
	return doc
}

func TestExtract_FullProductPage(t *testing.T) {
	t.Parallel()

	url := "https://www.amazon.com/dp/B000TEST01"
	snap, err := scrape.Extract(loadFixture(t, "product.html"), url)
	require.NoError(t, err)

	assert.Equal(t, url, snap.URL)
	assert.Equal(t, "Acme Widget Pro, 2-Pack", snap.Title)
	assert.Equal(t, "$", snap.Currency)
	assert.InDelta(t, 1079.0, snap.CurrentPrice, 0.001)
	assert.InDelta(t, 1199.0, snap.OriginalPrice, 0.001)
	assert.InDelta(t, 10.0, snap.DiscountRate, 0.001)
	assert.Equal(t, "https://images.example.com/widget-large.jpg", snap.ImageURL)
	assert.Equal(t, "Solid steel frame\nTwo year warranty", snap.Description)
	assert.False(t, snap.IsOutOfStock)
}

func TestExtract_OutOfStockWithDefaults(t *testing.T) {
	t.Parallel()

	snap, err := scrape.Extract(loadFixture(t, "unavailable.html"), "https://www.amazon.com/dp/B000TEST02")
	require.NoError(t, err)

	assert.Equal(t, "Acme Gadget", snap.Title)
	assert.True(t, snap.IsOutOfStock)
	assert.Equal(t, scrape.DefaultCurrency, snap.Currency)
	assert.InDelta(t, 49.0, snap.CurrentPrice, 0.001)
	assert.InDelta(t, 49.0, snap.OriginalPrice, 0.001, "original price falls back to current")
	assert.Zero(t, snap.DiscountRate)
	assert.Empty(t, snap.ImageURL)
	assert.Empty(t, snap.Description)
}

func TestExtract_ListPriceWithoutBadgeHasNoDiscount(t *testing.T) {
	t.Parallel()

	snap, err := scrape.Extract(loadFixture(t, "no_badge.html"), "https://www.amazon.com/dp/B000TEST03")
	require.NoError(t, err)

	assert.InDelta(t, 67.0, snap.CurrentPrice, 0.001)
	assert.InDelta(t, 100.0, snap.OriginalPrice, 0.001)
	assert.Zero(t, snap.DiscountRate)
}

func TestExtract_NoPriceIsAnEmptySnapshot(t *testing.T) {
	t.Parallel()

	_, err := scrape.Extract(loadFixture(t, "no_price.html"), "https://www.amazon.com/dp/B000TEST04")
	require.ErrorIs(t, err, scrape.ErrNoPrice)
	require.ErrorIs(t, err, scrape.ErrEmptySnapshot)
	assert.Contains(t, err.Error(), "B000TEST04")
}

func TestExtract_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fixture string
		wantErr error
	}{
		{
			name:    "robot check page",
			fixture: "captcha.html",
			wantErr: scrape.ErrBlocked,
		},
		{
			name:    "page without product",
			fixture: "empty.html",
			wantErr: scrape.ErrEmptySnapshot,
		},
		{
			name:    "title without a current price",
			fixture: "no_price.html",
			wantErr: scrape.ErrNoPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			snap, err := scrape.Extract(loadFixture(t, tt.fixture), "https://www.amazon.com/dp/X")
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, snap)
		})
	}
}
