package scrape_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/product-price-tracker/internal/scrape"
)

func TestValidateProductURL(t *testing.T) {
	t.Parallel()

	allowed := []string{"amazon"}

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "amazon.com product",
			raw:  "https://www.amazon.com/dp/B000TEST01",
			want: "https://www.amazon.com/dp/B000TEST01",
		},
		{
			name: "regional marketplace with multi-label suffix",
			raw:  "https://www.amazon.co.uk/dp/B000TEST01",
			want: "https://www.amazon.co.uk/dp/B000TEST01",
		},
		{
			name: "fragment removed and whitespace trimmed",
			raw:  "  https://amazon.de/dp/B000TEST01#reviews ",
			want: "https://amazon.de/dp/B000TEST01",
		},
		{
			name: "query string kept",
			raw:  "https://www.amazon.com/dp/B000TEST01?th=1",
			want: "https://www.amazon.com/dp/B000TEST01?th=1",
		},
		{name: "other marketplace", raw: "https://www.ebay.com/itm/123", wantErr: true},
		{name: "lookalike subdomain", raw: "https://amazon.evil.com/dp/X", wantErr: true},
		{name: "ftp scheme", raw: "ftp://www.amazon.com/dp/X", wantErr: true},
		{name: "no scheme", raw: "www.amazon.com/dp/X", wantErr: true},
		{name: "missing host", raw: "https:///dp/X", wantErr: true},
		{name: "unparseable", raw: "https://%zz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := scrape.ValidateProductURL(tt.raw, allowed)
			if tt.wantErr {
				require.ErrorIs(t, err, scrape.ErrInvalidURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
