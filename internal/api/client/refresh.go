package client

import (
	"context"
	"net/http"

	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

// Refresh runs a refresh cycle on the server and waits for its summary.
func (c *Client) Refresh(ctx context.Context) (*domain.CycleSummary, error) {
	header := http.Header{}
	if c.cronToken != "" {
		header.Set("X-Cron-Token", c.cronToken)
	}

	var summary domain.CycleSummary
	if err := c.do(ctx, http.MethodPost, "/api/cron/refresh", header, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
