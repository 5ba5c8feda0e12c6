package client

import (
	"context"
	"net/url"

	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

// ListProducts returns every tracked product.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.get(ctx, "/api/v1/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct returns one product with its history and subscribers.
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := c.get(ctx, "/api/v1/products/"+url.PathEscape(id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// TrackProduct scrapes and stores a product page.
func (c *Client) TrackProduct(ctx context.Context, productURL string) (*domain.Product, error) {
	var p domain.Product
	body := map[string]string{"url": productURL}
	if err := c.post(ctx, "/api/v1/products", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Subscribe adds an email subscriber to a product.
func (c *Client) Subscribe(ctx context.Context, id, email string) (*domain.Product, error) {
	var p domain.Product
	body := map[string]string{"email": email}
	if err := c.post(ctx, "/api/v1/products/"+url.PathEscape(id)+"/subscribers", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
