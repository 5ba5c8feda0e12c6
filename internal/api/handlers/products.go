package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/product-price-tracker/internal/engine"
	"github.com/donaldgifford/product-price-tracker/internal/scrape"
	"github.com/donaldgifford/product-price-tracker/internal/store"
	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

// ProductTracker adds products and subscribers.
type ProductTracker interface {
	TrackProduct(ctx context.Context, rawURL string) (*domain.Product, error)
	Subscribe(ctx context.Context, productID, email string) (*domain.Product, error)
}

// ProductReader defines the store methods required for product reads.
type ProductReader interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

// ProductsHandler serves tracked products.
type ProductsHandler struct {
	tracker ProductTracker
	store   ProductReader
}

// NewProductsHandler creates a new ProductsHandler.
func NewProductsHandler(t ProductTracker, s ProductReader) *ProductsHandler {
	return &ProductsHandler{tracker: t, store: s}
}

// TrackProductInput is the product page to start tracking.
type TrackProductInput struct {
	Body struct {
		URL string `json:"url" minLength:"1" doc:"Marketplace product page URL" example:"https://www.amazon.com/dp/B0EXAMPLE"`
	}
}

// ProductOutput is a single product.
type ProductOutput struct {
	Body *domain.Product
}

// ListProductsOutput is every tracked product.
type ListProductsOutput struct {
	Body []domain.Product
}

// GetProductInput selects a product by ID.
type GetProductInput struct {
	ID string `path:"id" doc:"Product ID"`
}

// SubscribeInput adds an email to a product's subscribers.
type SubscribeInput struct {
	ID   string `path:"id" doc:"Product ID"`
	Body struct {
		Email string `json:"email" minLength:"3" doc:"Subscriber email address" example:"jane@example.com"`
	}
}

// Track scrapes and stores a product page.
func (h *ProductsHandler) Track(ctx context.Context, input *TrackProductInput) (*ProductOutput, error) {
	p, err := h.tracker.TrackProduct(ctx, input.Body.URL)
	switch {
	case errors.Is(err, scrape.ErrInvalidURL):
		return nil, huma.Error400BadRequest(err.Error())
	case errors.Is(err, engine.ErrFetch):
		return nil, huma.Error502BadGateway("scraping product failed: " + err.Error())
	case err != nil:
		return nil, huma.Error500InternalServerError("tracking product failed: " + err.Error())
	}
	return &ProductOutput{Body: p}, nil
}

// List returns every tracked product.
func (h *ProductsHandler) List(ctx context.Context, _ *struct{}) (*ListProductsOutput, error) {
	products, err := h.store.ListProducts(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing products failed: " + err.Error())
	}
	if products == nil {
		products = []domain.Product{}
	}
	return &ListProductsOutput{Body: products}, nil
}

// Get returns one product with its price history and subscribers.
func (h *ProductsHandler) Get(ctx context.Context, input *GetProductInput) (*ProductOutput, error) {
	p, err := h.store.GetProduct(ctx, input.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, huma.Error404NotFound("product not found")
	case err != nil:
		return nil, huma.Error500InternalServerError("getting product failed: " + err.Error())
	}
	return &ProductOutput{Body: p}, nil
}

// Subscribe adds an email subscriber to a product.
func (h *ProductsHandler) Subscribe(ctx context.Context, input *SubscribeInput) (*ProductOutput, error) {
	p, err := h.tracker.Subscribe(ctx, input.ID, input.Body.Email)
	switch {
	case errors.Is(err, engine.ErrInvalidEmail):
		return nil, huma.Error400BadRequest(err.Error())
	case errors.Is(err, store.ErrNotFound):
		return nil, huma.Error404NotFound("product not found")
	case err != nil:
		return nil, huma.Error500InternalServerError("subscribing failed: " + err.Error())
	}
	return &ProductOutput{Body: p}, nil
}

// RegisterProductRoutes registers product endpoints with the Huma API.
func RegisterProductRoutes(api huma.API, h *ProductsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "track-product",
		Method:      http.MethodPost,
		Path:        "/api/v1/products",
		Summary:     "Track a product",
		Description: "Scrapes the product page and stores it. Tracking a URL twice " +
			"refreshes the stored product.",
		Tags: []string{"products"},
		Errors: []int{
			http.StatusBadRequest,
			http.StatusBadGateway,
			http.StatusInternalServerError,
		},
	}, h.Track)

	huma.Register(api, huma.Operation{
		OperationID: "list-products",
		Method:      http.MethodGet,
		Path:        "/api/v1/products",
		Summary:     "List tracked products",
		Tags:        []string{"products"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "get-product",
		Method:      http.MethodGet,
		Path:        "/api/v1/products/{id}",
		Summary:     "Get a product",
		Tags:        []string{"products"},
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.Get)

	huma.Register(api, huma.Operation{
		OperationID: "subscribe-product",
		Method:      http.MethodPost,
		Path:        "/api/v1/products/{id}/subscribers",
		Summary:     "Subscribe to price alerts",
		Description: "Adds an email subscriber and sends a welcome email. " +
			"Subscribing an address twice is a no-op.",
		Tags: []string{"products"},
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusInternalServerError,
		},
	}, h.Subscribe)
}
