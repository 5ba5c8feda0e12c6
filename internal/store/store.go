// Package store defines the datastore abstraction for product-price-tracker.
// All business logic depends on the Store interface, never on concrete
// implementations. This enables mock-based testing without a running database.
package store

import (
	"context"
	"errors"

	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

// ErrNotFound is returned when a product or job does not exist.
var ErrNotFound = errors.New("not found")

// Store defines all data access operations for product-price-tracker.
type Store interface {
	// Products
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetProductByURL(ctx context.Context, url string) (*domain.Product, error)
	// UpsertProduct inserts p, or replaces the stored product with the same
	// URL, in a single statement. Subscribers are never written by it. The
	// returned product carries the stored ID, timestamps, and subscribers.
	UpsertProduct(ctx context.Context, p *domain.Product) (*domain.Product, error)
	// AddSubscriber reports whether email was newly added.
	AddSubscriber(ctx context.Context, productID, email string) (bool, error)

	// Scheduler
	InsertJobRun(ctx context.Context, jobName string) (id string, err error)
	CompleteJobRun(ctx context.Context, id string, status string, errText string, rowsAffected int) error
	ListJobRuns(ctx context.Context, jobName, status string, limit int) ([]domain.JobRun, error)
	ListLatestJobRuns(ctx context.Context) ([]domain.JobRun, error)

	// Migrations
	Migrate(ctx context.Context) error

	// Health
	Ping(ctx context.Context) error
}
