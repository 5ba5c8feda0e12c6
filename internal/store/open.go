package store

import (
	"context"
	"fmt"

	"github.com/donaldgifford/product-price-tracker/internal/config"
)

// Open connects to the backend selected by cfg.Driver. The returned func
// releases the connection pool.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (Store, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		s, err := NewPostgresStore(ctx, cfg.DSN())
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.DriverSQLite:
		s, err := NewSQLiteStore(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
