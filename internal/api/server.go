// Package api assembles the echo server, its middleware, and the Huma
// operations of the price tracker.
package api

import (
	"context"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/donaldgifford/product-price-tracker/internal/api/handlers"
	"github.com/donaldgifford/product-price-tracker/internal/api/middleware"
	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

// Store is the subset of the product store the HTTP layer reads directly.
type Store interface {
	handlers.Pinger
	handlers.ProductReader
	handlers.JobsProvider
}

// Engine is the subset of the refresh engine the HTTP layer drives.
type Engine interface {
	handlers.ProductTracker
	RunRefresh(ctx context.Context) (*domain.CycleSummary, error)
}

// Deps holds everything NewServer wires together.
type Deps struct {
	Store      Store
	Engine     Engine
	CronSecret string
	Logger     *slog.Logger
	Version    string
}

// NewServer returns an echo instance with probes, metrics, and the Huma
// API registered. The caller owns starting and shutting it down.
func NewServer(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(
		middleware.RequestLog(d.Logger),
		middleware.Recovery(d.Logger),
		middleware.Metrics(),
	)

	handlers.RegisterHealthRoutes(e, handlers.NewHealthHandler(d.Store))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig("Product Price Tracker API", d.Version))
	handlers.RegisterRefreshRoutes(api, handlers.NewRefreshHandler(d.Engine, d.CronSecret))
	handlers.RegisterProductRoutes(api, handlers.NewProductsHandler(d.Engine, d.Store))
	handlers.RegisterJobRoutes(api, handlers.NewJobsHandler(d.Store))

	return e
}
