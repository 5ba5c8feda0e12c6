// Package engine runs the product refresh pipeline: it re-scrapes tracked
// products, appends to their price history, persists them, and notifies
// subscribers of price events.
package engine

import (
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/donaldgifford/product-price-tracker/internal/notify"
	"github.com/donaldgifford/product-price-tracker/internal/scrape"
	"github.com/donaldgifford/product-price-tracker/internal/store"
	"github.com/donaldgifford/product-price-tracker/pkg/pricing"
)

// RefreshJobName is the job_runs name recorded for every refresh cycle.
const RefreshJobName = "refresh"

const (
	defaultConcurrency    = 4
	defaultRefreshTimeout = 55 * time.Second
	tracerName            = "github.com/donaldgifford/product-price-tracker/internal/engine"
)

var (
	// ErrStoreRead is returned when the product set cannot be enumerated.
	// No product is touched and the whole cycle fails.
	ErrStoreRead = errors.New("reading products from store")
	// ErrFetch is returned when a product page cannot be scraped.
	ErrFetch = errors.New("fetching product snapshot")
	// ErrInvalidEmail is returned for subscriber addresses that do not parse.
	ErrInvalidEmail = errors.New("invalid email address")
)

// Engine orchestrates scraping, persistence, and notification.
type Engine struct {
	store    store.Store
	fetcher  scrape.Fetcher
	notifier notify.Notifier
	log      *slog.Logger
	tracer   trace.Tracer

	concurrency  int
	timeout      time.Duration
	allowedHosts []string
	decideOpts   []pricing.DecideOption
	nowFunc      func() time.Time
}

// NewEngine creates a new Engine with injected dependencies.
func NewEngine(
	s store.Store,
	f scrape.Fetcher,
	n notify.Notifier,
	opts ...EngineOption,
) *Engine {
	eng := &Engine{
		store:        s,
		fetcher:      f,
		notifier:     n,
		log:          slog.Default(),
		tracer:       otel.Tracer(tracerName),
		concurrency:  defaultConcurrency,
		timeout:      defaultRefreshTimeout,
		allowedHosts: []string{"amazon"},
		nowFunc:      time.Now,
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithConcurrency bounds the number of products refreshed at once.
// Values below 1 are ignored.
func WithConcurrency(n int) EngineOption {
	return func(e *Engine) {
		if n >= 1 {
			e.concurrency = n
		}
	}
}

// WithRefreshTimeout sets the wall-clock budget of one refresh cycle.
func WithRefreshTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithAllowedHosts sets the marketplace labels accepted by TrackProduct.
func WithAllowedHosts(hosts []string) EngineOption {
	return func(e *Engine) {
		e.allowedHosts = hosts
	}
}

// WithDecideOptions passes options through to pricing.Decide.
func WithDecideOptions(opts ...pricing.DecideOption) EngineOption {
	return func(e *Engine) {
		e.decideOpts = opts
	}
}

// WithNowFunc overrides the clock used for price observations.
func WithNowFunc(f func() time.Time) EngineOption {
	return func(e *Engine) {
		e.nowFunc = f
	}
}

// WithTracer sets the tracer used for refresh spans.
func WithTracer(t trace.Tracer) EngineOption {
	return func(e *Engine) {
		e.tracer = t
	}
}
