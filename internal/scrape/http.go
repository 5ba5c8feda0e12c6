package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/donaldgifford/product-price-tracker/internal/metrics"
	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

const maxErrorBody = 512

// HTTPFetcher downloads product pages over plain HTTP and extracts them
// with goquery.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	limiter   *RateLimiter
	log       *slog.Logger
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		f.client = c
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithRateLimiter throttles fetches through rl.
func WithRateLimiter(rl *RateLimiter) HTTPOption {
	return func(f *HTTPFetcher) {
		f.limiter = rl
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) HTTPOption {
	return func(f *HTTPFetcher) {
		f.log = l
	}
}

// NewHTTPFetcher creates a fetcher with a 20s client timeout by default.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client: &http.Client{Timeout: 20 * time.Second},
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads url and extracts a snapshot from it.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*domain.Snapshot, error) {
	start := time.Now()
	snap, err := f.fetch(ctx, url)
	metrics.ScrapeDuration.WithLabelValues("http").Observe(time.Since(start).Seconds())

	result := "success"
	if err != nil {
		result = "error"
		f.log.Debug("fetch failed", "url", url, "error", err)
	}
	metrics.ScrapeRequestsTotal.WithLabelValues("http", result).Inc()

	return snap, err
}

func (f *HTTPFetcher) fetch(ctx context.Context, url string) (*domain.Snapshot, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching product page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("product page returned %d: %s", resp.StatusCode, body)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing product page: %w", err)
	}

	return Extract(doc, url)
}
