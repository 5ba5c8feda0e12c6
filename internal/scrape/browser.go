package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"github.com/donaldgifford/product-price-tracker/internal/metrics"
	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

// BrowserFetcher renders product pages in a headless Chromium with stealth
// patches applied, for marketplaces that reject plain HTTP clients. The
// rendered HTML goes through the same extractor as HTTPFetcher.
type BrowserFetcher struct {
	browser *rod.Browser
	timeout time.Duration
	limiter *RateLimiter
	log     *slog.Logger
}

// BrowserOption configures a BrowserFetcher.
type BrowserOption func(*BrowserFetcher)

// WithBrowserTimeout bounds each page load.
func WithBrowserTimeout(d time.Duration) BrowserOption {
	return func(f *BrowserFetcher) {
		f.timeout = d
	}
}

// WithBrowserRateLimiter throttles page loads through rl.
func WithBrowserRateLimiter(rl *RateLimiter) BrowserOption {
	return func(f *BrowserFetcher) {
		f.limiter = rl
	}
}

// WithBrowserLogger sets a custom logger.
func WithBrowserLogger(l *slog.Logger) BrowserOption {
	return func(f *BrowserFetcher) {
		f.log = l
	}
}

// browserProcess is the part of *launcher.Launcher the fetcher needs.
type browserProcess interface {
	Launch() (string, error)
	Kill()
}

func connectRod(controlURL string) (*rod.Browser, error) {
	b := rod.New().ControlURL(controlURL)
	return b, b.Connect()
}

// NewBrowserFetcher launches a headless browser. bin selects the browser
// executable; empty lets rod locate or download one.
func NewBrowserFetcher(bin string, opts ...BrowserOption) (*BrowserFetcher, error) {
	l := launcher.New().Headless(true).Leakless(true)
	if bin != "" {
		l = l.Bin(bin)
	}
	return newBrowserFetcher(l, connectRod, opts...)
}

func newBrowserFetcher(
	proc browserProcess,
	connect func(string) (*rod.Browser, error),
	opts ...BrowserOption,
) (*BrowserFetcher, error) {
	controlURL, err := proc.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser, err := connect(controlURL)
	if err != nil {
		// The process is running but unreachable; nothing else will stop it.
		proc.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	f := &BrowserFetcher{
		browser: browser,
		timeout: 60 * time.Second,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Fetch renders url in a fresh stealth page and extracts a snapshot.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (*domain.Snapshot, error) {
	start := time.Now()
	snap, err := f.fetch(ctx, url)
	metrics.ScrapeDuration.WithLabelValues("browser").Observe(time.Since(start).Seconds())

	result := "success"
	if err != nil {
		result = "error"
		f.log.Debug("browser fetch failed", "url", url, "error", err)
	}
	metrics.ScrapeRequestsTotal.WithLabelValues("browser", result).Inc()

	return snap, err
}

func (f *BrowserFetcher) fetch(ctx context.Context, url string) (*domain.Snapshot, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	page, err := stealth.Page(f.browser)
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			f.log.Debug("closing page", "error", cerr)
		}
	}()

	p := page.Context(ctx).Timeout(f.timeout)
	if err := p.Navigate(url); err != nil {
		return nil, fmt.Errorf("navigating to product page: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("waiting for product page: %w", err)
	}

	html, err := p.HTML()
	if err != nil {
		return nil, fmt.Errorf("reading rendered page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing product page: %w", err)
	}

	return Extract(doc, url)
}

// Close shuts the browser down.
func (f *BrowserFetcher) Close() error {
	return f.browser.Close()
}
