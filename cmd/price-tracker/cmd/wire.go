package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/donaldgifford/product-price-tracker/internal/config"
	"github.com/donaldgifford/product-price-tracker/internal/engine"
	"github.com/donaldgifford/product-price-tracker/internal/notify"
	"github.com/donaldgifford/product-price-tracker/internal/scrape"
	"github.com/donaldgifford/product-price-tracker/internal/store"
	"github.com/donaldgifford/product-price-tracker/pkg/logger"
	"github.com/donaldgifford/product-price-tracker/pkg/pricing"
)

// app bundles the components every server-side command needs.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	store  store.Store
	engine *engine.Engine

	closers []func()
}

// newApp loads configuration and connects the store, fetcher, and sender.
func newApp(ctx context.Context, path string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	a := &app{cfg: cfg, log: log}

	s, closeStore, err := store.Open(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	a.store = s
	a.closers = append(a.closers, closeStore)

	fetcher, closeFetcher, err := newFetcher(&cfg.Scrape, logger.Component(log, "scrape"))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeFetcher)

	sender, senderName := newSender(&cfg.Notifications, logger.Component(log, "notify"))
	dispatcher := notify.NewDispatcher(sender,
		notify.WithLogger(logger.Component(log, "notify")),
		notify.WithSenderName(senderName),
	)

	a.engine = engine.NewEngine(s, fetcher, dispatcher,
		engine.WithLogger(logger.Component(log, "engine")),
		engine.WithConcurrency(cfg.Refresh.Concurrency),
		engine.WithRefreshTimeout(cfg.Refresh.Timeout),
		engine.WithAllowedHosts(cfg.Scrape.AllowedHosts),
		engine.WithDecideOptions(
			pricing.WithNotifyOnFirstObservation(cfg.Notifications.NotifyOnFirstObservation),
		),
	)

	return a, nil
}

// Close releases resources in reverse acquisition order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newFetcher builds the configured fetch backend behind a shared rate limiter.
func newFetcher(cfg *config.ScrapeConfig, log *slog.Logger) (scrape.Fetcher, func(), error) {
	rl := scrape.NewRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst, cfg.RateLimit.DailyLimit)

	switch cfg.Backend {
	case config.BackendBrowser:
		f, err := scrape.NewBrowserFetcher(cfg.BrowserBin,
			scrape.WithBrowserTimeout(cfg.Timeout),
			scrape.WithBrowserRateLimiter(rl),
			scrape.WithBrowserLogger(log),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("starting browser fetcher: %w", err)
		}
		return f, func() { _ = f.Close() }, nil
	case config.BackendHTTP:
		f := scrape.NewHTTPFetcher(
			scrape.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			scrape.WithUserAgent(cfg.UserAgent),
			scrape.WithRateLimiter(rl),
			scrape.WithLogger(log),
		)
		return f, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported scrape backend %q", cfg.Backend)
	}
}

// newSender picks the mail backend. The returned name labels metrics.
func newSender(cfg *config.NotificationsConfig, log *slog.Logger) (notify.Sender, string) {
	switch cfg.Sender {
	case config.SenderSMTP:
		return notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			TLS:      cfg.SMTP.TLS,
			From:     cfg.From,
		}), config.SenderSMTP
	case config.SenderWebhook:
		return notify.NewWebhookSender(cfg.Webhook.URL,
			notify.WithHeaders(cfg.Webhook.Headers),
			notify.WithFrom(cfg.From),
		), config.SenderWebhook
	default:
		return notify.NewNoOpSender(log), config.SenderNone
	}
}
