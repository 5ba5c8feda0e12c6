package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/product-price-tracker/internal/config"
	"github.com/donaldgifford/product-price-tracker/internal/notify"
	"github.com/donaldgifford/product-price-tracker/internal/scrape"
	"github.com/donaldgifford/product-price-tracker/pkg/logger"
)

func TestNewSender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      config.NotificationsConfig
		wantName string
		check    func(t *testing.T, s notify.Sender)
	}{
		{
			name:     "smtp",
			cfg:      config.NotificationsConfig{Sender: config.SenderSMTP, From: "a@example.com"},
			wantName: config.SenderSMTP,
			check: func(t *testing.T, s notify.Sender) {
				t.Helper()
				assert.IsType(t, &notify.SMTPSender{}, s)
			},
		},
		{
			name: "webhook",
			cfg: config.NotificationsConfig{
				Sender:  config.SenderWebhook,
				Webhook: config.WebhookConfig{URL: "https://relay.example.com/send"},
			},
			wantName: config.SenderWebhook,
			check: func(t *testing.T, s notify.Sender) {
				t.Helper()
				assert.IsType(t, &notify.WebhookSender{}, s)
			},
		},
		{
			name:     "none",
			cfg:      config.NotificationsConfig{Sender: config.SenderNone},
			wantName: config.SenderNone,
			check: func(t *testing.T, s notify.Sender) {
				t.Helper()
				assert.IsType(t, &notify.NoOpSender{}, s)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, name := newSender(&tt.cfg, logger.Discard())
			assert.Equal(t, tt.wantName, name)
			tt.check(t, s)
		})
	}
}

func TestNewFetcher(t *testing.T) {
	t.Parallel()

	cfg := &config.ScrapeConfig{
		Backend:   config.BackendHTTP,
		UserAgent: "test-agent/1.0",
		Timeout:   5 * time.Second,
		RateLimit: config.RateLimitConfig{PerSecond: 1, Burst: 1, DailyLimit: 10},
	}

	f, closeFn, err := newFetcher(cfg, logger.Discard())
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &scrape.HTTPFetcher{}, f)

	cfg.Backend = "curl"
	_, _, err = newFetcher(cfg, logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scrape backend")
}

func TestNewApp_SQLite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "database:\n  driver: sqlite\n  path: " + filepath.Join(dir, "tracker.db") +
		"\nauth:\n  cron_secret: s3cret\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	a, err := newApp(context.Background(), path)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.store.Migrate(context.Background()))
	products, err := a.store.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestNewApp_BadConfig(t *testing.T) {
	t.Parallel()

	_, err := newApp(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cmd := versionCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "price-tracker dev\n", out.String())
}
