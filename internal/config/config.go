// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Scrape        ScrapeConfig        `yaml:"scrape"`
	Refresh       RefreshConfig       `yaml:"refresh"`
	Auth          AuthConfig          `yaml:"auth"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig defines the product store connection settings.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // postgres, sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
	Path     string `yaml:"path"` // sqlite file path
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s pool_max_conns=%d",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode, d.PoolSize,
	)
}

// Supported fetcher backends.
const (
	BackendHTTP    = "http"
	BackendBrowser = "browser"
)

// ScrapeConfig defines how product pages are fetched.
type ScrapeConfig struct {
	Backend      string          `yaml:"backend"` // http, browser
	UserAgent    string          `yaml:"user_agent"`
	Timeout      time.Duration   `yaml:"timeout"`
	AllowedHosts []string        `yaml:"allowed_hosts"`
	BrowserBin   string          `yaml:"browser_bin"`
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig defines outbound fetch rate limiting.
type RateLimitConfig struct {
	PerSecond  float64 `yaml:"per_second"`
	Burst      int     `yaml:"burst"`
	DailyLimit int64   `yaml:"daily_limit"`
}

// RefreshConfig defines the scheduled refresh cycle.
type RefreshConfig struct {
	Interval    time.Duration `yaml:"interval"`
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
	Disabled    bool          `yaml:"disabled"`
}

// AuthConfig defines the shared secret guarding the refresh trigger.
type AuthConfig struct {
	CronSecret string `yaml:"cron_secret"`
}

// Supported notification senders.
const (
	SenderSMTP    = "smtp"
	SenderWebhook = "webhook"
	SenderNone    = "none"
)

// NotificationsConfig defines email delivery.
type NotificationsConfig struct {
	Sender                   string        `yaml:"sender"` // smtp, webhook, none
	From                     string        `yaml:"from"`
	NotifyOnFirstObservation bool          `yaml:"notify_on_first_observation"`
	SMTP                     SMTPConfig    `yaml:"smtp"`
	Webhook                  WebhookConfig `yaml:"webhook"`
}

// SMTPConfig defines SMTP server settings.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	TLS      bool   `yaml:"tls"`
}

// WebhookConfig defines an HTTP mail relay.
type WebhookConfig struct {
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

// TelemetryConfig defines OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse parses raw YAML config content.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applyScrapeDefaults(&cfg.Scrape)
	applyRefreshDefaults(&cfg.Refresh)
	applyNotificationsDefaults(&cfg.Notifications)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 90 * time.Second
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Driver == "" {
		d.Driver = DriverPostgres
	}
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
	if d.Driver == DriverSQLite && d.Path == "" {
		d.Path = "price-tracker.db"
	}
}

func applyScrapeDefaults(s *ScrapeConfig) {
	if s.Backend == "" {
		s.Backend = BackendHTTP
	}
	if s.UserAgent == "" {
		s.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	}
	if s.Timeout == 0 {
		s.Timeout = 20 * time.Second
	}
	if len(s.AllowedHosts) == 0 {
		s.AllowedHosts = []string{"amazon"}
	}
	applyRateLimitDefaults(&s.RateLimit)
}

func applyRateLimitDefaults(r *RateLimitConfig) {
	if r.PerSecond == 0 {
		r.PerSecond = 2.0
	}
	if r.Burst == 0 {
		r.Burst = 4
	}
	if r.DailyLimit == 0 {
		r.DailyLimit = 10000
	}
}

func applyRefreshDefaults(r *RefreshConfig) {
	if r.Interval == 0 {
		r.Interval = 24 * time.Hour
	}
	if r.Timeout == 0 {
		r.Timeout = 55 * time.Second
	}
	if r.Concurrency == 0 {
		r.Concurrency = 4
	}
}

func applyNotificationsDefaults(n *NotificationsConfig) {
	if n.Sender == "" {
		n.Sender = SenderNone
	}
	if n.SMTP.Port == 0 {
		n.SMTP.Port = 587
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.ServiceName == "" {
		t.ServiceName = "product-price-tracker"
	}
	if t.Endpoint == "" {
		t.Endpoint = "localhost:4317"
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	switch cfg.Database.Driver {
	case DriverPostgres:
		if cfg.Database.Host == "" {
			errs = append(errs, fmt.Errorf("database.host is required"))
		}
		if cfg.Database.Name == "" {
			errs = append(errs, fmt.Errorf("database.name is required"))
		}
		if cfg.Database.User == "" {
			errs = append(errs, fmt.Errorf("database.user is required"))
		}
	case DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf(
			"database.driver must be one of: postgres, sqlite (got %q)", cfg.Database.Driver,
		))
	}

	switch cfg.Scrape.Backend {
	case BackendHTTP, BackendBrowser:
	default:
		errs = append(errs, fmt.Errorf(
			"scrape.backend must be one of: http, browser (got %q)", cfg.Scrape.Backend,
		))
	}

	if cfg.Refresh.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("refresh.concurrency must be at least 1"))
	}

	if cfg.Auth.CronSecret == "" {
		errs = append(errs, fmt.Errorf("auth.cron_secret is required"))
	}

	errs = append(errs, validateNotifications(&cfg.Notifications)...)

	return errors.Join(errs...)
}

func validateNotifications(n *NotificationsConfig) []error {
	var errs []error

	switch n.Sender {
	case SenderSMTP:
		if n.SMTP.Host == "" {
			errs = append(errs, fmt.Errorf("notifications.smtp.host is required when sender is smtp"))
		}
		if n.From == "" {
			errs = append(errs, fmt.Errorf("notifications.from is required when sender is smtp"))
		}
	case SenderWebhook:
		if n.Webhook.URL == "" {
			errs = append(errs, fmt.Errorf("notifications.webhook.url is required when sender is webhook"))
		}
	case SenderNone:
	default:
		errs = append(errs, fmt.Errorf(
			"notifications.sender must be one of: smtp, webhook, none (got %q)", n.Sender,
		))
	}

	return errs
}
