package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/donaldgifford/product-price-tracker/internal/metrics"
	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

// Dispatcher renders notification emails and hands them to a Sender.
type Dispatcher struct {
	sender     Sender
	senderName string
	log        *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.log = l
	}
}

// WithSenderName labels delivery metrics; defaults to "default".
func WithSenderName(name string) DispatcherOption {
	return func(d *Dispatcher) {
		d.senderName = name
	}
}

// NewDispatcher creates a Dispatcher that delivers through s.
func NewDispatcher(s Sender, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sender:     s,
		senderName: "default",
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch sends one email for category to all recipients. It is a no-op
// for NoNotification or an empty recipient list.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	category domain.NotificationCategory,
	info ProductInfo,
	recipients []string,
) error {
	if category == domain.NoNotification || len(recipients) == 0 {
		return nil
	}

	msg, err := Render(category, info)
	if err != nil {
		return err
	}

	if err := d.send(ctx, msg, recipients); err != nil {
		return fmt.Errorf("sending %s notification: %w", category, err)
	}

	metrics.NotificationsSentTotal.WithLabelValues(string(category)).Inc()
	d.log.Info("notification sent",
		"category", string(category),
		"url", info.URL,
		"recipients", len(recipients),
	)
	return nil
}

// SendWelcome sends the subscription confirmation to a single address.
func (d *Dispatcher) SendWelcome(ctx context.Context, info ProductInfo, email string) error {
	msg, err := RenderWelcome(info)
	if err != nil {
		return err
	}
	if err := d.send(ctx, msg, []string{email}); err != nil {
		return fmt.Errorf("sending welcome email: %w", err)
	}
	metrics.NotificationsSentTotal.WithLabelValues("welcome").Inc()
	return nil
}

func (d *Dispatcher) send(ctx context.Context, msg *Message, recipients []string) error {
	start := time.Now()
	err := d.sender.Send(ctx, msg, recipients)
	metrics.NotificationDuration.WithLabelValues(d.senderName).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.NotificationFailuresTotal.Inc()
		return err
	}
	metrics.NotificationRecipientsTotal.Add(float64(len(recipients)))
	return nil
}
