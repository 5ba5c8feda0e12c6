// Package notify renders and delivers subscriber emails for price events.
package notify

import (
	"context"

	"github.com/donaldgifford/product-price-tracker/pkg/pricing"
	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

// Message is a rendered email.
type Message struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Sender delivers one message to a set of recipients in a single call.
type Sender interface {
	Send(ctx context.Context, msg *Message, recipients []string) error
}

// ProductInfo is the product data shown in an email.
type ProductInfo struct {
	Title    string
	URL      string
	ImageURL string
	Price    string
}

// Notifier is the notification surface used by the engine.
type Notifier interface {
	Dispatch(ctx context.Context, category domain.NotificationCategory, info ProductInfo, recipients []string) error
	SendWelcome(ctx context.Context, info ProductInfo, email string) error
}

// InfoFromProduct extracts the email-facing fields of p.
func InfoFromProduct(p *domain.Product) ProductInfo {
	return ProductInfo{
		Title:    p.Title,
		URL:      p.URL,
		ImageURL: p.ImageURL,
		Price:    pricing.FormatPrice(p.Currency, p.CurrentPrice),
	}
}
