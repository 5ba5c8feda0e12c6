package engine

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/donaldgifford/product-price-tracker/internal/notify"
	"github.com/donaldgifford/product-price-tracker/internal/scrape"
	"github.com/donaldgifford/product-price-tracker/internal/store"
	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

// TrackProduct scrapes rawURL and stores the product. A product that is
// already tracked goes through the same merge as a refresh, without
// notifications.
func (eng *Engine) TrackProduct(ctx context.Context, rawURL string) (*domain.Product, error) {
	url, err := scrape.ValidateProductURL(rawURL, eng.allowedHosts)
	if err != nil {
		return nil, err
	}

	snap, err := eng.fetcher.Fetch(ctx, url)
	if err == nil && snap == nil {
		err = scrape.ErrEmptySnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	existing, err := eng.store.GetProductByURL(ctx, url)
	var next *domain.Product
	switch {
	case errors.Is(err, store.ErrNotFound):
		next = NewProduct(url, snap)
	case err != nil:
		return nil, fmt.Errorf("looking up product: %w", err)
	default:
		next = MergeSnapshot(existing, snap, eng.nowFunc())
	}

	saved, err := eng.store.UpsertProduct(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("saving product: %w", err)
	}

	eng.log.Info("product tracked", "url", url, "id", saved.ID, "new", existing == nil)
	return saved, nil
}

// Subscribe adds email to the product's subscribers and sends a welcome
// email the first time. Subscribing twice is a no-op.
func (eng *Engine) Subscribe(ctx context.Context, productID, email string) (*domain.Product, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEmail, err)
	}
	email = addr.Address

	p, err := eng.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	added, err := eng.store.AddSubscriber(ctx, p.ID, email)
	if err != nil {
		return nil, fmt.Errorf("adding subscriber: %w", err)
	}
	if !added {
		return p, nil
	}

	p.Users = append(p.Users, domain.User{Email: email})

	if err := eng.notifier.SendWelcome(ctx, notify.InfoFromProduct(p), email); err != nil {
		eng.log.Warn("welcome email failed", "product", p.ID, "error", err)
	}
	return p, nil
}
