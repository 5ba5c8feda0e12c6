package store

import (
	"encoding/json"
	"fmt"

	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

// rowScanner is satisfied by pgx.Row, pgx.Rows, *sql.Row, and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanProductInto reads the productColumns projection into p. Timestamps go
// to createdAt and updatedAt so each backend can supply its own representation.
func scanProductInto(row rowScanner, p *domain.Product, createdAt, updatedAt any) error {
	var history []byte
	if err := row.Scan(
		&p.ID, &p.URL, &p.Title, &p.Currency, &p.ImageURL,
		&p.CurrentPrice, &p.OriginalPrice, &p.DiscountRate, &p.IsOutOfStock,
		&p.Description, &p.Category, &p.ReviewsCount, &p.Stars,
		&history, &p.LowestPrice, &p.HighestPrice, &p.AveragePrice,
		createdAt, updatedAt,
	); err != nil {
		return err
	}

	entries, err := unmarshalHistory(history)
	if err != nil {
		return err
	}
	p.PriceHistory = entries
	p.Users = []domain.User{}
	return nil
}

func scanProduct(row rowScanner, p *domain.Product) error {
	return scanProductInto(row, p, &p.CreatedAt, &p.UpdatedAt)
}

func marshalHistory(h []domain.PriceEntry) ([]byte, error) {
	if h == nil {
		h = []domain.PriceEntry{}
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("marshaling price history: %w", err)
	}
	return b, nil
}

func unmarshalHistory(b []byte) ([]domain.PriceEntry, error) {
	entries := []domain.PriceEntry{}
	if len(b) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("unmarshaling price history: %w", err)
	}
	return entries, nil
}

func attachSubscribers(products []domain.Product, subs map[string][]domain.User) {
	for i := range products {
		if users, ok := subs[products[i].ID]; ok {
			products[i].Users = users
		}
	}
}
