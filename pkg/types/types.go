// Package domain defines the core business types for the product price tracker.
package domain

import (
	"slices"
	"time"
)

// NotificationCategory is the reason subscribers of a product are alerted.
// The zero value means no notification should be sent.
type NotificationCategory string

// Notification category constants.
const (
	NoNotification          NotificationCategory = ""
	LowestPriceEver         NotificationCategory = "lowest_price_ever"
	PriceDropAboveThreshold NotificationCategory = "price_drop_above_threshold"
	ReturnedToStock         NotificationCategory = "returned_to_stock"
)

// PriceEntry is one observed price. Entries are stored in observation order.
type PriceEntry struct {
	Price      float64   `json:"price"       db:"price"`
	ObservedAt time.Time `json:"observed_at" db:"observed_at"`
}

// User is a product subscriber, identified by email address.
type User struct {
	Email string `json:"email" db:"email"`
}

// Product is a tracked marketplace product. URL is its identity.
type Product struct {
	ID       string `json:"id"                  db:"id"`
	URL      string `json:"url"                 db:"url"`
	Title    string `json:"title"               db:"title"`
	Currency string `json:"currency"            db:"currency"`
	ImageURL string `json:"image_url,omitempty" db:"image_url"`

	// Pricing
	CurrentPrice  float64 `json:"current_price"  db:"current_price"`
	OriginalPrice float64 `json:"original_price" db:"original_price"`
	DiscountRate  float64 `json:"discount_rate"  db:"discount_rate"`
	IsOutOfStock  bool    `json:"is_out_of_stock" db:"is_out_of_stock"`

	// Catalog
	Description  string  `json:"description,omitempty" db:"description"`
	Category     string  `json:"category,omitempty"    db:"category"`
	ReviewsCount int     `json:"reviews_count"         db:"reviews_count"`
	Stars        float64 `json:"stars"                 db:"stars"`

	// History and derived statistics
	PriceHistory []PriceEntry `json:"price_history" db:"price_history"`
	LowestPrice  float64      `json:"lowest_price"  db:"lowest_price"`
	HighestPrice float64      `json:"highest_price" db:"highest_price"`
	AveragePrice float64      `json:"average_price" db:"average_price"`

	Users []User `json:"users" db:"users"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SubscriberEmails returns the email address of every subscriber.
func (p *Product) SubscriberEmails() []string {
	emails := make([]string, 0, len(p.Users))
	for _, u := range p.Users {
		if u.Email != "" {
			emails = append(emails, u.Email)
		}
	}
	return emails
}

// HasSubscriber reports whether email is already subscribed.
func (p *Product) HasSubscriber(email string) bool {
	return slices.ContainsFunc(p.Users, func(u User) bool {
		return u.Email == email
	})
}

// Snapshot is a point-in-time scrape of a product page. Fetchers apply
// defaults before returning one, so every field is always populated.
type Snapshot struct {
	URL           string  `json:"url"`
	Currency      string  `json:"currency"`
	ImageURL      string  `json:"image_url"`
	Title         string  `json:"title"`
	CurrentPrice  float64 `json:"current_price"`
	OriginalPrice float64 `json:"original_price"`
	DiscountRate  float64 `json:"discount_rate"`
	IsOutOfStock  bool    `json:"is_out_of_stock"`
	Description   string  `json:"description"`
}

// OutcomeStatus tags a per-product refresh result.
type OutcomeStatus string

// Outcome status constants.
const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Stage names the pipeline step a per-product failure happened in.
type Stage string

// Stage constants.
const (
	StageFetch   Stage = "fetch"
	StagePersist Stage = "persist"
	StageNotify  Stage = "notify"
)

// RefreshOutcome is the result of refreshing one product.
type RefreshOutcome struct {
	URL          string               `json:"url"`
	Status       OutcomeStatus        `json:"status"`
	Product      *Product             `json:"product,omitempty"`
	Notification NotificationCategory `json:"notification,omitempty"`
	Notified     bool                 `json:"notified"`
	Stage        Stage                `json:"stage,omitempty"`
	Error        string               `json:"error,omitempty"`
}

// CycleSummary reports a full refresh pass over all tracked products.
type CycleSummary struct {
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt time.Time        `json:"completed_at"`
	Total       int              `json:"total"`
	Succeeded   int              `json:"succeeded"`
	Failed      int              `json:"failed"`
	Notified    int              `json:"notified"`
	Outcomes    []RefreshOutcome `json:"outcomes"`
}

// Tally fills the aggregate counters from Outcomes.
func (s *CycleSummary) Tally() {
	s.Total = len(s.Outcomes)
	s.Succeeded, s.Failed, s.Notified = 0, 0, 0
	for i := range s.Outcomes {
		if s.Outcomes[i].Status == OutcomeSuccess {
			s.Succeeded++
		} else {
			s.Failed++
		}
		if s.Outcomes[i].Notified {
			s.Notified++
		}
	}
}

// JobRun records a single execution of a scheduled job.
type JobRun struct {
	ID           string     `json:"id"                      db:"id"`
	JobName      string     `json:"job_name"                db:"job_name"`
	StartedAt    time.Time  `json:"started_at"              db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"  db:"completed_at"`
	Status       string     `json:"status"                  db:"status"`
	ErrorText    string     `json:"error_text,omitempty"    db:"error_text"`
	RowsAffected *int       `json:"rows_affected,omitempty" db:"rows_affected"`
}

// Job run status constants.
const (
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)
