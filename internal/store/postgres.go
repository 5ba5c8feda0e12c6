package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

const (
	defaultPoolSize = 10

	pgForeignKeyViolation = "23503"
	pgInvalidText         = "22P02"
)

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling. The
// pool size comes from pool_max_conns in connString, else defaultPoolSize.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	if cfg.MaxConns <= 0 {
		cfg.MaxConns = defaultPoolSize
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// ListProducts returns every tracked product with its subscribers, oldest first.
func (s *PostgresStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.pool.Query(ctx, queryListProducts)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}

	subs, err := s.allSubscribers(ctx)
	if err != nil {
		return nil, err
	}
	attachSubscribers(products, subs)

	return products, nil
}

// GetProduct retrieves a product by its ID.
func (s *PostgresStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.getProduct(ctx, queryGetProduct, id)
}

// GetProductByURL retrieves a product by its URL.
func (s *PostgresStore) GetProductByURL(ctx context.Context, url string) (*domain.Product, error) {
	return s.getProduct(ctx, queryGetProductByURL, url)
}

func (s *PostgresStore) getProduct(ctx context.Context, query, arg string) (*domain.Product, error) {
	p := &domain.Product{}
	if err := scanProduct(s.pool.QueryRow(ctx, query, arg), p); err != nil {
		if isPgNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting product: %w", err)
	}

	users, err := s.subscribers(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Users = users
	return p, nil
}

// UpsertProduct inserts or updates a product by URL.
func (s *PostgresStore) UpsertProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	history, err := marshalHistory(p.PriceHistory)
	if err != nil {
		return nil, err
	}

	args := pgx.NamedArgs{
		"url":             p.URL,
		"title":           p.Title,
		"currency":        p.Currency,
		"image_url":       p.ImageURL,
		"current_price":   p.CurrentPrice,
		"original_price":  p.OriginalPrice,
		"discount_rate":   p.DiscountRate,
		"is_out_of_stock": p.IsOutOfStock,
		"description":     p.Description,
		"category":        p.Category,
		"reviews_count":   p.ReviewsCount,
		"stars":           p.Stars,
		"price_history":   history,
		"lowest_price":    p.LowestPrice,
		"highest_price":   p.HighestPrice,
		"average_price":   p.AveragePrice,
	}

	out := *p
	if err := s.pool.QueryRow(ctx, queryUpsertProduct, args).Scan(
		&out.ID, &out.CreatedAt, &out.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("upserting product: %w", err)
	}

	users, err := s.subscribers(ctx, out.ID)
	if err != nil {
		return nil, err
	}
	out.Users = users
	return &out, nil
}

// AddSubscriber subscribes email to a product. Re-subscribing is a no-op.
func (s *PostgresStore) AddSubscriber(ctx context.Context, productID, email string) (bool, error) {
	tag, err := s.pool.Exec(ctx, queryAddSubscriber, productID, email)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return false, ErrNotFound
		}
		if isPgNotFound(err) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("adding subscriber: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) subscribers(ctx context.Context, productID string) ([]domain.User, error) {
	rows, err := s.pool.Query(ctx, queryListSubscribers, productID)
	if err != nil {
		return nil, fmt.Errorf("querying subscribers: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.Email); err != nil {
			return nil, fmt.Errorf("scanning subscriber: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *PostgresStore) allSubscribers(ctx context.Context) (map[string][]domain.User, error) {
	rows, err := s.pool.Query(ctx, queryListAllSubscribers)
	if err != nil {
		return nil, fmt.Errorf("querying subscribers: %w", err)
	}
	defer rows.Close()

	subs := make(map[string][]domain.User)
	for rows.Next() {
		var productID string
		var u domain.User
		if err := rows.Scan(&productID, &u.Email); err != nil {
			return nil, fmt.Errorf("scanning subscriber: %w", err)
		}
		subs[productID] = append(subs[productID], u)
	}
	return subs, rows.Err()
}

// InsertJobRun records the start of a scheduled job and returns its UUID.
func (s *PostgresStore) InsertJobRun(ctx context.Context, jobName string) (string, error) {
	var id string
	if err := s.pool.QueryRow(ctx, queryInsertJobRun, jobName).Scan(&id); err != nil {
		return "", fmt.Errorf("inserting job run: %w", err)
	}
	return id, nil
}

// CompleteJobRun marks a job run as finished with the given status and metadata.
func (s *PostgresStore) CompleteJobRun(
	ctx context.Context,
	id string,
	status string,
	errText string,
	rowsAffected int,
) error {
	_, err := s.pool.Exec(ctx, queryCompleteJobRun, id, status, errText, rowsAffected)
	if err != nil {
		return fmt.Errorf("completing job run: %w", err)
	}
	return nil
}

// ListJobRuns returns the most recent runs for a specific job, newest first.
// A non-empty status restricts the result to runs in that state before the
// limit is applied.
func (s *PostgresStore) ListJobRuns(
	ctx context.Context,
	jobName string,
	status string,
	limit int,
) ([]domain.JobRun, error) {
	rows, err := s.pool.Query(ctx, queryListJobRuns, jobName, status, limit)
	if err != nil {
		return nil, fmt.Errorf("querying job runs: %w", err)
	}
	defer rows.Close()

	return scanJobRuns(rows)
}

// ListLatestJobRuns returns the single most recent run for each distinct job name.
func (s *PostgresStore) ListLatestJobRuns(ctx context.Context) ([]domain.JobRun, error) {
	rows, err := s.pool.Query(ctx, queryListLatestJobRuns)
	if err != nil {
		return nil, fmt.Errorf("querying latest job runs: %w", err)
	}
	defer rows.Close()

	return scanJobRuns(rows)
}

// isPgNotFound covers both a missing row and a malformed UUID key.
func isPgNotFound(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgInvalidText
}

// scanJobRuns scans rows from a job_runs query into a slice.
func scanJobRuns(rows pgx.Rows) ([]domain.JobRun, error) {
	runs := []domain.JobRun{}
	for rows.Next() {
		var r domain.JobRun
		if err := rows.Scan(
			&r.ID, &r.JobName, &r.StartedAt, &r.CompletedAt,
			&r.Status, &r.ErrorText, &r.RowsAffected,
		); err != nil {
			return nil, fmt.Errorf("scanning job run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
