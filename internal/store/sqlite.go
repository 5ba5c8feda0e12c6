package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

// sqliteTimeLayout is fixed-width so text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// SQLiteStore implements Store on a single SQLite file using the pure-Go
// modernc driver. It serializes access through one connection.
type SQLiteStore struct {
	db      *sql.DB
	nowFunc func() time.Time
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithSQLiteNowFunc overrides the clock used for stored timestamps.
func WithSQLiteNowFunc(f func() time.Time) SQLiteOption {
	return func(s *SQLiteStore) {
		s.nowFunc = f
	}
}

// NewSQLiteStore opens (creating if needed) the database at path. Use
// ":memory:" for a throwaway database.
func NewSQLiteStore(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?"+sqlitePragmas)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// One connection keeps writers from racing for the file lock and keeps
	// an in-memory database alive for the life of the store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &SQLiteStore{db: db, nowFunc: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return runSQLiteMigrations(ctx, s.db)
}

func (s *SQLiteStore) now() string {
	return formatSQLiteTime(s.nowFunc())
}

// ListProducts returns every tracked product with its subscribers, oldest first.
func (s *SQLiteStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, sqliteListProducts)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := scanSQLiteProduct(rows, &p); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterating products: %w", err)
	}
	_ = rows.Close()

	subs, err := s.allSubscribers(ctx)
	if err != nil {
		return nil, err
	}
	attachSubscribers(products, subs)

	return products, nil
}

// GetProduct retrieves a product by its ID.
func (s *SQLiteStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.getProduct(ctx, sqliteGetProduct, id)
}

// GetProductByURL retrieves a product by its URL.
func (s *SQLiteStore) GetProductByURL(ctx context.Context, url string) (*domain.Product, error) {
	return s.getProduct(ctx, sqliteGetProductByURL, url)
}

func (s *SQLiteStore) getProduct(ctx context.Context, query, arg string) (*domain.Product, error) {
	p := &domain.Product{}
	if err := scanSQLiteProduct(s.db.QueryRowContext(ctx, query, arg), p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
func (s *SQLiteStore) UpsertProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	history, err := marshalHistory(p.PriceHistory)
	if err != nil {
		return nil, err
	}

	out := *p
	var createdAt, updatedAt sqliteTime
	err = s.db.QueryRowContext(ctx, sqliteUpsertProduct,
		sql.Named("id", uuid.NewString()),
		sql.Named("url", p.URL),
		sql.Named("title", p.Title),
		sql.Named("currency", p.Currency),
		sql.Named("image_url", p.ImageURL),
		sql.Named("current_price", p.CurrentPrice),
		sql.Named("original_price", p.OriginalPrice),
		sql.Named("discount_rate", p.DiscountRate),
		sql.Named("is_out_of_stock", p.IsOutOfStock),
		sql.Named("description", p.Description),
		sql.Named("category", p.Category),
		sql.Named("reviews_count", p.ReviewsCount),
		sql.Named("stars", p.Stars),
		sql.Named("price_history", string(history)),
		sql.Named("lowest_price", p.LowestPrice),
		sql.Named("highest_price", p.HighestPrice),
		sql.Named("average_price", p.AveragePrice),
		sql.Named("now", s.now()),
	).Scan(&out.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("upserting product: %w", err)
	}
	out.CreatedAt, out.UpdatedAt = createdAt.Time, updatedAt.Time

	users, err := s.subscribers(ctx, out.ID)
	if err != nil {
		return nil, err
	}
	out.Users = users
	return &out, nil
}

// AddSubscriber subscribes email to a product. Re-subscribing is a no-op.
func (s *SQLiteStore) AddSubscriber(ctx context.Context, productID, email string) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, sqliteProductExists, productID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking product: %w", err)
	}
	if !exists {
		return false, ErrNotFound
	}

	res, err := s.db.ExecContext(ctx, sqliteAddSubscriber, productID, email, s.now())
	if err != nil {
		return false, fmt.Errorf("adding subscriber: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("adding subscriber: %w", err)
	}
	return n == 1, nil
}

func (s *SQLiteStore) subscribers(ctx context.Context, productID string) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, sqliteListSubscribers, productID)
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

func (s *SQLiteStore) allSubscribers(ctx context.Context) (map[string][]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, sqliteListAllSubscribers)
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
func (s *SQLiteStore) InsertJobRun(ctx context.Context, jobName string) (string, error) {
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx, sqliteInsertJobRun, id, jobName, s.now()); err != nil {
		return "", fmt.Errorf("inserting job run: %w", err)
	}
	return id, nil
}

// CompleteJobRun marks a job run as finished with the given status and metadata.
func (s *SQLiteStore) CompleteJobRun(
	ctx context.Context,
	id string,
	status string,
	errText string,
	rowsAffected int,
) error {
	_, err := s.db.ExecContext(ctx, sqliteCompleteJobRun, s.now(), status, errText, rowsAffected, id)
	if err != nil {
		return fmt.Errorf("completing job run: %w", err)
	}
	return nil
}

// ListJobRuns returns the most recent runs for a specific job, newest first.
// A non-empty status restricts the result to runs in that state before the
// limit is applied.
func (s *SQLiteStore) ListJobRuns(
	ctx context.Context,
	jobName string,
	status string,
	limit int,
) ([]domain.JobRun, error) {
	rows, err := s.db.QueryContext(ctx, sqliteListJobRuns, jobName, status, limit)
	if err != nil {
		return nil, fmt.Errorf("querying job runs: %w", err)
	}
	defer rows.Close()

	return scanSQLiteJobRuns(rows)
}

// ListLatestJobRuns returns the single most recent run for each distinct job name.
func (s *SQLiteStore) ListLatestJobRuns(ctx context.Context) ([]domain.JobRun, error) {
	rows, err := s.db.QueryContext(ctx, sqliteListLatestJobRuns)
	if err != nil {
		return nil, fmt.Errorf("querying latest job runs: %w", err)
	}
	defer rows.Close()

	return scanSQLiteJobRuns(rows)
}

func scanSQLiteProduct(row rowScanner, p *domain.Product) error {
	var createdAt, updatedAt sqliteTime
	if err := scanProductInto(row, p, &createdAt, &updatedAt); err != nil {
		return err
	}
	p.CreatedAt, p.UpdatedAt = createdAt.Time, updatedAt.Time
	return nil
}

func scanSQLiteJobRuns(rows *sql.Rows) ([]domain.JobRun, error) {
	runs := []domain.JobRun{}
	for rows.Next() {
		var r domain.JobRun
		var startedAt sqliteTime
		var completedAt sqliteNullTime
		if err := rows.Scan(
			&r.ID, &r.JobName, &startedAt, &completedAt,
			&r.Status, &r.ErrorText, &r.RowsAffected,
		); err != nil {
			return nil, fmt.Errorf("scanning job run: %w", err)
		}
		r.StartedAt = startedAt.Time
		r.CompletedAt = completedAt.ptr()
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

// sqliteTime scans a timestamp stored as text.
type sqliteTime struct {
	Time time.Time
}

// Scan implements sql.Scanner.
func (t *sqliteTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (t *sqliteTime) parse(s string) error {
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	t.Time = parsed.UTC()
	return nil
}

// sqliteNullTime is sqliteTime for nullable columns.
type sqliteNullTime struct {
	sqliteTime
	Valid bool
}

// Scan implements sql.Scanner.
func (t *sqliteNullTime) Scan(src any) error {
	if src == nil {
		t.Valid = false
		return nil
	}
	t.Valid = true
	return t.sqliteTime.Scan(src)
}

func (t *sqliteNullTime) ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
