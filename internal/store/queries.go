package store

// PostgreSQL queries.
const (
	productColumns = `id, url, title, currency, image_url,
		current_price, original_price, discount_rate, is_out_of_stock,
		description, category, reviews_count, stars,
		price_history, lowest_price, highest_price, average_price,
		created_at, updated_at`

	queryListProducts = `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at, url`

	queryGetProduct = `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1`

	queryGetProductByURL = `
		SELECT ` + productColumns + `
		FROM products
		WHERE url = $1`

	queryUpsertProduct = `
		INSERT INTO products (
			url, title, currency, image_url,
			current_price, original_price, discount_rate, is_out_of_stock,
			description, category, reviews_count, stars,
			price_history, lowest_price, highest_price, average_price
		) VALUES (
			@url, @title, @currency, @image_url,
			@current_price, @original_price, @discount_rate, @is_out_of_stock,
			@description, @category, @reviews_count, @stars,
			@price_history, @lowest_price, @highest_price, @average_price
		)
		ON CONFLICT (url) DO UPDATE SET
			title           = EXCLUDED.title,
			currency        = EXCLUDED.currency,
			image_url       = EXCLUDED.image_url,
			current_price   = EXCLUDED.current_price,
			original_price  = EXCLUDED.original_price,
			discount_rate   = EXCLUDED.discount_rate,
			is_out_of_stock = EXCLUDED.is_out_of_stock,
			description     = EXCLUDED.description,
			category        = EXCLUDED.category,
			reviews_count   = EXCLUDED.reviews_count,
			stars           = EXCLUDED.stars,
			price_history   = EXCLUDED.price_history,
			lowest_price    = EXCLUDED.lowest_price,
			highest_price   = EXCLUDED.highest_price,
			average_price   = EXCLUDED.average_price,
			updated_at      = now()
		RETURNING id, created_at, updated_at`

	queryListSubscribers = `
		SELECT email FROM product_subscribers
		WHERE product_id = $1
		ORDER BY subscribed_at, email`

	queryListAllSubscribers = `
		SELECT product_id, email FROM product_subscribers
		ORDER BY subscribed_at, email`

	queryAddSubscriber = `
		INSERT INTO product_subscribers (product_id, email)
		VALUES ($1, $2)
		ON CONFLICT (product_id, email) DO NOTHING`

	queryInsertJobRun = `
		INSERT INTO job_runs (job_name)
		VALUES ($1)
		RETURNING id`

	queryCompleteJobRun = `
		UPDATE job_runs SET
			completed_at  = now(),
			status        = $2,
			error_text    = $3,
			rows_affected = $4
		WHERE id = $1`

	queryListJobRuns = `
		SELECT id, job_name, started_at, completed_at, status,
			COALESCE(error_text, ''), rows_affected
		FROM job_runs
		WHERE job_name = $1
			AND ($2::text = '' OR status = $2)
		ORDER BY started_at DESC
		LIMIT $3`

	queryListLatestJobRuns = `
		SELECT DISTINCT ON (job_name)
			id, job_name, started_at, completed_at, status,
			COALESCE(error_text, ''), rows_affected
		FROM job_runs
		ORDER BY job_name, started_at DESC`
)

// SQLite queries. Timestamps are stored as RFC 3339 text in UTC.
const (
	sqliteListProducts = `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at, url`

	sqliteGetProduct = `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ?`

	sqliteGetProductByURL = `
		SELECT ` + productColumns + `
		FROM products
		WHERE url = ?`

	sqliteUpsertProduct = `
		INSERT INTO products (
			id, url, title, currency, image_url,
			current_price, original_price, discount_rate, is_out_of_stock,
			description, category, reviews_count, stars,
			price_history, lowest_price, highest_price, average_price,
			created_at, updated_at
		) VALUES (
			:id, :url, :title, :currency, :image_url,
			:current_price, :original_price, :discount_rate, :is_out_of_stock,
			:description, :category, :reviews_count, :stars,
			:price_history, :lowest_price, :highest_price, :average_price,
			:now, :now
		)
		ON CONFLICT (url) DO UPDATE SET
			title           = excluded.title,
			currency        = excluded.currency,
			image_url       = excluded.image_url,
			current_price   = excluded.current_price,
			original_price  = excluded.original_price,
			discount_rate   = excluded.discount_rate,
			is_out_of_stock = excluded.is_out_of_stock,
			description     = excluded.description,
			category        = excluded.category,
			reviews_count   = excluded.reviews_count,
			stars           = excluded.stars,
			price_history   = excluded.price_history,
			lowest_price    = excluded.lowest_price,
			highest_price   = excluded.highest_price,
			average_price   = excluded.average_price,
			updated_at      = excluded.updated_at
		RETURNING id, created_at, updated_at`

	sqliteListSubscribers = `
		SELECT email FROM product_subscribers
		WHERE product_id = ?
		ORDER BY subscribed_at, email`

	sqliteListAllSubscribers = `
		SELECT product_id, email FROM product_subscribers
		ORDER BY subscribed_at, email`

	sqliteAddSubscriber = `
		INSERT INTO product_subscribers (product_id, email, subscribed_at)
		VALUES (?, ?, ?)
		ON CONFLICT (product_id, email) DO NOTHING`

	sqliteProductExists = `SELECT EXISTS(SELECT 1 FROM products WHERE id = ?)`

	sqliteInsertJobRun = `
		INSERT INTO job_runs (id, job_name, started_at, status)
		VALUES (?, ?, ?, 'running')`

	sqliteCompleteJobRun = `
		UPDATE job_runs SET
			completed_at  = ?,
			status        = ?,
			error_text    = ?,
			rows_affected = ?
		WHERE id = ?`

	sqliteListJobRuns = `
		SELECT id, job_name, started_at, completed_at, status,
			COALESCE(error_text, ''), rows_affected
		FROM job_runs
		WHERE job_name = ?1
			AND (?2 = '' OR status = ?2)
		ORDER BY started_at DESC
		LIMIT ?3`

	sqliteListLatestJobRuns = `
		SELECT id, job_name, started_at, completed_at, status,
			COALESCE(error_text, ''), rows_affected
		FROM job_runs AS j
		WHERE started_at = (
			SELECT MAX(started_at) FROM job_runs WHERE job_name = j.job_name
		)
		ORDER BY job_name`
)
