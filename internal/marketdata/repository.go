package marketdata

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists daily bars.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a price repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveBatch upserts daily bars. Re-fetching a range overwrites what the
// feed previously served for it.
func (r *Repository) SaveBatch(ctx context.Context, bars []Bar) error {
	query := `
		INSERT INTO data.daily_prices (ticker, day, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker, day) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`

	for i := range bars {
		b := &bars[i]
		if _, err := r.pool.Exec(ctx, query,
			b.Ticker, b.Day, b.Open, b.High, b.Low, b.Close, b.Volume,
		); err != nil {
			return err
		}
	}
	return nil
}

// ListByTicker returns bars for one ticker within [from, to], ascending by day.
func (r *Repository) ListByTicker(ctx context.Context, ticker string, from, to time.Time) ([]Bar, error) {
	query := `
		SELECT ticker, day, open, high, low, close, volume
		FROM data.daily_prices
		WHERE ticker = $1 AND day BETWEEN $2 AND $3
		ORDER BY day ASC
	`

	rows, err := r.pool.Query(ctx, query, ticker, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []Bar
	for rows.Next() {
		var b Bar
		if err := rows.Scan(&b.Ticker, &b.Day, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// Tickers returns the distinct tickers with stored bars.
func (r *Repository) Tickers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT ticker FROM data.daily_prices ORDER BY ticker`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}
