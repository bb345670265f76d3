package insider

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists insider filings.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a filing repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save upserts a single filing. A filing is identified by ticker, trade
// date, insider name, and quantity, which is as close to a natural key as
// the screener exposes.
func (r *Repository) Save(ctx context.Context, f *Filing) error {
	query := `
		INSERT INTO data.insider_filings
			(ticker, filing_date, trade_date, insider_name, title, price, qty, value, delta_own, new_stake)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (ticker, trade_date, insider_name, qty) DO UPDATE SET
			filing_date = EXCLUDED.filing_date,
			title = EXCLUDED.title,
			price = EXCLUDED.price,
			value = EXCLUDED.value,
			delta_own = EXCLUDED.delta_own,
			new_stake = EXCLUDED.new_stake
	`

	_, err := r.pool.Exec(ctx, query,
		f.Ticker, f.FilingDate, f.TradeDate, f.InsiderName, f.Title,
		f.Price, f.Quantity, f.Value, f.DeltaOwn, f.NewStake,
	)
	return err
}

// SaveBatch upserts multiple filings.
func (r *Repository) SaveBatch(ctx context.Context, filings []Filing) error {
	for i := range filings {
		if err := r.Save(ctx, &filings[i]); err != nil {
			return err
		}
	}
	return nil
}

// Tickers returns the distinct tickers with stored filings.
func (r *Repository) Tickers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT ticker FROM data.insider_filings ORDER BY ticker`)
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

// ListByTradeDateRange returns filings traded within [from, to], ascending
// by trade date.
func (r *Repository) ListByTradeDateRange(ctx context.Context, from, to time.Time) ([]Filing, error) {
	query := `
		SELECT ticker, filing_date, trade_date, insider_name, title, price, qty, value, delta_own, new_stake
		FROM data.insider_filings
		WHERE trade_date BETWEEN $1 AND $2
		ORDER BY trade_date ASC, ticker ASC
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var filings []Filing
	for rows.Next() {
		var f Filing
		if err := rows.Scan(
			&f.Ticker, &f.FilingDate, &f.TradeDate, &f.InsiderName, &f.Title,
			&f.Price, &f.Quantity, &f.Value, &f.DeltaOwn, &f.NewStake,
		); err != nil {
			return nil, err
		}
		filings = append(filings, f)
	}
	return filings, rows.Err()
}
