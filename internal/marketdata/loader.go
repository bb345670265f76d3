package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/insiderlab/quant/internal/contracts"
	"github.com/insiderlab/quant/pkg/logger"
	"github.com/insiderlab/quant/pkg/redis"
)

// BarFetcher fetches daily bars for one ticker.
type BarFetcher interface {
	FetchDaily(ctx context.Context, ticker string, from, to time.Time) ([]Bar, error)
}

// Loader assembles a PriceBook for a set of tickers, caching per-ticker
// series in Redis so repeated backtests over the same window skip the feed.
type Loader struct {
	fetcher BarFetcher
	cache   *redis.Cache
	ttl     time.Duration
	logger  *logger.Logger
}

// NewLoader creates a price loader. cache may be backed by a disabled
// client, in which case every load goes to the fetcher.
func NewLoader(fetcher BarFetcher, cache *redis.Cache, log *logger.Logger) *Loader {
	return &Loader{
		fetcher: fetcher,
		cache:   cache,
		ttl:     12 * time.Hour,
		logger:  log.Component("price-loader"),
	}
}

// Load builds a PriceBook covering [from, to] for the given tickers.
// Tickers the feed has no data for are skipped with a warning rather than
// failing the whole load; the engine treats them as unpriced.
func (l *Loader) Load(ctx context.Context, tickers []string, from, to time.Time) (*contracts.PriceBook, error) {
	book := contracts.NewPriceBook()
	missing := 0

	for _, ticker := range tickers {
		bars, err := l.loadTicker(ctx, ticker, from, to)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			l.logger.WithField("ticker", ticker).WithError(err).Warn("Skipping unpriced ticker")
			missing++
			continue
		}

		points := make([]contracts.PricePoint, 0, len(bars))
		for _, b := range bars {
			points = append(points, contracts.PricePoint{Day: b.Day, Close: b.Close})
		}
		book.Add(contracts.NewPriceSeries(ticker, points))
	}

	if book.Len() == 0 {
		return nil, fmt.Errorf("no price data for any of %d tickers", len(tickers))
	}

	l.logger.WithFields(map[string]interface{}{
		"tickers": len(tickers),
		"priced":  book.Len(),
		"missing": missing,
	}).Info("Loaded price book")

	return book, nil
}

func (l *Loader) loadTicker(ctx context.Context, ticker string, from, to time.Time) ([]Bar, error) {
	key := fmt.Sprintf("prices:%s:%s:%s",
		ticker, contracts.FormatDay(from), contracts.FormatDay(to))

	var bars []Bar
	hit, err := l.cache.Get(ctx, key, &bars)
	if err != nil {
		l.logger.WithError(err).Warn("Price cache read failed")
	}
	if hit {
		return bars, nil
	}

	bars, err = l.fetcher.FetchDaily(ctx, ticker, from, to)
	if err != nil {
		return nil, err
	}

	if err := l.cache.Set(ctx, key, bars, l.ttl); err != nil {
		l.logger.WithError(err).Warn("Price cache write failed")
	}
	return bars, nil
}
