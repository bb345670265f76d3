package marketdata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insiderlab/quant/pkg/config"
	"github.com/insiderlab/quant/pkg/logger"
	"github.com/insiderlab/quant/pkg/redis"
)

func nopCache(t *testing.T) *redis.Cache {
	t.Helper()
	client, err := redis.New(&config.Config{})
	require.NoError(t, err)
	return redis.NewCache(client, "test")
}

func TestLoader_LoadBuildsPriceBook(t *testing.T) {
	fetcher := &stubFetcher{bars: map[string][]Bar{
		"AAPL": {
			{Ticker: "AAPL", Day: day("2024-03-01"), Close: 101},
			{Ticker: "AAPL", Day: day("2024-03-04"), Close: 99},
		},
		"MSFT": {
			{Ticker: "MSFT", Day: day("2024-03-01"), Close: 400},
		},
	}}

	loader := NewLoader(fetcher, nopCache(t), logger.Nop())
	book, err := loader.Load(context.Background(), []string{"AAPL", "MSFT"}, day("2024-03-01"), day("2024-03-29"))
	require.NoError(t, err)

	assert.Equal(t, 2, book.Len())

	price, ok := book.Price("AAPL", day("2024-03-04"))
	require.True(t, ok)
	assert.InDelta(t, 99, price, 1e-9)
}

func TestLoader_LoadSkipsUnpricedTickers(t *testing.T) {
	fetcher := &stubFetcher{bars: map[string][]Bar{
		"AAPL": {{Ticker: "AAPL", Day: day("2024-03-01"), Close: 101}},
	}}

	loader := NewLoader(fetcher, nopCache(t), logger.Nop())
	book, err := loader.Load(context.Background(), []string{"AAPL", "GHOST"}, day("2024-03-01"), day("2024-03-29"))
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL"}, book.Tickers())
}

func TestLoader_LoadFailsWhenNothingPriced(t *testing.T) {
	loader := NewLoader(&stubFetcher{}, nopCache(t), logger.Nop())

	_, err := loader.Load(context.Background(), []string{"GHOST"}, day("2024-03-01"), day("2024-03-29"))
	assert.Error(t, err)
}
