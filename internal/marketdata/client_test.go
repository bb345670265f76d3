package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insiderlab/quant/internal/contracts"
	"github.com/insiderlab/quant/pkg/httputil"
	"github.com/insiderlab/quant/pkg/logger"
)

func day(s string) time.Time {
	t, err := contracts.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

const dailyCSV = `Date,Open,High,Low,Close,Volume
2024-03-01,100.0,102.5,99.5,101.0,1200000
2024-03-04,101.0,101.0,98.0,99.0,900000
2024-03-05,99.0,100.0,0,0,0
`

func TestParseDailyCSV(t *testing.T) {
	bars, skipped, err := parseDailyCSV("aapl", []byte(dailyCSV))
	require.NoError(t, err)

	// The zero-close row is dropped.
	require.Len(t, bars, 2)
	assert.Equal(t, 1, skipped)

	assert.Equal(t, "AAPL", bars[0].Ticker)
	assert.Equal(t, day("2024-03-01"), bars[0].Day)
	assert.InDelta(t, 101.0, bars[0].Close, 1e-9)
	assert.Equal(t, int64(1_200_000), bars[0].Volume)

	assert.Equal(t, day("2024-03-04"), bars[1].Day)
	assert.InDelta(t, 99.0, bars[1].Close, 1e-9)
}

func TestParseDailyCSV_UnknownSymbol(t *testing.T) {
	_, _, err := parseDailyCSV("nope", []byte("No data"))
	assert.Error(t, err)
}

func TestDailyURL(t *testing.T) {
	c := NewClient(httputil.New(logger.Nop()), "https://stooq.com/", ".us", logger.Nop())

	got := c.dailyURL("AAPL", day("2024-01-02"), day("2024-03-01"))
	assert.Equal(t, "https://stooq.com/q/d/l/?d1=20240102&d2=20240301&i=d&s=aapl.us", got)
}

type stubFetcher struct {
	bars map[string][]Bar
}

func (f *stubFetcher) FetchDaily(_ context.Context, ticker string, _, _ time.Time) ([]Bar, error) {
	bars, ok := f.bars[ticker]
	if !ok {
		return nil, assert.AnError
	}
	return bars, nil
}
