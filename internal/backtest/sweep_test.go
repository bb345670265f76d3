package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insiderlab/quant/internal/contracts"
	"github.com/insiderlab/quant/pkg/logger"
)

func sweepFixture() (*contracts.ScoreMap, *contracts.PriceBook) {
	scores := contracts.NewScoreMap()
	book := contracts.NewPriceBook()

	start := day("2024-03-01")
	for _, ticker := range []string{"A", "B", "C"} {
		var points []contracts.PricePoint
		for i := 0; i < 20; i++ {
			d := start.AddDate(0, 0, i)
			if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
				continue
			}
			points = append(points, contracts.PricePoint{Day: d, Close: 100 + float64(i)})
			scores.Add(ticker, d, float64(len(points)))
		}
		book.Add(contracts.NewPriceSeries(ticker, points))
	}
	return scores, book
}

func TestSweep_RunsFullGridInOrder(t *testing.T) {
	scores, book := sweepFixture()

	base := DefaultConfig()
	base.StartDay = day("2024-03-01")
	base.EndDay = day("2024-03-20")
	base.Sizing = SizingFixedShares
	base.FixedShares = 1

	params := SweepParams{HoldDays: []int{1, 5}, TopN: []int{1, 2, 3}}

	results, err := Sweep(context.Background(), scores, book, base, params, 4, logger.Nop())
	require.NoError(t, err)
	require.Len(t, results, 6)

	// Grid order: hold days outer, top N inner.
	assert.Equal(t, 1, results[0].HoldDays)
	assert.Equal(t, 1, results[0].TopN)
	assert.Equal(t, 1, results[2].HoldDays)
	assert.Equal(t, 3, results[2].TopN)
	assert.Equal(t, 5, results[5].HoldDays)
	assert.Equal(t, 3, results[5].TopN)

	for _, r := range results {
		require.NotNil(t, r.Report)
	}
}

func TestSweep_SharedInputsProduceIndependentRuns(t *testing.T) {
	scores, book := sweepFixture()

	base := DefaultConfig()
	base.StartDay = day("2024-03-01")
	base.EndDay = day("2024-03-20")
	base.Sizing = SizingFixedShares
	base.FixedShares = 1

	params := SweepParams{HoldDays: []int{2}, TopN: []int{2}}

	first, err := Sweep(context.Background(), scores, book, base, params, 1, logger.Nop())
	require.NoError(t, err)
	second, err := Sweep(context.Background(), scores, book, base, params, 8, logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, first[0].Report.Trades, second[0].Report.Trades,
		"worker count must not change results")
	assert.Equal(t, first[0].Report.FinalValue, second[0].Report.FinalValue)
}

func TestSweep_PropagatesRunErrors(t *testing.T) {
	scores, book := sweepFixture()

	base := DefaultConfig()
	base.StartDay = day("2024-03-01")
	base.EndDay = day("2024-03-20")

	// Zero hold days is a configuration error inside the grid.
	params := SweepParams{HoldDays: []int{0}, TopN: []int{1}}

	_, err := Sweep(context.Background(), scores, book, base, params, 2, logger.Nop())
	assert.Error(t, err)
}
