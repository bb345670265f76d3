package backtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insiderlab/quant/internal/contracts"
	"github.com/insiderlab/quant/pkg/logger"
)

func TestEngine_FailsFastOnConfigErrors(t *testing.T) {
	scores := contracts.NewScoreMap()
	scores.Add("AAPL", day("2024-03-01"), 1)
	book := singleDayBook(day("2024-03-01"), map[string]float64{"AAPL": 100})
	engine := NewEngine(scores, book, logger.Nop())

	base := fixedConfig()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero top n", func(c *Config) { c.TopN = 0 }},
		{"negative hold days", func(c *Config) { c.HoldDays = -1 }},
		{"zero cash", func(c *Config) { c.InitialCash = 0 }},
		{"commission of 1", func(c *Config) { c.CommissionRate = 1 }},
		{"inverted range", func(c *Config) { c.StartDay, c.EndDay = c.EndDay.AddDate(0, 0, 1), c.StartDay }},
		{"unknown sizing", func(c *Config) { c.Sizing = "martingale" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			_, err := engine.Run(context.Background(), cfg)
			assert.Error(t, err)
		})
	}
}

func TestEngine_FailsFastOnEmptyScoreMap(t *testing.T) {
	book := singleDayBook(day("2024-03-01"), map[string]float64{"AAPL": 100})
	engine := NewEngine(contracts.NewScoreMap(), book, logger.Nop())

	_, err := engine.Run(context.Background(), fixedConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "score map is empty")
}

// The reference scenario: A beats B on day 1, the position closes after the
// one-day hold on day 2 and A immediately re-enters because it is flat again.
func TestEngine_HoldAndReentryScenario(t *testing.T) {
	d1, d2 := day("2024-03-04"), day("2024-03-05")

	scores := contracts.NewScoreMap()
	scores.Add("A", d1, 0.9)
	scores.Add("A", d2, 0.8)
	scores.Add("B", d1, 0.5)

	book := contracts.NewPriceBook()
	book.Add(contracts.NewPriceSeries("A", []contracts.PricePoint{
		{Day: d1, Close: 10}, {Day: d2, Close: 11},
	}))
	book.Add(contracts.NewPriceSeries("B", []contracts.PricePoint{
		{Day: d1, Close: 20}, {Day: d2, Close: 21},
	}))

	cfg := fixedConfig()
	cfg.StartDay, cfg.EndDay = d1, d2
	cfg.HoldDays = 1
	cfg.TopN = 1
	cfg.ForceCloseAtEnd = false

	report, err := NewEngine(scores, book, logger.Nop()).Run(context.Background(), cfg)
	require.NoError(t, err)

	// One scheduled close (A on day 2); the re-entered position stays open.
	require.Len(t, report.Trades, 1)
	trade := report.Trades[0]
	assert.Equal(t, "A", trade.Ticker)
	assert.Equal(t, d1, trade.EntryDay)
	assert.Equal(t, d2, trade.ExitDay)
	assert.False(t, trade.Forced)
	assert.Equal(t, 2, report.TradingDays)
}

func TestEngine_ScoredButUnpricedInstrumentNeverTrades(t *testing.T) {
	d1 := day("2024-03-04")

	scores := contracts.NewScoreMap()
	scores.Add("GHOST", d1, 99.0) // highest score, but no price series

	book := contracts.NewPriceBook()
	book.Add(contracts.NewPriceSeries("REAL", []contracts.PricePoint{{Day: d1, Close: 10}}))
	scores.Add("REAL", d1, 0.1)

	cfg := fixedConfig()
	cfg.StartDay, cfg.EndDay = d1, d1
	cfg.TopN = 1
	cfg.ForceCloseAtEnd = true

	report, err := NewEngine(scores, book, logger.Nop()).Run(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, report.Trades, 1)
	assert.Equal(t, "REAL", report.Trades[0].Ticker)
}

func TestEngine_ForceClosesAtEndOfRange(t *testing.T) {
	d1, d2 := day("2024-03-04"), day("2024-03-05")

	scores := contracts.NewScoreMap()
	scores.Add("A", d1, 1.0)

	book := contracts.NewPriceBook()
	book.Add(contracts.NewPriceSeries("A", []contracts.PricePoint{
		{Day: d1, Close: 10}, {Day: d2, Close: 12},
	}))

	cfg := fixedConfig()
	cfg.StartDay, cfg.EndDay = d1, d2
	cfg.HoldDays = 30
	cfg.FixedShares = 5

	report, err := NewEngine(scores, book, logger.Nop()).Run(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, report.Trades, 1)
	assert.True(t, report.Trades[0].Forced)
	assert.Equal(t, 12.0, report.Trades[0].ExitPrice)
	assert.Equal(t, 1, report.ForcedCloses)

	// With everything closed, final value equals cash and reconciles with pnl.
	assert.InDelta(t, cfg.InitialCash+report.Trades[0].PnL, report.FinalValue, 1e-9)
}

func TestEngine_LeavesPositionsOpenWhenConfigured(t *testing.T) {
	d1, d2 := day("2024-03-04"), day("2024-03-05")

	scores := contracts.NewScoreMap()
	scores.Add("A", d1, 1.0)

	book := contracts.NewPriceBook()
	book.Add(contracts.NewPriceSeries("A", []contracts.PricePoint{
		{Day: d1, Close: 10}, {Day: d2, Close: 12},
	}))

	cfg := fixedConfig()
	cfg.StartDay, cfg.EndDay = d1, d2
	cfg.HoldDays = 30
	cfg.FixedShares = 5
	cfg.ForceCloseAtEnd = false

	report, err := NewEngine(scores, book, logger.Nop()).Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Empty(t, report.Trades)
	assert.Equal(t, 0, report.ForcedCloses)
	// Final value still marks the dangling position to market.
	expected := cfg.InitialCash - 50 - 50*cfg.CommissionRate + 5*12
	assert.InDelta(t, expected, report.FinalValue, 1e-9)
}

func TestEngine_TopNBoundPerDay(t *testing.T) {
	d1 := day("2024-03-04")

	scores := contracts.NewScoreMap()
	book := contracts.NewPriceBook()
	for _, ticker := range []string{"A", "B", "C", "D", "E"} {
		scores.Add(ticker, d1, 1.0)
		book.Add(contracts.NewPriceSeries(ticker, []contracts.PricePoint{{Day: d1, Close: 10}}))
	}

	cfg := fixedConfig()
	cfg.StartDay, cfg.EndDay = d1, d1
	cfg.TopN = 2

	report, err := NewEngine(scores, book, logger.Nop()).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(report.Trades), 2, "entries per day bounded by top N")
	assert.Len(t, report.Trades, 2)
}

func TestEngine_DeterministicAcrossRuns(t *testing.T) {
	d1, d2, d3 := day("2024-03-04"), day("2024-03-05"), day("2024-03-06")

	scores := contracts.NewScoreMap()
	book := contracts.NewPriceBook()
	closes := map[string][]float64{"A": {10, 11, 12}, "B": {20, 19, 21}, "C": {5, 6, 4}}
	for ticker, series := range closes {
		scores.Add(ticker, d1, float64(len(ticker)))
		scores.Add(ticker, d2, 1.5)
		book.Add(contracts.NewPriceSeries(ticker, []contracts.PricePoint{
			{Day: d1, Close: series[0]}, {Day: d2, Close: series[1]}, {Day: d3, Close: series[2]},
		}))
	}

	cfg := fixedConfig()
	cfg.StartDay, cfg.EndDay = d1, d3
	cfg.TopN = 2

	first, err := NewEngine(scores, book, logger.Nop()).Run(context.Background(), cfg)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := NewEngine(scores, book, logger.Nop()).Run(context.Background(), cfg)
		require.NoError(t, err)
		assert.Equal(t, first.Trades, again.Trades)
		assert.Equal(t, first.EquityCurve, again.EquityCurve)
		assert.Equal(t, first.FinalValue, again.FinalValue)
	}
}

func TestEngine_CanceledContext(t *testing.T) {
	scores := contracts.NewScoreMap()
	scores.Add("A", day("2024-03-04"), 1)
	book := singleDayBook(day("2024-03-04"), map[string]float64{"A": 10})

	cfg := fixedConfig()
	cfg.StartDay, cfg.EndDay = day("2024-03-04"), day("2024-03-04")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(scores, book, logger.Nop()).Run(ctx, cfg)
	assert.Error(t, err)
}
