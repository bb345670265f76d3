package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insiderlab/quant/internal/contracts"
)

func fixedConfig() Config {
	cfg := DefaultConfig()
	cfg.StartDay = day("2024-03-01")
	cfg.EndDay = day("2024-03-29")
	cfg.HoldDays = 1
	cfg.TopN = 2
	cfg.Sizing = SizingFixedShares
	cfg.FixedShares = 1
	return cfg
}

// bookFor builds a book with a continuous weekday series per ticker.
func bookFor(closes map[string]float64, from, to time.Time) *contracts.PriceBook {
	book := contracts.NewPriceBook()
	for ticker, close := range closes {
		var points []contracts.PricePoint
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
				continue
			}
			points = append(points, contracts.PricePoint{Day: d, Close: close})
		}
		book.Add(contracts.NewPriceSeries(ticker, points))
	}
	return book
}

func TestLedger_SinglePositionInvariant(t *testing.T) {
	cfg := fixedConfig()
	book := bookFor(map[string]float64{"AAPL": 100}, day("2024-03-01"), day("2024-03-08"))
	broker := NewBroker(cfg.InitialCash, cfg.CommissionRate)
	ledger := NewLedger()

	d := day("2024-03-01")
	candidates := []Candidate{{Ticker: "AAPL", Score: 0.9}}

	opened, _ := ledger.EntryPass(d, candidates, book, broker, cfg)
	require.Len(t, opened, 1)

	// Same candidate again on the same ledger: no second open position.
	opened, warnings := ledger.EntryPass(d, candidates, book, broker, cfg)
	assert.Empty(t, opened)
	assert.Empty(t, warnings, "holding an open position is a normal skip, not a warning")
	assert.Equal(t, 1, ledger.OpenCount())
}

func TestLedger_ExitScheduling(t *testing.T) {
	cfg := fixedConfig()
	cfg.HoldDays = 4
	book := bookFor(map[string]float64{"AAPL": 100}, day("2024-03-01"), day("2024-03-15"))
	broker := NewBroker(cfg.InitialCash, cfg.CommissionRate)
	ledger := NewLedger()

	// Friday entry, planned exit Tuesday (4 calendar days).
	opened, _ := ledger.EntryPass(day("2024-03-01"), []Candidate{{Ticker: "AAPL", Score: 1}}, book, broker, cfg)
	require.Len(t, opened, 1)
	assert.Equal(t, day("2024-03-05"), opened[0].PlannedExitDay)

	closed, _ := ledger.ExitPass(day("2024-03-04"), book, broker)
	assert.Empty(t, closed, "exit must not fire before the holding period elapses")

	closed, _ = ledger.ExitPass(day("2024-03-05"), book, broker)
	require.Len(t, closed, 1)
	assert.Equal(t, day("2024-03-05"), closed[0].ExitDay)
	assert.GreaterOrEqual(t, closed[0].HoldingDays(), cfg.HoldDays)
}

func TestLedger_ExitDeferredAcrossGap(t *testing.T) {
	cfg := fixedConfig()
	cfg.HoldDays = 2
	// AAPL trades on Mar 1 then not again until Mar 6.
	book := contracts.NewPriceBook()
	book.Add(contracts.NewPriceSeries("AAPL", []contracts.PricePoint{
		{Day: day("2024-03-01"), Close: 100},
		{Day: day("2024-03-06"), Close: 90},
	}))

	broker := NewBroker(cfg.InitialCash, cfg.CommissionRate)
	ledger := NewLedger()

	opened, _ := ledger.EntryPass(day("2024-03-01"), []Candidate{{Ticker: "AAPL", Score: 1}}, book, broker, cfg)
	require.Len(t, opened, 1)

	// Planned exit Mar 3, no price until Mar 6: each attempt defers loudly.
	closed, warnings := ledger.ExitPass(day("2024-03-04"), book, broker)
	assert.Empty(t, closed)
	assert.Len(t, warnings, 1)

	closed, warnings = ledger.ExitPass(day("2024-03-05"), book, broker)
	assert.Empty(t, closed)
	assert.Len(t, warnings, 1)

	closed, _ = ledger.ExitPass(day("2024-03-06"), book, broker)
	require.Len(t, closed, 1)
	assert.Equal(t, day("2024-03-06"), closed[0].ExitDay)
	assert.Equal(t, 2, closed[0].Deferrals)
	assert.Equal(t, 90.0, closed[0].ExitPrice)
}

func TestLedger_ReentryAfterClose(t *testing.T) {
	cfg := fixedConfig()
	book := bookFor(map[string]float64{"AAPL": 100}, day("2024-03-01"), day("2024-03-08"))
	broker := NewBroker(cfg.InitialCash, cfg.CommissionRate)
	ledger := NewLedger()

	candidates := []Candidate{{Ticker: "AAPL", Score: 1}}

	opened, _ := ledger.EntryPass(day("2024-03-04"), candidates, book, broker, cfg)
	require.Len(t, opened, 1)

	closed, _ := ledger.ExitPass(day("2024-03-05"), book, broker)
	require.Len(t, closed, 1)

	opened, _ = ledger.EntryPass(day("2024-03-05"), candidates, book, broker, cfg)
	require.Len(t, opened, 1, "a closed instrument is free for re-entry the same day")
	assert.Equal(t, 1, ledger.OpenCount())
	assert.Len(t, ledger.Trades(), 1)
}

func TestLedger_ForceCloseAtLastKnownPrice(t *testing.T) {
	cfg := fixedConfig()
	cfg.HoldDays = 30
	book := contracts.NewPriceBook()
	book.Add(contracts.NewPriceSeries("AAPL", []contracts.PricePoint{
		{Day: day("2024-03-01"), Close: 100},
		{Day: day("2024-03-04"), Close: 95},
	}))

	broker := NewBroker(cfg.InitialCash, cfg.CommissionRate)
	ledger := NewLedger()

	opened, _ := ledger.EntryPass(day("2024-03-01"), []Candidate{{Ticker: "AAPL", Score: 1}}, book, broker, cfg)
	require.Len(t, opened, 1)

	// Run ends Mar 8; last known price is Mar 4.
	closed, warnings := ledger.ForceCloseAll(day("2024-03-08"), book, broker)
	require.Len(t, closed, 1)
	assert.Empty(t, warnings)
	assert.True(t, closed[0].Forced)
	assert.Equal(t, 95.0, closed[0].ExitPrice)
	assert.Equal(t, 0, ledger.OpenCount())
}

func TestLedger_EntrySkipsUnaffordableSizing(t *testing.T) {
	cfg := fixedConfig()
	cfg.Sizing = SizingEqualNotional
	cfg.InitialCash = 300
	cfg.TopN = 3 // 100 per slot, price 500 -> zero shares

	book := bookFor(map[string]float64{"BRK": 500}, day("2024-03-01"), day("2024-03-08"))
	broker := NewBroker(cfg.InitialCash, cfg.CommissionRate)
	ledger := NewLedger()

	opened, warnings := ledger.EntryPass(day("2024-03-01"), []Candidate{{Ticker: "BRK", Score: 1}}, book, broker, cfg)
	assert.Empty(t, opened)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "sizing yields no shares")
}

func TestLedger_MarketValueUsesLastKnownPrice(t *testing.T) {
	cfg := fixedConfig()
	cfg.FixedShares = 10
	book := contracts.NewPriceBook()
	book.Add(contracts.NewPriceSeries("AAPL", []contracts.PricePoint{
		{Day: day("2024-03-01"), Close: 100},
		{Day: day("2024-03-04"), Close: 110},
	}))

	broker := NewBroker(cfg.InitialCash, cfg.CommissionRate)
	ledger := NewLedger()
	_, _ = ledger.EntryPass(day("2024-03-01"), []Candidate{{Ticker: "AAPL", Score: 1}}, book, broker, cfg)

	assert.InDelta(t, 1000, ledger.MarketValue(day("2024-03-01"), book), 1e-9)
	assert.InDelta(t, 1000, ledger.MarketValue(day("2024-03-03"), book), 1e-9, "gap days mark at last known price")
	assert.InDelta(t, 1100, ledger.MarketValue(day("2024-03-04"), book), 1e-9)
}
