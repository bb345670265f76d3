package backtest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insiderlab/quant/internal/contracts"
)

func TestBroker_OpenCommitsCashWithCommission(t *testing.T) {
	b := NewBroker(10_000, 0.001)

	pos, err := b.Open("AAPL", day("2024-03-01"), 100, 10, 30)
	require.NoError(t, err)

	assert.Equal(t, contracts.PositionOpen, pos.Status)
	assert.Equal(t, day("2024-03-31"), pos.PlannedExitDay)
	// 1000 notional + 1 commission
	assert.InDelta(t, 10_000-1001, b.Cash(), 1e-9)
	assert.InDelta(t, 1, b.TotalCommission(), 1e-9)
}

func TestBroker_CloseReleasesCashAndComputesPnL(t *testing.T) {
	b := NewBroker(10_000, 0.001)
	pos, err := b.Open("AAPL", day("2024-03-01"), 100, 10, 30)
	require.NoError(t, err)

	trade, err := b.Close(pos, day("2024-03-31"), 110, false)
	require.NoError(t, err)

	assert.Equal(t, contracts.PositionClosed, pos.Status)
	assert.Equal(t, int64(10), trade.Quantity)
	// gross 100, minus 1.00 entry fee and 1.10 exit fee
	assert.InDelta(t, 100-1.0-1.1, trade.PnL, 1e-9)
	assert.InDelta(t, 2.1, trade.Commission, 1e-9)
	assert.False(t, trade.Forced)
}

func TestBroker_CashConservation(t *testing.T) {
	// cash_after = cash_before + sum(pnl): pnl is already net of commission,
	// so the running ledger must reconcile exactly.
	b := NewBroker(50_000, 0.002)

	entries := []struct {
		ticker     string
		entry, out float64
		qty        int64
	}{
		{"AAPL", 100, 120, 10},
		{"MSFT", 400, 380, 5},
		{"GOOG", 150, 150, 20},
	}

	totalPnL := 0.0
	for _, e := range entries {
		pos, err := b.Open(e.ticker, day("2024-03-01"), e.entry, e.qty, 30)
		require.NoError(t, err)
		trade, err := b.Close(pos, day("2024-03-31"), e.out, false)
		require.NoError(t, err)
		totalPnL += trade.PnL
	}

	assert.InDelta(t, 50_000+totalPnL, b.Cash(), 1e-9)
	assert.InDelta(t, totalPnL, b.RealizedPnL(), 1e-9)
}

func TestBroker_RejectsBadPrices(t *testing.T) {
	b := NewBroker(10_000, 0.001)

	for _, price := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		_, err := b.Open("AAPL", day("2024-03-01"), price, 10, 30)
		assert.Error(t, err, "price %v must be rejected", price)
	}
	assert.InDelta(t, 10_000, b.Cash(), 1e-9, "rejected orders must not move cash")

	pos, err := b.Open("AAPL", day("2024-03-01"), 100, 10, 30)
	require.NoError(t, err)
	_, err = b.Close(pos, day("2024-03-31"), math.NaN(), false)
	assert.Error(t, err)
	assert.Equal(t, contracts.PositionOpen, pos.Status, "failed close must leave the position open")
}

func TestBroker_RejectsNonPositiveQuantity(t *testing.T) {
	b := NewBroker(10_000, 0.001)
	_, err := b.Open("AAPL", day("2024-03-01"), 100, 0, 30)
	assert.Error(t, err)
}

func TestBroker_CloseRequiresOpenPosition(t *testing.T) {
	b := NewBroker(10_000, 0.001)
	pos, err := b.Open("AAPL", day("2024-03-01"), 100, 10, 30)
	require.NoError(t, err)

	_, err = b.Close(pos, day("2024-03-31"), 110, false)
	require.NoError(t, err)

	_, err = b.Close(pos, day("2024-04-01"), 115, false)
	assert.Error(t, err, "a trade record is emitted exactly once")
}

func TestQuantityFor(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		price float64
		want  int64
	}{
		{
			name:  "fixed shares",
			cfg:   Config{Sizing: SizingFixedShares, FixedShares: 7},
			price: 123.45,
			want:  7,
		},
		{
			name:  "equal notional floors to whole shares",
			cfg:   Config{Sizing: SizingEqualNotional, InitialCash: 90_000, TopN: 3},
			price: 7000,
			want:  4, // 30000 / 7000
		},
		{
			name:  "equal notional with price above slice",
			cfg:   Config{Sizing: SizingEqualNotional, InitialCash: 9000, TopN: 3},
			price: 5000,
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuantityFor(tt.cfg, tt.price))
		})
	}
}
