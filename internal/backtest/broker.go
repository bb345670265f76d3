package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/insiderlab/quant/internal/contracts"
)

// Broker owns the cash account. It is the only component that mutates cash,
// and it does so once per executed order. There is no margin check: cash is
// allowed to go negative, matching the flat-commission accounting model.
type Broker struct {
	cash            float64
	commissionRate  float64
	realizedPnL     float64
	totalCommission float64
}

// NewBroker creates a broker with starting cash and a proportional
// commission rate applied on both legs.
func NewBroker(initialCash, commissionRate float64) *Broker {
	return &Broker{
		cash:           initialCash,
		commissionRate: commissionRate,
	}
}

// Cash returns the current cash balance.
func (b *Broker) Cash() float64 {
	return b.cash
}

// RealizedPnL returns cumulative net profit from closed trades.
func (b *Broker) RealizedPnL() float64 {
	return b.realizedPnL
}

// TotalCommission returns cumulative commission paid on all legs.
func (b *Broker) TotalCommission() float64 {
	return b.totalCommission
}

// Open commits cash for a new position and returns it. A non-positive or
// non-finite price is rejected with an error so the caller can skip the
// candidate instead of crashing the run.
func (b *Broker) Open(ticker string, day time.Time, price float64, qty int64, holdDays int) (*contracts.Position, error) {
	if err := checkPrice(ticker, price); err != nil {
		return nil, err
	}
	if qty <= 0 {
		return nil, fmt.Errorf("quantity for %s must be positive, got %d", ticker, qty)
	}

	notional := price * float64(qty)
	fee := notional * b.commissionRate
	b.cash -= notional + fee
	b.totalCommission += fee

	day = contracts.Day(day)
	return &contracts.Position{
		Ticker:         ticker,
		EntryDay:       day,
		PlannedExitDay: day.AddDate(0, 0, holdDays),
		EntryPrice:     price,
		Quantity:       qty,
		Status:         contracts.PositionOpen,
	}, nil
}

// Close releases cash for a position and returns the immutable trade record.
// PnL is net of commission on both legs.
func (b *Broker) Close(pos *contracts.Position, day time.Time, price float64, forced bool) (contracts.TradeRecord, error) {
	if pos.Status != contracts.PositionOpen {
		return contracts.TradeRecord{}, fmt.Errorf("position %s is not open", pos.Ticker)
	}
	if err := checkPrice(pos.Ticker, price); err != nil {
		return contracts.TradeRecord{}, err
	}

	proceeds := price * float64(pos.Quantity)
	exitFee := proceeds * b.commissionRate
	entryFee := pos.EntryPrice * float64(pos.Quantity) * b.commissionRate
	pnl := (price-pos.EntryPrice)*float64(pos.Quantity) - entryFee - exitFee

	b.cash += proceeds - exitFee
	b.totalCommission += exitFee
	b.realizedPnL += pnl

	pos.Status = contracts.PositionClosed

	return contracts.TradeRecord{
		Ticker:     pos.Ticker,
		EntryDay:   pos.EntryDay,
		ExitDay:    contracts.Day(day),
		EntryPrice: pos.EntryPrice,
		ExitPrice:  price,
		Quantity:   pos.Quantity,
		PnL:        pnl,
		Commission: entryFee + exitFee,
		Forced:     forced,
		Deferrals:  pos.Deferrals,
	}, nil
}

// QuantityFor computes the entry quantity under the configured sizing policy.
// Returns 0 when the price does not admit a single share.
func QuantityFor(cfg Config, price float64) int64 {
	switch cfg.Sizing {
	case SizingFixedShares:
		return cfg.FixedShares
	case SizingEqualNotional:
		if price <= 0 {
			return 0
		}
		target := cfg.InitialCash / float64(cfg.TopN)
		return int64(math.Floor(target / price))
	default:
		return 0
	}
}

func checkPrice(ticker string, price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return fmt.Errorf("price for %s is not finite", ticker)
	}
	if price <= 0 {
		return fmt.Errorf("price for %s must be positive, got %v", ticker, price)
	}
	return nil
}
