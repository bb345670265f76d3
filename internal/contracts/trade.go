package contracts

import "time"

// PositionStatus is the lifecycle state of a position.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// Position is a live holding of one instrument. The ledger guarantees at
// most one open position per instrument at any time.
type Position struct {
	Ticker         string         `json:"ticker"`
	EntryDay       time.Time      `json:"entry_day"`
	PlannedExitDay time.Time      `json:"planned_exit_day"`
	EntryPrice     float64        `json:"entry_price"`
	Quantity       int64          `json:"quantity"`
	Status         PositionStatus `json:"status"`

	// Deferrals counts exit attempts that found no tradable price.
	Deferrals int `json:"deferrals,omitempty"`
}

// MarketValue values the position at a given price.
func (p *Position) MarketValue(price float64) float64 {
	return price * float64(p.Quantity)
}

// ExitDue reports whether the planned exit day has been reached.
func (p *Position) ExitDue(day time.Time) bool {
	return !Day(day).Before(Day(p.PlannedExitDay))
}

// TradeRecord is emitted exactly once when a position closes. Immutable
// after creation.
type TradeRecord struct {
	Ticker     string    `json:"ticker"`
	EntryDay   time.Time `json:"entry_day"`
	ExitDay    time.Time `json:"exit_day"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Quantity   int64     `json:"quantity"`
	PnL        float64   `json:"pnl"`        // net of commission on both legs
	Commission float64   `json:"commission"` // total commission paid, both legs
	Forced     bool      `json:"forced"`     // closed at end of run, not by schedule
	Deferrals  int       `json:"deferrals"`  // exit days skipped for lack of a price
}

// HoldingDays returns the calendar days the position was held.
func (t *TradeRecord) HoldingDays() int {
	return int(Day(t.ExitDay).Sub(Day(t.EntryDay)).Hours() / 24)
}
