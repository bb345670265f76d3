package contracts

import "time"

// EquityPoint is one daily mark-to-market observation of the portfolio.
type EquityPoint struct {
	Day   time.Time `json:"day"`
	Value float64   `json:"value"` // cash + open position market value
}

// BacktestReport is the single output structure of a simulation run.
// Sharpe is a pointer: nil means the ratio is undefined (fewer than two
// return observations or zero variance), which is reported as null rather
// than a fabricated number.
type BacktestReport struct {
	RunID       string    `json:"run_id"`
	StartDay    time.Time `json:"start_day"`
	EndDay      time.Time `json:"end_day"`
	TradingDays int       `json:"trading_days"`

	InitialCash  float64  `json:"initial_cash"`
	FinalValue   float64  `json:"final_value"`
	TotalReturn  float64  `json:"total_return"`
	AnnualReturn float64  `json:"annual_return"`
	Sharpe       *float64 `json:"sharpe"`
	MaxDrawdown  float64  `json:"max_drawdown"` // fraction of peak value

	TotalTrades     int     `json:"total_trades"`
	WinningTrades   int     `json:"winning_trades"`
	LosingTrades    int     `json:"losing_trades"`
	WinRate         float64 `json:"win_rate"`
	TotalCommission float64 `json:"total_commission"`

	DeferredExits int      `json:"deferred_exits"`
	ForcedCloses  int      `json:"forced_closes"`
	Warnings      []string `json:"warnings,omitempty"`

	EquityCurve []EquityPoint `json:"equity_curve"`
	Trades      []TradeRecord `json:"trades"`
}
