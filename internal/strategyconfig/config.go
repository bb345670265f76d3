package strategyconfig

import (
	"time"

	"github.com/insiderlab/quant/internal/backtest"
)

// Config is the full strategy definition. The YAML file is the single
// source of truth for a run; nothing strategy-shaped lives in env vars.
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Signal    Signal    `yaml:"signal" json:"signal"`
	Ranking   Ranking   `yaml:"ranking" json:"ranking"`
	Portfolio Portfolio `yaml:"portfolio" json:"portfolio"`
	Costs     Costs     `yaml:"costs" json:"costs"`
	Confirm   Confirm   `yaml:"confirmations" json:"confirmations"`
	Sweep     Sweep     `yaml:"sweep" json:"sweep"`
}

// Meta identifies the strategy.
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Signal controls how insider filings become scores.
type Signal struct {
	MinDeltaOwn      float64 `yaml:"min_delta_own" json:"min_delta_own"`
	RecencyDecayDays float64 `yaml:"recency_decay_days" json:"recency_decay_days"`
	LookbackDays     int     `yaml:"lookback_days" json:"lookback_days"`
}

// Ranking controls daily candidate selection.
type Ranking struct {
	TopN int `yaml:"top_n" json:"top_n"`
}

// Portfolio controls position lifecycle and sizing.
type Portfolio struct {
	HoldDays        int     `yaml:"hold_days" json:"hold_days"`
	InitialCash     float64 `yaml:"initial_cash" json:"initial_cash"`
	Sizing          Sizing  `yaml:"sizing" json:"sizing"`
	ForceCloseAtEnd *bool   `yaml:"force_close_at_end,omitempty" json:"force_close_at_end,omitempty"`
}

// Sizing selects the entry quantity policy.
type Sizing struct {
	Mode        string `yaml:"mode" json:"mode"` // fixed_shares | equal_notional
	FixedShares int64  `yaml:"fixed_shares,omitempty" json:"fixed_shares,omitempty"`
}

// Costs holds the trading cost model.
type Costs struct {
	CommissionRate float64 `yaml:"commission_rate" json:"commission_rate"`
}

// Confirm controls the live-signal confirmation layers. The backtest uses
// raw insider scores; confirmations apply to generated signals only.
type Confirm struct {
	Technical bool           `yaml:"technical" json:"technical"`
	Sector    bool           `yaml:"sector" json:"sector"`
	Weights   ConfirmWeights `yaml:"weights" json:"weights"`
}

// ConfirmWeights blends the confidence score, summing to 1.
type ConfirmWeights struct {
	Insider       float64 `yaml:"insider" json:"insider"`
	Valuation     float64 `yaml:"valuation" json:"valuation"`
	Growth        float64 `yaml:"growth" json:"growth"`
	Profitability float64 `yaml:"profitability" json:"profitability"`
}

// Sum returns the total of all weights.
func (w ConfirmWeights) Sum() float64 {
	return w.Insider + w.Valuation + w.Growth + w.Profitability
}

// Sweep lists the parameter grid for sweep runs.
type Sweep struct {
	HoldDays []int `yaml:"hold_days" json:"hold_days"`
	TopN     []int `yaml:"top_n" json:"top_n"`
}

// BacktestConfig materializes the engine config for a date range.
func (c *Config) BacktestConfig(start, end time.Time) backtest.Config {
	cfg := backtest.Config{
		StartDay:        start,
		EndDay:          end,
		HoldDays:        c.Portfolio.HoldDays,
		TopN:            c.Ranking.TopN,
		InitialCash:     c.Portfolio.InitialCash,
		CommissionRate:  c.Costs.CommissionRate,
		Sizing:          backtest.SizingMode(c.Portfolio.Sizing.Mode),
		FixedShares:     c.Portfolio.Sizing.FixedShares,
		ForceCloseAtEnd: true,
	}
	if c.Portfolio.ForceCloseAtEnd != nil {
		cfg.ForceCloseAtEnd = *c.Portfolio.ForceCloseAtEnd
	}
	return cfg
}

// RunSnapshot freezes the exact configuration a run executed with, for
// later reproduction.
type RunSnapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	StrategyID string    `json:"strategy_id"`
	RunID      string    `json:"run_id"`
	CreatedAt  time.Time `json:"created_at"`
}
