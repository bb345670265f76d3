package strategyconfig

import (
	"fmt"
	"math"

	"github.com/insiderlab/quant/internal/backtest"
)

// ValidationError is a hard constraint violation that stops the program.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning is a recommended-constraint violation, reported but not fatal.
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints.
func Validate(cfg *Config) error {
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	if cfg.Signal.MinDeltaOwn < 0 || cfg.Signal.MinDeltaOwn > 1 {
		return ValidationError{"signal.min_delta_own", "must be in [0, 1]"}
	}
	if cfg.Signal.RecencyDecayDays <= 0 {
		return ValidationError{"signal.recency_decay_days", "must be > 0"}
	}
	if cfg.Signal.LookbackDays <= 0 {
		return ValidationError{"signal.lookback_days", "must be > 0"}
	}

	if cfg.Ranking.TopN <= 0 {
		return ValidationError{"ranking.top_n", "must be > 0"}
	}

	if cfg.Portfolio.HoldDays <= 0 {
		return ValidationError{"portfolio.hold_days", "must be > 0"}
	}
	if cfg.Portfolio.InitialCash <= 0 {
		return ValidationError{"portfolio.initial_cash", "must be > 0"}
	}

	switch backtest.SizingMode(cfg.Portfolio.Sizing.Mode) {
	case backtest.SizingFixedShares:
		if cfg.Portfolio.Sizing.FixedShares <= 0 {
			return ValidationError{"portfolio.sizing.fixed_shares", "must be > 0"}
		}
	case backtest.SizingEqualNotional:
	default:
		return ValidationError{"portfolio.sizing.mode", "must be fixed_shares or equal_notional"}
	}

	if cfg.Costs.CommissionRate < 0 || cfg.Costs.CommissionRate >= 1 {
		return ValidationError{"costs.commission_rate", "must be in [0, 1)"}
	}

	if sum := cfg.Confirm.Weights.Sum(); math.Abs(sum-1.0) > 1e-6 {
		return ValidationError{"confirmations.weights", fmt.Sprintf("must sum to 1.0, got %.4f", sum)}
	}

	for i, h := range cfg.Sweep.HoldDays {
		if h <= 0 {
			return ValidationError{fmt.Sprintf("sweep.hold_days[%d]", i), "must be > 0"}
		}
	}
	for i, n := range cfg.Sweep.TopN {
		if n <= 0 {
			return ValidationError{fmt.Sprintf("sweep.top_n[%d]", i), "must be > 0"}
		}
	}

	return nil
}

// Warn checks recommended constraints.
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.Costs.CommissionRate == 0 {
		warnings = append(warnings, Warning{
			Code:    "ZERO_COMMISSION",
			Message: "commission_rate is 0: results will overstate live performance",
		})
	}

	if cfg.Signal.RecencyDecayDays > float64(cfg.Signal.LookbackDays) {
		warnings = append(warnings, Warning{
			Code:    "SLOW_DECAY",
			Message: "recency_decay_days exceeds lookback_days: old filings barely decay",
		})
	}

	if cfg.Ranking.TopN > 20 {
		warnings = append(warnings, Warning{
			Code:    "WIDE_BOOK",
			Message: "top_n > 20: insider signal thins out quickly past the strongest names",
		})
	}

	return warnings
}
