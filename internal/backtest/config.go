package backtest

import (
	"fmt"
	"math"
	"time"
)

// SizingMode selects how entry quantities are computed. The policy is an
// explicit configuration choice, never implied.
type SizingMode string

const (
	// SizingFixedShares buys a fixed share count per entry.
	SizingFixedShares SizingMode = "fixed_shares"
	// SizingEqualNotional targets initial_cash / top_n per entry and buys
	// as many whole shares as fit.
	SizingEqualNotional SizingMode = "equal_notional"
)

// Config holds the parameters of one backtest run.
type Config struct {
	StartDay time.Time
	EndDay   time.Time

	HoldDays       int     // calendar days a position is kept open
	TopN           int     // entries considered per day
	InitialCash    float64
	CommissionRate float64 // proportional, applied on both legs

	Sizing      SizingMode
	FixedShares int64 // used when Sizing == SizingFixedShares

	// ForceCloseAtEnd closes positions still open when the date range is
	// exhausted, at the last known price. When false they are left open and
	// only counted in the final mark-to-market value.
	ForceCloseAtEnd bool
}

// DefaultConfig returns a config with the documented default policies.
func DefaultConfig() Config {
	return Config{
		HoldDays:        30,
		TopN:            3,
		InitialCash:     100_000,
		CommissionRate:  0.001,
		Sizing:          SizingEqualNotional,
		ForceCloseAtEnd: true,
	}
}

// Validate fails fast before the simulation loop starts.
func (c *Config) Validate() error {
	if c.StartDay.IsZero() || c.EndDay.IsZero() {
		return fmt.Errorf("start and end days are required")
	}
	if c.EndDay.Before(c.StartDay) {
		return fmt.Errorf("end day %s precedes start day %s",
			c.EndDay.Format("2006-01-02"), c.StartDay.Format("2006-01-02"))
	}
	if c.HoldDays <= 0 {
		return fmt.Errorf("hold days must be positive, got %d", c.HoldDays)
	}
	if c.TopN <= 0 {
		return fmt.Errorf("top N must be positive, got %d", c.TopN)
	}
	if c.InitialCash <= 0 || math.IsNaN(c.InitialCash) || math.IsInf(c.InitialCash, 0) {
		return fmt.Errorf("initial cash must be a positive finite number, got %v", c.InitialCash)
	}
	if c.CommissionRate < 0 || c.CommissionRate >= 1 || math.IsNaN(c.CommissionRate) {
		return fmt.Errorf("commission rate must be in [0, 1), got %v", c.CommissionRate)
	}
	switch c.Sizing {
	case SizingFixedShares:
		if c.FixedShares <= 0 {
			return fmt.Errorf("fixed shares must be positive, got %d", c.FixedShares)
		}
	case SizingEqualNotional:
		// Target notional derives from InitialCash and TopN, both validated above.
	default:
		return fmt.Errorf("unknown sizing mode %q", c.Sizing)
	}
	return nil
}
