package insider

import (
	"math"
	"strings"
	"time"

	"github.com/insiderlab/quant/internal/contracts"
	"github.com/insiderlab/quant/pkg/logger"
)

// MarketCapFunc looks up an instrument's market capitalization in USD.
// The second return value is false when no cap is known; such filings are
// dropped because their trade value cannot be normalized.
type MarketCapFunc func(ticker string) (float64, bool)

// ScorerConfig controls filtering and weighting of filings.
type ScorerConfig struct {
	// MinDeltaOwn drops filings below this ownership change; insiders adding
	// a trivial slice of an existing stake carry little signal. New stakes
	// always pass.
	MinDeltaOwn float64

	// RecencyDecayDays is the e-folding time of the recency weight.
	RecencyDecayDays float64

	// AsOf anchors the recency weight. Zero means time.Now.
	AsOf time.Time
}

// DefaultScorerConfig mirrors the calibration the signal research settled on.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		MinDeltaOwn:      0.05,
		RecencyDecayDays: 20,
	}
}

// Scorer turns raw filings into the per-day ranking signal.
type Scorer struct {
	config ScorerConfig
	caps   MarketCapFunc
	logger *logger.Logger
}

// NewScorer creates a scorer.
func NewScorer(config ScorerConfig, caps MarketCapFunc, log *logger.Logger) *Scorer {
	return &Scorer{
		config: config,
		caps:   caps,
		logger: log.Component("insider-scorer"),
	}
}

// Clean filters filings and fills in NormalizedValue: trade value as a
// fraction of market cap, scaled so typical purchases land near 1.
func (s *Scorer) Clean(filings []Filing) []Filing {
	cleaned := make([]Filing, 0, len(filings))
	dropped := map[string]int{}

	for _, f := range filings {
		if f.DeltaOwn < s.config.MinDeltaOwn && !f.NewStake {
			dropped["small_delta_own"]++
			continue
		}
		cap, ok := s.caps(f.Ticker)
		if !ok || cap <= 0 {
			dropped["no_market_cap"]++
			continue
		}
		if f.Value <= 0 {
			dropped["non_positive_value"]++
			continue
		}

		f.NormalizedValue = f.Value / cap * 100_000
		cleaned = append(cleaned, f)
	}

	s.logger.WithFields(map[string]interface{}{
		"input":   len(filings),
		"cleaned": len(cleaned),
		"dropped": dropped,
	}).Info("Cleaned insider filings")

	return cleaned
}

// Score aggregates cleaned filings into a ScoreMap keyed by trade date.
// Per filing: log1p(normalized value) * recency weight * role weight.
// Filings for the same ticker and day sum.
func (s *Scorer) Score(filings []Filing) *contracts.ScoreMap {
	asOf := s.config.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	asOf = contracts.Day(asOf)

	scores := contracts.NewScoreMap()
	for _, f := range filings {
		daysAgo := asOf.Sub(contracts.Day(f.TradeDate)).Hours() / 24
		if daysAgo < 0 {
			daysAgo = 0
		}
		recency := math.Exp(-daysAgo / s.config.RecencyDecayDays)
		score := math.Log1p(f.NormalizedValue) * recency * roleWeight(f.Title)
		scores.Add(f.Ticker, f.TradeDate, score)
	}

	s.logger.WithFields(map[string]interface{}{
		"filings": len(filings),
		"tickers": scores.Len(),
	}).Info("Computed insider scores")

	return scores
}

// TotalScores collapses cleaned filings into one score per ticker,
// summing across trade dates. The live signal path ranks on these totals
// rather than the per-day map the backtest consumes.
func (s *Scorer) TotalScores(filings []Filing) map[string]float64 {
	perDay := s.Score(filings)

	totals := make(map[string]float64, perDay.Len())
	seen := make(map[string]struct{}, len(filings))
	for _, f := range filings {
		score, ok := perDay.Score(f.Ticker, f.TradeDate)
		if !ok {
			continue
		}
		// The per-day entry already sums same-day filings; take it once.
		key := f.Ticker + "\x00" + contracts.FormatDay(f.TradeDate)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		totals[f.Ticker] += score
	}
	return totals
}

// roleWeight weights a filing by the insider's seniority. Executives who
// run the company see more than outside directors.
func roleWeight(title string) float64 {
	title = strings.ToUpper(title)
	switch {
	case strings.Contains(title, "CEO"):
		return 2.0
	case strings.Contains(title, "CFO"):
		return 1.5
	case strings.Contains(title, "DIR"):
		return 1.2
	default:
		return 1.0
	}
}
