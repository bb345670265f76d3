package signals

import (
	"context"
	"sort"
	"time"

	"github.com/insiderlab/quant/internal/contracts"
	"github.com/insiderlab/quant/internal/marketdata"
	"github.com/insiderlab/quant/pkg/logger"
)

// Signal is one confirmed trade candidate.
type Signal struct {
	Ticker         string  `csv:"ticker" json:"ticker"`
	Date           string  `csv:"date" json:"date"`
	InsiderScore   float64 `csv:"insider_score" json:"insider_score"`
	TechnicalScore float64 `csv:"technical_score" json:"technical_score"`
	SectorUptrend  bool    `csv:"sector_uptrend" json:"sector_uptrend"`
	Confidence     float64 `csv:"confidence" json:"confidence"`
	RecentChange   float64 `csv:"recent_change" json:"recent_change"`
	AvgVolume      int64   `csv:"avg_volume" json:"avg_volume"`
}

// SectorProvider resolves a ticker to its sector name.
type SectorProvider interface {
	Sector(ctx context.Context, ticker string) (string, error)
}

// MetricsProvider resolves a ticker to its fundamental ratios.
type MetricsProvider interface {
	Metrics(ctx context.Context, ticker string) (Metrics, error)
}

// Generator turns insider scores into confirmed signals: a candidate must
// pass the technical checks and sit in an uptrending sector before it is
// emitted with a blended confidence.
type Generator struct {
	fetcher marketdata.BarFetcher
	sector  *SectorAnalyzer
	sectors SectorProvider
	metrics MetricsProvider
	weights Weights
	logger  *logger.Logger
}

// NewGenerator creates a signal generator.
func NewGenerator(
	fetcher marketdata.BarFetcher,
	sector *SectorAnalyzer,
	sectors SectorProvider,
	metrics MetricsProvider,
	log *logger.Logger,
) *Generator {
	return &Generator{
		fetcher: fetcher,
		sector:  sector,
		sectors: sectors,
		metrics: metrics,
		weights: DefaultWeights(),
		logger:  log.Component("signals"),
	}
}

// Generate ranks tickers by insider score, confirms the top candidates, and
// returns the survivors sorted by insider score descending. A candidate that
// fails a check is dropped, not an error; data failures for one ticker skip
// that ticker with a warning.
func (g *Generator) Generate(ctx context.Context, insiderScores map[string]float64, asOf time.Time, topN int) ([]Signal, error) {
	candidates := rankByScore(insiderScores, topN)
	signals := make([]Signal, 0, len(candidates))

	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sig, ok, err := g.evaluate(ctx, cand.ticker, cand.score, asOf)
		if err != nil {
			g.logger.WithField("ticker", cand.ticker).WithError(err).Warn("Skipping candidate")
			continue
		}
		if ok {
			signals = append(signals, sig)
		}
	}

	g.logger.WithFields(map[string]interface{}{
		"candidates": len(candidates),
		"signals":    len(signals),
		"as_of":      contracts.FormatDay(asOf),
	}).Info("Generated signals")

	return signals, nil
}

func (g *Generator) evaluate(ctx context.Context, ticker string, insiderScore float64, asOf time.Time) (Signal, bool, error) {
	// Six months of history covers indicator warmup with room to spare.
	bars, err := g.fetcher.FetchDaily(ctx, ticker, asOf.AddDate(0, -6, 0), asOf)
	if err != nil {
		return Signal{}, false, err
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	tech, err := EvaluateTechnical(closes)
	if err != nil {
		return Signal{}, false, err
	}
	if !tech.Confirmed {
		return Signal{}, false, nil
	}

	sectorName, err := g.sectors.Sector(ctx, ticker)
	if err != nil {
		return Signal{}, false, err
	}
	up, err := g.sector.Uptrend(ctx, sectorName, asOf)
	if err != nil {
		return Signal{}, false, err
	}
	if !up {
		return Signal{}, false, nil
	}

	metrics, err := g.metrics.Metrics(ctx, ticker)
	if err != nil {
		return Signal{}, false, err
	}

	return Signal{
		Ticker:         ticker,
		Date:           contracts.FormatDay(asOf),
		InsiderScore:   insiderScore,
		TechnicalScore: tech.Score,
		SectorUptrend:  true,
		Confidence:     metrics.Confidence(insiderScore, g.weights),
		RecentChange:   recentChange(closes, 5),
		AvgVolume:      avgVolume(bars, 20),
	}, true, nil
}

type rankedTicker struct {
	ticker string
	score  float64
}

// rankByScore orders tickers by score descending, ticker ascending on ties,
// truncated to topN.
func rankByScore(scores map[string]float64, topN int) []rankedTicker {
	ranked := make([]rankedTicker, 0, len(scores))
	for ticker, score := range scores {
		ranked = append(ranked, rankedTicker{ticker: ticker, score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].ticker < ranked[j].ticker
	})
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// recentChange is the fractional price change over the last n bars.
func recentChange(closes []float64, n int) float64 {
	if len(closes) <= n {
		return 0
	}
	base := closes[len(closes)-1-n]
	if base == 0 {
		return 0
	}
	return (closes[len(closes)-1] - base) / base
}

// avgVolume averages volume over the trailing n bars.
func avgVolume(bars []marketdata.Bar, n int) int64 {
	if len(bars) == 0 {
		return 0
	}
	if len(bars) < n {
		n = len(bars)
	}
	var sum int64
	for _, b := range bars[len(bars)-n:] {
		sum += b.Volume
	}
	return sum / int64(n)
}
