package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/insiderlab/quant/internal/insider"
	"github.com/insiderlab/quant/internal/signals"
	"github.com/insiderlab/quant/pkg/logger"
)

// SignalService produces the latest confirmed signals: insider scores
// ranked, then filtered through the technical and sector confirmations.
type SignalService struct {
	filings      FilingSource
	scorerConfig insider.ScorerConfig
	caps         insider.MarketCapFunc
	generator    *signals.Generator
	lookbackDays int
	logger       *logger.Logger
}

// NewSignalService creates a signal service.
func NewSignalService(
	filings FilingSource,
	scorerConfig insider.ScorerConfig,
	caps insider.MarketCapFunc,
	generator *signals.Generator,
	lookbackDays int,
	log *logger.Logger,
) *SignalService {
	return &SignalService{
		filings:      filings,
		scorerConfig: scorerConfig,
		caps:         caps,
		generator:    generator,
		lookbackDays: lookbackDays,
		logger:       log.Component("signal-service"),
	}
}

// Latest generates confirmed signals as of a day.
func (s *SignalService) Latest(ctx context.Context, asOf time.Time, topN int) ([]signals.Signal, error) {
	filings, err := s.filings.FetchFilings(ctx, "", s.lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("fetch filings: %w", err)
	}

	scorerCfg := s.scorerConfig
	scorerCfg.AsOf = asOf
	scorer := insider.NewScorer(scorerCfg, s.caps, s.logger)

	totals := scorer.TotalScores(scorer.Clean(filings))
	if len(totals) == 0 {
		return nil, fmt.Errorf("no scored tickers after cleaning %d filings", len(filings))
	}

	return s.generator.Generate(ctx, totals, asOf, topN)
}
