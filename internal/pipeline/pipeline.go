package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/insiderlab/quant/internal/backtest"
	"github.com/insiderlab/quant/internal/contracts"
	"github.com/insiderlab/quant/internal/insider"
	"github.com/insiderlab/quant/internal/marketdata"
	"github.com/insiderlab/quant/pkg/logger"
)

// FilingSource supplies insider filings, either straight from the screener
// or from the repository.
type FilingSource interface {
	FetchFilings(ctx context.Context, ticker string, lookbackDays int) ([]insider.Filing, error)
}

// Pipeline assembles the inputs a backtest needs and hands them to the
// engine. It is the one place the filing, scoring, and price layers meet.
type Pipeline struct {
	filings      FilingSource
	scorerConfig insider.ScorerConfig
	caps         insider.MarketCapFunc
	loader       *marketdata.Loader
	lookbackDays int
	logger       *logger.Logger
}

// New creates a pipeline.
func New(
	filings FilingSource,
	scorerConfig insider.ScorerConfig,
	caps insider.MarketCapFunc,
	loader *marketdata.Loader,
	lookbackDays int,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		filings:      filings,
		scorerConfig: scorerConfig,
		caps:         caps,
		loader:       loader,
		lookbackDays: lookbackDays,
		logger:       log.Component("pipeline"),
	}
}

// BuildInputs fetches and scores filings, then loads prices for every
// scored ticker over [start, end].
func (p *Pipeline) BuildInputs(ctx context.Context, start, end time.Time) (*contracts.ScoreMap, *contracts.PriceBook, error) {
	filings, err := p.filings.FetchFilings(ctx, "", p.lookbackDays)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch filings: %w", err)
	}

	scorerCfg := p.scorerConfig
	scorerCfg.AsOf = end
	scorer := insider.NewScorer(scorerCfg, p.caps, p.logger)

	scores := scorer.Score(scorer.Clean(filings))
	if scores.Len() == 0 {
		return nil, nil, fmt.Errorf("no scored tickers after cleaning %d filings", len(filings))
	}

	prices, err := p.loader.Load(ctx, scores.Tickers(), start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("load prices: %w", err)
	}

	return scores, prices, nil
}

// Run executes one backtest end to end.
func (p *Pipeline) Run(ctx context.Context, cfg backtest.Config) (*contracts.BacktestReport, error) {
	scores, prices, err := p.BuildInputs(ctx, cfg.StartDay, cfg.EndDay)
	if err != nil {
		return nil, err
	}
	return backtest.NewEngine(scores, prices, p.logger).Run(ctx, cfg)
}

// Sweep executes a parameter sweep over a shared input set.
func (p *Pipeline) Sweep(ctx context.Context, base backtest.Config, params backtest.SweepParams, workers int) ([]backtest.SweepResult, error) {
	scores, prices, err := p.BuildInputs(ctx, base.StartDay, base.EndDay)
	if err != nil {
		return nil, err
	}
	return backtest.Sweep(ctx, scores, prices, base, params, workers, p.logger)
}
