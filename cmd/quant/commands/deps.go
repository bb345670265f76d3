package commands

import (
	"context"
	"fmt"

	"github.com/insiderlab/quant/internal/backtest"
	"github.com/insiderlab/quant/internal/fundamentals"
	"github.com/insiderlab/quant/internal/insider"
	"github.com/insiderlab/quant/internal/marketdata"
	"github.com/insiderlab/quant/internal/pipeline"
	"github.com/insiderlab/quant/internal/signals"
	"github.com/insiderlab/quant/internal/strategyconfig"
	"github.com/insiderlab/quant/pkg/config"
	"github.com/insiderlab/quant/pkg/httputil"
	"github.com/insiderlab/quant/pkg/logger"
	"github.com/insiderlab/quant/pkg/redis"
)

// deps holds the shared dependency graph every command starts from.
type deps struct {
	cfg    *config.Config
	log    *logger.Logger
	redis  *redis.Client
	filing *insider.Client
	stooq  *marketdata.Client
	yahoo  *fundamentals.Client
	loader *marketdata.Loader
}

// initDeps loads config and builds the client stack. No database here;
// commands that persist connect separately.
func initDeps() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log := logger.New(logger.Options{Level: level, Format: cfg.LogFormat, Env: cfg.Env})

	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	const userAgent = "quant/1.0 (research tool)"

	filingClient := insider.NewClient(
		httputil.New(log).WithRateLimit(cfg.OpenInsider.RequestsPerMin).WithUserAgent(userAgent),
		cfg.OpenInsider.BaseURL, log)

	stooqClient := marketdata.NewClient(
		httputil.New(log).WithRateLimit(cfg.Stooq.RequestsPerMin).WithUserAgent(userAgent),
		cfg.Stooq.BaseURL, cfg.Stooq.Suffix, log)

	yahooClient := fundamentals.NewClient(
		httputil.New(log).WithRateLimit(cfg.Yahoo.RequestsPerMin).WithUserAgent(userAgent),
		cfg.Yahoo.BaseURL, log)

	loader := marketdata.NewLoader(stooqClient, redis.NewCache(redisClient, "quant"), log)

	return &deps{
		cfg:    cfg,
		log:    log,
		redis:  redisClient,
		filing: filingClient,
		stooq:  stooqClient,
		yahoo:  yahooClient,
		loader: loader,
	}, nil
}

func (d *deps) Close() {
	_ = d.redis.Close()
}

// runParams merges the optional strategy YAML over the env defaults.
type runParams struct {
	scorer       insider.ScorerConfig
	lookbackDays int
	base         backtest.Config
	sweep        backtest.SweepParams
	strategy     *strategyconfig.Config
}

// loadParams resolves effective parameters: the strategy file wins when
// given, otherwise env-configured defaults apply.
func (d *deps) loadParams() (*runParams, error) {
	params := &runParams{
		scorer:       insider.DefaultScorerConfig(),
		lookbackDays: d.cfg.OpenInsider.LookbackDays,
		base:         backtest.DefaultConfig(),
		sweep: backtest.SweepParams{
			HoldDays: []int{15, 30, 45},
			TopN:     []int{1, 3, 5},
		},
	}
	params.base.HoldDays = d.cfg.Backtest.HoldDays
	params.base.TopN = d.cfg.Backtest.TopN
	params.base.InitialCash = d.cfg.Backtest.InitialCash
	params.base.CommissionRate = d.cfg.Backtest.CommissionRate

	if strategyFile == "" {
		return params, nil
	}

	strategy, _, err := strategyconfig.Load(strategyFile)
	if err != nil {
		return nil, fmt.Errorf("load strategy %s: %w", strategyFile, err)
	}
	for _, warning := range strategyconfig.Warn(strategy) {
		d.log.WithFields(map[string]interface{}{
			"code": warning.Code,
		}).Warn(warning.Message)
	}

	params.strategy = strategy
	params.scorer.MinDeltaOwn = strategy.Signal.MinDeltaOwn
	params.scorer.RecencyDecayDays = strategy.Signal.RecencyDecayDays
	params.lookbackDays = strategy.Signal.LookbackDays
	params.base = strategy.BacktestConfig(params.base.StartDay, params.base.EndDay)
	if len(strategy.Sweep.HoldDays) > 0 {
		params.sweep.HoldDays = strategy.Sweep.HoldDays
	}
	if len(strategy.Sweep.TopN) > 0 {
		params.sweep.TopN = strategy.Sweep.TopN
	}

	return params, nil
}

// newPipeline assembles the backtest pipeline.
func (d *deps) newPipeline(params *runParams) *pipeline.Pipeline {
	caps := d.yahoo.MarketCapFunc(context.Background())
	return pipeline.New(d.filing, params.scorer, caps, d.loader, params.lookbackDays, d.log)
}

// newSignalService assembles the live signal generator.
func (d *deps) newSignalService(params *runParams) *pipeline.SignalService {
	sector := signals.NewSectorAnalyzer(d.stooq, d.log)
	generator := signals.NewGenerator(d.stooq, sector, d.yahoo, d.yahoo, d.log)
	caps := d.yahoo.MarketCapFunc(context.Background())
	return pipeline.NewSignalService(d.filing, params.scorer, caps, generator, params.lookbackDays, d.log)
}
