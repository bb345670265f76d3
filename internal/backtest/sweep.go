package backtest

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/insiderlab/quant/internal/contracts"
	"github.com/insiderlab/quant/pkg/logger"
)

// SweepParams enumerates the parameter grid for a sweep: every combination
// of hold days and top N is run once.
type SweepParams struct {
	HoldDays []int
	TopN     []int
}

// SweepResult pairs one parameter combination with its report.
type SweepResult struct {
	HoldDays int                       `json:"hold_days"`
	TopN     int                       `json:"top_n"`
	Report   *contracts.BacktestReport `json:"report"`
}

// Sweep runs the parameter grid concurrently. Each run owns an independent
// ledger and broker; the score map and price book are shared read-only, so
// runs never contend. Results come back in grid order regardless of
// completion order.
func Sweep(ctx context.Context, scores contracts.ScoreLookup, prices *contracts.PriceBook, base Config, params SweepParams, workers int, log *logger.Logger) ([]SweepResult, error) {
	if workers <= 0 {
		workers = 4
	}

	combos := make([]SweepResult, 0, len(params.HoldDays)*len(params.TopN))
	for _, hold := range params.HoldDays {
		for _, topN := range params.TopN {
			combos = append(combos, SweepResult{HoldDays: hold, TopN: topN})
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range combos {
		i := i
		g.Go(func() error {
			cfg := base
			cfg.HoldDays = combos[i].HoldDays
			cfg.TopN = combos[i].TopN

			report, err := NewEngine(scores, prices, log).Run(ctx, cfg)
			if err != nil {
				return err
			}
			combos[i].Report = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return combos, nil
}
