package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/insiderlab/quant/internal/contracts"
	"github.com/insiderlab/quant/pkg/logger"
)

// Engine drives one simulation run: a single deterministic pass over the
// union trading calendar, strictly monotonic in date, with exits evaluated
// before entries on every day. Each Engine owns its ledger and broker;
// ScoreMap and PriceBook are read-only and may be shared across engines.
type Engine struct {
	scores contracts.ScoreLookup
	prices *contracts.PriceBook
	logger *logger.Logger
}

// NewEngine creates an engine over prepared score and price data.
func NewEngine(scores contracts.ScoreLookup, prices *contracts.PriceBook, log *logger.Logger) *Engine {
	return &Engine{
		scores: scores,
		prices: prices,
		logger: log.Component("backtest"),
	}
}

// Run executes the simulation and returns the final report. Configuration
// errors fail fast before the loop starts; once the loop is running, no
// per-instrument failure can abort it.
func (e *Engine) Run(ctx context.Context, cfg Config) (*contracts.BacktestReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest config: %w", err)
	}
	if len(e.scores.Tickers()) == 0 {
		return nil, fmt.Errorf("score map is empty")
	}
	if e.prices.Len() == 0 {
		return nil, fmt.Errorf("price book is empty")
	}

	days := e.prices.UnionCalendar(cfg.StartDay, cfg.EndDay)
	if len(days) == 0 {
		return nil, fmt.Errorf("no trading days between %s and %s",
			contracts.FormatDay(cfg.StartDay), contracts.FormatDay(cfg.EndDay))
	}

	runID := uuid.NewString()
	e.logger.WithFields(map[string]interface{}{
		"run_id":       runID,
		"start_day":    contracts.FormatDay(days[0]),
		"end_day":      contracts.FormatDay(days[len(days)-1]),
		"trading_days": len(days),
		"hold_days":    cfg.HoldDays,
		"top_n":        cfg.TopN,
	}).Info("Starting backtest run")

	broker := NewBroker(cfg.InitialCash, cfg.CommissionRate)
	ledger := NewLedger()
	curve := make([]contracts.EquityPoint, 0, len(days))

	var warnings []string
	deferredExits := 0

	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("backtest canceled on %s: %w", contracts.FormatDay(day), err)
		}

		dayWarnings := e.step(day, cfg, ledger, broker)
		for _, w := range dayWarnings {
			e.logger.WithFields(map[string]interface{}{
				"day":     contracts.FormatDay(day),
				"warning": w,
			}).Warn("Backtest day warning")
		}
		warnings = append(warnings, dayWarnings...)

		curve = append(curve, contracts.EquityPoint{
			Day:   day,
			Value: broker.Cash() + ledger.MarketValue(day, e.prices),
		})
	}

	for _, trade := range ledger.Trades() {
		deferredExits += trade.Deferrals
	}

	forcedCloses := 0
	if cfg.ForceCloseAtEnd && ledger.OpenCount() > 0 {
		lastDay := days[len(days)-1]
		closed, closeWarnings := ledger.ForceCloseAll(lastDay, e.prices, broker)
		forcedCloses = len(closed)
		warnings = append(warnings, closeWarnings...)
		for _, trade := range closed {
			deferredExits += trade.Deferrals
		}

		// The close legs paid commission, so the final mark moves.
		curve[len(curve)-1] = contracts.EquityPoint{
			Day:   lastDay,
			Value: broker.Cash() + ledger.MarketValue(lastDay, e.prices),
		}
	}

	report := Analyze(runID, cfg, curve, ledger.Trades(), warnings, deferredExits, forcedCloses)

	e.logger.WithFields(map[string]interface{}{
		"run_id":       runID,
		"final_value":  report.FinalValue,
		"total_return": report.TotalReturn,
		"trades":       report.TotalTrades,
		"max_drawdown": report.MaxDrawdown,
	}).Info("Backtest run completed")

	return report, nil
}

// step runs one simulated day: exit pass, then entry pass. A panic inside
// the day degrades to a warning so one bad instrument or data row cannot
// abort the whole run.
func (e *Engine) step(day time.Time, cfg Config, ledger *Ledger, broker *Broker) (warnings []string) {
	defer func() {
		if r := recover(); r != nil {
			warnings = append(warnings, fmt.Sprintf(
				"day %s aborted: %v", contracts.FormatDay(day), r))
		}
	}()

	_, exitWarnings := ledger.ExitPass(day, e.prices, broker)
	warnings = append(warnings, exitWarnings...)

	candidates := Rank(day, e.scores, e.prices, cfg.TopN)
	_, entryWarnings := ledger.EntryPass(day, candidates, e.prices, broker, cfg)
	warnings = append(warnings, entryWarnings...)

	return warnings
}
