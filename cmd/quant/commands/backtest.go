package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/insiderlab/quant/internal/backtest"
	"github.com/insiderlab/quant/internal/contracts"
)

// backtestCmd groups the backtest subcommands.
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run insider-signal backtests",
	Long: `Simulate the daily top-N insider strategy over historical prices.

Example:
  go run ./cmd/quant backtest run --from 2023-01-01 --to 2023-12-31
  go run ./cmd/quant backtest run --from 2023-01-01 --hold-days 15 --top-n 5
  go run ./cmd/quant backtest sweep --from 2023-01-01 --to 2023-12-31`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Run a single backtest",
		RunE:  runBacktest,
	}

	backtestSweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "Run a hold-days x top-N parameter sweep",
		RunE:  runSweep,
	}

	// Flags
	backtestFrom        string
	backtestTo          string
	backtestHoldDays    int
	backtestTopN        int
	backtestCapital     float64
	backtestCommission  float64
	backtestSizing      string
	backtestFixedShares int64
	backtestLeaveOpen   bool
	sweepHoldDays       []int
	sweepTopN           []int
	sweepWorkers        int
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)
	backtestCmd.AddCommand(backtestSweepCmd)

	for _, cmd := range []*cobra.Command{backtestRunCmd, backtestSweepCmd} {
		cmd.Flags().StringVar(&backtestFrom, "from", "", "start date (YYYY-MM-DD, required)")
		cmd.Flags().StringVar(&backtestTo, "to", "", "end date (YYYY-MM-DD, default: today)")
		cmd.Flags().IntVar(&backtestHoldDays, "hold-days", 0, "holding period in calendar days")
		cmd.Flags().IntVar(&backtestTopN, "top-n", 0, "entries considered per day")
		cmd.Flags().Float64Var(&backtestCapital, "capital", 0, "initial cash")
		cmd.Flags().Float64Var(&backtestCommission, "commission", -1, "commission rate per leg")
		cmd.Flags().StringVar(&backtestSizing, "sizing", "", "sizing mode (fixed_shares|equal_notional)")
		cmd.Flags().Int64Var(&backtestFixedShares, "fixed-shares", 0, "shares per entry for fixed_shares sizing")
		cmd.Flags().BoolVar(&backtestLeaveOpen, "leave-open", false, "leave end-of-range positions open")
		cmd.MarkFlagRequired("from")
	}

	backtestSweepCmd.Flags().IntSliceVar(&sweepHoldDays, "sweep-hold-days", nil, "hold-days grid (default: strategy sweep)")
	backtestSweepCmd.Flags().IntSliceVar(&sweepTopN, "sweep-top-n", nil, "top-N grid (default: strategy sweep)")
	backtestSweepCmd.Flags().IntVar(&sweepWorkers, "workers", 4, "concurrent sweep workers")
}

// buildRunConfig resolves dates and flag overrides into an engine config.
func buildRunConfig(params *runParams) (backtest.Config, error) {
	cfg := params.base

	start, err := contracts.ParseDay(backtestFrom)
	if err != nil {
		return cfg, fmt.Errorf("invalid start date: %w", err)
	}
	cfg.StartDay = start

	if backtestTo != "" {
		end, err := contracts.ParseDay(backtestTo)
		if err != nil {
			return cfg, fmt.Errorf("invalid end date: %w", err)
		}
		cfg.EndDay = end
	} else {
		cfg.EndDay = contracts.Day(time.Now())
	}

	if backtestHoldDays > 0 {
		cfg.HoldDays = backtestHoldDays
	}
	if backtestTopN > 0 {
		cfg.TopN = backtestTopN
	}
	if backtestCapital > 0 {
		cfg.InitialCash = backtestCapital
	}
	if backtestCommission >= 0 {
		cfg.CommissionRate = backtestCommission
	}
	if backtestSizing != "" {
		cfg.Sizing = backtest.SizingMode(backtestSizing)
	}
	if backtestFixedShares > 0 {
		cfg.FixedShares = backtestFixedShares
	}
	if backtestLeaveOpen {
		cfg.ForceCloseAtEnd = false
	}

	return cfg, cfg.Validate()
}

func runBacktest(cmd *cobra.Command, args []string) error {
	d, err := initDeps()
	if err != nil {
		return err
	}
	defer d.Close()

	params, err := d.loadParams()
	if err != nil {
		return err
	}
	cfg, err := buildRunConfig(params)
	if err != nil {
		return err
	}

	fmt.Println("=== Insider Backtest ===")
	fmt.Printf("Period: %s ~ %s | hold %dd | top %d | capital %.0f\n\n",
		contracts.FormatDay(cfg.StartDay), contracts.FormatDay(cfg.EndDay),
		cfg.HoldDays, cfg.TopN, cfg.InitialCash)

	report, err := d.newPipeline(params).Run(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	printReport(report)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	d, err := initDeps()
	if err != nil {
		return err
	}
	defer d.Close()

	params, err := d.loadParams()
	if err != nil {
		return err
	}
	cfg, err := buildRunConfig(params)
	if err != nil {
		return err
	}

	grid := params.sweep
	if len(sweepHoldDays) > 0 {
		grid.HoldDays = sweepHoldDays
	}
	if len(sweepTopN) > 0 {
		grid.TopN = sweepTopN
	}

	fmt.Println("=== Insider Backtest Sweep ===")
	fmt.Printf("Period: %s ~ %s | hold %v | top %v\n\n",
		contracts.FormatDay(cfg.StartDay), contracts.FormatDay(cfg.EndDay),
		grid.HoldDays, grid.TopN)

	results, err := d.newPipeline(params).Sweep(cmd.Context(), cfg, grid, sweepWorkers)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	printSweepTable(results)
	return nil
}

func printReport(report *contracts.BacktestReport) {
	fmt.Println("Backtest Completed")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("Run:             %s\n", report.RunID)
	fmt.Printf("Period:          %s ~ %s (%d trading days)\n",
		contracts.FormatDay(report.StartDay), contracts.FormatDay(report.EndDay), report.TradingDays)
	fmt.Println()

	fmt.Printf("Initial Cash:    %.2f\n", report.InitialCash)
	fmt.Printf("Final Value:     %.2f\n", report.FinalValue)
	fmt.Printf("Total Return:    %+.2f%%\n", report.TotalReturn*100)
	fmt.Printf("Annual Return:   %+.2f%%\n", report.AnnualReturn*100)
	fmt.Printf("Sharpe Ratio:    %s\n", formatSharpe(report.Sharpe))
	fmt.Printf("Max Drawdown:    %.2f%%\n", report.MaxDrawdown*100)
	fmt.Println()

	fmt.Printf("Trades:          %d (win rate %.1f%%)\n", report.TotalTrades, report.WinRate*100)
	fmt.Printf("Commission:      %.2f\n", report.TotalCommission)
	fmt.Printf("Deferred Exits:  %d\n", report.DeferredExits)
	fmt.Printf("Forced Closes:   %d\n", report.ForcedCloses)

	if len(report.Warnings) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(report.Warnings))
		limit := len(report.Warnings)
		if limit > 10 {
			limit = 10
		}
		for _, w := range report.Warnings[:limit] {
			fmt.Printf("  - %s\n", w)
		}
		if len(report.Warnings) > limit {
			fmt.Printf("  ... and %d more\n", len(report.Warnings)-limit)
		}
	}
	fmt.Println()
}

func printSweepTable(results []backtest.SweepResult) {
	fmt.Printf("%-10s %-7s %-12s %-12s %-9s %-8s\n",
		"hold_days", "top_n", "return", "sharpe", "max_dd", "trades")
	fmt.Println(strings.Repeat("-", 62))

	for _, r := range results {
		fmt.Printf("%-10d %-7d %-+11.2f%% %-12s %-8.2f%% %-8d\n",
			r.HoldDays, r.TopN,
			r.Report.TotalReturn*100,
			formatSharpe(r.Report.Sharpe),
			r.Report.MaxDrawdown*100,
			r.Report.TotalTrades)
	}
	fmt.Println()
}

func formatSharpe(sharpe *float64) string {
	if sharpe == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *sharpe)
}
