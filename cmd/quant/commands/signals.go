package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/insiderlab/quant/internal/contracts"
	"github.com/insiderlab/quant/internal/signals"
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Generate today's confirmed insider signals",
	Long: `Score recent insider buying, confirm candidates with technical,
sector, and fundamental checks, and export the survivors.

Example:
  go run ./cmd/quant signals
  go run ./cmd/quant signals --top-n 5 --as-of 2024-03-01 --out out/signals.csv`,
	RunE: runSignals,
}

var (
	signalsTopN int
	signalsAsOf string
	signalsOut  string
)

func init() {
	rootCmd.AddCommand(signalsCmd)

	signalsCmd.Flags().IntVar(&signalsTopN, "top-n", 0, "candidates to confirm (default: env BACKTEST_TOP_N)")
	signalsCmd.Flags().StringVar(&signalsAsOf, "as-of", "", "evaluation date (YYYY-MM-DD, default: today)")
	signalsCmd.Flags().StringVar(&signalsOut, "out", "signals.csv", "output CSV path (JSON written alongside)")
}

func runSignals(cmd *cobra.Command, args []string) error {
	d, err := initDeps()
	if err != nil {
		return err
	}
	defer d.Close()

	params, err := d.loadParams()
	if err != nil {
		return err
	}

	asOf := contracts.Day(time.Now())
	if signalsAsOf != "" {
		asOf, err = contracts.ParseDay(signalsAsOf)
		if err != nil {
			return fmt.Errorf("invalid as-of date: %w", err)
		}
	}
	topN := signalsTopN
	if topN <= 0 {
		topN = d.cfg.Backtest.TopN
	}

	fmt.Println("=== Insider Signals ===")
	fmt.Printf("As of %s | top %d\n\n", contracts.FormatDay(asOf), topN)

	result, err := d.newSignalService(params).Latest(cmd.Context(), asOf, topN)
	if err != nil {
		return fmt.Errorf("signal generation failed: %w", err)
	}

	if len(result) == 0 {
		fmt.Println("No candidate survived confirmation.")
		return nil
	}

	printSignals(result)

	if err := signals.Export(result, signalsOut); err != nil {
		return fmt.Errorf("export signals: %w", err)
	}
	fmt.Printf("Exported %d signal(s) to %s\n", len(result), signalsOut)
	return nil
}

func printSignals(list []signals.Signal) {
	fmt.Printf("%-8s %-12s %-9s %-9s %-7s %-11s %-9s\n",
		"ticker", "date", "insider", "technical", "sector", "confidence", "chg_5d")
	fmt.Println(strings.Repeat("-", 70))

	for _, s := range list {
		sector := "down"
		if s.SectorUptrend {
			sector = "up"
		}
		fmt.Printf("%-8s %-12s %-9.3f %-9.2f %-7s %-11.3f %+8.2f%%\n",
			s.Ticker, s.Date, s.InsiderScore, s.TechnicalScore,
			sector, s.Confidence, s.RecentChange*100)
	}
	fmt.Println()
}
