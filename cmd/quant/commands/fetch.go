package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/insiderlab/quant/internal/contracts"
	"github.com/insiderlab/quant/internal/insider"
	"github.com/insiderlab/quant/internal/marketdata"
	"github.com/insiderlab/quant/pkg/database"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and persist source data",
	Long: `Pull insider filings and daily prices into PostgreSQL so repeated
backtests do not hammer the upstream feeds.

Example:
  go run ./cmd/quant fetch filings
  go run ./cmd/quant fetch filings --tickers AAPL,MSFT
  go run ./cmd/quant fetch prices --from 2023-01-01 --to 2023-12-31`,
}

var (
	fetchFilingsCmd = &cobra.Command{
		Use:   "filings",
		Short: "Fetch insider purchase filings",
		RunE:  runFetchFilings,
	}

	fetchPricesCmd = &cobra.Command{
		Use:   "prices",
		Short: "Fetch daily price bars",
		RunE:  runFetchPrices,
	}

	fetchTickers []string
	fetchFrom    string
	fetchTo      string
)

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.AddCommand(fetchFilingsCmd)
	fetchCmd.AddCommand(fetchPricesCmd)

	fetchFilingsCmd.Flags().StringSliceVar(&fetchTickers, "tickers", nil, "restrict to tickers (default: full screener)")

	fetchPricesCmd.Flags().StringSliceVar(&fetchTickers, "tickers", nil, "tickers to fetch (default: tickers with stored filings)")
	fetchPricesCmd.Flags().StringVar(&fetchFrom, "from", "", "start date (YYYY-MM-DD, required)")
	fetchPricesCmd.Flags().StringVar(&fetchTo, "to", "", "end date (YYYY-MM-DD, default: today)")
	fetchPricesCmd.MarkFlagRequired("from")
}

func runFetchFilings(cmd *cobra.Command, args []string) error {
	d, err := initDeps()
	if err != nil {
		return err
	}
	defer d.Close()

	db, err := database.New(d.cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	repo := insider.NewRepository(db.Pool)
	lookback := d.cfg.OpenInsider.LookbackDays

	// An empty ticker queries the whole screener in one page.
	targets := fetchTickers
	if len(targets) == 0 {
		targets = []string{""}
	}

	total := 0
	for _, ticker := range targets {
		filings, err := d.filing.FetchFilings(cmd.Context(), ticker, lookback)
		if err != nil {
			return fmt.Errorf("fetch filings: %w", err)
		}
		if err := repo.SaveBatch(cmd.Context(), filings); err != nil {
			return fmt.Errorf("save filings: %w", err)
		}
		total += len(filings)
	}

	fmt.Printf("Saved %d filing(s) from the last %d days\n", total, lookback)
	return nil
}

func runFetchPrices(cmd *cobra.Command, args []string) error {
	d, err := initDeps()
	if err != nil {
		return err
	}
	defer d.Close()

	from, err := contracts.ParseDay(fetchFrom)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	to := contracts.Day(time.Now())
	if fetchTo != "" {
		to, err = contracts.ParseDay(fetchTo)
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
	}

	db, err := database.New(d.cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	priceRepo := marketdata.NewRepository(db.Pool)

	tickers := fetchTickers
	if len(tickers) == 0 {
		tickers, err = insider.NewRepository(db.Pool).Tickers(cmd.Context())
		if err != nil {
			return fmt.Errorf("list filing tickers: %w", err)
		}
	}
	if len(tickers) == 0 {
		return fmt.Errorf("no tickers to fetch; run 'fetch filings' first or pass --tickers")
	}

	saved, failed := 0, 0
	for _, ticker := range tickers {
		bars, err := d.stooq.FetchDaily(cmd.Context(), ticker, from, to)
		if err != nil {
			d.log.WithField("ticker", ticker).WithError(err).Warn("Price fetch skipped ticker")
			failed++
			continue
		}
		if err := priceRepo.SaveBatch(cmd.Context(), bars); err != nil {
			return fmt.Errorf("save bars for %s: %w", ticker, err)
		}
		saved += len(bars)
	}

	fmt.Printf("Saved %d bar(s) for %d ticker(s), %d failed\n", saved, len(tickers)-failed, failed)
	return nil
}
