package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/insiderlab/quant/internal/insider"
	"github.com/insiderlab/quant/internal/marketdata"
	"github.com/insiderlab/quant/internal/signals"
	"github.com/insiderlab/quant/pkg/logger"
)

// FilingRefreshJob pulls recent insider filings into the database.
type FilingRefreshJob struct {
	client       *insider.Client
	repo         *insider.Repository
	lookbackDays int
	logger       *logger.Logger
}

// NewFilingRefreshJob creates the filing refresh job.
func NewFilingRefreshJob(client *insider.Client, repo *insider.Repository, lookbackDays int, log *logger.Logger) *FilingRefreshJob {
	return &FilingRefreshJob{
		client:       client,
		repo:         repo,
		lookbackDays: lookbackDays,
		logger:       log,
	}
}

func (j *FilingRefreshJob) Name() string { return "filing_refresh" }

// Schedule runs after the evening filing wave on trading days.
func (j *FilingRefreshJob) Schedule() string { return "0 18 * * MON-FRI" }

func (j *FilingRefreshJob) Run(ctx context.Context) error {
	filings, err := j.client.FetchFilings(ctx, "", j.lookbackDays)
	if err != nil {
		return fmt.Errorf("fetch filings: %w", err)
	}

	if err := j.repo.SaveBatch(ctx, filings); err != nil {
		return fmt.Errorf("save filings: %w", err)
	}

	j.logger.WithField("filings", len(filings)).Info("Filing refresh completed")
	return nil
}

// PriceRefreshJob tops up daily bars for every ticker already tracked.
type PriceRefreshJob struct {
	client *marketdata.Client
	repo   *marketdata.Repository
	logger *logger.Logger
}

// NewPriceRefreshJob creates the price refresh job.
func NewPriceRefreshJob(client *marketdata.Client, repo *marketdata.Repository, log *logger.Logger) *PriceRefreshJob {
	return &PriceRefreshJob{
		client: client,
		repo:   repo,
		logger: log,
	}
}

func (j *PriceRefreshJob) Name() string { return "price_refresh" }

// Schedule runs after the close, once filings are in.
func (j *PriceRefreshJob) Schedule() string { return "30 18 * * MON-FRI" }

func (j *PriceRefreshJob) Run(ctx context.Context) error {
	tickers, err := j.repo.Tickers(ctx)
	if err != nil {
		return fmt.Errorf("list tickers: %w", err)
	}

	to := time.Now()
	from := to.AddDate(0, 0, -7)

	updated := 0
	for _, ticker := range tickers {
		bars, err := j.client.FetchDaily(ctx, ticker, from, to)
		if err != nil {
			j.logger.WithField("ticker", ticker).WithError(err).Warn("Price refresh skipped ticker")
			continue
		}
		if err := j.repo.SaveBatch(ctx, bars); err != nil {
			return fmt.Errorf("save bars for %s: %w", ticker, err)
		}
		updated++
	}

	j.logger.WithFields(map[string]interface{}{
		"tickers": len(tickers),
		"updated": updated,
	}).Info("Price refresh completed")
	return nil
}

// SignalSource produces the latest confirmed signals.
type SignalSource interface {
	Latest(ctx context.Context, asOf time.Time, topN int) ([]signals.Signal, error)
}

// SignalRefreshJob regenerates signals and exports them for consumers.
type SignalRefreshJob struct {
	source  SignalSource
	topN    int
	csvPath string
	logger  *logger.Logger
}

// NewSignalRefreshJob creates the signal refresh job.
func NewSignalRefreshJob(source SignalSource, topN int, csvPath string, log *logger.Logger) *SignalRefreshJob {
	return &SignalRefreshJob{
		source:  source,
		topN:    topN,
		csvPath: csvPath,
		logger:  log,
	}
}

func (j *SignalRefreshJob) Name() string { return "signal_refresh" }

// Schedule runs after both refresh jobs have had time to finish.
func (j *SignalRefreshJob) Schedule() string { return "0 19 * * MON-FRI" }

func (j *SignalRefreshJob) Run(ctx context.Context) error {
	result, err := j.source.Latest(ctx, time.Now(), j.topN)
	if err != nil {
		return fmt.Errorf("generate signals: %w", err)
	}

	if err := signals.Export(result, j.csvPath); err != nil {
		return fmt.Errorf("export signals: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"signals": len(result),
		"path":    j.csvPath,
	}).Info("Signal refresh completed")
	return nil
}
