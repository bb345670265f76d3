package signals

import (
	"context"
	"fmt"
	"time"

	talib "github.com/markcheno/go-talib"

	"github.com/insiderlab/quant/internal/marketdata"
	"github.com/insiderlab/quant/pkg/logger"
)

const sectorSMAPeriod = 50

// sectorETFs maps a company's sector to the SPDR fund tracking it. Sector
// momentum is read off the fund rather than rebuilt from constituents.
var sectorETFs = map[string]string{
	"Communication Services": "XLC",
	"Consumer Cyclical":      "XLY",
	"Consumer Defensive":     "XLP",
	"Energy":                 "XLE",
	"Financial Services":     "XLF",
	"Health Care":            "XLV",
	"Industrials":            "XLI",
	"Technology":             "XLK",
	"Materials":              "XLB",
	"Real Estate":            "XLRE",
	"Utilities":              "XLU",
}

// SectorETF returns the proxy ETF for a sector name.
func SectorETF(sector string) (string, bool) {
	etf, ok := sectorETFs[sector]
	return etf, ok
}

// SectorAnalyzer decides whether a sector is trending up, using its proxy
// ETF's close against a 50-day SMA.
type SectorAnalyzer struct {
	fetcher marketdata.BarFetcher
	logger  *logger.Logger
}

// NewSectorAnalyzer creates a sector analyzer.
func NewSectorAnalyzer(fetcher marketdata.BarFetcher, log *logger.Logger) *SectorAnalyzer {
	return &SectorAnalyzer{
		fetcher: fetcher,
		logger:  log.Component("sector"),
	}
}

// Uptrend reports whether the sector's ETF closed above its 50-day SMA as
// of asOf. Unknown sectors are not an error, just not an uptrend.
func (a *SectorAnalyzer) Uptrend(ctx context.Context, sector string, asOf time.Time) (bool, error) {
	etf, ok := SectorETF(sector)
	if !ok {
		return false, nil
	}

	// Roughly three months of calendar days yields 60+ trading days.
	bars, err := a.fetcher.FetchDaily(ctx, etf, asOf.AddDate(0, -4, 0), asOf)
	if err != nil {
		return false, fmt.Errorf("fetch sector etf %s: %w", etf, err)
	}
	if len(bars) < sectorSMAPeriod {
		return false, fmt.Errorf("sector etf %s has %d bars, need %d", etf, len(bars), sectorSMAPeriod)
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	sma := talib.Sma(closes, sectorSMAPeriod)
	idx := len(closes) - 1
	up := closes[idx] > sma[idx]

	a.logger.WithFields(map[string]interface{}{
		"sector": sector,
		"etf":    etf,
		"close":  closes[idx],
		"sma50":  sma[idx],
		"uptrend": up,
	}).Debug("Evaluated sector trend")

	return up, nil
}
