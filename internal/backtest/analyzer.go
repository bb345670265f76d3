package backtest

import (
	"math"

	"github.com/insiderlab/quant/internal/contracts"
)

// tradingDaysPerYear is the annualization basis for returns and Sharpe.
const tradingDaysPerYear = 252

// Analyze computes the final report from the recorded equity curve and
// trade list. It is a pure function over its inputs, independent of the
// engine that produced them.
func Analyze(runID string, cfg Config, curve []contracts.EquityPoint, trades []contracts.TradeRecord, warnings []string, deferredExits, forcedCloses int) *contracts.BacktestReport {
	report := &contracts.BacktestReport{
		RunID:         runID,
		InitialCash:   cfg.InitialCash,
		FinalValue:    cfg.InitialCash,
		TradingDays:   len(curve),
		DeferredExits: deferredExits,
		ForcedCloses:  forcedCloses,
		Warnings:      warnings,
		EquityCurve:   curve,
		Trades:        trades,
	}

	if len(curve) > 0 {
		report.StartDay = curve[0].Day
		report.EndDay = curve[len(curve)-1].Day
		report.FinalValue = curve[len(curve)-1].Value
	}

	report.TotalReturn = report.FinalValue/report.InitialCash - 1
	report.AnnualReturn = annualizeReturn(report.TotalReturn, len(curve))
	report.Sharpe = sharpeRatio(dailyReturns(curve))
	report.MaxDrawdown = maxDrawdown(curve)

	for _, trade := range trades {
		report.TotalTrades++
		report.TotalCommission += trade.Commission
		if trade.PnL > 0 {
			report.WinningTrades++
		} else if trade.PnL < 0 {
			report.LosingTrades++
		}
	}
	if report.TotalTrades > 0 {
		report.WinRate = float64(report.WinningTrades) / float64(report.TotalTrades)
	}

	return report
}

// annualizeReturn compounds a total return over n trading days to a
// 252-day-year basis.
func annualizeReturn(totalReturn float64, tradingDays int) float64 {
	if tradingDays == 0 || totalReturn <= -1 {
		return 0
	}
	return math.Pow(1+totalReturn, tradingDaysPerYear/float64(tradingDays)) - 1
}

// dailyReturns derives simple daily returns from the equity curve.
func dailyReturns(curve []contracts.EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Value
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, curve[i].Value/prev-1)
	}
	return returns
}

// sharpeRatio returns mean/stdev * sqrt(252) over daily returns, or nil
// when the ratio is undefined: fewer than two observations or zero
// variance. Undefined is reported as-is, never substituted with zero.
func sharpeRatio(returns []float64) *float64 {
	if len(returns) < 2 {
		return nil
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		diff := r - mean
		variance += diff * diff
	}
	variance /= float64(len(returns))

	stdev := math.Sqrt(variance)
	if stdev == 0 {
		return nil
	}

	sharpe := mean / stdev * math.Sqrt(tradingDaysPerYear)
	return &sharpe
}

// maxDrawdown returns the maximum peak-to-trough decline of the curve as a
// fraction of the peak value.
func maxDrawdown(curve []contracts.EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}

	maxDD := 0.0
	peak := curve[0].Value

	for _, point := range curve {
		if point.Value > peak {
			peak = point.Value
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - point.Value) / peak
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
