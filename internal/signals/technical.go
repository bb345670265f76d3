package signals

import (
	"fmt"

	talib "github.com/markcheno/go-talib"
)

const (
	rsiPeriod  = 14
	smaPeriod  = 20
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9

	// Slow EMA plus signal warmup. Below this the indicators are all padding.
	minTechnicalBars = 35
)

// TechnicalResult holds the indicator snapshot for the latest bar.
type TechnicalResult struct {
	Close      float64
	RSI        float64
	SMA        float64
	MACD       float64
	MACDSignal float64

	// Score is the fraction of checks that passed: RSI above 30, close above
	// the 20-day SMA, MACD above its signal line.
	Score     float64
	Confirmed bool
}

// EvaluateTechnical computes the confirmation score from a close series,
// ascending by day. The caller supplies enough history for the indicators
// to warm up.
func EvaluateTechnical(closes []float64) (TechnicalResult, error) {
	if len(closes) < minTechnicalBars {
		return TechnicalResult{}, fmt.Errorf("need at least %d bars, got %d", minTechnicalBars, len(closes))
	}

	idx := len(closes) - 1
	rsi := talib.Rsi(closes, rsiPeriod)
	sma := talib.Sma(closes, smaPeriod)
	macd, signal, _ := talib.Macd(closes, macdFast, macdSlow, macdSignal)

	result := TechnicalResult{
		Close:      closes[idx],
		RSI:        rsi[idx],
		SMA:        sma[idx],
		MACD:       macd[idx],
		MACDSignal: signal[idx],
	}

	checks := 0
	if result.RSI > 30 {
		checks++
	}
	if result.Close > result.SMA {
		checks++
	}
	if result.MACD > result.MACDSignal {
		checks++
	}

	result.Score = float64(checks) / 3.0
	result.Confirmed = checks == 3
	return result, nil
}
