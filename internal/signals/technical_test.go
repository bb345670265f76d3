package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func risingCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	return closes
}

func fallingCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 300 - float64(i)
	}
	return closes
}

func TestEvaluateTechnical_RequiresHistory(t *testing.T) {
	_, err := EvaluateTechnical(risingCloses(minTechnicalBars - 1))
	assert.Error(t, err)
}

func TestEvaluateTechnical_ConfirmsUptrend(t *testing.T) {
	result, err := EvaluateTechnical(risingCloses(120))
	require.NoError(t, err)

	assert.True(t, result.Confirmed)
	assert.InDelta(t, 1.0, result.Score, 1e-9)
	assert.Greater(t, result.RSI, 30.0)
	assert.Greater(t, result.Close, result.SMA)
	assert.Greater(t, result.MACD, result.MACDSignal)
}

func TestEvaluateTechnical_RejectsDowntrend(t *testing.T) {
	result, err := EvaluateTechnical(fallingCloses(120))
	require.NoError(t, err)

	assert.False(t, result.Confirmed)
	assert.Less(t, result.Score, 1.0)
}
