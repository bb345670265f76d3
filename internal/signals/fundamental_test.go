package signals

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNanMean(t *testing.T) {
	nan := math.NaN()

	assert.InDelta(t, 2.0, nanMean(1, 3), 1e-9)
	assert.InDelta(t, 3.0, nanMean(nan, 3), 1e-9)
	assert.InDelta(t, 0.0, nanMean(nan, nan), 1e-9)
	assert.InDelta(t, 0.0, nanMean(), 1e-9)
}

func TestMetrics_ValuationScoreNegatesMultiples(t *testing.T) {
	m := EmptyMetrics()
	m.ForwardPE = 20
	m.PriceToBook = 4

	// Cheaper is higher, so the score is the negated mean.
	assert.InDelta(t, -12.0, m.ValuationScore(), 1e-9)
}

func TestMetrics_ComponentScoresIgnoreAbsentValues(t *testing.T) {
	m := EmptyMetrics()
	m.RevenueGrowth = 0.2

	assert.InDelta(t, 0.2, m.GrowthScore(), 1e-9)
	assert.InDelta(t, 0.0, m.ProfitabilityScore(), 1e-9)
}

func TestMetrics_Confidence(t *testing.T) {
	m := EmptyMetrics()
	m.RevenueGrowth = 0.5
	m.GrossMargin = 0.3

	got := m.Confidence(2.0, DefaultWeights())
	want := 0.4*2.0 + 0.2*0 + 0.2*0.5 + 0.2*0.3
	assert.InDelta(t, want, got, 1e-9)
}

func TestMetrics_ConfidenceWithAllAbsentLeansOnInsider(t *testing.T) {
	got := EmptyMetrics().Confidence(1.5, DefaultWeights())
	assert.InDelta(t, 0.6, got, 1e-9)
}
