package signals

import "math"

// Metrics carries the fundamental ratios for one company. Absent values are
// NaN and drop out of the averages rather than dragging them to zero.
type Metrics struct {
	ForwardPE  float64
	PriceToBook float64
	EVToRevenue float64
	EVToEBITDA  float64

	RevenueGrowth  float64
	EarningsGrowth float64

	GrossMargin     float64
	OperatingMargin float64
	ReturnOnEquity  float64
	ReturnOnAssets  float64
}

// EmptyMetrics returns a Metrics with every value absent. Providers start
// from this and fill in what they know.
func EmptyMetrics() Metrics {
	nan := math.NaN()
	return Metrics{
		ForwardPE:       nan,
		PriceToBook:     nan,
		EVToRevenue:     nan,
		EVToEBITDA:      nan,
		RevenueGrowth:   nan,
		EarningsGrowth:  nan,
		GrossMargin:     nan,
		OperatingMargin: nan,
		ReturnOnEquity:  nan,
		ReturnOnAssets:  nan,
	}
}

// Weights blends the insider signal with the fundamental components.
type Weights struct {
	Insider       float64
	Valuation     float64
	Growth        float64
	Profitability float64
}

// DefaultWeights leans on the insider signal with fundamentals as a check.
func DefaultWeights() Weights {
	return Weights{
		Insider:       0.4,
		Valuation:     0.2,
		Growth:        0.2,
		Profitability: 0.2,
	}
}

// ValuationScore averages the valuation multiples, negated so that cheaper
// is higher. NaN when every input is missing is reported as zero.
func (m Metrics) ValuationScore() float64 {
	return nanMean(-m.ForwardPE, -m.PriceToBook, -m.EVToRevenue, -m.EVToEBITDA)
}

// GrowthScore averages revenue and earnings growth.
func (m Metrics) GrowthScore() float64 {
	return nanMean(m.RevenueGrowth, m.EarningsGrowth)
}

// ProfitabilityScore averages the margin and return ratios.
func (m Metrics) ProfitabilityScore() float64 {
	return nanMean(m.GrossMargin, m.OperatingMargin, m.ReturnOnEquity, m.ReturnOnAssets)
}

// Confidence blends the insider score with the fundamental components.
func (m Metrics) Confidence(insiderScore float64, w Weights) float64 {
	return w.Insider*insiderScore +
		w.Valuation*m.ValuationScore() +
		w.Growth*m.GrowthScore() +
		w.Profitability*m.ProfitabilityScore()
}

// nanMean averages the non-NaN values, zero when none remain.
func nanMean(values ...float64) float64 {
	sum, n := 0.0, 0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
