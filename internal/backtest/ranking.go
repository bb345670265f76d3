package backtest

import (
	"sort"
	"time"

	"github.com/insiderlab/quant/internal/contracts"
)

// Candidate is one instrument qualifying for entry on a given day.
type Candidate struct {
	Ticker string
	Score  float64
}

// Rank returns the top-N instruments for a day, ordered by score descending
// with ties broken by ticker ascending so that identical inputs always
// produce identical output. An instrument qualifies only if it has both a
// score and a tradable price on that day; lacking either excludes it rather
// than scoring it as zero.
//
// Rank is a pure function of its inputs: no side effects, no I/O.
func Rank(day time.Time, scores contracts.ScoreLookup, prices contracts.PriceLookup, topN int) []Candidate {
	if topN <= 0 {
		return nil
	}

	candidates := make([]Candidate, 0, topN)
	for _, ticker := range scores.Tickers() {
		score, ok := scores.Score(ticker, day)
		if !ok {
			continue
		}
		if _, ok := prices.Price(ticker, day); !ok {
			continue
		}
		candidates = append(candidates, Candidate{Ticker: ticker, Score: score})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Ticker < candidates[j].Ticker
	})

	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates
}
