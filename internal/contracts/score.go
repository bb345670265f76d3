package contracts

import (
	"sort"
	"time"
)

// ScoreLookup is the read interface the backtest engine requires from a
// score provider. Absence of a score is a normal condition, not an error.
type ScoreLookup interface {
	Score(ticker string, day time.Time) (float64, bool)
	Tickers() []string
}

// ScoreMap maps ticker -> day -> ranking score. It is built once before a
// simulation starts and is read-only afterwards, so it can be shared across
// concurrent runs.
type ScoreMap struct {
	scores map[string]map[time.Time]float64
}

// NewScoreMap creates an empty score map.
func NewScoreMap() *ScoreMap {
	return &ScoreMap{scores: make(map[string]map[time.Time]float64)}
}

// Add accumulates a score for a ticker on a day. Multiple filings for the
// same ticker and day sum into one signal.
func (m *ScoreMap) Add(ticker string, day time.Time, score float64) {
	day = Day(day)
	if _, ok := m.scores[ticker]; !ok {
		m.scores[ticker] = make(map[time.Time]float64)
	}
	m.scores[ticker][day] += score
}

// Score returns the score for a ticker on a day. The second return value is
// false when no signal exists for that day.
func (m *ScoreMap) Score(ticker string, day time.Time) (float64, bool) {
	byDay, ok := m.scores[ticker]
	if !ok {
		return 0, false
	}
	score, ok := byDay[Day(day)]
	return score, ok
}

// Tickers returns all tickers in ascending order, for deterministic iteration.
func (m *ScoreMap) Tickers() []string {
	tickers := make([]string, 0, len(m.scores))
	for t := range m.scores {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

// Len returns the number of tickers carrying at least one score.
func (m *ScoreMap) Len() int {
	return len(m.scores)
}
