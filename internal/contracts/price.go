package contracts

import (
	"sort"
	"time"
)

// PriceLookup is the read interface the backtest engine requires from a
// market data feed.
type PriceLookup interface {
	Price(ticker string, day time.Time) (float64, bool)
}

// PricePoint is one daily close for an instrument.
type PricePoint struct {
	Day   time.Time `json:"day"`
	Close float64   `json:"close"`
}

// PriceSeries holds the daily closes of one instrument, ascending by day,
// one entry per trading day the instrument actually traded. Gaps are simply
// absent.
type PriceSeries struct {
	Ticker string
	points []PricePoint
	byDay  map[time.Time]float64
}

// NewPriceSeries builds a series from unordered points. Days are normalized
// and duplicates collapse to the last value seen.
func NewPriceSeries(ticker string, points []PricePoint) *PriceSeries {
	byDay := make(map[time.Time]float64, len(points))
	for _, p := range points {
		byDay[Day(p.Day)] = p.Close
	}

	sorted := make([]PricePoint, 0, len(byDay))
	for day, close := range byDay {
		sorted = append(sorted, PricePoint{Day: day, Close: close})
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Day.Before(sorted[j].Day)
	})

	return &PriceSeries{Ticker: ticker, points: sorted, byDay: byDay}
}

// Price returns the close for an exact trading day.
func (s *PriceSeries) Price(day time.Time) (float64, bool) {
	close, ok := s.byDay[Day(day)]
	return close, ok
}

// LastOnOrBefore returns the most recent price point at or before day.
// Used for mark-to-market over gaps and end-of-run force closes.
func (s *PriceSeries) LastOnOrBefore(day time.Time) (PricePoint, bool) {
	day = Day(day)
	idx := sort.Search(len(s.points), func(i int) bool {
		return s.points[i].Day.After(day)
	})
	if idx == 0 {
		return PricePoint{}, false
	}
	return s.points[idx-1], true
}

// Days returns the instrument's trading calendar in ascending order.
func (s *PriceSeries) Days() []time.Time {
	days := make([]time.Time, len(s.points))
	for i, p := range s.points {
		days[i] = p.Day
	}
	return days
}

// Len returns the number of trading days in the series.
func (s *PriceSeries) Len() int {
	return len(s.points)
}

// PriceBook holds the price series of every instrument in a run. Like
// ScoreMap it is immutable once the simulation starts.
type PriceBook struct {
	series map[string]*PriceSeries
}

// NewPriceBook creates an empty price book.
func NewPriceBook() *PriceBook {
	return &PriceBook{series: make(map[string]*PriceSeries)}
}

// Add registers a series, replacing any previous series for the ticker.
func (b *PriceBook) Add(s *PriceSeries) {
	b.series[s.Ticker] = s
}

// Series returns the series for a ticker.
func (b *PriceBook) Series(ticker string) (*PriceSeries, bool) {
	s, ok := b.series[ticker]
	return s, ok
}

// Price returns the close for a ticker on an exact trading day.
func (b *PriceBook) Price(ticker string, day time.Time) (float64, bool) {
	s, ok := b.series[ticker]
	if !ok {
		return 0, false
	}
	return s.Price(day)
}

// Tickers returns all tickers in ascending order.
func (b *PriceBook) Tickers() []string {
	tickers := make([]string, 0, len(b.series))
	for t := range b.series {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

// Len returns the number of instruments in the book.
func (b *PriceBook) Len() int {
	return len(b.series)
}

// UnionCalendar returns every day in [from, to] on which at least one
// instrument traded, ascending. The simulation clock iterates this union;
// per-instrument gaps are handled inside the day, not by skipping it.
func (b *PriceBook) UnionCalendar(from, to time.Time) []time.Time {
	from, to = Day(from), Day(to)
	seen := make(map[time.Time]struct{})
	for _, s := range b.series {
		for _, day := range s.Days() {
			if day.Before(from) || day.After(to) {
				continue
			}
			seen[day] = struct{}{}
		}
	}

	days := make([]time.Time, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}
