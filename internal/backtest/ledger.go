package backtest

import (
	"fmt"
	"sort"
	"time"

	"github.com/insiderlab/quant/internal/contracts"
)

// Ledger tracks open positions and closed trades for one run. It enforces
// the single-position invariant: at most one open position per instrument.
// Exit and entry passes run once per simulated day, exits first, so that
// cash and slots freed by exits are available to the same day's entries.
type Ledger struct {
	open   map[string]*contracts.Position
	trades []contracts.TradeRecord
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{open: make(map[string]*contracts.Position)}
}

// HasOpen reports whether an instrument currently holds an open position.
func (l *Ledger) HasOpen(ticker string) bool {
	_, ok := l.open[ticker]
	return ok
}

// OpenCount returns the number of open positions.
func (l *Ledger) OpenCount() int {
	return len(l.open)
}

// OpenPositions returns open positions ordered by ticker, for deterministic
// iteration.
func (l *Ledger) OpenPositions() []*contracts.Position {
	tickers := make([]string, 0, len(l.open))
	for t := range l.open {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	positions := make([]*contracts.Position, len(tickers))
	for i, t := range tickers {
		positions[i] = l.open[t]
	}
	return positions
}

// Trades returns every trade recorded so far, in close order.
func (l *Ledger) Trades() []contracts.TradeRecord {
	return l.trades
}

// ExitPass closes every open position whose planned exit day has been
// reached and which has a tradable price today. Positions due but without a
// price are deferred to the next day with a price; the deferral is reported,
// never silently dropped.
func (l *Ledger) ExitPass(day time.Time, prices *contracts.PriceBook, broker *Broker) (closed []contracts.TradeRecord, warnings []string) {
	for _, pos := range l.OpenPositions() {
		if !pos.ExitDue(day) {
			continue
		}

		price, ok := prices.Price(pos.Ticker, day)
		if !ok {
			pos.Deferrals++
			warnings = append(warnings, fmt.Sprintf(
				"exit for %s deferred on %s: no price", pos.Ticker, contracts.FormatDay(day)))
			continue
		}

		trade, err := broker.Close(pos, day, price, false)
		if err != nil {
			pos.Deferrals++
			warnings = append(warnings, fmt.Sprintf(
				"exit for %s deferred on %s: %v", pos.Ticker, contracts.FormatDay(day), err))
			continue
		}

		delete(l.open, pos.Ticker)
		l.trades = append(l.trades, trade)
		closed = append(closed, trade)
	}
	return closed, warnings
}

// EntryPass opens positions for today's ranked candidates. Candidates whose
// instrument already holds an open position are skipped without comment;
// candidates the broker rejects (bad price, zero quantity) are skipped with
// a warning. At most len(candidates) <= top-N entries can open.
func (l *Ledger) EntryPass(day time.Time, candidates []Candidate, prices *contracts.PriceBook, broker *Broker, cfg Config) (opened []*contracts.Position, warnings []string) {
	for _, cand := range candidates {
		if l.HasOpen(cand.Ticker) {
			continue
		}

		price, ok := prices.Price(cand.Ticker, day)
		if !ok {
			// Rank already required a price today; a miss here means the
			// books disagree, which is worth surfacing.
			warnings = append(warnings, fmt.Sprintf(
				"entry for %s skipped on %s: no price", cand.Ticker, contracts.FormatDay(day)))
			continue
		}

		qty := QuantityFor(cfg, price)
		if qty <= 0 {
			warnings = append(warnings, fmt.Sprintf(
				"entry for %s skipped on %s: sizing yields no shares at price %.2f",
				cand.Ticker, contracts.FormatDay(day), price))
			continue
		}

		pos, err := broker.Open(cand.Ticker, day, price, qty, cfg.HoldDays)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf(
				"entry for %s skipped on %s: %v", cand.Ticker, contracts.FormatDay(day), err))
			continue
		}

		l.open[cand.Ticker] = pos
		opened = append(opened, pos)
	}
	return opened, warnings
}

// ForceCloseAll closes every remaining open position at its last known price
// on or before day. Used at the end of the run for exits that never found a
// price, and for positions still inside their holding period when the date
// range ends.
func (l *Ledger) ForceCloseAll(day time.Time, prices *contracts.PriceBook, broker *Broker) (closed []contracts.TradeRecord, warnings []string) {
	for _, pos := range l.OpenPositions() {
		series, ok := prices.Series(pos.Ticker)
		if !ok {
			warnings = append(warnings, fmt.Sprintf(
				"force close for %s failed: no price series", pos.Ticker))
			continue
		}

		last, ok := series.LastOnOrBefore(day)
		if !ok {
			warnings = append(warnings, fmt.Sprintf(
				"force close for %s failed: no price on or before %s", pos.Ticker, contracts.FormatDay(day)))
			continue
		}

		trade, err := broker.Close(pos, day, last.Close, true)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("force close for %s failed: %v", pos.Ticker, err))
			continue
		}

		delete(l.open, pos.Ticker)
		l.trades = append(l.trades, trade)
		closed = append(closed, trade)
	}
	return closed, warnings
}

// MarketValue values all open positions at their last known price on or
// before day. Instruments with no price history yet contribute their entry
// valuation, which cannot happen in practice because entry requires a price.
func (l *Ledger) MarketValue(day time.Time, prices *contracts.PriceBook) float64 {
	total := 0.0
	for _, pos := range l.open {
		if series, ok := prices.Series(pos.Ticker); ok {
			if last, ok := series.LastOnOrBefore(day); ok {
				total += pos.MarketValue(last.Close)
				continue
			}
		}
		total += pos.MarketValue(pos.EntryPrice)
	}
	return total
}
