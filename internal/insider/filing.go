package insider

import "time"

// Filing is one open-market insider purchase as reported on a Form 4.
type Filing struct {
	Ticker      string    `json:"ticker"`
	FilingDate  time.Time `json:"filing_date"`
	TradeDate   time.Time `json:"trade_date"`
	InsiderName string    `json:"insider_name"`
	Title       string    `json:"title"`
	Price       float64   `json:"price"`
	Quantity    int64     `json:"quantity"`
	Value       float64   `json:"value"` // total trade value, USD
	DeltaOwn    float64   `json:"delta_own"` // fractional ownership change
	NewStake    bool      `json:"new_stake"` // ΔOwn reported as "New"

	// NormalizedValue is the trade value scaled by market cap, filled in by
	// the cleaner. Zero until then.
	NormalizedValue float64 `json:"normalized_value,omitempty"`
}
