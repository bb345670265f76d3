package marketdata

import "time"

// Bar is one daily OHLCV record for a ticker.
type Bar struct {
	Ticker string    `json:"ticker"`
	Day    time.Time `json:"day"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}
