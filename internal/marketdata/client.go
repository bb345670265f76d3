package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/insiderlab/quant/internal/contracts"
	"github.com/insiderlab/quant/pkg/httputil"
	"github.com/insiderlab/quant/pkg/logger"
)

// Client downloads daily bars from the Stooq CSV endpoint.
type Client struct {
	httpClient *httputil.Client
	baseURL    string
	suffix     string
	logger     *logger.Logger
}

// NewClient creates a Stooq client. suffix is the exchange suffix Stooq
// expects on symbols, ".us" for US listings.
func NewClient(httpClient *httputil.Client, baseURL, suffix string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		suffix:     suffix,
		logger:     log.Component("stooq"),
	}
}

// stooqRow mirrors the CSV layout Stooq serves: Date,Open,High,Low,Close,Volume.
type stooqRow struct {
	Date   string  `csv:"Date"`
	Open   float64 `csv:"Open"`
	High   float64 `csv:"High"`
	Low    float64 `csv:"Low"`
	Close  float64 `csv:"Close"`
	Volume int64   `csv:"Volume"`
}

// FetchDaily retrieves daily bars for one ticker over [from, to], ascending
// by day. Rows with a non-positive close are dropped.
func (c *Client) FetchDaily(ctx context.Context, ticker string, from, to time.Time) ([]Bar, error) {
	body, err := c.httpClient.GetBody(ctx, c.dailyURL(ticker, from, to))
	if err != nil {
		return nil, fmt.Errorf("fetch stooq daily %s: %w", ticker, err)
	}

	bars, skipped, err := parseDailyCSV(ticker, body)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker":  ticker,
		"bars":    len(bars),
		"skipped": skipped,
	}).Debug("Fetched daily bars")

	return bars, nil
}

// parseDailyCSV parses the Stooq daily CSV body for one ticker.
func parseDailyCSV(ticker string, body []byte) (bars []Bar, skipped int, err error) {
	// Stooq answers unknown symbols with 200 and a plain text message.
	if !strings.HasPrefix(string(body), "Date,") {
		return nil, 0, fmt.Errorf("no price data for %s", ticker)
	}

	var rows []stooqRow
	if err := gocsv.UnmarshalBytes(body, &rows); err != nil {
		return nil, 0, fmt.Errorf("parse stooq csv for %s: %w", ticker, err)
	}

	bars = make([]Bar, 0, len(rows))
	for _, row := range rows {
		day, err := contracts.ParseDay(row.Date)
		if err != nil || row.Close <= 0 {
			skipped++
			continue
		}
		bars = append(bars, Bar{
			Ticker: strings.ToUpper(ticker),
			Day:    day,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}
	return bars, skipped, nil
}

// dailyURL builds the CSV download URL, e.g.
// /q/d/l/?s=aapl.us&d1=20240101&d2=20240301&i=d.
func (c *Client) dailyURL(ticker string, from, to time.Time) string {
	q := url.Values{}
	q.Set("s", strings.ToLower(ticker)+c.suffix)
	q.Set("d1", from.Format("20060102"))
	q.Set("d2", to.Format("20060102"))
	q.Set("i", "d")
	return c.baseURL + "/q/d/l/?" + q.Encode()
}
