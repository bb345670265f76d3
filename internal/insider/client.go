package insider

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/insiderlab/quant/internal/contracts"
	"github.com/insiderlab/quant/pkg/httputil"
	"github.com/insiderlab/quant/pkg/logger"
)

// Client scrapes the OpenInsider screener for open-market purchase filings.
type Client struct {
	httpClient *httputil.Client
	baseURL    string
	logger     *logger.Logger
}

// NewClient creates an OpenInsider client.
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     log.Component("openinsider"),
	}
}

// FetchFilings retrieves purchase filings for the past lookbackDays,
// optionally restricted to one ticker (empty means the whole market).
func (c *Client) FetchFilings(ctx context.Context, ticker string, lookbackDays int) ([]Filing, error) {
	body, err := c.httpClient.GetBody(ctx, c.screenerURL(ticker, lookbackDays))
	if err != nil {
		return nil, fmt.Errorf("fetch openinsider screener: %w", err)
	}

	filings, skipped, err := parseScreener(body)
	if err != nil {
		return nil, fmt.Errorf("parse openinsider screener: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker":  ticker,
		"filings": len(filings),
		"skipped": skipped,
	}).Info("Fetched insider filings")

	return filings, nil
}

// screenerURL builds the screener query: purchase-only (xp=1), filed within
// the lookback window, largest first.
func (c *Client) screenerURL(ticker string, lookbackDays int) string {
	q := url.Values{}
	q.Set("s", ticker)
	q.Set("fd", strconv.Itoa(lookbackDays))
	q.Set("td", "0")
	q.Set("xp", "1")
	q.Set("cnt", "1000")
	q.Set("page", "1")
	q.Set("sortcol", "0")
	return c.baseURL + "/screener?" + q.Encode()
}

// parseScreener extracts filings from the screener results table.
func parseScreener(body []byte) (filings []Filing, skipped int, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}

	doc.Find("table.tinytable tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td").Map(func(_ int, cell *goquery.Selection) string {
			return cleanCell(cell.Text())
		})

		filing, ok := parseRow(cells)
		if !ok {
			skipped++
			return
		}
		filings = append(filings, filing)
	})

	return filings, skipped, nil
}

// Screener column order: X, filing date, trade date, ticker, insider name,
// title, trade type, price, qty, owned, ΔOwn, value, then day-return columns.
const (
	colFilingDate = 1
	colTradeDate  = 2
	colTicker     = 3
	colInsider    = 4
	colTitle      = 5
	colTradeType  = 6
	colPrice      = 7
	colQty        = 8
	colDeltaOwn   = 10
	colValue      = 11
)

func parseRow(cells []string) (Filing, bool) {
	if len(cells) <= colValue {
		return Filing{}, false
	}
	if !strings.HasPrefix(cells[colTradeType], "P") {
		// Purchases only; the screener filter should already guarantee this.
		return Filing{}, false
	}

	ticker := strings.ToUpper(strings.TrimSpace(cells[colTicker]))
	if ticker == "" {
		return Filing{}, false
	}

	filingDate, err := parseFilingTimestamp(cells[colFilingDate])
	if err != nil {
		return Filing{}, false
	}
	tradeDate, err := contracts.ParseDay(cells[colTradeDate])
	if err != nil {
		return Filing{}, false
	}

	price, err := parseMoney(cells[colPrice])
	if err != nil {
		return Filing{}, false
	}
	value, err := parseMoney(cells[colValue])
	if err != nil {
		return Filing{}, false
	}
	qty, err := parseCount(cells[colQty])
	if err != nil {
		return Filing{}, false
	}

	deltaOwn, newStake := parseDeltaOwn(cells[colDeltaOwn])

	return Filing{
		Ticker:      ticker,
		FilingDate:  filingDate,
		TradeDate:   tradeDate,
		InsiderName: cells[colInsider],
		Title:       cells[colTitle],
		Price:       price,
		Quantity:    qty,
		Value:       value,
		DeltaOwn:    deltaOwn,
		NewStake:    newStake,
	}, true
}

// cleanCell strips non-breaking spaces the site pads cells with.
func cleanCell(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, " ", " "))
}

func parseFilingTimestamp(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		// Some rows carry the date only.
		return contracts.ParseDay(s)
	}
	return t, nil
}

// parseMoney parses "$1,234.56" style values. Sales render as negative.
func parseMoney(s string) (float64, error) {
	s = strings.NewReplacer("$", "", ",", "", "+", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty money value")
	}
	return strconv.ParseFloat(s, 64)
}

func parseCount(s string) (int64, error) {
	s = strings.NewReplacer(",", "", "+", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty count")
	}
	return strconv.ParseInt(s, 10, 64)
}

// parseDeltaOwn parses the ΔOwn column: "12%", ">999%", or "New". The site
// caps reported growth at 999%, which we widen to 1000%.
func parseDeltaOwn(s string) (delta float64, newStake bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "New") {
		return 0, true
	}
	if strings.HasPrefix(s, ">999") {
		return 10.0, false
	}

	s = strings.TrimSuffix(strings.TrimPrefix(s, "+"), "%")
	pct, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(pct) {
		return 0, false
	}
	return pct / 100, false
}
