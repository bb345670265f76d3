package fundamentals

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/insiderlab/quant/internal/signals"
	"github.com/insiderlab/quant/pkg/httputil"
	"github.com/insiderlab/quant/pkg/logger"
)

// Client reads company profiles from the Yahoo Finance quoteSummary API:
// sector, market cap, and the fundamental ratios the signal blend uses.
type Client struct {
	httpClient *httputil.Client
	baseURL    string
	logger     *logger.Logger
}

// NewClient creates a Yahoo Finance client.
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     log.Component("yahoo"),
	}
}

// Profile is the subset of quoteSummary the pipeline needs.
type Profile struct {
	Ticker    string
	Sector    string
	MarketCap float64
	Metrics   signals.Metrics
}

// rawValue mirrors Yahoo's {"raw": 1.23, "fmt": "1.23"} number wrapper.
type rawValue struct {
	Raw *float64 `json:"raw"`
}

func (v rawValue) float() float64 {
	if v.Raw == nil {
		// Absent values drop out of downstream averages.
		return math.NaN()
	}
	return *v.Raw
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector string `json:"sector"`
			} `json:"assetProfile"`
			Price struct {
				MarketCap rawValue `json:"marketCap"`
			} `json:"price"`
			SummaryDetail struct {
				ForwardPE rawValue `json:"forwardPE"`
			} `json:"summaryDetail"`
			DefaultKeyStatistics struct {
				PriceToBook        rawValue `json:"priceToBook"`
				EnterpriseToRev    rawValue `json:"enterpriseToRevenue"`
				EnterpriseToEbitda rawValue `json:"enterpriseToEbitda"`
			} `json:"defaultKeyStatistics"`
			FinancialData struct {
				RevenueGrowth    rawValue `json:"revenueGrowth"`
				EarningsGrowth   rawValue `json:"earningsGrowth"`
				GrossMargins     rawValue `json:"grossMargins"`
				OperatingMargins rawValue `json:"operatingMargins"`
				ReturnOnEquity   rawValue `json:"returnOnEquity"`
				ReturnOnAssets   rawValue `json:"returnOnAssets"`
			} `json:"financialData"`
		} `json:"result"`
		Error *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// Fetch retrieves the full profile for one ticker.
func (c *Client) Fetch(ctx context.Context, ticker string) (Profile, error) {
	body, err := c.httpClient.GetBody(ctx, c.quoteSummaryURL(ticker))
	if err != nil {
		return Profile{}, fmt.Errorf("fetch profile %s: %w", ticker, err)
	}

	profile, err := parseQuoteSummary(ticker, body)
	if err != nil {
		return Profile{}, err
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"sector": profile.Sector,
	}).Debug("Fetched company profile")

	return profile, nil
}

// Sector resolves a ticker's sector name.
func (c *Client) Sector(ctx context.Context, ticker string) (string, error) {
	profile, err := c.Fetch(ctx, ticker)
	if err != nil {
		return "", err
	}
	return profile.Sector, nil
}

// Metrics resolves a ticker's fundamental ratios.
func (c *Client) Metrics(ctx context.Context, ticker string) (signals.Metrics, error) {
	profile, err := c.Fetch(ctx, ticker)
	if err != nil {
		return signals.EmptyMetrics(), err
	}
	return profile.Metrics, nil
}

// MarketCapFunc adapts the client to the scorer's lookup shape. Failures
// read as "no cap known" and drop the filing rather than aborting the run.
func (c *Client) MarketCapFunc(ctx context.Context) func(ticker string) (float64, bool) {
	return func(ticker string) (float64, bool) {
		profile, err := c.Fetch(ctx, ticker)
		if err != nil || !(profile.MarketCap > 0) {
			return 0, false
		}
		return profile.MarketCap, true
	}
}

func (c *Client) quoteSummaryURL(ticker string) string {
	q := url.Values{}
	q.Set("modules", "assetProfile,price,summaryDetail,defaultKeyStatistics,financialData")
	return fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s",
		c.baseURL, url.PathEscape(strings.ToUpper(ticker)), q.Encode())
}

func parseQuoteSummary(ticker string, body []byte) (Profile, error) {
	var resp quoteSummaryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Profile{}, fmt.Errorf("parse profile %s: %w", ticker, err)
	}
	if resp.QuoteSummary.Error != nil {
		return Profile{}, fmt.Errorf("profile %s: %s", ticker, resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return Profile{}, fmt.Errorf("profile %s: empty result", ticker)
	}

	r := resp.QuoteSummary.Result[0]

	metrics := signals.EmptyMetrics()
	metrics.ForwardPE = r.SummaryDetail.ForwardPE.float()
	metrics.PriceToBook = r.DefaultKeyStatistics.PriceToBook.float()
	metrics.EVToRevenue = r.DefaultKeyStatistics.EnterpriseToRev.float()
	metrics.EVToEBITDA = r.DefaultKeyStatistics.EnterpriseToEbitda.float()
	metrics.RevenueGrowth = r.FinancialData.RevenueGrowth.float()
	metrics.EarningsGrowth = r.FinancialData.EarningsGrowth.float()
	metrics.GrossMargin = r.FinancialData.GrossMargins.float()
	metrics.OperatingMargin = r.FinancialData.OperatingMargins.float()
	metrics.ReturnOnEquity = r.FinancialData.ReturnOnEquity.float()
	metrics.ReturnOnAssets = r.FinancialData.ReturnOnAssets.float()

	marketCap := r.Price.MarketCap.float()
	if math.IsNaN(marketCap) {
		marketCap = 0
	}

	return Profile{
		Ticker:    strings.ToUpper(ticker),
		Sector:    r.AssetProfile.Sector,
		MarketCap: marketCap,
		Metrics:   metrics,
	}, nil
}
