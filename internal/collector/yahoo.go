package collector

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultYahooChartURL  = "https://query1.finance.yahoo.com"
	DefaultYahooSearchURL = "https://query2.finance.yahoo.com"
	DefaultUserAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// YahooOptions configures a YahooClient. Zero values fall back to defaults.
type YahooOptions struct {
	ChartURL  string
	SearchURL string
	UserAgent string
	Proxy     string
	Timeout   time.Duration
}

// YahooClient implements PriceSource and SymbolResolver using the public
// Yahoo Finance chart and search endpoints.
type YahooClient struct {
	client    *resty.Client
	chartURL  string
	searchURL string
	SymbolMap map[string]string // maps user-facing aliases to Yahoo tickers
}

// NewYahooClient creates a Yahoo Finance client.
func NewYahooClient(opts YahooOptions) *YahooClient {
	if opts.ChartURL == "" {
		opts.ChartURL = DefaultYahooChartURL
	}
	if opts.SearchURL == "" {
		opts.SearchURL = DefaultYahooSearchURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "application/json")
	if opts.Proxy != "" {
		client.SetProxy(opts.Proxy)
	}

	return &YahooClient{
		client:    client,
		chartURL:  strings.TrimRight(opts.ChartURL, "/"),
		searchURL: strings.TrimRight(opts.SearchURL, "/"),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (y *YahooClient) Name() string { return "yahoo" }

func (y *YahooClient) yahooSymbol(symbol string) string {
	symbol = strings.ToUpper(symbol)
	if mapped, ok := y.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the subset of the chart API response carrying the live price.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string   `json:"symbol"`
				Currency           string   `json:"currency"`
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchPrice returns the regular market price for symbol.
func (y *YahooClient) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	ticker := y.yahooSymbol(symbol)
	slog.Debug("fetching yahoo price", slog.String("symbol", ticker))

	var chart yahooChart
	resp, err := y.client.R().
		SetContext(ctx).
		SetPathParam("symbol", ticker).
		SetQueryParams(map[string]string{"interval": "1m", "range": "1d"}).
		SetResult(&chart).
		Get(y.chartURL + "/v8/finance/chart/{symbol}")
	if err != nil {
		return 0, fmt.Errorf("yahoo fetch: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	if chart.Chart.Error != nil {
		return 0, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return 0, fmt.Errorf("yahoo %s: no result: %w", ticker, ErrUnavailable)
	}

	p := chart.Chart.Result[0].Meta.RegularMarketPrice
	if p == nil || *p <= 0 || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return 0, fmt.Errorf("yahoo %s: %w", ticker, ErrUnavailable)
	}
	return *p, nil
}

type yahooSearch struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
	} `json:"quotes"`
}

// ResolveSymbol looks up query with the autocomplete endpoint and returns the
// first quote's symbol, uppercased.
func (y *YahooClient) ResolveSymbol(ctx context.Context, query string) (string, error) {
	var res yahooSearch
	resp, err := y.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":            query,
			"quotes_count": "1",
			"news_count":   "0",
		}).
		SetResult(&res).
		Get(y.searchURL + "/v1/finance/search")
	if err != nil {
		return "", fmt.Errorf("yahoo search: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("yahoo search: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	if len(res.Quotes) == 0 || strings.TrimSpace(res.Quotes[0].Symbol) == "" {
		return "", fmt.Errorf("%q: %w", query, ErrNotFound)
	}

	symbol := strings.ToUpper(strings.TrimSpace(res.Quotes[0].Symbol))
	slog.Debug("resolved symbol", slog.String("query", query), slog.String("symbol", symbol))
	return symbol, nil
}
