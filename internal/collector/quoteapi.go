package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// QuoteAPIFetcher implements PriceSource against a plain REST quote service
// exposing GET /api/v1/quote?symbol=S -> {"price": 123.4}.
type QuoteAPIFetcher struct {
	client  *resty.Client
	baseURL string
}

// NewQuoteAPIFetcher creates a fetcher with optional bearer key and proxy.
func NewQuoteAPIFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration) *QuoteAPIFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &QuoteAPIFetcher{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (f *QuoteAPIFetcher) Name() string { return "quote_api" }

func (f *QuoteAPIFetcher) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	var result struct {
		Price *float64 `json:"price"`
	}
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", strings.ToUpper(symbol)).
		SetResult(&result).
		Get(f.baseURL + "/api/v1/quote")
	if err != nil {
		return 0, fmt.Errorf("fetch current price: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("fetch current price: status %d", resp.StatusCode())
	}
	if result.Price == nil || *result.Price <= 0 {
		return 0, fmt.Errorf("quote api %s: %w", symbol, ErrUnavailable)
	}
	return *result.Price, nil
}
