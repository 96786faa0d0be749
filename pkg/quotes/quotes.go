// Package quotes talks to the upstream quote provider. The stock endpoint is
// batched and fails as a whole; the option endpoint is per-contract and
// fails per call.
package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alim08/price_cache/pkg/logger"
	"github.com/alim08/price_cache/pkg/metrics"
	"github.com/alim08/price_cache/pkg/models"
)

// ErrNotFound marks an option contract the provider has no premium for.
// Callers treat it as "absent", not as a failure.
var ErrNotFound = errors.New("quote not found")

// StockQuote is one symbol's slice of a batch response.
type StockQuote struct {
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

// Source is the upstream quote provider as the refresh coordinator sees it.
type Source interface {
	// BatchStockQuotes returns quotes keyed by uppercase symbol. An error
	// means the whole batch failed; no partial results are returned.
	BatchStockQuotes(ctx context.Context, symbols []string) (map[string]StockQuote, error)
	// OptionPremium returns the premium for one contract. ErrNotFound means
	// the provider knows no premium for the key.
	OptionPremium(ctx context.Context, key models.OptionKey) (float64, error)
}

// Client is the HTTP implementation of Source.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a Client with pooled connections and a hard per-request
// timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}
}

// BatchStockQuotes issues one GET for the whole symbol set.
func (c *Client) BatchStockQuotes(ctx context.Context, symbols []string) (map[string]StockQuote, error) {
	if len(symbols) == 0 {
		return map[string]StockQuote{}, nil
	}

	q := url.Values{}
	q.Set("symbols", strings.Join(symbols, ","))

	var payload map[string]StockQuote
	if err := c.getJSON(ctx, "batch_quotes", "/v1/quotes", q, &payload); err != nil {
		return nil, fmt.Errorf("batch stock quotes: %w", err)
	}

	quotes := make(map[string]StockQuote, len(payload))
	for sym, quote := range payload {
		quotes[strings.ToUpper(sym)] = quote
	}
	return quotes, nil
}

// OptionPremium fetches one contract's premium. A 404 maps to ErrNotFound.
func (c *Client) OptionPremium(ctx context.Context, key models.OptionKey) (float64, error) {
	q := url.Values{}
	q.Set("symbol", key.Symbol)
	q.Set("expiration", key.Expiration.Format(models.ExpirationFormat))
	q.Set("strike", key.Strike.String())
	q.Set("type", string(key.Type))

	var payload struct {
		Price *float64 `json:"price"`
	}
	if err := c.getJSON(ctx, "option_premium", "/v1/options/premium", q, &payload); err != nil {
		return 0, fmt.Errorf("option premium %s: %w", key, err)
	}
	if payload.Price == nil {
		return 0, fmt.Errorf("option premium %s: %w", key, ErrNotFound)
	}
	return *payload.Price, nil
}

// getJSON performs one GET and decodes the body. No retries here: the
// coordinator's trigger owns the retry cadence.
func (c *Client) getJSON(ctx context.Context, operation, path string, query url.Values, out interface{}) error {
	start := time.Now()
	status := "success"
	defer func() {
		metrics.UpstreamRequestDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		status = "error"
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		status = "error"
		metrics.UpstreamErrors.WithLabelValues(operation).Inc()
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		status = "not_found"
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		status = "error"
		metrics.UpstreamErrors.WithLabelValues(operation).Inc()
		logger.Log.Warn("non-200 from quote provider",
			zap.String("operation", operation), zap.Int("code", resp.StatusCode))
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		status = "error"
		metrics.UpstreamErrors.WithLabelValues(operation).Inc()
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
