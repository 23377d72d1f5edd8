// Package moex provides a client for the Moscow Exchange ISS API.
// Only the TQBR shares board is queried; that is where the tickers this
// service tracks are listed.
package moex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"portfel/internal/logger"
	"portfel/internal/metrics"
)

// ErrNotFound means the board has no data for the requested ticker.
var ErrNotFound = errors.New("ticker not found")

// Quote is the security name and last trade price for one ticker.
type Quote struct {
	Ticker string          `json:"ticker"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

// Client fetches quotes from the MOEX ISS API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a MOEX ISS client. baseURL defaults to the public API.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://iss.moex.com"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// block is one ISS data block: column names plus rows of untyped values.
type block struct {
	Columns []string `json:"columns"`
	Data    [][]any  `json:"data"`
}

// securityResponse is the ISS payload for a single security on a board.
type securityResponse struct {
	Securities block `json:"securities"`
	Marketdata block `json:"marketdata"`
}

// Quote returns the security name and last price for a ticker.
// The ticker must already be upper-cased by the caller.
func (c *Client) Quote(ctx context.Context, ticker string) (quote *Quote, err error) {
	defer func(started time.Time) {
		metrics.RecordGatewayRequest("moex", time.Since(started), err)
	}(time.Now())

	url := fmt.Sprintf("%s/iss/engines/stock/markets/shares/boards/TQBR/securities/%s.json?iss.meta=off&lang=ru", c.baseURL, ticker)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("moex request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("moex returned status %d", resp.StatusCode)
	}

	var payload securityResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode moex response: %w", err)
	}

	name, err := payload.Securities.stringField("SECNAME")
	if err != nil {
		logger.Log.Debug("moex securities block empty", zap.String("ticker", ticker))
		return nil, ErrNotFound
	}

	price, err := payload.Marketdata.decimalField("LAST")
	if err != nil {
		return nil, fmt.Errorf("no price for %s: %w", ticker, err)
	}

	return &Quote{Ticker: ticker, Name: name, Price: price}, nil
}

// stringField resolves a column by name in the first data row.
func (b *block) stringField(column string) (string, error) {
	v, err := b.field(column)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("column %s is not a string", column)
	}
	return s, nil
}

// decimalField resolves a numeric column by name in the first data row.
func (b *block) decimalField(column string) (decimal.Decimal, error) {
	v, err := b.field(column)
	if err != nil {
		return decimal.Zero, err
	}
	f, ok := v.(float64)
	if !ok {
		return decimal.Zero, fmt.Errorf("column %s is not numeric", column)
	}
	return decimal.NewFromFloat(f), nil
}

func (b *block) field(column string) (any, error) {
	if len(b.Data) == 0 {
		return nil, errors.New("no data rows")
	}
	for i, name := range b.Columns {
		if name == column && i < len(b.Data[0]) {
			if b.Data[0][i] == nil {
				return nil, fmt.Errorf("column %s is null", column)
			}
			return b.Data[0][i], nil
		}
	}
	return nil, fmt.Errorf("column %s not present", column)
}
