// Package dividends extracts per-share dividend values from a third-party
// analytics page. The page is plain HTML; the value lives in the second
// table's second row, second cell.
package dividends

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"

	"portfel/internal/metrics"
)

// ErrNoTable means the page did not contain the expected dividend table.
var ErrNoTable = errors.New("dividend table not found")

// Client scrapes dividend data for one ticker at a time.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a dividend page scraper. baseURL is the page prefix,
// e.g. "https://smart-lab.ru/q"; the ticker and "/dividend/" are appended.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// PerShare returns the latest per-share dividend for a ticker.
// An unparseable cell yields zero, not an error, so a ticker that pays no
// dividends renders as a zero contribution rather than a failed row.
func (c *Client) PerShare(ctx context.Context, ticker string) (value decimal.Decimal, err error) {
	defer func(started time.Time) {
		metrics.RecordGatewayRequest("dividends", time.Since(started), err)
	}(time.Now())

	url := fmt.Sprintf("%s/%s/dividend/", c.baseURL, ticker)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("dividend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("dividend page returned status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse dividend page: %w", err)
	}

	cell, err := dividendCell(doc)
	if err != nil {
		return decimal.Zero, err
	}

	return parseAmount(cell), nil
}

// dividendCell returns the text of the second table's second row's second
// cell, the position the analytics page keeps the latest dividend in.
func dividendCell(doc *html.Node) (string, error) {
	tables := findAll(doc, "table")
	if len(tables) < 2 {
		return "", ErrNoTable
	}

	rows := findAll(tables[1], "tr")
	if len(rows) < 2 {
		return "", ErrNoTable
	}

	cells := findAll(rows[1], "td")
	if len(cells) < 2 {
		return "", ErrNoTable
	}

	return text(cells[1]), nil
}

// findAll collects descendant elements with the given tag, in document order.
func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == tag {
			out = append(out, node)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return out
}

// text concatenates all text nodes under n.
func text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

// parseAmount turns a cell like "25,0 ₽" into a decimal, zero if unparseable.
func parseAmount(raw string) decimal.Decimal {
	cleaned := strings.ReplaceAll(raw, ",", ".")
	cleaned = strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, cleaned)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return decimal.Zero
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return value
}
