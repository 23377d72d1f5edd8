package portfolio

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"portfel/internal/moex"
)

// ErrRowNotFound is returned for operations on a row that no longer exists.
var ErrRowNotFound = errors.New("row not found")

// MarketData supplies the name and last price for a ticker.
type MarketData interface {
	Quote(ctx context.Context, ticker string) (*moex.Quote, error)
}

// DividendSource supplies the per-share dividend for a ticker.
type DividendSource interface {
	PerShare(ctx context.Context, ticker string) (decimal.Decimal, error)
}

// Engine owns one portfolio table and serializes every mutation behind its
// mutex. Network fetches run outside the lock; their results are applied
// under it, last write wins. The in-flight flag additionally gates
// interactive ticker submissions: while one is pending, new submissions are
// dropped, not queued.
type Engine struct {
	mu         sync.Mutex
	table      *Table
	totals     Totals
	inFlight   bool
	lastUpdate time.Time

	market    MarketData
	dividends DividendSource
	log       *zap.Logger
}

// NewEngine creates an engine with a single blank row.
func NewEngine(market MarketData, dividends DividendSource, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	table := NewTable()
	return &Engine{
		table:     table,
		totals:    ComputeTotals(table.Rows()),
		market:    market,
		dividends: dividends,
		log:       log,
	}
}

// SubmitTicker handles an interactive ticker submission on one row.
// It reports false when the submission was dropped: blank input, or another
// interactive lookup already in flight.
//
// On lookup failure the row degrades to its error display and the dividend
// fields clear; on success the row gets name, price and dividend data, and a
// new blank row is appended when this row was the last one. Totals are
// recomputed either way.
func (e *Engine) SubmitTicker(ctx context.Context, rowID, rawTicker string) (bool, error) {
	ticker := strings.ToUpper(strings.TrimSpace(rawTicker))
	if ticker == "" {
		return false, nil
	}

	e.mu.Lock()
	if e.inFlight {
		e.mu.Unlock()
		return false, nil
	}
	row := e.table.Get(rowID)
	if row == nil {
		e.mu.Unlock()
		return false, ErrRowNotFound
	}
	e.inFlight = true
	row.Ticker = ticker
	wasLast := row == e.table.Last()
	e.mu.Unlock()

	// Price and dividend lookups run concurrently; they write disjoint
	// fields, so there is no ordering requirement between them.
	var (
		quote    *moex.Quote
		quoteErr error
		dividend decimal.Decimal
		divErr   error
		wg       sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		quote, quoteErr = e.market.Quote(ctx, ticker)
	}()
	go func() {
		defer wg.Done()
		dividend, divErr = e.dividends.PerShare(ctx, ticker)
	}()
	wg.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.inFlight = false

	// The row may have been deleted while the lookup was in flight.
	if e.table.Get(rowID) == nil {
		e.recomputeLocked()
		return true, nil
	}

	if quoteErr != nil {
		e.log.Warn("ticker lookup failed",
			zap.String("ticker", ticker), zap.Error(quoteErr))
		row.markError()
		e.recomputeLocked()
		return true, nil
	}

	applyQuote(row, quote)
	if divErr != nil {
		e.log.Warn("dividend lookup failed",
			zap.String("ticker", ticker), zap.Error(divErr))
		row.HasDividend = false
	} else {
		applyDividend(row, dividend)
	}

	if wasLast {
		e.table.AppendBlank()
	}
	e.recomputeLocked()
	return true, nil
}

// EditQuantity updates a row's holding size. Unparseable or negative input
// defaults to zero. No network call is made.
func (e *Engine) EditQuantity(rowID, rawValue string) error {
	quantity := decimal.Zero
	if parsed, err := decimal.NewFromString(strings.TrimSpace(rawValue)); err == nil && !parsed.IsNegative() {
		quantity = parsed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	row := e.table.Get(rowID)
	if row == nil {
		return ErrRowNotFound
	}
	row.Quantity = quantity
	e.recomputeLocked()
	return nil
}

// RefreshDividends re-fetches only the dividend data for one row. Errors
// follow the interactive policy: both dividend fields drop to sentinels.
func (e *Engine) RefreshDividends(ctx context.Context, rowID string) error {
	e.mu.Lock()
	row := e.table.Get(rowID)
	if row == nil {
		e.mu.Unlock()
		return ErrRowNotFound
	}
	ticker := row.Ticker
	e.mu.Unlock()

	if ticker == "" {
		return nil
	}

	dividend, err := e.dividends.PerShare(ctx, ticker)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.table.Get(rowID) == nil {
		return nil
	}
	if err != nil {
		e.log.Warn("dividend refresh failed",
			zap.String("ticker", ticker), zap.Error(err))
		row.HasDividend = false
	} else {
		applyDividend(row, dividend)
	}
	e.recomputeLocked()
	return nil
}

// DeleteRow removes a row. The table refills itself with a blank row when
// the last one goes.
func (e *Engine) DeleteRow(rowID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.table.Delete(rowID) {
		return ErrRowNotFound
	}
	e.recomputeLocked()
	return nil
}

// RefreshAll runs one scan over every ticketed row, strictly sequentially:
// each row's fetch completes before the next begins. A failed fetch leaves
// that row untouched and the scan continues. The scan touches prices only,
// plus dividends in a second full pass when withDividends is set. Row count,
// quantities and company names are never changed. Returns the number of rows
// scanned.
func (e *Engine) RefreshAll(ctx context.Context, withDividends bool) int {
	e.mu.Lock()
	rows := e.table.Rows()
	e.mu.Unlock()

	scanned := 0
	for _, row := range rows {
		ticker := e.rowTicker(row.ID)
		if ticker == "" {
			continue
		}
		scanned++

		quote, err := e.market.Quote(ctx, ticker)
		if err != nil {
			e.log.Debug("scan: price fetch failed, keeping previous value",
				zap.String("ticker", ticker), zap.Error(err))
			continue
		}

		e.mu.Lock()
		if e.table.Get(row.ID) != nil {
			applyPrice(row, quote)
		}
		e.mu.Unlock()
	}

	if withDividends {
		for _, row := range rows {
			ticker := e.rowTicker(row.ID)
			if ticker == "" {
				continue
			}

			dividend, err := e.dividends.PerShare(ctx, ticker)
			if err != nil {
				e.log.Debug("scan: dividend fetch failed, keeping previous value",
					zap.String("ticker", ticker), zap.Error(err))
				continue
			}

			e.mu.Lock()
			if e.table.Get(row.ID) != nil {
				applyDividend(row, dividend)
			}
			e.mu.Unlock()
		}
	}

	e.mu.Lock()
	e.lastUpdate = time.Now()
	e.recomputeLocked()
	e.mu.Unlock()

	return scanned
}

// Snapshot projects the current table and totals for display.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	lastUpdate := ""
	if !e.lastUpdate.IsZero() {
		lastUpdate = e.lastUpdate.Format("15:04:05")
	}
	return renderSnapshot(e.table.Rows(), e.totals, lastUpdate)
}

// Totals returns the current aggregates as raw decimals.
func (e *Engine) Totals() Totals {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totals
}

// RowCount returns the current number of rows, the blank entry row included.
func (e *Engine) RowCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.table.Len()
}

// Rows returns the live row records, for tests and diagnostics.
func (e *Engine) Rows() []*Row {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.table.Rows()
}

// rowTicker reads a row's current ticker under the lock; empty when the row
// was deleted mid-scan.
func (e *Engine) rowTicker(rowID string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if row := e.table.Get(rowID); row != nil {
		return row.Ticker
	}
	return ""
}

// recomputeLocked re-derives both totals after any mutation. Callers hold
// the engine mutex.
func (e *Engine) recomputeLocked() {
	e.totals = ComputeTotals(e.table.Rows())
}

// applyQuote writes the full interactive lookup result: company name (with a
// sentinel fallback) plus the price.
func applyQuote(row *Row, q *moex.Quote) {
	if q.Name != "" {
		row.Company = q.Name
	} else {
		row.Company = Sentinel
	}
	applyPrice(row, q)
}

// applyPrice writes only the price, the single field a scheduled scan may
// touch.
func applyPrice(row *Row, q *moex.Quote) {
	row.Price = q.Price
	row.HasPrice = true
}

// applyDividend writes the per-share dividend; yield and income derive from
// it on render.
func applyDividend(row *Row, perShare decimal.Decimal) {
	row.DividendPerShare = perShare
	row.HasDividend = true
}
