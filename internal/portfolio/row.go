// Package portfolio implements the in-memory portfolio table: row lifecycle,
// aggregate recomputation and periodic price refresh. Rows are plain data
// records; rendering for the HTTP API is a separate projection in view.go.
package portfolio

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrorName is displayed as the company name when a ticker lookup fails.
const ErrorName = "Ошибка"

// Row is one portfolio position. Price and dividend fields carry a presence
// flag instead of a magic zero, so "no data yet" and "worth nothing" stay
// distinguishable. Derived values (sum, yield, dividend income) are methods,
// never stored, so they cannot go stale.
type Row struct {
	ID      string
	Ticker  string
	Company string

	Price    decimal.Decimal
	HasPrice bool

	Quantity decimal.Decimal

	DividendPerShare decimal.Decimal
	HasDividend      bool
}

func newRow() *Row {
	return &Row{ID: uuid.New().String()}
}

// Blank reports whether the row is still an empty entry point.
func (r *Row) Blank() bool {
	return r.Ticker == ""
}

// Sum is the position value, zero while the price is unknown.
func (r *Row) Sum() decimal.Decimal {
	if !r.HasPrice {
		return decimal.Zero
	}
	return r.Price.Mul(r.Quantity)
}

// DividendYield is dividend-per-share over price as a percentage.
// It is undefined whenever the price is absent or zero; dividing by such a
// price would produce a non-finite value.
func (r *Row) DividendYield() (decimal.Decimal, bool) {
	if !r.HasDividend || !r.HasPrice || r.Price.IsZero() {
		return decimal.Zero, false
	}
	return r.DividendPerShare.Div(r.Price).Mul(decimal.NewFromInt(100)), true
}

// PortfolioDividends is the expected dividend income for the position.
func (r *Row) PortfolioDividends() decimal.Decimal {
	if !r.HasDividend {
		return decimal.Zero
	}
	return r.DividendPerShare.Mul(r.Quantity)
}

// markError degrades the row after a failed interactive lookup: the name
// shows an error, price and dividend data drop to sentinels.
func (r *Row) markError() {
	r.Company = ErrorName
	r.HasPrice = false
	r.HasDividend = false
}
