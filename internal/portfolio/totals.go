package portfolio

import "github.com/shopspring/decimal"

// Totals are the two portfolio-wide aggregates.
type Totals struct {
	Sum       decimal.Decimal
	Dividends decimal.Decimal
}

// ComputeTotals derives both aggregates from the current rows. Each row's sum
// is re-derived from its price and quantity rather than read from anywhere,
// so the result is correct even after out-of-band row mutation. Pure and
// idempotent: two calls without an intervening mutation are identical.
func ComputeTotals(rows []*Row) Totals {
	totals := Totals{Sum: decimal.Zero, Dividends: decimal.Zero}
	for _, r := range rows {
		totals.Sum = totals.Sum.Add(r.Sum())
		totals.Dividends = totals.Dividends.Add(r.PortfolioDividends())
	}
	return totals
}
