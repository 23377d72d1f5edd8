package portfolio

import (
	"github.com/shopspring/decimal"
)

// Sentinel is shown for any field without a valid computed value.
const Sentinel = "—"

const currencySuffix = " ₽"

// RowView is the display projection of one row. All money fields are
// pre-formatted strings so every surface renders identically.
type RowView struct {
	ID                 string `json:"id"`
	Ticker             string `json:"ticker"`
	CompanyName        string `json:"company_name"`
	Price              string `json:"price"`
	Quantity           string `json:"quantity"`
	Sum                string `json:"sum"`
	DividendPerShare   string `json:"dividend_per_share"`
	DividendYield      string `json:"dividend_yield"`
	PortfolioDividends string `json:"portfolio_dividends"`
}

// Snapshot is the rendered state of a whole portfolio.
type Snapshot struct {
	Rows           []RowView `json:"rows"`
	TotalSum       string    `json:"total_sum"`
	TotalDividends string    `json:"total_dividends"`
	LastUpdate     string    `json:"last_update"`
}

// FormatMoney renders a monetary amount with the currency suffix.
func FormatMoney(v decimal.Decimal) string {
	return v.StringFixed(2) + currencySuffix
}

// FormatPercent renders a percentage to two decimals.
func FormatPercent(v decimal.Decimal) string {
	return v.StringFixed(2) + "%"
}

// renderRow projects a row into its display form. A zero sum renders as the
// sentinel at row level; only the aggregate totals always show a number.
func renderRow(r *Row) RowView {
	view := RowView{
		ID:                 r.ID,
		Ticker:             r.Ticker,
		CompanyName:        r.Company,
		Quantity:           r.Quantity.String(),
		Price:              Sentinel,
		Sum:                Sentinel,
		DividendPerShare:   Sentinel,
		DividendYield:      Sentinel,
		PortfolioDividends: Sentinel,
	}

	if r.Blank() && r.Company == "" {
		view.CompanyName = ""
		return view
	}

	if r.HasPrice {
		view.Price = FormatMoney(r.Price)
		if sum := r.Sum(); !sum.IsZero() {
			view.Sum = FormatMoney(sum)
		}
	}

	if r.HasDividend {
		view.DividendPerShare = FormatMoney(r.DividendPerShare)
		view.PortfolioDividends = FormatMoney(r.PortfolioDividends())
	}

	if yield, ok := r.DividendYield(); ok {
		view.DividendYield = FormatPercent(yield)
	}

	return view
}

// renderSnapshot projects rows plus totals. Totals never degrade to the
// sentinel; an empty portfolio shows a zero amount.
func renderSnapshot(rows []*Row, totals Totals, lastUpdate string) Snapshot {
	views := make([]RowView, 0, len(rows))
	for _, r := range rows {
		views = append(views, renderRow(r))
	}
	return Snapshot{
		Rows:           views,
		TotalSum:       FormatMoney(totals.Sum),
		TotalDividends: FormatMoney(totals.Dividends),
		LastUpdate:     lastUpdate,
	}
}
