package portfolio

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfel/internal/moex"
)

// stubMarket serves canned quotes and can block to simulate slow lookups.
type stubMarket struct {
	mu      sync.Mutex
	quotes  map[string]*moex.Quote
	errs    map[string]error
	calls   []string
	started chan struct{}
	release chan struct{}
}

func (m *stubMarket) Quote(ctx context.Context, ticker string) (*moex.Quote, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ticker)
	started := m.started
	m.started = nil
	m.mu.Unlock()

	if started != nil {
		close(started)
		<-m.release
	}

	if err, ok := m.errs[ticker]; ok {
		return nil, err
	}
	if q, ok := m.quotes[ticker]; ok {
		copied := *q
		return &copied, nil
	}
	return nil, moex.ErrNotFound
}

type stubDividends struct {
	mu     sync.Mutex
	values map[string]decimal.Decimal
	errs   map[string]error
	calls  []string
}

func (d *stubDividends) PerShare(ctx context.Context, ticker string) (decimal.Decimal, error) {
	d.mu.Lock()
	d.calls = append(d.calls, ticker)
	d.mu.Unlock()

	if err, ok := d.errs[ticker]; ok {
		return decimal.Zero, err
	}
	return d.values[ticker], nil
}

func newTestEngine() (*Engine, *stubMarket, *stubDividends) {
	market := &stubMarket{
		quotes: map[string]*moex.Quote{
			"SBER": {Ticker: "SBER", Name: "Сбербанк", Price: decimal.NewFromFloat(250.5)},
			"GAZP": {Ticker: "GAZP", Name: "Газпром", Price: decimal.NewFromFloat(130.1)},
		},
		errs: map[string]error{},
	}
	dividends := &stubDividends{
		values: map[string]decimal.Decimal{
			"SBER": decimal.NewFromFloat(25.0),
			"GAZP": decimal.NewFromFloat(15.5),
		},
		errs: map[string]error{},
	}
	return NewEngine(market, dividends, nil), market, dividends
}

func lastRowID(e *Engine) string {
	rows := e.Rows()
	return rows[len(rows)-1].ID
}

func TestSubmitTickerSuccess(t *testing.T) {
	engine, _, _ := newTestEngine()
	rowID := lastRowID(engine)

	submitted, err := engine.SubmitTicker(context.Background(), rowID, "sber")
	require.NoError(t, err)
	require.True(t, submitted)

	// Successful lookup on the last row appends a fresh blank row.
	require.Equal(t, 2, engine.RowCount())

	require.NoError(t, engine.EditQuantity(rowID, "10"))

	snap := engine.Snapshot()
	row := snap.Rows[0]
	assert.Equal(t, "SBER", row.Ticker)
	assert.Equal(t, "Сбербанк", row.CompanyName)
	assert.Equal(t, "250.50 ₽", row.Price)
	assert.Equal(t, "2505.00 ₽", row.Sum)
	assert.Equal(t, "25.00 ₽", row.DividendPerShare)
	assert.Equal(t, "9.98%", row.DividendYield)
	assert.Equal(t, "250.00 ₽", row.PortfolioDividends)

	assert.Equal(t, "2505.00 ₽", snap.TotalSum)
	assert.Equal(t, "250.00 ₽", snap.TotalDividends)

	// The appended entry row is blank with default quantity.
	blank := snap.Rows[1]
	assert.Equal(t, "", blank.Ticker)
	assert.Equal(t, "0", blank.Quantity)
}

func TestSubmitTickerNotFound(t *testing.T) {
	engine, _, _ := newTestEngine()
	rowID := lastRowID(engine)

	submitted, err := engine.SubmitTicker(context.Background(), rowID, "ZZZZ")
	require.NoError(t, err)
	require.True(t, submitted)

	// No new row after a failed lookup.
	assert.Equal(t, 1, engine.RowCount())

	row := engine.Snapshot().Rows[0]
	assert.Equal(t, ErrorName, row.CompanyName)
	assert.Equal(t, Sentinel, row.Price)
	assert.Equal(t, Sentinel, row.DividendPerShare)
	assert.Equal(t, Sentinel, row.DividendYield)
}

func TestSubmitTickerBlankInputDropped(t *testing.T) {
	engine, market, _ := newTestEngine()
	rowID := lastRowID(engine)

	submitted, err := engine.SubmitTicker(context.Background(), rowID, "   ")
	require.NoError(t, err)
	assert.False(t, submitted)
	assert.Empty(t, market.calls)
}

func TestSubmitTickerUnknownRow(t *testing.T) {
	engine, _, _ := newTestEngine()

	_, err := engine.SubmitTicker(context.Background(), "nope", "SBER")
	assert.ErrorIs(t, err, ErrRowNotFound)
}

func TestSubmitTickerDroppedWhileInFlight(t *testing.T) {
	engine, market, _ := newTestEngine()
	rowID := lastRowID(engine)

	market.started = make(chan struct{})
	market.release = make(chan struct{})
	started := market.started

	done := make(chan struct{})
	go func() {
		defer close(done)
		submitted, err := engine.SubmitTicker(context.Background(), rowID, "SBER")
		assert.NoError(t, err)
		assert.True(t, submitted)
	}()

	<-started

	// The second submission is dropped, not queued, and mutates nothing.
	submitted, err := engine.SubmitTicker(context.Background(), rowID, "GAZP")
	require.NoError(t, err)
	assert.False(t, submitted)
	assert.Equal(t, 1, engine.RowCount())

	close(market.release)
	<-done

	// The first submission still completed normally.
	assert.Equal(t, 2, engine.RowCount())
	assert.Equal(t, "Сбербанк", engine.Snapshot().Rows[0].CompanyName)
}

func TestSubmitTickerDividendFailureKeepsQuote(t *testing.T) {
	engine, _, dividends := newTestEngine()
	dividends.errs["SBER"] = errors.New("scrape failed")
	rowID := lastRowID(engine)

	submitted, err := engine.SubmitTicker(context.Background(), rowID, "SBER")
	require.NoError(t, err)
	require.True(t, submitted)

	row := engine.Snapshot().Rows[0]
	assert.Equal(t, "Сбербанк", row.CompanyName)
	assert.Equal(t, "250.50 ₽", row.Price)
	assert.Equal(t, Sentinel, row.DividendPerShare)
	assert.Equal(t, Sentinel, row.DividendYield)
	assert.Equal(t, Sentinel, row.PortfolioDividends)
}

func TestEditQuantityInvalidInput(t *testing.T) {
	engine, _, _ := newTestEngine()
	rowID := lastRowID(engine)

	_, err := engine.SubmitTicker(context.Background(), rowID, "SBER")
	require.NoError(t, err)

	for _, raw := range []string{"abc", "-5", ""} {
		require.NoError(t, engine.EditQuantity(rowID, raw))
		row := engine.Snapshot().Rows[0]
		assert.Equal(t, "0", row.Quantity, "input %q", raw)
		assert.Equal(t, Sentinel, row.Sum, "input %q", raw)
	}

	snap := engine.Snapshot()
	assert.Equal(t, "0.00 ₽", snap.TotalSum)
}

func TestDeleteSoleRowRefills(t *testing.T) {
	engine, _, _ := newTestEngine()
	rowID := lastRowID(engine)

	require.NoError(t, engine.DeleteRow(rowID))

	rows := engine.Rows()
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Blank())
	assert.NotEqual(t, rowID, rows[0].ID)
}

func TestDeleteUnknownRow(t *testing.T) {
	engine, _, _ := newTestEngine()
	assert.ErrorIs(t, engine.DeleteRow("nope"), ErrRowNotFound)
}

func TestTotalsIdempotent(t *testing.T) {
	engine, _, _ := newTestEngine()
	rowID := lastRowID(engine)

	_, err := engine.SubmitTicker(context.Background(), rowID, "SBER")
	require.NoError(t, err)
	require.NoError(t, engine.EditQuantity(rowID, "3"))

	first := engine.Snapshot()
	second := engine.Snapshot()
	assert.Equal(t, first, second)
}

func TestRefreshAllSkipsFailedRows(t *testing.T) {
	engine, market, _ := newTestEngine()

	first := lastRowID(engine)
	_, err := engine.SubmitTicker(context.Background(), first, "SBER")
	require.NoError(t, err)
	second := lastRowID(engine)
	_, err = engine.SubmitTicker(context.Background(), second, "GAZP")
	require.NoError(t, err)

	market.quotes["SBER"].Price = decimal.NewFromFloat(260.0)
	market.errs["GAZP"] = errors.New("gateway down")

	scanned := engine.RefreshAll(context.Background(), false)
	assert.Equal(t, 2, scanned)

	snap := engine.Snapshot()
	assert.Equal(t, "260.00 ₽", snap.Rows[0].Price)
	// Failed row keeps its previous price rather than degrading.
	assert.Equal(t, "130.10 ₽", snap.Rows[1].Price)
	assert.NotEmpty(t, snap.LastUpdate)
	// A scan never changes the row count.
	assert.Equal(t, 3, engine.RowCount())
}

func TestRefreshAllTouchesOnlyPrices(t *testing.T) {
	engine, market, dividends := newTestEngine()

	rowID := lastRowID(engine)
	_, err := engine.SubmitTicker(context.Background(), rowID, "SBER")
	require.NoError(t, err)
	require.NoError(t, engine.EditQuantity(rowID, "4"))

	market.quotes["SBER"].Name = "Переименован"
	market.quotes["SBER"].Price = decimal.NewFromFloat(300.0)
	dividends.values["SBER"] = decimal.NewFromFloat(99.0)

	engine.RefreshAll(context.Background(), false)

	row := engine.Snapshot().Rows[0]
	assert.Equal(t, "300.00 ₽", row.Price)
	assert.Equal(t, "Сбербанк", row.CompanyName, "scan must not rewrite the name")
	assert.Equal(t, "4", row.Quantity)
	assert.Equal(t, "25.00 ₽", row.DividendPerShare, "plain scan must not touch dividends")
}

func TestRefreshAllWithDividendsRunsTwoPasses(t *testing.T) {
	engine, market, dividends := newTestEngine()

	rowID := lastRowID(engine)
	_, err := engine.SubmitTicker(context.Background(), rowID, "SBER")
	require.NoError(t, err)

	market.calls = nil
	dividends.calls = nil
	dividends.values["SBER"] = decimal.NewFromFloat(30.0)

	engine.RefreshAll(context.Background(), true)

	assert.Equal(t, []string{"SBER"}, market.calls)
	assert.Equal(t, []string{"SBER"}, dividends.calls)
	assert.Equal(t, "30.00 ₽", engine.Snapshot().Rows[0].DividendPerShare)
}

func TestRefreshDividendsOnly(t *testing.T) {
	engine, market, dividends := newTestEngine()

	rowID := lastRowID(engine)
	_, err := engine.SubmitTicker(context.Background(), rowID, "SBER")
	require.NoError(t, err)
	require.NoError(t, engine.EditQuantity(rowID, "10"))

	market.calls = nil
	dividends.values["SBER"] = decimal.NewFromFloat(40.0)

	require.NoError(t, engine.RefreshDividends(context.Background(), rowID))

	assert.Empty(t, market.calls, "dividend refresh must not fetch prices")
	row := engine.Snapshot().Rows[0]
	assert.Equal(t, "40.00 ₽", row.DividendPerShare)
	assert.Equal(t, "400.00 ₽", row.PortfolioDividends)
}

func TestRefreshDividendsFailureClearsFields(t *testing.T) {
	engine, _, dividends := newTestEngine()

	rowID := lastRowID(engine)
	_, err := engine.SubmitTicker(context.Background(), rowID, "SBER")
	require.NoError(t, err)

	dividends.errs["SBER"] = errors.New("scrape failed")
	require.NoError(t, engine.RefreshDividends(context.Background(), rowID))

	row := engine.Snapshot().Rows[0]
	assert.Equal(t, Sentinel, row.DividendPerShare)
	assert.Equal(t, Sentinel, row.DividendYield)
	// The price is untouched by a dividend-only refresh.
	assert.Equal(t, "250.50 ₽", row.Price)
}

func TestDividendYieldGuardsZeroPrice(t *testing.T) {
	engine, market, _ := newTestEngine()
	market.quotes["FREE"] = &moex.Quote{Ticker: "FREE", Name: "Бесплатно", Price: decimal.Zero}

	rowID := lastRowID(engine)
	_, err := engine.SubmitTicker(context.Background(), rowID, "FREE")
	require.NoError(t, err)

	row := engine.Snapshot().Rows[0]
	assert.Equal(t, "0.00 ₽", row.Price)
	assert.Equal(t, Sentinel, row.DividendYield)
}
