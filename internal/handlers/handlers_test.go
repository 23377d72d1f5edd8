package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"portfel/internal/auth"
	"portfel/internal/database"
	"portfel/internal/models"
	"portfel/internal/moex"
	"portfel/internal/portfolio"
)

type fakeMarket struct {
	quotes map[string]*moex.Quote
	errs   map[string]error
}

func (m *fakeMarket) Quote(ctx context.Context, ticker string) (*moex.Quote, error) {
	if err, ok := m.errs[ticker]; ok {
		return nil, err
	}
	if q, ok := m.quotes[ticker]; ok {
		copied := *q
		return &copied, nil
	}
	return nil, moex.ErrNotFound
}

type fakeDividends struct {
	values map[string]decimal.Decimal
	errs   map[string]error
}

func (d *fakeDividends) PerShare(ctx context.Context, ticker string) (decimal.Decimal, error) {
	if err, ok := d.errs[ticker]; ok {
		return decimal.Zero, err
	}
	return d.values[ticker], nil
}

type testEnv struct {
	router    *gin.Engine
	handlers  *Handlers
	market    *fakeMarket
	dividends *fakeDividends
	sessions  *portfolio.Registry
}

// newTestEnv wires a router with the same routes as the server binary,
// backed by an in-memory database and fake gateways.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	database.DB = db

	market := &fakeMarket{
		quotes: map[string]*moex.Quote{
			"SBER": {Ticker: "SBER", Name: "Сбербанк", Price: decimal.NewFromFloat(250.5)},
		},
		errs: map[string]error{},
	}
	dividends := &fakeDividends{
		values: map[string]decimal.Decimal{
			"SBER": decimal.NewFromFloat(25.0),
		},
		errs: map[string]error{},
	}

	authService := auth.NewService([]byte("test-secret"), time.Hour)
	sessions := portfolio.NewRegistry(market, dividends, time.Hour, nil)
	t.Cleanup(sessions.CloseAll)

	h := NewHandlers(authService, market, dividends, sessions)

	r := gin.New()
	api := r.Group("/api")
	{
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.GET("/check-auth", h.CheckAuth)
		api.POST("/logout", h.Logout)

		api.GET("/stock/:ticker", h.AuthMiddleware(), h.StockQuote)
		api.GET("/dividend/:ticker", h.AuthMiddleware(), h.Dividend)

		pf := api.Group("/portfolio")
		{
			pf.Use(h.AuthMiddleware())
			pf.GET("", h.GetPortfolio)
			pf.POST("/refresh", h.RefreshPortfolio)
			pf.POST("/rows/:id/ticker", h.SubmitTicker)
			pf.PUT("/rows/:id/quantity", h.EditQuantity)
			pf.POST("/rows/:id/dividends", h.RefreshRowDividends)
			pf.DELETE("/rows/:id", h.DeleteRow)
		}
	}

	return &testEnv{
		router:    r,
		handlers:  h,
		market:    market,
		dividends: dividends,
		sessions:  sessions,
	}
}

// do performs a request, attaching the session cookie when given.
func (e *testEnv) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// register creates an account and returns its session cookie.
func (e *testEnv) register(t *testing.T, username, password string) *http.Cookie {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/register", gin.H{
		"username": username,
		"password": password,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	for _, c := range w.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	t.Fatal("no session cookie in register response")
	return nil
}

func decodeInto(w *httptest.ResponseRecorder, out any) error {
	return json.Unmarshal(w.Body.Bytes(), out)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
