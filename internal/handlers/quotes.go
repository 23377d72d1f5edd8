package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "portfel/internal/errors"
	"portfel/internal/logger"
	"portfel/internal/moex"
)

// StockQuote proxies a single-ticker quote lookup to the market data
// gateway: GET /api/stock/:ticker -> {name, price}.
func (h *Handlers) StockQuote(c *gin.Context) {
	ticker := strings.ToUpper(strings.TrimSpace(c.Param("ticker")))
	if ticker == "" {
		respondError(c, apierrors.ValidationError("ticker", "Укажите тикер"))
		return
	}

	quote, err := h.market.Quote(c.Request.Context(), ticker)
	if err != nil {
		if errors.Is(err, moex.ErrNotFound) {
			respondError(c, apierrors.NotFound("Тикер не найден"))
			return
		}
		logger.Error("stock quote failed", logger.WithTicker(ticker), zap.Error(err))
		respondError(c, apierrors.Internal("Ошибка сервера"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":  quote.Name,
		"price": quote.Price.InexactFloat64(),
	})
}

// Dividend proxies a per-share dividend lookup to the scraped analytics
// page: GET /api/dividend/:ticker -> {value}.
func (h *Handlers) Dividend(c *gin.Context) {
	ticker := strings.ToUpper(strings.TrimSpace(c.Param("ticker")))
	if ticker == "" {
		respondError(c, apierrors.ValidationError("ticker", "Укажите тикер"))
		return
	}

	value, err := h.dividends.PerShare(c.Request.Context(), ticker)
	if err != nil {
		logger.Error("dividend lookup failed", logger.WithTicker(ticker), zap.Error(err))
		respondError(c, apierrors.Internal("Ошибка сервера"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"value": value.InexactFloat64(),
	})
}
