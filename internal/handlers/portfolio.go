package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "portfel/internal/errors"
	"portfel/internal/portfolio"
)

// session returns the caller's portfolio session, creating it on first use.
func (h *Handlers) session(c *gin.Context) *portfolio.Session {
	return h.sessions.Get(c.GetString("user_id"))
}

// GetPortfolio returns the rendered portfolio snapshot.
func (h *Handlers) GetPortfolio(c *gin.Context) {
	c.JSON(http.StatusOK, h.session(c).Engine.Snapshot())
}

// SubmitTicker handles an interactive ticker submission on one row.
// While another submission is in flight the request is dropped, not queued;
// the response then carries dropped=true and the unchanged portfolio.
func (h *Handlers) SubmitTicker(c *gin.Context) {
	var req struct {
		Ticker string `json:"ticker" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.ValidationError("ticker", "Укажите тикер"))
		return
	}

	session := h.session(c)
	submitted, err := session.Engine.SubmitTicker(c.Request.Context(), c.Param("id"), req.Ticker)
	if err != nil {
		if errors.Is(err, portfolio.ErrRowNotFound) {
			respondError(c, apierrors.NotFound("Строка не найдена"))
			return
		}
		respondError(c, apierrors.Internal("Ошибка сервера"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"dropped":   !submitted,
		"portfolio": session.Engine.Snapshot(),
	})
}

// EditQuantity updates a row's holding size from raw input text.
// Non-numeric or negative input counts as zero.
func (h *Handlers) EditQuantity(c *gin.Context) {
	var req struct {
		Quantity string `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.ValidationError("quantity", "Укажите количество"))
		return
	}

	session := h.session(c)
	if err := session.Engine.EditQuantity(c.Param("id"), req.Quantity); err != nil {
		respondError(c, apierrors.NotFound("Строка не найдена"))
		return
	}

	c.JSON(http.StatusOK, session.Engine.Snapshot())
}

// RefreshRowDividends re-fetches only the dividend data for one row.
func (h *Handlers) RefreshRowDividends(c *gin.Context) {
	session := h.session(c)
	if err := session.Engine.RefreshDividends(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, apierrors.NotFound("Строка не найдена"))
		return
	}

	c.JSON(http.StatusOK, session.Engine.Snapshot())
}

// DeleteRow removes a row; the table refills itself when the last row goes.
func (h *Handlers) DeleteRow(c *gin.Context) {
	session := h.session(c)
	if err := session.Engine.DeleteRow(c.Param("id")); err != nil {
		respondError(c, apierrors.NotFound("Строка не найдена"))
		return
	}

	c.JSON(http.StatusOK, session.Engine.Snapshot())
}

// RefreshPortfolio runs a manual full refresh: all prices, then all
// dividends, and resets the periodic timer window.
func (h *Handlers) RefreshPortfolio(c *gin.Context) {
	session := h.session(c)
	session.Scheduler.Refresh(c.Request.Context())
	c.JSON(http.StatusOK, session.Engine.Snapshot())
}
