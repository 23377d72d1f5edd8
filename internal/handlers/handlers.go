// Package handlers contains the Gin HTTP handlers for the API: auth,
// gateway proxies and portfolio operations.
package handlers

import (
	"github.com/gin-gonic/gin"

	"portfel/internal/auth"
	apierrors "portfel/internal/errors"
	"portfel/internal/portfolio"
)

// Handlers holds the collaborators every HTTP handler needs.
type Handlers struct {
	auth      *auth.Service
	market    portfolio.MarketData
	dividends portfolio.DividendSource
	sessions  *portfolio.Registry
}

// NewHandlers creates a new handlers instance
func NewHandlers(authService *auth.Service, market portfolio.MarketData, dividends portfolio.DividendSource, sessions *portfolio.Registry) *Handlers {
	return &Handlers{
		auth:      authService,
		market:    market,
		dividends: dividends,
		sessions:  sessions,
	}
}

// respondError writes a typed API error as JSON.
func respondError(c *gin.Context, err *apierrors.APIError) {
	c.JSON(err.Status, err)
}
