package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"portfel/internal/auth"
	apierrors "portfel/internal/errors"
	"portfel/internal/logger"
)

// sessionCookie is the name of the HTTP-only cookie carrying the session token.
const sessionCookie = "token"

// Register creates a new account and logs it in immediately.
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.ValidationError("", "Заполните все поля"))
		return
	}

	session, err := h.auth.Register(req)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			respondError(c, apierrors.Conflict("Пользователь уже существует"))
			return
		}
		logger.ErrorWithFields("registration failed", err)
		respondError(c, apierrors.Internal("Ошибка сервера"))
		return
	}

	h.setSessionCookie(c, session.Token)
	c.JSON(http.StatusCreated, gin.H{
		"username":   session.User.Username,
		"expires_at": session.ExpiresAt,
	})
}

// Login authenticates with username/password and sets the session cookie.
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.ValidationError("", "Заполните все поля"))
		return
	}

	session, err := h.auth.Login(req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(c, apierrors.Unauthorized("Неверный логин или пароль"))
			return
		}
		logger.ErrorWithFields("login failed", err)
		respondError(c, apierrors.Internal("Ошибка сервера"))
		return
	}

	h.setSessionCookie(c, session.Token)
	c.JSON(http.StatusOK, gin.H{
		"username":   session.User.Username,
		"expires_at": session.ExpiresAt,
	})
}

// CheckAuth reports whether the request carries a valid session.
// Always 200; the flag is in the body, so the login page can poll it
// without tripping error handling.
func (h *Handlers) CheckAuth(c *gin.Context) {
	token, err := c.Cookie(sessionCookie)
	if err != nil || token == "" {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	user, err := h.auth.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"username":      user.Username,
	})
}

// Logout clears the cookie and tears down the user's portfolio session.
func (h *Handlers) Logout(c *gin.Context) {
	if token, err := c.Cookie(sessionCookie); err == nil && token != "" {
		if user, err := h.auth.ValidateToken(token); err == nil {
			h.sessions.Close(user.ID)
		}
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// AuthMiddleware validates the session cookie and stores the user identity
// in the request context.
func (h *Handlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookie)
		if err != nil || token == "" {
			respondError(c, apierrors.Unauthorized("Не авторизован"))
			c.Abort()
			return
		}

		user, err := h.auth.ValidateToken(token)
		if err != nil {
			respondError(c, apierrors.Unauthorized("Не авторизован"))
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("username", user.Username)
		c.Next()
	}
}

func (h *Handlers) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, int(h.auth.TokenTTL().Seconds()), "/", "", false, true)
}
