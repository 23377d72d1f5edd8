package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"portfel/internal/auth"
	"portfel/internal/cache"
	"portfel/internal/config"
	"portfel/internal/database"
	"portfel/internal/dividends"
	"portfel/internal/handlers"
	"portfel/internal/logger"
	"portfel/internal/middleware"
	"portfel/internal/moex"
	"portfel/internal/portfolio"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	// Initialize database and run migrations
	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Redis is optional; without it quote lookups go straight to MOEX.
	var redisClient *cache.RedisClient
	if cfg.RedisHost != "" {
		redisClient, err = cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			logger.Log.Warn("Redis unavailable, quote caching disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// Gateways
	moexClient := moex.NewClient(cfg.MoexBaseURL, cfg.GatewayTimeout)
	market := cache.NewQuoteCache(moexClient, redisClient, cfg.RefreshInterval)
	dividendClient := dividends.NewClient(cfg.DividendBaseURL, cfg.GatewayTimeout)

	// Auth service and per-user portfolio sessions
	authService := auth.NewService(cfg.JWTSecret, cfg.TokenTTL)
	sessions := portfolio.NewRegistry(market, dividendClient, cfg.RefreshInterval, logger.Log)
	defer sessions.CloseAll()

	h := handlers.NewHandlers(authService, market, dividendClient, sessions)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	r.Use(cors.New(corsConfig))

	// Health and metrics
	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if err := database.Health(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "portfel",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Static pages (login + portfolio table)
	r.Static("/static", cfg.StaticDir)
	r.StaticFile("/", cfg.StaticDir+"/login.html")
	r.StaticFile("/index.html", cfg.StaticDir+"/index.html")
	r.StaticFile("/login.html", cfg.StaticDir+"/login.html")

	// API routes
	api := r.Group("/api")
	{
		// Session endpoints (public)
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.GET("/check-auth", h.CheckAuth)
		api.POST("/logout", h.Logout)

		// Gateway proxies (session cookie required)
		api.GET("/stock/:ticker", h.AuthMiddleware(), h.StockQuote)
		api.GET("/dividend/:ticker", h.AuthMiddleware(), h.Dividend)

		// Portfolio operations
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

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("portfel server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}
