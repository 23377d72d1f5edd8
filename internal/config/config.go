// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds everything the server binary needs to start.
type Config struct {
	Port      string
	StaticDir string

	MoexBaseURL     string
	DividendBaseURL string
	GatewayTimeout  time.Duration
	RefreshInterval time.Duration

	JWTSecret []byte
	TokenTTL  time.Duration

	RedisHost     string
	RedisPort     string
	RedisPassword string

	LogLevel string
	LogFile  string
}

// Load reads configuration from the environment. JWT_SECRET is the only
// required variable; everything else has a working default.
func Load() (*Config, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		Port:      getEnvOrDefault("PORT", "3000"),
		StaticDir: getEnvOrDefault("STATIC_DIR", "./web"),

		MoexBaseURL:     getEnvOrDefault("MOEX_BASE_URL", "https://iss.moex.com"),
		DividendBaseURL: getEnvOrDefault("DIVIDEND_BASE_URL", "https://smart-lab.ru/q"),
		GatewayTimeout:  getEnvDuration("GATEWAY_TIMEOUT", 10*time.Second),
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 60*time.Second),

		JWTSecret: []byte(secret),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 24*time.Hour),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:  getEnvOrDefault("LOG_FILE", "logs/portfel.log"),
	}, nil
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration parses a duration variable, falling back on bad input.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
