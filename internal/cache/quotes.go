package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"portfel/internal/logger"
	"portfel/internal/metrics"
	"portfel/internal/moex"
)

// quoteSource is the part of the MOEX client the cache sits in front of.
type quoteSource interface {
	Quote(ctx context.Context, ticker string) (*moex.Quote, error)
}

// QuoteCache caches MOEX quotes in Redis for one refresh interval, so a
// scheduled scan and an interactive lookup for the same ticker cost one
// upstream request. With a nil Redis client it degrades to a pass-through.
type QuoteCache struct {
	source quoteSource
	redis  *RedisClient
	ttl    time.Duration
}

// NewQuoteCache wraps a quote source with a Redis cache.
func NewQuoteCache(source quoteSource, redis *RedisClient, ttl time.Duration) *QuoteCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &QuoteCache{source: source, redis: redis, ttl: ttl}
}

// Quote returns a cached quote when fresh, otherwise hits the source.
// Cache failures are logged and ignored; the gateway stays authoritative.
func (qc *QuoteCache) Quote(ctx context.Context, ticker string) (*moex.Quote, error) {
	if qc.redis == nil {
		return qc.source.Quote(ctx, ticker)
	}

	key := "quote:" + ticker

	if raw, err := qc.redis.Get(ctx, key); err == nil {
		var quote moex.Quote
		if err := json.Unmarshal([]byte(raw), &quote); err == nil {
			metrics.Get().CacheHitsTotal.WithLabelValues("quotes").Inc()
			return &quote, nil
		}
	} else if !IsMiss(err) {
		logger.Log.Warn("quote cache read failed",
			zap.String("ticker", ticker), zap.Error(err))
	}
	metrics.Get().CacheMissesTotal.WithLabelValues("quotes").Inc()

	quote, err := qc.source.Quote(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(quote); err == nil {
		if err := qc.redis.SetEx(ctx, key, raw, qc.ttl); err != nil {
			logger.Log.Warn("quote cache write failed",
				zap.String("ticker", ticker), zap.Error(err))
		}
	}

	return quote, nil
}
