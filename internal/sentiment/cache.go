package sentiment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/spacesedan/sentiscope/internal/metrics"
)

const cacheKeyPrefix = "sentiment:v1:"

// Cache is the key/value store backing CachedScorer.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// CachedScorer memoizes another scorer. Scoring is deterministic, so a hit
// returns exactly what the wrapped scorer would. Cache failures are logged
// and scoring falls through to the wrapped scorer.
type CachedScorer struct {
	next    Scorer
	cache   Cache
	ttl     time.Duration
	healthy *atomic.Bool
}

func NewCachedScorer(next Scorer, cache Cache, ttl time.Duration, healthy *atomic.Bool) *CachedScorer {
	if healthy == nil {
		healthy = &atomic.Bool{}
		healthy.Store(true)
	}
	return &CachedScorer{next: next, cache: cache, ttl: ttl, healthy: healthy}
}

func CacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *CachedScorer) Score(ctx context.Context, text string) (Score, error) {
	if !c.healthy.Load() {
		metrics.CacheRequests.WithLabelValues("bypass").Inc()
		return c.next.Score(ctx, text)
	}

	key := CacheKey(text)
	if score, ok := c.lookup(ctx, key); ok {
		metrics.CacheRequests.WithLabelValues("hit").Inc()
		return score, nil
	}
	metrics.CacheRequests.WithLabelValues("miss").Inc()

	score, err := c.next.Score(ctx, text)
	if err != nil {
		return Score{}, err
	}

	c.store(ctx, key, score)
	return score, nil
}

func (c *CachedScorer) lookup(ctx context.Context, key string) (Score, bool) {
	raw, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("[CachedScorer] Cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return Score{}, false
	}
	if !ok {
		return Score{}, false
	}

	var score Score
	if err := json.Unmarshal([]byte(raw), &score); err != nil {
		slog.Warn("[CachedScorer] Discarding undecodable cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return Score{}, false
	}
	return score, true
}

func (c *CachedScorer) store(ctx context.Context, key string, score Score) {
	raw, err := json.Marshal(score)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, string(raw), c.ttl); err != nil {
		slog.Warn("[CachedScorer] Cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}
