package sentiment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spacesedan/sentiscope/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]string
	getErr  error
	setErr  error
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]string)}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.sets++
	m.entries[key] = value
	return nil
}

type countingScorer struct {
	calls atomic.Int32
	score Score
	err   error
}

func (c *countingScorer) Score(context.Context, string) (Score, error) {
	c.calls.Add(1)
	return c.score, c.err
}

func TestCachedScorer_MissThenHit(t *testing.T) {
	next := &countingScorer{score: Score{Label: models.LabelPositive, Polarity: 0.6369, Subjectivity: 0.677}}
	cache := newMemoryCache()
	scorer := NewCachedScorer(next, cache, time.Hour, nil)

	first, err := scorer.Score(context.Background(), "I love this product")
	require.NoError(t, err)
	second, err := scorer.Score(context.Background(), "I love this product")
	require.NoError(t, err)

	assert.Equal(t, next.score, first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), next.calls.Load())
	assert.Equal(t, 1, cache.sets)
}

func TestCachedScorer_MatchesDirectScoring(t *testing.T) {
	direct := NewVaderScorer()
	scorer := NewCachedScorer(direct, newMemoryCache(), time.Hour, nil)

	for _, text := range []string{"I love this product", "awful", ""} {
		want, err := direct.Score(context.Background(), text)
		require.NoError(t, err)

		for range 2 {
			got, err := scorer.Score(context.Background(), text)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	}
}

func TestCachedScorer_ReadFailureFallsThrough(t *testing.T) {
	next := &countingScorer{score: Score{Label: models.LabelNeutral}}
	cache := newMemoryCache()
	cache.getErr = errors.New("connection refused")
	scorer := NewCachedScorer(next, cache, time.Hour, nil)

	score, err := scorer.Score(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, next.score, score)
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestCachedScorer_WriteFailureIsNotFatal(t *testing.T) {
	next := &countingScorer{score: Score{Label: models.LabelNegative, Polarity: -0.5}}
	cache := newMemoryCache()
	cache.setErr = errors.New("i/o timeout")
	scorer := NewCachedScorer(next, cache, time.Hour, nil)

	score, err := scorer.Score(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, next.score, score)
}

func TestCachedScorer_CorruptEntryIsRescored(t *testing.T) {
	next := &countingScorer{score: Score{Label: models.LabelNeutral}}
	cache := newMemoryCache()
	cache.entries[CacheKey("text")] = "{not json"
	scorer := NewCachedScorer(next, cache, time.Hour, nil)

	_, err := scorer.Score(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestCachedScorer_BypassedWhenUnhealthy(t *testing.T) {
	next := &countingScorer{score: Score{Label: models.LabelNeutral}}
	cache := newMemoryCache()
	healthy := &atomic.Bool{}
	scorer := NewCachedScorer(next, cache, time.Hour, healthy)

	_, err := scorer.Score(context.Background(), "text")
	require.NoError(t, err)

	assert.Equal(t, 0, cache.sets)
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestCachedScorer_PropagatesScorerError(t *testing.T) {
	next := &countingScorer{err: errors.New("scorer down")}
	scorer := NewCachedScorer(next, newMemoryCache(), time.Hour, nil)

	_, err := scorer.Score(context.Background(), "text")
	assert.EqualError(t, err, "scorer down")
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, CacheKey("a"), CacheKey("a"))
	assert.NotEqual(t, CacheKey("a"), CacheKey("b"))
	assert.Contains(t, CacheKey("a"), cacheKeyPrefix)
}
