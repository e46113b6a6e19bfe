// Package engine implements the recommendation core: cached embeddings,
// similarity scoring, query constraint parsing, and constraint-aware ranking.
package engine

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/se-wein/kumrec-go/internal/genai"
	"github.com/se-wein/kumrec-go/internal/metrics"
	"github.com/se-wein/kumrec-go/internal/storage"
)

// EmbedCache layers an in-memory map and the SQLite embedding_cache table in
// front of the embedding provider. Concurrent requests for the same text are
// coalesced with singleflight so the provider sees each text at most once.
type EmbedCache struct {
	embedder genai.Embedder
	db       *storage.DB
	metrics  *metrics.Metrics

	mu  sync.RWMutex
	mem map[string][]float32

	group singleflight.Group
}

// NewEmbedCache creates an embedding cache. db and m may be nil; without a
// db the cache is memory-only.
func NewEmbedCache(embedder genai.Embedder, db *storage.DB, m *metrics.Metrics) *EmbedCache {
	return &EmbedCache{
		embedder: embedder,
		db:       db,
		metrics:  m,
		mem:      make(map[string][]float32),
	}
}

// Embed returns the embedding for text, consulting memory, then SQLite, then
// the provider.
func (c *EmbedCache) Embed(ctx context.Context, text string) ([]float32, error) {
	key := storage.CacheKey(c.embedder.Model(), text)

	c.mu.RLock()
	vec, ok := c.mem[key]
	c.mu.RUnlock()
	if ok {
		c.recordHit("memory")
		return vec, nil
	}
	c.recordMiss("memory")

	result, err, shared := c.group.Do(key, func() (any, error) {
		return c.load(ctx, key, text)
	})
	if err != nil {
		return nil, err
	}
	if shared && c.metrics != nil {
		c.metrics.SingleflightDedupTotal.Inc()
	}
	return result.([]float32), nil
}

func (c *EmbedCache) load(ctx context.Context, key, text string) ([]float32, error) {
	if c.db != nil {
		vec, hit, err := c.db.GetEmbedding(ctx, c.embedder.Model(), text)
		if err == nil && hit {
			c.recordHit("sqlite")
			c.store(key, vec)
			return vec, nil
		}
		c.recordMiss("sqlite")
	}

	vec, model, err := c.embed(ctx, text)
	if err != nil {
		return nil, err
	}

	// A vector produced by a fallback model lives in a different space than
	// the key describes. Serve it for this call but never cache it; the next
	// call retries the primary.
	if model != c.embedder.Model() {
		return vec, nil
	}

	c.store(key, vec)
	if c.db != nil {
		// Write-through failure is not fatal; the vector is already usable.
		_ = c.db.PutEmbedding(ctx, model, text, vec)
	}
	return vec, nil
}

func (c *EmbedCache) embed(ctx context.Context, text string) ([]float32, string, error) {
	if se, ok := c.embedder.(genai.SourcedEmbedder); ok {
		return se.EmbedSourced(ctx, text)
	}
	vec, err := c.embedder.Embed(ctx, text)
	return vec, c.embedder.Model(), err
}

func (c *EmbedCache) store(key string, vec []float32) {
	c.mu.Lock()
	c.mem[key] = vec
	c.mu.Unlock()
}

func (c *EmbedCache) recordHit(layer string) {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues(layer).Inc()
	}
}

func (c *EmbedCache) recordMiss(layer string) {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.WithLabelValues(layer).Inc()
	}
}
