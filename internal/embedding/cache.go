package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"docinsight/internal/contextutil"
)

// Cache stores vectors by content key.
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Put(ctx context.Context, key, model string, vec []float32) error
}

// CachedEmbedder consults a Cache before calling the wrapped Embedder.
// Cache failures are logged and never fail the call.
type CachedEmbedder struct {
	next   Embedder
	cache  Cache
	model  string
	logger *slog.Logger
}

// NewCachedEmbedder wraps next with cache. model namespaces the keys.
func NewCachedEmbedder(next Embedder, cache Cache, model string) *CachedEmbedder {
	return &CachedEmbedder{
		next:   next,
		cache:  cache,
		model:  model,
		logger: slog.Default(),
	}
}

// CacheKey derives the cache key for text embedded by model.
func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// Embed returns the cached vector for text, computing and storing it on a miss.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	logger := contextutil.LoggerOr(ctx, c.logger)
	key := CacheKey(c.model, text)

	vec, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		logger.WarnContext(ctx, "embedding cache read failed", "error", err)
	} else if ok {
		return vec, nil
	}

	vec, err = c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Put(ctx, key, c.model, vec); err != nil {
		logger.WarnContext(ctx, "embedding cache write failed", "error", err)
	}
	return vec, nil
}
