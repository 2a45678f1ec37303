package embedding_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/mock/gomock"

	"docinsight/internal/embedding"
	"docinsight/internal/embedding/mocks"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]float32
	getErr  error
	putErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]float32)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	vec, ok := c.entries[key]
	return vec, ok, nil
}

func (c *memoryCache) Put(_ context.Context, key, _ string, vec []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.putErr != nil {
		return c.putErr
	}
	c.entries[key] = vec
	return nil
}

func TestCachedEmbedder_HitSkipsBackend(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockEmbedder(ctrl)
	cache := newMemoryCache()

	next.EXPECT().Embed(gomock.Any(), "Nightlife").Return([]float32{0.5, 0.5}, nil).Times(1)

	cached := embedding.NewCachedEmbedder(next, cache, "bge-small-en-v1.5")
	for i := 0; i < 3; i++ {
		vec, err := cached.Embed(context.Background(), "Nightlife")
		if err != nil {
			t.Fatalf("Embed() unexpected error: %v", err)
		}
		if len(vec) != 2 || vec[0] != 0.5 {
			t.Errorf("Embed() = %v", vec)
		}
	}
}

func TestCachedEmbedder_CacheErrorsAreIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockEmbedder(ctrl)
	cache := newMemoryCache()
	cache.getErr = errors.New("database is locked")
	cache.putErr = errors.New("disk full")

	next.EXPECT().Embed(gomock.Any(), "Cuisine").Return([]float32{1}, nil).Times(2)

	cached := embedding.NewCachedEmbedder(next, cache, "m")
	for i := 0; i < 2; i++ {
		if _, err := cached.Embed(context.Background(), "Cuisine"); err != nil {
			t.Fatalf("Embed() unexpected error: %v", err)
		}
	}
}

func TestCachedEmbedder_BackendErrorNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockEmbedder(ctrl)
	cache := newMemoryCache()

	next.EXPECT().Embed(gomock.Any(), "x").Return(nil, errors.New("boom"))

	if _, err := embedding.NewCachedEmbedder(next, cache, "m").Embed(context.Background(), "x"); err == nil {
		t.Fatal("Embed() expected error, got nil")
	}
	if len(cache.entries) != 0 {
		t.Errorf("cache has %d entries, want 0", len(cache.entries))
	}
}

func TestCacheKey(t *testing.T) {
	a := embedding.CacheKey("model-a", "text")
	if a != embedding.CacheKey("model-a", "text") {
		t.Error("CacheKey() should be deterministic")
	}
	if a == embedding.CacheKey("model-b", "text") {
		t.Error("CacheKey() should depend on the model")
	}
	if embedding.CacheKey("ab", "c") == embedding.CacheKey("a", "bc") {
		t.Error("CacheKey() should separate model and text")
	}
	if len(a) != 64 {
		t.Errorf("CacheKey() length = %d, want 64", len(a))
	}
}
