package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"

	"docinsight/internal/contextutil"
)

// ChromemStore implements VectorStore on an in-process chromem-go database.
// Vectors live only as long as the store.
type ChromemStore struct {
	db     *chromem.DB
	mu     sync.Mutex // Guards collection lifecycle
	logger *slog.Logger
}

// NewChromemStore creates an empty in-memory store.
func NewChromemStore() *ChromemStore {
	return &ChromemStore{
		db:     chromem.NewDB(),
		logger: slog.Default(),
	}
}

func (s *ChromemStore) getLogger(ctx context.Context) *slog.Logger {
	return contextutil.LoggerOr(ctx, s.logger)
}

func (s *ChromemStore) collection(name string) (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Vectors are always supplied, so no embedding func is configured.
	c, err := s.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	return c, nil
}

// Upsert inserts or updates points in the collection. Metadata values are
// stored as strings.
func (s *ChromemStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	c, err := s.collection(collection)
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, 0, len(points))
	for _, p := range points {
		docs = append(docs, chromem.Document{
			ID:        p.ID,
			Metadata:  stringMap(p.Meta),
			Embedding: p.Vec,
		})
	}

	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}

	s.getLogger(ctx).DebugContext(ctx, "upserted points", "collection", collection, "count", len(points))
	return nil
}

// Search performs a similarity search with optional equality filters.
func (s *ChromemStore) Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	c, err := s.collection(collection)
	if err != nil {
		return nil, err
	}

	// chromem rejects requests for more results than it holds.
	if n := c.Count(); k > n {
		k = n
	}
	if k == 0 {
		return nil, nil
	}

	found, err := c.QueryEmbedding(ctx, query, k, stringMap(filters), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]SearchResult, 0, len(found))
	for _, r := range found {
		meta := make(map[string]any, len(r.Metadata))
		for key, v := range r.Metadata {
			meta[key] = v
		}
		results = append(results, SearchResult{
			PointID: r.ID,
			Score:   r.Similarity,
			Meta:    meta,
		})
	}

	s.getLogger(ctx).DebugContext(ctx, "search completed", "collection", collection, "k", k, "results", len(results))
	return results, nil
}

// Delete removes points by their IDs and drops the collection once it is empty.
func (s *ChromemStore) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.db.GetCollection(collection, nil)
	if c == nil {
		return nil
	}
	if err := c.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}
	if c.Count() == 0 {
		if err := s.db.DeleteCollection(collection); err != nil {
			return fmt.Errorf("failed to drop collection: %w", err)
		}
	}
	return nil
}

func stringMap(m map[string]any) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	return out
}
