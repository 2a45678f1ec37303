package ranker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"docinsight/internal/contextutil"
	"docinsight/internal/document"
	"docinsight/internal/embedding"
	"docinsight/internal/vectorstore"
)

const (
	// DefaultK is the number of sections returned when no K is given.
	DefaultK = 5

	defaultConcurrency  = 4
	defaultEmbedTimeout = 30 * time.Second
)

// Options configures a Ranker.
type Options struct {
	// Concurrency bounds in-flight section embeddings.
	Concurrency int
	// EmbedTimeout bounds each embedding call.
	EmbedTimeout time.Duration
	// Store, when set, scores sections through a vector store instead of in process.
	Store vectorstore.VectorStore
	// Collection is the store collection that holds the request's points.
	Collection string
}

// Ranker orders sections by similarity to a persona/task query.
type Ranker struct {
	embedder embedding.Embedder
	opts     Options
	logger   *slog.Logger
}

// New creates a ranker.
func New(embedder embedding.Embedder, opts Options) *Ranker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.EmbedTimeout <= 0 {
		opts.EmbedTimeout = defaultEmbedTimeout
	}
	if opts.Collection == "" {
		opts.Collection = "sections"
	}
	return &Ranker{
		embedder: embedder,
		opts:     opts,
		logger:   slog.Default(),
	}
}

// Rank scores every section against query and returns the top k in
// descending score order. Exact ties keep first-seen order. k <= 0 means DefaultK.
func (r *Ranker) Rank(ctx context.Context, sections []document.Section, query document.Query, k int) ([]document.Section, error) {
	logger := contextutil.LoggerOr(ctx, r.logger)

	if len(sections) == 0 {
		return nil, document.ErrNoSections
	}
	if k <= 0 {
		k = DefaultK
	}

	queryVec, err := r.embed(ctx, query.Text())
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	vectors, err := r.embedSections(ctx, sections)
	if err != nil {
		return nil, err
	}

	scored := make([]document.Section, len(sections))
	copy(scored, sections)

	if r.opts.Store != nil {
		if err := r.scoreWithStore(ctx, scored, vectors, queryVec); err != nil {
			return nil, err
		}
	} else {
		for i := range scored {
			scored[i].Score = embedding.Similarity(queryVec, vectors[i])
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Index < scored[j].Index
	})

	if k < len(scored) {
		scored = scored[:k]
	}

	logger.InfoContext(ctx, "ranked sections", "sections", len(sections), "k", k, "top_score", scored[0].Score)
	return scored, nil
}

// embed runs one embedding call under its own deadline.
func (r *Ranker) embed(ctx context.Context, text string) ([]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.opts.EmbedTimeout)
	defer cancel()

	vec, err := r.embedder.Embed(callCtx, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return vec, nil
}

// embedSections embeds all sections on a bounded pool. Each result lands in
// the slot of the section it came from.
func (r *Ranker) embedSections(ctx context.Context, sections []document.Section) ([][]float32, error) {
	vectors := make([][]float32, len(sections))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	for i := range sections {
		g.Go(func() error {
			vec, err := r.embed(gctx, sections[i].EmbeddingText())
			if err != nil {
				return fmt.Errorf("failed to embed section %q: %w", sections[i].Title, err)
			}
			vectors[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return vectors, nil
}

// scoreWithStore loads the request's vectors into the store, queries them
// and maps scores back to sections by ID. Points are removed afterwards.
func (r *Ranker) scoreWithStore(ctx context.Context, sections []document.Section, vectors [][]float32, queryVec []float32) error {
	logger := contextutil.LoggerOr(ctx, r.logger)
	runID := uuid.NewString()

	points := make([]vectorstore.Point, len(sections))
	ids := make([]string, len(sections))
	byID := make(map[string]int, len(sections))
	for i, s := range sections {
		id := s.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		ids[i] = id.String()
		byID[ids[i]] = i
		points[i] = vectorstore.Point{
			ID:  ids[i],
			Vec: vectors[i],
			Meta: map[string]any{
				"run_id":   runID,
				"document": s.Document,
				"page":     s.Page,
			},
		}
	}

	if err := r.opts.Store.Upsert(ctx, r.opts.Collection, points); err != nil {
		return fmt.Errorf("failed to store section vectors: %w", err)
	}
	defer func() {
		// Cleanup must run even when the request context is done.
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.opts.EmbedTimeout)
		defer cancel()
		if err := r.opts.Store.Delete(cleanupCtx, r.opts.Collection, ids); err != nil {
			logger.WarnContext(ctx, "failed to remove section vectors", "run_id", runID, "error", err)
		}
	}()

	results, err := r.opts.Store.Search(ctx, r.opts.Collection, queryVec, len(points), map[string]any{"run_id": runID})
	if err != nil {
		return fmt.Errorf("failed to score sections: %w", err)
	}

	seen := make([]bool, len(sections))
	for _, res := range results {
		i, ok := byID[res.PointID]
		if !ok {
			continue
		}
		sections[i].Score = float64(res.Score)
		seen[i] = true
	}
	for i := range sections {
		if !seen[i] {
			logger.WarnContext(ctx, "section missing from store results, scoring locally", "section", sections[i].Title)
			sections[i].Score = embedding.Similarity(queryVec, vectors[i])
		}
	}
	return nil
}
