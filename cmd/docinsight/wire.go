package main

import (
	"context"
	"fmt"
	"log/slog"

	"docinsight/internal/analyzer"
	"docinsight/internal/config"
	"docinsight/internal/embedding"
	"docinsight/internal/extractor"
	"docinsight/internal/llm"
	"docinsight/internal/ranker"
	"docinsight/internal/sections"
	"docinsight/internal/storage"
	"docinsight/internal/summarizer"
	"docinsight/internal/vectorstore"
)

// backends are the model clients selected by LLM_BACKEND.
type backends struct {
	embeddings embedding.TextEmbedder
	generator  summarizer.Generator
}

func newBackends(cfg *config.Config) (*backends, error) {
	switch cfg.LLMBackend {
	case config.BackendOllama:
		emb, err := llm.NewOllamaBackend(cfg.EmbeddingBaseURL, cfg.EmbeddingModelName, cfg.EmbeddingVectorSize)
		if err != nil {
			return nil, err
		}
		gen, err := llm.NewOllamaBackend(cfg.LLMBaseURL, cfg.LLMModel, 0)
		if err != nil {
			return nil, err
		}
		return &backends{embeddings: emb, generator: gen}, nil
	default:
		return &backends{
			embeddings: llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.EmbeddingVectorSize),
			generator:  llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel),
		}, nil
	}
}

// validateEmbeddings fails fast when the backend is down or its vectors
// are not the configured size.
func validateEmbeddings(ctx context.Context, emb embedding.TextEmbedder, size int) error {
	vectors, err := emb.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		return fmt.Errorf("failed to validate embedding backend: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) != size {
		got := 0
		if len(vectors) > 0 {
			got = len(vectors[0])
		}
		return fmt.Errorf("embedding vector size mismatch: expected %d, got %d", size, got)
	}
	return nil
}

func newVectorStore(ctx context.Context, cfg *config.Config) (vectorstore.VectorStore, error) {
	switch cfg.VectorBackend {
	case config.VectorChromem:
		return vectorstore.NewChromemStore(), nil
	case config.VectorQdrant:
		store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
		}
		if err := store.EnsureCollection(ctx, cfg.QdrantCollection, cfg.EmbeddingVectorSize); err != nil {
			return nil, fmt.Errorf("failed to ensure Qdrant collection: %w", err)
		}
		slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.EmbeddingVectorSize)
		return store, nil
	default:
		return nil, nil
	}
}

func groupingOptions(cfg *config.Config) sections.Options {
	opts := sections.DefaultOptions()
	opts.HeadingSizeRatio = cfg.HeadingSizeRatio
	opts.BoldHeadings = cfg.HeadingBold
	opts.MaxHeadingRunes = cfg.HeadingMaxRunes
	return opts
}

// buildAnalyzer constructs the pipeline from configuration. The returned
// cleanup releases whatever was opened.
func buildAnalyzer(ctx context.Context, cfg *config.Config) (*analyzer.Analyzer, func(), error) {
	cleanup := func() {}

	be, err := newBackends(cfg)
	if err != nil {
		return nil, cleanup, err
	}

	if err := validateEmbeddings(ctx, be.embeddings, cfg.EmbeddingVectorSize); err != nil {
		return nil, cleanup, err
	}
	slog.Info("Embedding backend validated", "model", be.embeddings.ModelName(), "vector_size", cfg.EmbeddingVectorSize)

	if cfg.LLMPreload && cfg.LLMBackend == config.BackendOpenAI {
		if err := llm.NewModelLoader(cfg.LLMBaseURL).LoadModel(ctx, cfg.LLMModel); err != nil {
			return nil, cleanup, fmt.Errorf("failed to load model %s: %w", cfg.LLMModel, err)
		}
		slog.Info("Model loaded", "model", cfg.LLMModel)
	}

	svc := embedding.NewService(be.embeddings, embedding.NewTruncator(cfg.EmbeddingMaxTokens))
	var embedder embedding.Embedder = svc

	if cfg.EmbeddingCachePath != "" {
		db, err := storage.New(cfg.EmbeddingCachePath)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to open embedding cache: %w", err)
		}
		cleanup = func() {
			_ = db.Close()
		}
		if err := storage.Migrate(db); err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("failed to run migrations: %w", err)
		}
		embedder = embedding.NewCachedEmbedder(svc, storage.NewEmbeddingRepo(db), svc.ModelName())
		slog.Info("Embedding cache enabled", "path", cfg.EmbeddingCachePath)
	}

	store, err := newVectorStore(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	rankOpts := ranker.Options{
		Concurrency:  cfg.EmbedConcurrency,
		EmbedTimeout: cfg.EmbedTimeout,
		Store:        store,
		Collection:   cfg.QdrantCollection,
	}

	pipeline := analyzer.New(
		extractor.New(),
		sections.NewGrouper(groupingOptions(cfg)),
		ranker.New(embedder, rankOpts),
		summarizer.New(be.generator, summarizer.Options{
			Temperature: cfg.Temperature,
			Timeout:     cfg.SummaryTimeout,
			Concurrency: cfg.SummaryConcurrency,
		}),
		cfg.TopK,
	)
	slog.Debug("Pipeline ready",
		"llm_backend", cfg.LLMBackend,
		"model", cfg.LLMModel,
		"vector_backend", cfg.VectorBackend,
		"top_k", pipeline.TopK(),
	)

	return pipeline, cleanup, nil
}
