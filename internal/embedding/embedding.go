// Package embedding maps text into a vector space and compares vectors.
package embedding

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedding.go -package=mocks docinsight/internal/embedding Embedder,TextEmbedder

import (
	"context"
	"fmt"
	"log/slog"

	"docinsight/internal/contextutil"
	"docinsight/internal/document"
)

// Embedder turns a single text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// TextEmbedder is a batch embedding backend (llama.cpp server or Ollama).
type TextEmbedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

// Service adapts a backend to Embedder, truncating input to the model's
// context window and classifying failures.
type Service struct {
	backend   TextEmbedder
	truncator *Truncator
	logger    *slog.Logger
}

// NewService creates an embedding service. truncator may be nil to send text as is.
func NewService(backend TextEmbedder, truncator *Truncator) *Service {
	return &Service{
		backend:   backend,
		truncator: truncator,
		logger:    slog.Default(),
	}
}

// ModelName identifies the backend model.
func (s *Service) ModelName() string {
	return s.backend.ModelName()
}

// Embed returns the vector for text. Backend failures are reported as
// *document.EmbeddingUnavailableError.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	logger := contextutil.LoggerOr(ctx, s.logger)

	if s.truncator != nil {
		truncated := s.truncator.Truncate(text)
		if len(truncated) < len(text) {
			logger.DebugContext(ctx, "truncated embedding input", "from_bytes", len(text), "to_bytes", len(truncated))
		}
		text = truncated
	}

	vectors, err := s.backend.EmbedTexts(ctx, []string{text})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &document.EmbeddingUnavailableError{Err: err}
	}
	if len(vectors) != 1 {
		return nil, &document.EmbeddingUnavailableError{Err: fmt.Errorf("expected 1 embedding, got %d", len(vectors))}
	}

	return vectors[0], nil
}
