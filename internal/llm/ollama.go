package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaBackend talks to an Ollama server through langchaingo. One backend
// serves one model; embeddings and generation normally use separate backends.
type OllamaBackend struct {
	Model        string
	ExpectedSize int
	llm          *ollama.LLM
}

// NewOllamaBackend creates a backend for model on the Ollama server at serverURL.
func NewOllamaBackend(serverURL, model string, expectedSize int) (*OllamaBackend, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}

	return &OllamaBackend{
		Model:        model,
		ExpectedSize: expectedSize,
		llm:          llm,
	}, nil
}

// ModelName identifies the model producing the vectors.
func (o *OllamaBackend) ModelName() string {
	return o.Model
}

// EmbedTexts generates embeddings for the given texts, one vector per input.
func (o *OllamaBackend) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	vectors, err := o.llm.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vectors))
	}
	for i, vec := range vectors {
		if o.ExpectedSize > 0 && len(vec) != o.ExpectedSize {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d", i, len(vec), o.ExpectedSize)
		}
	}

	return vectors, nil
}

// Generate runs prompt as a single-turn completion.
func (o *OllamaBackend) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	reply, err := llms.GenerateFromSinglePrompt(ctx, o.llm, prompt, llms.WithTemperature(temperature))
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}
	return reply, nil
}
