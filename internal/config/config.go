package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Model backends.
const (
	BackendOpenAI = "openai"
	BackendOllama = "ollama"
)

// Vector scoring backends.
const (
	VectorLocal   = "local"
	VectorChromem = "chromem"
	VectorQdrant  = "qdrant"
)

// Config holds all configuration for the application.
type Config struct {
	LLMBackend  string
	LLMBaseURL  string
	LLMModel    string
	LLMAPIKey   string
	LLMPreload  bool
	Temperature float64

	EmbeddingBaseURL    string
	EmbeddingModelName  string
	EmbeddingVectorSize int
	EmbeddingMaxTokens  int
	EmbeddingCachePath  string

	VectorBackend    string
	QdrantURL        string
	QdrantCollection string

	TopK               int
	EmbedConcurrency   int
	SummaryConcurrency int
	EmbedTimeout       time.Duration
	SummaryTimeout     time.Duration

	HeadingSizeRatio float64
	HeadingBold      bool
	HeadingMaxRunes  int

	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the rest.
// If a .env file exists in the current directory or a parent, it is loaded first.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	_ = godotenv.Load() // Try current directory

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		LLMBackend:         strings.ToLower(getEnv("LLM_BACKEND", BackendOpenAI)),
		LLMBaseURL:         getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModel:           getEnv("LLM_MODEL", "llama3.2:1b"),
		LLMAPIKey:          getEnv("LLM_API_KEY", "dummy-key"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "bge-small-en-v1.5"),
		EmbeddingCachePath: getEnv("EMBEDDING_CACHE_PATH", ""),
		VectorBackend:      strings.ToLower(getEnv("VECTOR_BACKEND", VectorLocal)),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "sections"),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	// Parsed values; the first bad one is reported.
	p := &parser{}
	cfg.LLMPreload = p.bool("LLM_PRELOAD", false)
	cfg.Temperature = p.float("SUMMARY_TEMPERATURE", 0.7)
	cfg.EmbeddingVectorSize = p.positiveInt("EMBEDDING_VECTOR_SIZE", 384)
	cfg.EmbeddingMaxTokens = p.positiveInt("EMBEDDING_MAX_TOKENS", 512)
	cfg.TopK = p.positiveInt("TOP_K", 5)
	cfg.EmbedConcurrency = p.positiveInt("EMBED_CONCURRENCY", 4)
	cfg.SummaryConcurrency = p.positiveInt("SUMMARY_CONCURRENCY", 1)
	cfg.EmbedTimeout = p.duration("EMBED_TIMEOUT", 30*time.Second)
	cfg.SummaryTimeout = p.duration("SUMMARY_TIMEOUT", 2*time.Minute)
	cfg.HeadingSizeRatio = p.float("HEADING_SIZE_RATIO", 1.15)
	cfg.HeadingBold = p.bool("HEADING_BOLD", true)
	cfg.HeadingMaxRunes = p.positiveInt("HEADING_MAX_RUNES", 120)
	cfg.LogLevel = p.level("LOG_LEVEL", slog.LevelInfo)
	if p.err != nil {
		return nil, p.err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLMBackend {
	case BackendOpenAI, BackendOllama:
	default:
		return fmt.Errorf("LLM_BACKEND must be %q or %q, got %q", BackendOpenAI, BackendOllama, c.LLMBackend)
	}

	switch c.VectorBackend {
	case VectorLocal, VectorChromem, VectorQdrant:
	default:
		return fmt.Errorf("VECTOR_BACKEND must be one of %s, %s, %s, got %q", VectorLocal, VectorChromem, VectorQdrant, c.VectorBackend)
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("SUMMARY_TEMPERATURE must be between 0 and 2, got %v", c.Temperature)
	}
	if c.HeadingSizeRatio < 1 {
		return fmt.Errorf("HEADING_SIZE_RATIO must be at least 1, got %v", c.HeadingSizeRatio)
	}
	if c.LLMModel == "" {
		return fmt.Errorf("LLM_MODEL is required")
	}
	if c.EmbeddingModelName == "" {
		return fmt.Errorf("EMBEDDING_MODEL_NAME is required")
	}

	if c.EmbeddingCachePath != "" {
		if err := os.MkdirAll(filepath.Dir(c.EmbeddingCachePath), 0755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	return nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parser converts environment values, keeping the first error.
type parser struct {
	err error
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%s is invalid: %w", key, err)
	}
}

func (p *parser) positiveInt(key string, def int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, err)
		return def
	}
	if v <= 0 {
		p.fail(key, fmt.Errorf("must be greater than 0, got %d", v))
		return def
	}
	return v
}

func (p *parser) float(key string, def float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return v
}

func (p *parser) bool(key string, def bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, err)
		return def
	}
	if v <= 0 {
		p.fail(key, fmt.Errorf("must be positive, got %s", v))
		return def
	}
	return v
}

func (p *parser) level(key string, def slog.Level) slog.Level {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		p.fail(key, err)
		return def
	}
	return lvl
}
