package summarizer

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_generator.go -package=mocks docinsight/internal/summarizer Generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"docinsight/internal/contextutil"
	"docinsight/internal/document"
)

const errorPrefix = "[SUMMARY ERROR: "

// Generator produces text from a prompt (llama.cpp server or Ollama).
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
}

// Options configures a Summarizer.
type Options struct {
	Temperature float64
	Timeout     time.Duration // Per summary
	Concurrency int           // Summaries in flight
}

// DefaultOptions returns the settings used when none are configured.
func DefaultOptions() Options {
	return Options{
		Temperature: 0.7,
		Timeout:     2 * time.Minute,
		Concurrency: 1,
	}
}

// Summarizer writes task-focused summaries of sections.
type Summarizer struct {
	generator Generator
	opts      Options
	cleaner   *Cleaner
	logger    *slog.Logger
}

// New creates a summarizer.
func New(generator Generator, opts Options) *Summarizer {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	return &Summarizer{
		generator: generator,
		opts:      opts,
		cleaner:   NewCleaner(),
		logger:    slog.Default(),
	}
}

// BuildPrompt grounds the request in the persona, the task and the section verbatim.
func BuildPrompt(section document.Section, query document.Query) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are helping a %s whose task is: %s\n\n", query.Persona, query.Task)
	b.WriteString("Here is a relevant section from a document:\n\n")
	fmt.Fprintf(&b, "Title: %s\n", section.Title)
	fmt.Fprintf(&b, "Page: %d\n\n", section.Page)
	fmt.Fprintf(&b, "Content:\n%s\n\n", section.Content)
	b.WriteString("Give a concise, relevant summary (3-5 sentences) focused on what helps accomplish the task.")
	return b.String()
}

// ErrorSummary renders a failed summary in place of the text.
func ErrorSummary(err error) string {
	return errorPrefix + err.Error() + "]"
}

// IsErrorSummary reports whether summary is a failure marker.
func IsErrorSummary(summary string) bool {
	return strings.HasPrefix(summary, errorPrefix)
}

// Summarize returns a summary of section for query. It never fails: any
// backend error or timeout is returned as an error marker string.
func (s *Summarizer) Summarize(ctx context.Context, section document.Section, query document.Query) string {
	logger := contextutil.LoggerOr(ctx, s.logger)

	summary, err := s.generate(ctx, section, query)
	if err != nil {
		sumErr := &document.SummarizationError{Section: section.Title, Err: err}
		logger.WarnContext(ctx, "summary failed", "section", section.Title, "document", section.Document, "error", sumErr)
		return ErrorSummary(err)
	}
	return summary
}

func (s *Summarizer) generate(ctx context.Context, section document.Section, query document.Query) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	reply, err := s.generator.Generate(callCtx, BuildPrompt(section, query), s.opts.Temperature)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("timed out after %s", s.opts.Timeout)
		}
		return "", err
	}

	summary := s.cleaner.Clean(reply)
	if summary == "" {
		return "", errors.New("empty response from model")
	}
	return summary, nil
}

// SummarizeAll fills in Summary for every section. Each section is handled
// independently and writes only its own slot; order is preserved.
func (s *Summarizer) SummarizeAll(ctx context.Context, sections []document.Section, query document.Query) []document.Section {
	out := make([]document.Section, len(sections))
	copy(out, sections)

	sem := make(chan struct{}, s.opts.Concurrency)
	var wg sync.WaitGroup

	for i := range out {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				out[i].Summary = ErrorSummary(ctx.Err())
				return
			}
			out[i].Summary = s.Summarize(ctx, out[i], query)
		}(i)
	}

	wg.Wait()
	return out
}
