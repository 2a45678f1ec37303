// Package analyzer runs the document pipeline: extract, group, rank and summarize.
package analyzer

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_analyzer.go -package=mocks docinsight/internal/analyzer Extractor,Grouper,Ranker,Summarizer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"docinsight/internal/contextutil"
	"docinsight/internal/document"
	"docinsight/internal/summarizer"
)

// Extractor reads one document into chunks.
type Extractor interface {
	Extract(ctx context.Context, in document.Input) ([]document.Chunk, error)
}

// Grouper turns chunks into sections.
type Grouper interface {
	Group(chunks []document.Chunk) []document.Section
}

// Ranker orders sections by relevance to a query and keeps the top k.
type Ranker interface {
	Rank(ctx context.Context, sections []document.Section, query document.Query, k int) ([]document.Section, error)
}

// Summarizer fills in the Summary of each section.
type Summarizer interface {
	SummarizeAll(ctx context.Context, sections []document.Section, query document.Query) []document.Section
}

// DefaultTopK is the number of sections returned when none is configured.
const DefaultTopK = 5

// SkippedDocument is a document that could not be read.
type SkippedDocument struct {
	Document string `json:"document" yaml:"document"`
	Reason   string `json:"reason" yaml:"reason"`
}

// Result is the outcome of one analysis run.
type Result struct {
	RunID     uuid.UUID          `json:"run_id" yaml:"run_id"`
	Persona   string             `json:"persona" yaml:"persona"`
	Task      string             `json:"task" yaml:"task"`
	Sections  []document.Section `json:"sections" yaml:"sections"`
	Skipped   []SkippedDocument  `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Stats     Stats              `json:"stats" yaml:"stats"`
	Duration  time.Duration      `json:"duration_ns" yaml:"duration"`
	Completed time.Time          `json:"completed_at" yaml:"completed_at"`
}

// Analyzer wires the pipeline stages together. It keeps no state between runs.
type Analyzer struct {
	extractor  Extractor
	grouper    Grouper
	ranker     Ranker
	summarizer Summarizer
	topK       int
	logger     *slog.Logger
}

// New creates an analyzer. topK <= 0 selects DefaultTopK.
func New(extractor Extractor, grouper Grouper, ranker Ranker, summarizer Summarizer, topK int) *Analyzer {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Analyzer{
		extractor:  extractor,
		grouper:    grouper,
		ranker:     ranker,
		summarizer: summarizer,
		topK:       topK,
		logger:     slog.Default(),
	}
}

// TopK returns the number of sections a run returns at most.
func (a *Analyzer) TopK() int {
	return a.topK
}

// Analyze returns the sections of inputs most relevant to persona and task,
// each with a summary. Unreadable documents are skipped and reported in
// Result.Skipped. A cancelled context fails the run with the context error.
func (a *Analyzer) Analyze(ctx context.Context, inputs []document.Input, persona, task string) (*Result, error) {
	query := document.Query{Persona: persona, Task: task}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	runID := uuid.New()
	logger := contextutil.LoggerOr(ctx, a.logger).With("run_id", runID.String())
	ctx = contextutil.WithLogger(ctx, logger)

	logger.InfoContext(ctx, "analysis started", "documents", len(inputs), "persona", persona)

	result := &Result{RunID: runID, Persona: persona, Task: task}
	result.Stats.DocsProcessed = len(inputs)

	var chunks []document.Chunk
	for docIndex, in := range inputs {
		docChunks, err := a.extractor.Extract(ctx, in)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			var extErr *document.ExtractionError
			if !errors.As(err, &extErr) {
				return nil, document.WrapError(err, "failed to extract "+in.Name())
			}
			logger.WarnContext(ctx, "skipping document", "document", in.Name(), "error", err)
			result.Skipped = append(result.Skipped, SkippedDocument{Document: in.Name(), Reason: extErr.Err.Error()})
			result.Stats.DocsFailed++
			continue
		}
		if len(docChunks) == 0 {
			result.Stats.DocsWith0Chunks++
		}
		for _, c := range docChunks {
			c.DocIndex = docIndex
			chunks = append(chunks, c)
		}
	}
	result.Stats.ChunksExtracted = len(chunks)

	if len(chunks) == 0 {
		return nil, document.ErrNoContent
	}

	sections := a.grouper.Group(chunks)
	result.Stats.SectionsGrouped = len(sections)
	result.Stats.SectionTokenStats = sectionTokenStats(sections)
	if len(sections) == 0 {
		return nil, document.ErrNoSections
	}
	logger.DebugContext(ctx, "grouped sections", "chunks", len(chunks), "sections", len(sections))

	ranked, err := a.ranker.Rank(ctx, sections, query, a.topK)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, document.WrapError(err, "failed to rank sections")
	}
	result.Stats.SectionsRanked = len(ranked)

	summarized := a.summarizer.SummarizeAll(ctx, ranked, query)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, s := range summarized {
		if summarizer.IsErrorSummary(s.Summary) {
			result.Stats.SummariesFailed++
		}
	}
	result.Sections = summarized

	result.Completed = time.Now()
	result.Duration = result.Completed.Sub(start)

	logger.InfoContext(ctx, "analysis finished",
		"sections", len(result.Sections),
		"skipped", len(result.Skipped),
		"summaries_failed", result.Stats.SummariesFailed,
		"duration", result.Duration,
	)
	return result, nil
}
