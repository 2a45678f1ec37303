package document

import (
	"errors"
	"fmt"
)

var (
	// ErrNoContent is returned when no document yielded any text.
	ErrNoContent = errors.New("no content could be extracted from the documents")
	// ErrNoSections is returned when grouping produced nothing to rank.
	ErrNoSections = errors.New("no sections could be identified in the documents")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// ExtractionError reports a document that could not be read.
type ExtractionError struct {
	Document string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract %s: %v", e.Document, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// EmbeddingUnavailableError reports a failed call to the embedding backend.
type EmbeddingUnavailableError struct {
	Err error
}

func (e *EmbeddingUnavailableError) Error() string {
	return fmt.Sprintf("embedding service unavailable: %v", e.Err)
}

func (e *EmbeddingUnavailableError) Unwrap() error {
	return e.Err
}

// SummarizationError reports a failed summary for a single section.
type SummarizationError struct {
	Section string
	Err     error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("failed to summarize section %q: %v", e.Section, e.Err)
}

func (e *SummarizationError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
