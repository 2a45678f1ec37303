package document

import (
	"errors"
	"io"
	"testing"
)

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "persona", Message: "persona is required"}
	want := "validation error on field persona: persona is required"
	if err.Error() != want {
		t.Errorf("ValidationError.Error() = %v, want %v", err.Error(), want)
	}
}

func TestExtractionError_Unwrap(t *testing.T) {
	err := &ExtractionError{Document: "a.pdf", Err: io.ErrUnexpectedEOF}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("ExtractionError should unwrap to its cause")
	}

	wrapped := WrapError(err, "failed to read batch")
	var extractionErr *ExtractionError
	if !errors.As(wrapped, &extractionErr) {
		t.Fatal("errors.As() should find ExtractionError through wrapping")
	}
	if extractionErr.Document != "a.pdf" {
		t.Errorf("Document = %v, want a.pdf", extractionErr.Document)
	}
}

func TestEmbeddingUnavailableError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &EmbeddingUnavailableError{Err: cause}
	if !errors.Is(err, cause) {
		t.Error("EmbeddingUnavailableError should unwrap to its cause")
	}
}

func TestWrapError(t *testing.T) {
	if WrapError(nil, "context") != nil {
		t.Error("WrapError(nil) should return nil")
	}

	err := WrapError(ErrNoSections, "failed to rank")
	if !errors.Is(err, ErrNoSections) {
		t.Error("WrapError() should preserve the sentinel")
	}
	if err.Error() != "failed to rank: "+ErrNoSections.Error() {
		t.Errorf("WrapError() = %v", err)
	}
}

func TestQuery(t *testing.T) {
	tests := []struct {
		name      string
		query     Query
		wantField string
	}{
		{name: "valid", query: Query{Persona: "Travel Planner", Task: "Plan a trip"}},
		{name: "blank persona", query: Query{Persona: "  ", Task: "Plan a trip"}, wantField: "persona"},
		{name: "empty task", query: Query{Persona: "Travel Planner"}, wantField: "task"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) || validationErr.Field != tt.wantField {
				t.Errorf("Validate() error = %v, want field %s", err, tt.wantField)
			}
		})
	}

	q := Query{Persona: "HR professional", Task: "Create fillable forms"}
	if q.Text() != "HR professional Create fillable forms" {
		t.Errorf("Text() = %q", q.Text())
	}
}
