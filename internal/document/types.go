package document

import (
	"strings"

	"github.com/google/uuid"
)

// Input is one PDF handed to the pipeline by the file input collaborator.
type Input struct {
	Path         string // Location on disk
	OriginalName string // Name the document is reported under
}

// Name returns the label used for the document in results.
func (in Input) Name() string {
	if in.OriginalName != "" {
		return in.OriginalName
	}
	return in.Path
}

// Style carries the layout hints the grouper uses to spot headings.
type Style struct {
	FontSize float64 `json:"font_size"`
	Bold     bool    `json:"bold"`
	FontName string  `json:"font_name,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// Chunk is a contiguous run of text with uniform style on a single page.
type Chunk struct {
	Text     string `json:"text"`
	Page     int    `json:"page"` // 1-based
	Document string `json:"document"`
	DocIndex int    `json:"doc_index"` // Position of the source input within the request
	Style    Style  `json:"style"`
	Order    int    `json:"order"` // Position within the document's chunk sequence
}

// Section is a titled group of chunks, the unit that gets ranked and summarized.
type Section struct {
	ID       uuid.UUID `json:"id" yaml:"id"`
	Index    int       `json:"-" yaml:"-"` // First-seen order across the request
	Document string    `json:"document" yaml:"document"`
	Title    string    `json:"section_title" yaml:"section_title"`
	Page     int       `json:"page_number" yaml:"page_number"`
	Content  string    `json:"content,omitempty" yaml:"content,omitempty"`
	Score    float64   `json:"score" yaml:"score"`
	Summary  string    `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// EmbeddingText is the text embedded for relevance scoring.
func (s Section) EmbeddingText() string {
	return s.Title + " " + s.Content
}

// Query is the persona and the task they want to get done.
type Query struct {
	Persona string
	Task    string
}

// Text is the combined query string that gets embedded.
func (q Query) Text() string {
	return q.Persona + " " + q.Task
}

// Validate checks that both fields carry text.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Persona) == "" {
		return &ValidationError{Field: "persona", Message: "persona is required"}
	}
	if strings.TrimSpace(q.Task) == "" {
		return &ValidationError{Field: "task", Message: "task is required"}
	}
	return nil
}
