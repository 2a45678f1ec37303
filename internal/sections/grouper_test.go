package sections

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docinsight/internal/document"
)

func body(doc string, page int, text string) document.Chunk {
	return document.Chunk{Document: doc, Page: page, Text: text, Style: document.Style{FontSize: 10}}
}

func heading(doc string, page int, text string) document.Chunk {
	return document.Chunk{Document: doc, Page: page, Text: text, Style: document.Style{FontSize: 16, Bold: true}}
}

func boldBody(doc string, page int, text string) document.Chunk {
	return document.Chunk{Document: doc, Page: page, Text: text, Style: document.Style{FontSize: 10, Bold: true}}
}

func TestGrouper_Group(t *testing.T) {
	chunks := []document.Chunk{
		heading("guide.pdf", 1, "Coastal Adventures"),
		body("guide.pdf", 1, "Beaches along the Riviera are the main attraction of the region."),
		body("guide.pdf", 2, "Water sports are popular in summer."),
		heading("guide.pdf", 3, "Nightlife"),
		body("guide.pdf", 3, "Bars in Nice stay open late and the old town is lively."),
	}

	got := NewGrouper(DefaultOptions()).Group(chunks)
	require.Len(t, got, 2)

	assert.Equal(t, "Coastal Adventures", got[0].Title)
	assert.Equal(t, 1, got[0].Page)
	assert.Equal(t, "Beaches along the Riviera are the main attraction of the region.\nWater sports are popular in summer.", got[0].Content)
	assert.Equal(t, "Nightlife", got[1].Title)
	assert.Equal(t, 3, got[1].Page)

	for i, s := range got {
		assert.Equal(t, "guide.pdf", s.Document)
		assert.Equal(t, i, s.Index)
		assert.NotEqual(t, uuid.Nil, s.ID)
	}
}

func TestGrouper_NoHeadingsYieldsOneSection(t *testing.T) {
	chunks := []document.Chunk{
		body("packing_list-summer.pdf", 2, "Bring sunscreen and a hat for the beach days."),
		body("packing_list-summer.pdf", 3, "A light jacket helps in the evenings."),
	}

	got := NewGrouper(DefaultOptions()).Group(chunks)
	require.Len(t, got, 1)
	assert.Equal(t, "Packing List Summer", got[0].Title)
	assert.Equal(t, 2, got[0].Page)
	assert.Contains(t, got[0].Content, "sunscreen")
	assert.Contains(t, got[0].Content, "light jacket")
}

func TestGrouper_LeadingBodyGetsSynthesizedTitle(t *testing.T) {
	chunks := []document.Chunk{
		body("doc.pdf", 1, "Welcome to the south of France. This guide covers the essentials of the trip."),
		body("doc.pdf", 1, "It was written for groups of friends travelling on a budget."),
		heading("doc.pdf", 2, "Cuisine"),
		body("doc.pdf", 2, "Try bouillabaisse in Marseille and socca in Nice."),
	}

	got := NewGrouper(DefaultOptions()).Group(chunks)
	require.Len(t, got, 2)
	assert.Equal(t, "Welcome to the south of France.", got[0].Title)
	assert.Equal(t, 1, got[0].Page)
	assert.Equal(t, "Cuisine", got[1].Title)
}

func TestGrouper_DocumentBoundaryForcesNewSection(t *testing.T) {
	chunks := []document.Chunk{
		heading("a.pdf", 1, "Overview"),
		body("a.pdf", 1, "Content of the first document in the batch."),
		body("b.pdf", 1, "Content of the second document, which has no headings at all."),
	}

	got := NewGrouper(DefaultOptions()).Group(chunks)
	require.Len(t, got, 2)
	assert.Equal(t, "a.pdf", got[0].Document)
	assert.Equal(t, "b.pdf", got[1].Document)
	assert.Equal(t, "B", got[1].Title)
	assert.NotContains(t, got[0].Content, "second document")
}

func TestGrouper_SameNamedDocumentsStaySeparate(t *testing.T) {
	first := []document.Chunk{
		heading("report.pdf", 1, "Intro"),
		body("report.pdf", 1, "First document body text about quarterly travel budgets."),
	}
	second := []document.Chunk{
		body("report.pdf", 1, "Second document body without any heading at all."),
	}
	for i := range second {
		second[i].DocIndex = 1
	}

	got := NewGrouper(DefaultOptions()).Group(append(first, second...))

	require.Len(t, got, 2)
	assert.Equal(t, "Intro", got[0].Title)
	assert.NotContains(t, got[0].Content, "Second document")
	assert.Equal(t, "Report", got[1].Title)
	assert.Equal(t, "Second document body without any heading at all.", got[1].Content)
}

func TestGrouper_StackedHeadingsJoin(t *testing.T) {
	chunks := []document.Chunk{
		heading("doc.pdf", 1, "Part One"),
		heading("doc.pdf", 1, "Getting Started"),
		body("doc.pdf", 1, "Install the tools before the workshop begins tomorrow."),
	}

	got := NewGrouper(DefaultOptions()).Group(chunks)
	require.Len(t, got, 1)
	assert.Equal(t, "Part One Getting Started", got[0].Title)
}

func TestGrouper_DropsEmptySections(t *testing.T) {
	chunks := []document.Chunk{
		heading("doc.pdf", 1, "Intro"),
		body("doc.pdf", 1, "Some introductory words about the forms workflow."),
		heading("doc.pdf", 5, "Appendix"),
		body("doc.pdf", 5, "   "),
	}

	got := NewGrouper(DefaultOptions()).Group(chunks)
	require.Len(t, got, 1)
	assert.Equal(t, "Intro", got[0].Title)
}

func TestGrouper_BoldHeadingsOption(t *testing.T) {
	chunks := []document.Chunk{
		boldBody("doc.pdf", 1, "Signatures"),
		body("doc.pdf", 1, "Use the fill and sign tool to request signatures from others."),
		body("doc.pdf", 1, "Recipients get an email with a link to the form."),
	}

	withBold := NewGrouper(DefaultOptions()).Group(chunks)
	require.Len(t, withBold, 1)
	assert.Equal(t, "Signatures", withBold[0].Title)

	opts := DefaultOptions()
	opts.BoldHeadings = false
	withoutBold := NewGrouper(opts).Group(chunks)
	require.Len(t, withoutBold, 1)
	assert.Equal(t, "Doc", withoutBold[0].Title)
	assert.Contains(t, withoutBold[0].Content, "Signatures")
}

func TestGrouper_LongLargeTextIsNotHeading(t *testing.T) {
	long := document.Chunk{
		Document: "doc.pdf",
		Page:     1,
		Text:     "This oversized paragraph keeps going well past any reasonable heading length because it is a pull quote rather than a title of anything.",
		Style:    document.Style{FontSize: 16},
	}
	chunks := []document.Chunk{
		long,
		body("doc.pdf", 1, "Body text follows the pull quote and is the bulk of the document content here."),
		body("doc.pdf", 1, "More body text so that ten point remains the dominant size in the document."),
	}

	got := NewGrouper(DefaultOptions()).Group(chunks)
	require.Len(t, got, 1)
	assert.Equal(t, "Doc", got[0].Title)
}

func TestGrouper_Empty(t *testing.T) {
	assert.Empty(t, NewGrouper(Options{}).Group(nil))
}

func TestBodyStyle(t *testing.T) {
	chunks := []document.Chunk{
		heading("d", 1, "Short"),
		body("d", 1, "A much longer stretch of body text"),
	}
	size, bold := bodyStyle(chunks)
	assert.Equal(t, 10.0, size)
	assert.False(t, bold)
}

func TestTitleFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"guide.pdf", "Guide"},
		{"south of france.pdf", "South Of France"},
		{"/tmp/uploads/learn_acrobat-forms.pdf", "Learn Acrobat Forms"},
		{"noext", "Noext"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, TitleFromFilename(tt.filename))
		})
	}
}

func TestTitleFromContent(t *testing.T) {
	g := NewGrouper(Options{MaxTitleRunes: 20})
	assert.Equal(t, "Short sentence.", g.titleFromContent("Short sentence. And more after it."))
	assert.Equal(t, "a long run of words...", g.titleFromContent("a long run of words without any punctuation"))
}
