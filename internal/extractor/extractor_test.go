package extractor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docinsight/internal/document"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func guidePDF() []byte {
	return buildPDF([][]textOp{
		{
			{font: "F2", size: 18, x: 72, y: 720, text: "Travel Guide"},
			{font: "F1", size: 12, x: 72, y: 690, text: "Nice is a city on the coast."},
			{font: "F1", size: 12, x: 72, y: 676, text: "It has beaches."},
			{font: "F2", size: 14, x: 72, y: 640, text: "Food"},
			{font: "F1", size: 12, x: 72, y: 620, text: "Try socca."},
		},
		{
			{font: "F1", size: 12, x: 72, y: 700, text: "Second page text."},
		},
	})
}

func TestExtractor_ExtractReader(t *testing.T) {
	data := guidePDF()
	chunks, err := New().ExtractReader(context.Background(), "guide.pdf", bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, chunks, 5)

	want := []struct {
		text string
		page int
		bold bool
		size float64
	}{
		{"Travel Guide", 1, true, 18},
		{"Nice is a city on the coast. It has beaches.", 1, false, 12},
		{"Food", 1, true, 14},
		{"Try socca.", 1, false, 12},
		{"Second page text.", 2, false, 12},
	}
	for i, w := range want {
		assert.Equal(t, w.text, chunks[i].Text, "chunk %d text", i)
		assert.Equal(t, w.page, chunks[i].Page, "chunk %d page", i)
		assert.Equal(t, w.bold, chunks[i].Style.Bold, "chunk %d bold", i)
		assert.InDelta(t, w.size, chunks[i].Style.FontSize, 0.01, "chunk %d size", i)
		assert.Equal(t, "guide.pdf", chunks[i].Document)
		assert.Equal(t, i, chunks[i].Order)
	}
}

func TestExtractor_PageOrderNonDecreasing(t *testing.T) {
	data := guidePDF()
	chunks, err := New().ExtractReader(context.Background(), "guide.pdf", bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	for i := 1; i < len(chunks); i++ {
		assert.LessOrEqual(t, chunks[i-1].Page, chunks[i].Page)
	}
}

func TestExtractor_ReadingOrder(t *testing.T) {
	// Lower text is written to the stream first.
	data := buildPDF([][]textOp{{
		{font: "F1", size: 12, x: 72, y: 300, text: "Bottom paragraph."},
		{font: "F2", size: 12, x: 72, y: 700, text: "Top heading"},
	}})

	chunks, err := New().ExtractReader(context.Background(), "order.pdf", bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Top heading", chunks[0].Text)
	assert.Equal(t, "Bottom paragraph.", chunks[1].Text)
}

func TestExtractor_EmptyPage(t *testing.T) {
	data := buildPDF([][]textOp{{}})

	chunks, err := New().ExtractReader(context.Background(), "blank.pdf", bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestExtractor_CorruptDocument(t *testing.T) {
	data := []byte("this is not a pdf at all")

	_, err := New().ExtractReader(context.Background(), "broken.pdf", bytes.NewReader(data), int64(len(data)))
	require.Error(t, err)

	var extractionErr *document.ExtractionError
	require.True(t, errors.As(err, &extractionErr))
	assert.Equal(t, "broken.pdf", extractionErr.Document)
}

func TestExtractor_Extract(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "upload-123.pdf")
	require.NoError(t, os.WriteFile(path, guidePDF(), 0o644))

	chunks, err := New().Extract(context.Background(), document.Input{Path: path, OriginalName: "guide.pdf"})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "guide.pdf", chunks[0].Document)
}

func TestExtractor_MissingFile(t *testing.T) {
	_, err := New().Extract(context.Background(), document.Input{Path: filepath.Join(t.TempDir(), "missing.pdf")})

	var extractionErr *document.ExtractionError
	require.True(t, errors.As(err, &extractionErr))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestExtractor_CancelledContext(t *testing.T) {
	data := guidePDF()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().ExtractReader(ctx, "guide.pdf", bytes.NewReader(data), int64(len(data)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildLines(t *testing.T) {
	glyph := func(s string, x, y float64) pdf.Text {
		return pdf.Text{Font: "Helvetica", FontSize: 10, X: x, Y: y, W: 5, S: s}
	}

	tests := []struct {
		name   string
		glyphs []pdf.Text
		want   []string
	}{
		{
			name:   "empty",
			glyphs: nil,
			want:   nil,
		},
		{
			name:   "word gap becomes space",
			glyphs: []pdf.Text{glyph("a", 0, 100), glyph("b", 5, 100), glyph("c", 20, 100)},
			want:   []string{"ab c"},
		},
		{
			name:   "glyphs out of order on one line",
			glyphs: []pdf.Text{glyph("b", 5, 100), glyph("a", 0, 100)},
			want:   []string{"ab"},
		},
		{
			name:   "small baseline drift stays on the line",
			glyphs: []pdf.Text{glyph("x", 0, 100), glyph("2", 5, 102)},
			want:   []string{"x2"},
		},
		{
			name:   "separate lines top first",
			glyphs: []pdf.Text{glyph("low", 0, 50), glyph("high", 0, 100)},
			want:   []string{"high", "low"},
		},
		{
			name:   "whitespace glyphs are dropped",
			glyphs: []pdf.Text{glyph(" ", 0, 100)},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := buildLines(tt.glyphs)
			var got []string
			for _, l := range lines {
				got = append(got, l.text)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildBlocks(t *testing.T) {
	lines := []line{
		{text: "Heading", y: 700, fontName: "Arial-Bold", fontSize: 16},
		{text: "first", y: 680, fontName: "Arial", fontSize: 10},
		{text: "second", y: 668, fontName: "Arial", fontSize: 10},
		{text: "far below", y: 400, fontName: "Arial", fontSize: 10},
	}

	blocks := buildBlocks(lines)
	require.Len(t, blocks, 3)
	assert.Equal(t, "Heading", blocks[0].text())
	assert.True(t, blocks[0].style().Bold)
	assert.Equal(t, "first second", blocks[1].text())
	assert.Equal(t, "far below", blocks[2].text())
}

func TestIsBoldFont(t *testing.T) {
	tests := map[string]bool{
		"Helvetica-Bold":      true,
		"Arial,Bold":          true,
		"Roboto-Black":        true,
		"OpenSans-SemiBold":   true,
		"Helvetica":           false,
		"TimesNewRomanPSMT":   false,
		"Courier-BoldOblique": true,
	}
	for name, want := range tests {
		if got := isBoldFont(name); got != want {
			t.Errorf("isBoldFont(%q) = %v, want %v", name, got, want)
		}
	}
}
