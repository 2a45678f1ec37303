package extractor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"docinsight/internal/contextutil"
	"docinsight/internal/document"
)

const (
	// wordGapRatio is the horizontal gap, relative to font size, that counts as a space.
	// The PDF content stream does not carry space glyphs, so words are rebuilt from gaps.
	wordGapRatio = 0.15
	// lineTolerance is the baseline drift, relative to font size, still treated as one line.
	lineTolerance = 0.5
	// blockGapRatio is the largest line gap, relative to font size, inside one text run.
	blockGapRatio = 2.0
	// sizeTolerance is the font size difference (points) still treated as the same style.
	sizeTolerance = 0.5
)

// Extractor turns PDF documents into ordered, styled text chunks.
type Extractor struct {
	logger *slog.Logger
}

// New creates a new PDF extractor.
func New() *Extractor {
	return &Extractor{
		logger: slog.Default(),
	}
}

// getLogger extracts logger from context or returns default logger.
func (e *Extractor) getLogger(ctx context.Context) *slog.Logger {
	return contextutil.LoggerOr(ctx, e.logger)
}

// Extract reads the PDF at in.Path and returns its chunks in reading order.
// Unreadable files fail with *document.ExtractionError. A PDF without
// extractable text yields no chunks and no error.
func (e *Extractor) Extract(ctx context.Context, in document.Input) ([]document.Chunk, error) {
	f, err := os.Open(in.Path)
	if err != nil {
		return nil, &document.ExtractionError{Document: in.Name(), Err: err}
	}
	defer func() {
		_ = f.Close()
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, &document.ExtractionError{Document: in.Name(), Err: err}
	}

	return e.ExtractReader(ctx, in.Name(), f, info.Size())
}

// ExtractReader is Extract for an already opened document.
func (e *Extractor) ExtractReader(ctx context.Context, name string, r io.ReaderAt, size int64) (chunks []document.Chunk, err error) {
	logger := e.getLogger(ctx)

	// The PDF library panics on some malformed object streams.
	defer func() {
		if rec := recover(); rec != nil {
			chunks = nil
			err = &document.ExtractionError{Document: name, Err: fmt.Errorf("malformed pdf: %v", rec)}
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, &document.ExtractionError{Document: name, Err: err}
	}

	numPages := reader.NumPage()
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		lines := buildLines(page.Content().Text)
		for _, block := range buildBlocks(lines) {
			chunks = append(chunks, document.Chunk{
				Text:     block.text(),
				Page:     pageNum,
				Document: name,
				Style:    block.style(),
				Order:    len(chunks),
			})
		}
	}

	logger.DebugContext(ctx, "extracted document", "document", name, "pages", numPages, "chunks", len(chunks))
	return chunks, nil
}

// line is one baseline worth of glyphs, already joined into words.
type line struct {
	text     string
	x, y     float64
	fontName string
	fontSize float64
}

// buildLines groups positioned glyphs into lines, top to bottom.
func buildLines(glyphs []pdf.Text) []line {
	if len(glyphs) == 0 {
		return nil
	}

	sorted := make([]pdf.Text, 0, len(glyphs))
	for _, g := range glyphs {
		if strings.TrimSpace(g.S) == "" {
			continue
		}
		sorted = append(sorted, g)
	}
	// PDF origin is bottom-left: larger Y is higher on the page.
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []line
	var current []pdf.Text
	flush := func() {
		if len(current) > 0 {
			lines = append(lines, assembleLine(current))
			current = nil
		}
	}

	for _, g := range sorted {
		if len(current) > 0 {
			ref := current[0]
			tol := lineTolerance * math.Max(ref.FontSize, 1)
			if math.Abs(ref.Y-g.Y) > tol {
				flush()
			}
		}
		current = append(current, g)
	}
	flush()

	return lines
}

// assembleLine orders glyphs left to right and re-inserts word spaces.
func assembleLine(glyphs []pdf.Text) line {
	sort.SliceStable(glyphs, func(i, j int) bool {
		return glyphs[i].X < glyphs[j].X
	})

	var sb strings.Builder
	chars := make(map[styleKey]int)
	for i, g := range glyphs {
		if i > 0 {
			prev := glyphs[i-1]
			gap := g.X - (prev.X + prev.W)
			if gap > wordGapRatio*math.Max(prev.FontSize, 1) {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(g.S)
		chars[styleKey{font: g.Font, size: roundSize(g.FontSize)}] += len([]rune(g.S))
	}

	// The line takes the style carrying most of its characters.
	var dominant styleKey
	best := -1
	for k, n := range chars {
		if n > best || (n == best && (k.size > dominant.size || (k.size == dominant.size && k.font < dominant.font))) {
			dominant, best = k, n
		}
	}

	return line{
		text:     strings.TrimSpace(sb.String()),
		x:        glyphs[0].X,
		y:        glyphs[0].Y,
		fontName: dominant.font,
		fontSize: dominant.size,
	}
}

type styleKey struct {
	font string
	size float64
}

func roundSize(size float64) float64 {
	return math.Round(size*10) / 10
}

// block is a run of consecutive lines sharing one style.
type block struct {
	lines []line
}

func (b block) text() string {
	parts := make([]string, 0, len(b.lines))
	for _, l := range b.lines {
		if l.text != "" {
			parts = append(parts, l.text)
		}
	}
	return strings.Join(parts, " ")
}

func (b block) style() document.Style {
	first := b.lines[0]
	return document.Style{
		FontSize: first.fontSize,
		Bold:     isBoldFont(first.fontName),
		FontName: first.fontName,
		X:        first.x,
		Y:        first.y,
	}
}

// buildBlocks merges vertically adjacent lines of the same style.
func buildBlocks(lines []line) []block {
	var blocks []block
	for _, l := range lines {
		if l.text == "" {
			continue
		}
		if n := len(blocks); n > 0 {
			last := blocks[n-1].lines[len(blocks[n-1].lines)-1]
			sameStyle := last.fontName == l.fontName && math.Abs(last.fontSize-l.fontSize) <= sizeTolerance
			closeBy := last.y-l.y <= blockGapRatio*math.Max(l.fontSize, 1)
			if sameStyle && closeBy {
				blocks[n-1].lines = append(blocks[n-1].lines, l)
				continue
			}
		}
		blocks = append(blocks, block{lines: []line{l}})
	}
	return blocks
}

// isBoldFont reports whether a base font name denotes a heavy weight.
func isBoldFont(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range []string{"bold", "black", "heavy", "semibold", "demi"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
