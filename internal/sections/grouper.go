package sections

import (
	"math"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"docinsight/internal/document"
)

// Options tunes heading detection.
type Options struct {
	// HeadingSizeRatio is how much larger than body text a chunk must be to count as a heading.
	HeadingSizeRatio float64
	// BoldHeadings treats short bold chunks as headings when body text is not bold.
	BoldHeadings bool
	// MaxHeadingRunes caps the length of a heading.
	MaxHeadingRunes int
	// MaxTitleRunes caps titles synthesized from body text.
	MaxTitleRunes int
}

// DefaultOptions returns the heading thresholds used when none are configured.
func DefaultOptions() Options {
	return Options{
		HeadingSizeRatio: 1.15,
		BoldHeadings:     true,
		MaxHeadingRunes:  120,
		MaxTitleRunes:    80,
	}
}

// Grouper turns chunk sequences into titled sections.
type Grouper struct {
	opts Options
}

// NewGrouper creates a grouper. Zero fields in opts fall back to DefaultOptions.
func NewGrouper(opts Options) *Grouper {
	def := DefaultOptions()
	if opts.HeadingSizeRatio <= 0 {
		opts.HeadingSizeRatio = def.HeadingSizeRatio
	}
	if opts.MaxHeadingRunes <= 0 {
		opts.MaxHeadingRunes = def.MaxHeadingRunes
	}
	if opts.MaxTitleRunes <= 0 {
		opts.MaxTitleRunes = def.MaxTitleRunes
	}
	return &Grouper{opts: opts}
}

// Group partitions chunks into sections, preserving document order.
// A document boundary always starts a new section. Sections with no
// content are dropped.
func (g *Grouper) Group(chunks []document.Chunk) []document.Section {
	var result []document.Section
	for _, docChunks := range splitByDocument(chunks) {
		for _, s := range g.groupDocument(docChunks) {
			s.ID = uuid.New()
			s.Index = len(result)
			result = append(result, s)
		}
	}
	return result
}

// splitByDocument cuts the sequence wherever the source document changes.
// Inputs may share a label, so the input position is compared as well.
func splitByDocument(chunks []document.Chunk) [][]document.Chunk {
	var groups [][]document.Chunk
	for i, c := range chunks {
		if i == 0 || chunks[i-1].DocIndex != c.DocIndex || chunks[i-1].Document != c.Document {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], c)
	}
	return groups
}

// builder accumulates one section.
type builder struct {
	title    []string
	content  []string
	page     int
	headless bool // Started by body text, title still to be synthesized
}

func (b *builder) hasContent() bool {
	return strings.TrimSpace(strings.Join(b.content, "")) != ""
}

func (g *Grouper) groupDocument(chunks []document.Chunk) []document.Section {
	if len(chunks) == 0 {
		return nil
	}
	docName := chunks[0].Document
	baseline, baselineBold := bodyStyle(chunks)

	var built []*builder
	var current *builder
	sawHeading := false

	for _, c := range chunks {
		text := strings.TrimSpace(c.Text)
		if text == "" {
			continue
		}

		if g.isHeading(c, text, baseline, baselineBold) {
			sawHeading = true
			// Stacked headings with no body between them form one title.
			if current != nil && !current.headless && !current.hasContent() {
				current.title = append(current.title, text)
				continue
			}
			current = &builder{title: []string{text}, page: c.Page}
			built = append(built, current)
			continue
		}

		if current == nil {
			current = &builder{page: c.Page, headless: true}
			built = append(built, current)
		}
		current.content = append(current.content, text)
	}

	if !sawHeading {
		// Whole document becomes one section named after the file.
		var content []string
		for _, b := range built {
			content = append(content, b.content...)
		}
		if len(content) == 0 {
			return nil
		}
		return []document.Section{{
			Document: docName,
			Title:    TitleFromFilename(docName),
			Page:     chunks[0].Page,
			Content:  strings.Join(content, "\n"),
		}}
	}

	var out []document.Section
	for _, b := range built {
		if !b.hasContent() {
			continue
		}
		title := strings.Join(b.title, " ")
		if b.headless {
			title = g.titleFromContent(b.content[0])
		}
		out = append(out, document.Section{
			Document: docName,
			Title:    title,
			Page:     b.page,
			Content:  strings.Join(b.content, "\n"),
		})
	}
	return out
}

// isHeading applies the size and weight heuristics relative to the document's body text.
func (g *Grouper) isHeading(c document.Chunk, text string, baseline float64, baselineBold bool) bool {
	if utf8.RuneCountInString(text) > g.opts.MaxHeadingRunes {
		return false
	}
	if !hasLetter(text) {
		return false
	}
	if baseline > 0 && c.Style.FontSize >= baseline*g.opts.HeadingSizeRatio {
		return true
	}
	if g.opts.BoldHeadings && c.Style.Bold && !baselineBold && c.Style.FontSize >= baseline-0.5 {
		return true
	}
	return false
}

// bodyStyle returns the font size carrying the most characters and whether that text is bold.
func bodyStyle(chunks []document.Chunk) (float64, bool) {
	type key struct {
		size float64
		bold bool
	}
	weights := make(map[key]int)
	for _, c := range chunks {
		k := key{size: math.Round(c.Style.FontSize*10) / 10, bold: c.Style.Bold}
		weights[k] += utf8.RuneCountInString(c.Text)
	}

	var best key
	bestWeight := -1
	for k, w := range weights {
		// Ties go to the smaller, non-bold style.
		if w > bestWeight ||
			(w == bestWeight && (k.size < best.size || (k.size == best.size && !k.bold && best.bold))) {
			best, bestWeight = k, w
		}
	}
	return best.size, best.bold
}

// titleFromContent uses the first line of body text, shortened on a word boundary.
func (g *Grouper) titleFromContent(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, "\n"); i >= 0 {
		text = text[:i]
	}
	if end := sentenceEnd(text); end > 0 {
		text = text[:end]
	}
	if utf8.RuneCountInString(text) <= g.opts.MaxTitleRunes {
		return text
	}

	runes := []rune(text)[:g.opts.MaxTitleRunes]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "..."
}

// sentenceEnd returns the index just past the first sentence-ending period, or 0.
func sentenceEnd(text string) int {
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 == len(text) || text[i+1] == ' ' {
				return i + 1
			}
		}
	}
	return 0
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// TitleFromFilename builds a title by removing the extension and capitalizing words.
func TitleFromFilename(filename string) string {
	name := filepath.Base(filename)
	ext := filepath.Ext(name)
	if ext != "" {
		name = name[:len(name)-len(ext)]
	}

	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}

	return strings.Join(words, " ")
}
