package summarizer

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// Cleaner flattens model output to plain text: reasoning blocks are dropped
// and markdown markup is removed while its text is kept.
type Cleaner struct {
	parser goldmark.Markdown
}

// NewCleaner creates a new cleaner.
func NewCleaner() *Cleaner {
	return &Cleaner{parser: goldmark.New()}
}

// Clean returns the plain-text form of a model reply.
func (c *Cleaner) Clean(reply string) string {
	reply = thinkBlock.ReplaceAllString(reply, "")
	// An unterminated reasoning block swallows the rest of the reply.
	if i := strings.Index(reply, "<think>"); i >= 0 {
		reply = reply[:i]
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return ""
	}

	source := []byte(reply)
	doc := c.parser.Parser().Parse(text.NewReader(source))

	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				sb.Write(node.Segment.Value(source))
				if node.SoftLineBreak() {
					sb.WriteByte(' ')
				}
				if node.HardLineBreak() {
					sb.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				sb.Write(node.Value)
			}
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			if entering {
				lines := node.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					sb.Write(seg.Value(source))
				}
				return ast.WalkSkipChildren, nil
			}
		case *ast.Paragraph, *ast.Heading, *ast.ListItem:
			if !entering {
				sb.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})

	out := strings.TrimSpace(sb.String())
	return blankLines.ReplaceAllString(out, "\n\n")
}
