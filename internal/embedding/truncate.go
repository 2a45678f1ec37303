package embedding

import (
	"log/slog"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// runesPerToken approximates token counts when no tokenizer is available.
const runesPerToken = 4

type tokenizer interface {
	Encode(text string, allowedSpecial []string, disallowedSpecial []string) []int
	Decode(tokens []int) string
}

// Truncator caps text at a token budget so it fits the embedding model's context.
type Truncator struct {
	maxTokens int
	tok       tokenizer
}

// NewTruncator uses the cl100k_base encoding as the token estimate. If the
// encoding cannot be loaded it falls back to a rune-count estimate.
func NewTruncator(maxTokens int) *Truncator {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		slog.Warn("tokenizer unavailable, estimating tokens from rune count", "error", err)
		return NewRuneTruncator(maxTokens)
	}
	return &Truncator{maxTokens: maxTokens, tok: enc}
}

// NewRuneTruncator estimates tokens from rune count only.
func NewRuneTruncator(maxTokens int) *Truncator {
	return &Truncator{maxTokens: maxTokens}
}

// Truncate returns text cut to at most maxTokens tokens.
func (t *Truncator) Truncate(text string) string {
	if t == nil || t.maxTokens <= 0 {
		return text
	}

	if t.tok == nil {
		limit := t.maxTokens * runesPerToken
		if utf8.RuneCountInString(text) <= limit {
			return text
		}
		return string([]rune(text)[:limit])
	}

	tokens := t.tok.Encode(text, nil, nil)
	if len(tokens) <= t.maxTokens {
		return text
	}
	// A token boundary can fall inside a multi-byte rune.
	out := t.tok.Decode(tokens[:t.maxTokens])
	for !utf8.ValidString(out) {
		_, size := utf8.DecodeLastRuneInString(out)
		out = out[:len(out)-size]
	}
	return out
}
