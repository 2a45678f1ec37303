package analyzer

import (
	"math"
	"sort"
	"unicode/utf8"

	"docinsight/internal/document"
)

// TokensPerRune approximates token counts (4 chars per token).
const TokensPerRune = 4.0

// Stats describes what a run processed.
type Stats struct {
	// DocsProcessed is the number of documents handed to the run.
	DocsProcessed int `json:"docs_processed" yaml:"docs_processed"`
	// DocsFailed is the number of documents skipped because they could not be read.
	DocsFailed int `json:"docs_failed" yaml:"docs_failed"`
	// DocsWith0Chunks is the number of readable documents without any text.
	DocsWith0Chunks int `json:"docs_with_0_chunks" yaml:"docs_with_0_chunks"`
	ChunksExtracted int `json:"chunks_extracted" yaml:"chunks_extracted"`
	SectionsGrouped int `json:"sections_grouped" yaml:"sections_grouped"`
	SectionsRanked  int `json:"sections_ranked" yaml:"sections_ranked"`
	// SummariesFailed counts sections whose summary is an error marker.
	SummariesFailed int `json:"summaries_failed" yaml:"summaries_failed"`
	// SectionTokenStats is the estimated size of the grouped sections.
	SectionTokenStats TokenStats `json:"section_token_stats" yaml:"section_token_stats"`
}

// TokenStats contains statistics about token counts.
type TokenStats struct {
	Min  int     `json:"min" yaml:"min"`
	Max  int     `json:"max" yaml:"max"`
	Mean float64 `json:"mean" yaml:"mean"`
	P95  int     `json:"p95" yaml:"p95"`
}

// EstimateTokens estimates the token count of text from its rune count.
func EstimateTokens(text string) int {
	n := int(math.Round(float64(utf8.RuneCountInString(text)) / TokensPerRune))
	if n < 1 {
		return 1
	}
	return n
}

func sectionTokenStats(sections []document.Section) TokenStats {
	counts := make([]int, 0, len(sections))
	for _, s := range sections {
		counts = append(counts, EstimateTokens(s.EmbeddingText()))
	}
	return computeTokenStats(counts)
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) TokenStats {
	if len(tokenCounts) == 0 {
		return TokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range sorted {
		sum += count
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	if p95Index < 0 {
		p95Index = 0
	}

	return TokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100, // 2 decimal places
		P95:  sorted[p95Index],
	}
}
