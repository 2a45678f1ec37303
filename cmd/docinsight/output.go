package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"docinsight/internal/analyzer"
	"docinsight/internal/document"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func checkFormat(format string, allowed ...string) error {
	if !slices.Contains(allowed, format) {
		return fmt.Errorf("unsupported format %q (use %s)", format, strings.Join(allowed, ", "))
	}
	return nil
}

func renderResult(w io.Writer, result *analyzer.Result, format string) error {
	switch format {
	case formatJSON:
		return writeJSON(w, result)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		return enc.Close()
	default:
		return writeResultText(w, result)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

func writeResultText(w io.Writer, result *analyzer.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Persona: %s\n", result.Persona)
	fmt.Fprintf(&b, "Task:    %s\n", result.Task)
	fmt.Fprintf(&b, "Run:     %s\n", result.RunID)

	for i, s := range result.Sections {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, s.Title)
		fmt.Fprintf(&b, "   %s, page %d (score %.4f)\n", s.Document, s.Page, s.Score)
		for _, line := range strings.Split(s.Summary, "\n") {
			fmt.Fprintf(&b, "   %s\n", line)
		}
	}

	if len(result.Skipped) > 0 {
		b.WriteString("\nSkipped documents:\n")
		for _, sk := range result.Skipped {
			fmt.Fprintf(&b, "  - %s: %s\n", sk.Document, sk.Reason)
		}
	}

	st := result.Stats
	fmt.Fprintf(&b, "\n%d documents, %d chunks, %d sections; %d summaries failed\n",
		st.DocsProcessed, st.ChunksExtracted, st.SectionsGrouped, st.SummariesFailed)

	_, err := io.WriteString(w, b.String())
	return err
}

// extraction is the diagnostic view of one document.
type extraction struct {
	Document string             `json:"document"`
	Chunks   []document.Chunk   `json:"chunks"`
	Sections []document.Section `json:"sections"`
}

func renderExtraction(w io.Writer, name string, chunks []document.Chunk, secs []document.Section, format string) error {
	if format == formatJSON {
		return writeJSON(w, extraction{Document: name, Chunks: chunks, Sections: secs})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d chunks, %d sections\n\nChunks:\n", name, len(chunks), len(secs))
	for _, c := range chunks {
		weight := "regular"
		if c.Style.Bold {
			weight = "bold"
		}
		fmt.Fprintf(&b, "  p%-3d %5.1fpt %-7s %s\n", c.Page, c.Style.FontSize, weight, firstLine(c.Text, 80))
	}

	b.WriteString("\nSections:\n")
	for _, s := range secs {
		fmt.Fprintf(&b, "  p%-3d %s (%d tokens)\n", s.Page, s.Title, analyzer.EstimateTokens(s.EmbeddingText()))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// firstLine returns the first line of text, shortened to max runes.
func firstLine(text string, max int) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	runes := []rune(text)
	if len(runes) > max {
		return string(runes[:max-3]) + "..."
	}
	return text
}
