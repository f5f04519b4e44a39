package main

import (
	"fmt"
	"strings"

	"github.com/quillforge/pdfrag/docstore"
)

const (
	citationPreviewLen = 200
	excerptLen         = 300
)

// FormatForCitation renders ranked results as citation entries in the given
// style. Three styles are recognized (ieee, apa, vancouver); anything else
// falls back to a generic bracket form. Ranking is the caller's business.
func FormatForCitation(results []docstore.SearchResult, style string) string {
	if len(results) == 0 {
		return "No relevant local documents found."
	}

	entries := make([]string, 0, len(results))
	for i, r := range results {
		var citation string
		switch strings.ToLower(style) {
		case "ieee":
			citation = fmt.Sprintf("[Local-%d] %s, page %d.", i+1, r.Filename, r.PageNum)
		case "apa":
			citation = fmt.Sprintf("(Local Document: %s, p. %d)", r.Filename, r.PageNum)
		case "vancouver":
			citation = fmt.Sprintf("L%d. %s. Page %d.", i+1, r.Filename, r.PageNum)
		default:
			citation = fmt.Sprintf("[%s, p. %d]", r.Filename, r.PageNum)
		}

		entries = append(entries, fmt.Sprintf("%s\nRelevant excerpt: %s\n",
			citation, truncate(r.Text, citationPreviewLen)))
	}

	return strings.Join(entries, "\n")
}

// FormatSearchResults renders ranked results in the shape the rag_search
// tool hands back to agents: a header line followed by one excerpt block per
// hit with its relevance score.
func FormatSearchResults(results []docstore.SearchResult) string {
	if len(results) == 0 {
		return "No relevant content found in local PDF library."
	}

	entries := make([]string, 0, len(results)+1)
	entries = append(entries, "=== LOCAL PDF LIBRARY RESULTS ===\n")
	for i, r := range results {
		entries = append(entries, fmt.Sprintf("[Local-%d] %s (page %d, relevance: %.2f)\nExcerpt: %s\n",
			i+1, r.Filename, r.PageNum, r.Score, truncate(r.Text, excerptLen)))
	}

	return strings.Join(entries, "\n")
}

// truncate cuts s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n]) + "..."
}
