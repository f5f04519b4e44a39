package main

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quillforge/pdfrag/docstore"
)

func citationFixtures() []docstore.SearchResult {
	return []docstore.SearchResult{
		{
			Chunk: docstore.Chunk{Filename: "attention.pdf", PageNum: 3, Text: "Attention mechanisms weigh token relevance."},
			Score: 0.91,
		},
		{
			Chunk: docstore.Chunk{Filename: "survey.pdf", PageNum: 12, Text: "Transformer variants trade compute for quality."},
			Score: 0.5,
		},
	}
}

func Test_FormatForCitation(t *testing.T) {
	var cases = []struct {
		style  string
		output string
	}{
		{
			style: "ieee",
			output: "[Local-1] attention.pdf, page 3.\n" +
				"Relevant excerpt: Attention mechanisms weigh token relevance.\n" +
				"\n" +
				"[Local-2] survey.pdf, page 12.\n" +
				"Relevant excerpt: Transformer variants trade compute for quality.\n",
		},
		{
			style: "apa",
			output: "(Local Document: attention.pdf, p. 3)\n" +
				"Relevant excerpt: Attention mechanisms weigh token relevance.\n" +
				"\n" +
				"(Local Document: survey.pdf, p. 12)\n" +
				"Relevant excerpt: Transformer variants trade compute for quality.\n",
		},
		{
			style: "vancouver",
			output: "L1. attention.pdf. Page 3.\n" +
				"Relevant excerpt: Attention mechanisms weigh token relevance.\n" +
				"\n" +
				"L2. survey.pdf. Page 12.\n" +
				"Relevant excerpt: Transformer variants trade compute for quality.\n",
		},
		{
			style: "chicago",
			output: "[attention.pdf, p. 3]\n" +
				"Relevant excerpt: Attention mechanisms weigh token relevance.\n" +
				"\n" +
				"[survey.pdf, p. 12]\n" +
				"Relevant excerpt: Transformer variants trade compute for quality.\n",
		},
	}

	for i, c := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			assert.Equal(t, c.output, FormatForCitation(citationFixtures(), c.style))
		})
	}
}

func Test_FormatForCitation_StyleCaseInsensitive(t *testing.T) {
	results := citationFixtures()

	assert.Equal(t, FormatForCitation(results, "ieee"), FormatForCitation(results, "IEEE"))
}

func Test_FormatForCitation_TruncatesPreview(t *testing.T) {
	results := []docstore.SearchResult{
		{Chunk: docstore.Chunk{Filename: "a.pdf", PageNum: 1, Text: strings.Repeat("x", 201)}},
	}

	out := FormatForCitation(results, "ieee")
	assert.Contains(t, out, "Relevant excerpt: "+strings.Repeat("x", 200)+"...")
	assert.NotContains(t, out, strings.Repeat("x", 201))
}

func Test_FormatForCitation_KeepsShortTextIntact(t *testing.T) {
	text := strings.Repeat("y", 200)
	results := []docstore.SearchResult{
		{Chunk: docstore.Chunk{Filename: "a.pdf", PageNum: 1, Text: text}},
	}

	out := FormatForCitation(results, "ieee")
	assert.Contains(t, out, "Relevant excerpt: "+text+"\n")
	assert.NotContains(t, out, "...")
}

func Test_FormatForCitation_Empty(t *testing.T) {
	assert.Equal(t, "No relevant local documents found.", FormatForCitation(nil, "ieee"))
	assert.Equal(t, "No relevant local documents found.", FormatForCitation([]docstore.SearchResult{}, "apa"))
}

func Test_FormatSearchResults(t *testing.T) {
	expected := "=== LOCAL PDF LIBRARY RESULTS ===\n" +
		"\n" +
		"[Local-1] attention.pdf (page 3, relevance: 0.91)\n" +
		"Excerpt: Attention mechanisms weigh token relevance.\n" +
		"\n" +
		"[Local-2] survey.pdf (page 12, relevance: 0.50)\n" +
		"Excerpt: Transformer variants trade compute for quality.\n"

	assert.Equal(t, expected, FormatSearchResults(citationFixtures()))
}

func Test_FormatSearchResults_TruncatesExcerpt(t *testing.T) {
	results := []docstore.SearchResult{
		{Chunk: docstore.Chunk{Filename: "a.pdf", PageNum: 1, Text: strings.Repeat("z", 350)}, Score: 1},
	}

	out := FormatSearchResults(results)
	assert.Contains(t, out, "Excerpt: "+strings.Repeat("z", 300)+"...")
	assert.NotContains(t, out, strings.Repeat("z", 301))
}

func Test_FormatSearchResults_Empty(t *testing.T) {
	assert.Equal(t, "No relevant content found in local PDF library.", FormatSearchResults(nil))
}
