package main

import "strings"

// Chunks at or under this many characters carry too little signal to embed
// and are dropped.
const minChunkChars = 50

type DefaultChunkfier struct {
	chunkSize    int
	chunkOverlap int
}

// Chunkify splits text into windows of chunkSize words, advancing
// chunkSize-chunkOverlap words at a time; consecutive windows share their
// last and first chunkOverlap words. Windows failing the minimum character
// length are dropped.
func (c *DefaultChunkfier) Chunkify(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}
	}

	step := c.chunkSize - c.chunkOverlap
	if step < 1 {
		step = 1
	}

	res := make([]string, 0, len(words)/step+1)
	for pos := 0; pos < len(words); pos += step {
		end := min(pos+c.chunkSize, len(words))

		chunk := strings.Join(words[pos:end], " ")
		if len(chunk) > minChunkChars {
			res = append(res, chunk)
		}
	}

	return res
}
