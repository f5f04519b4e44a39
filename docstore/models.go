package docstore

import "time"

// IndexVersion is the on-disk format version stamped into new manifests.
const IndexVersion = 1

// Chunk is one word-window slice of a PDF page, the unit of embedding and
// retrieval. The chunk array and the vector index stay position-aligned
// (chunk[i] owns vector[i]) for the lifetime of an index.
type Chunk struct {
	Filename string `json:"filename"`
	PageNum  int    `json:"page_num"`
	ChunkIdx int    `json:"chunk_idx"`
	Text     string `json:"text"`
}

// Manifest records how and from what an index was built. It doubles as the
// human-readable build report and as a guard checked when an index is loaded
// under a different configuration.
type Manifest struct {
	IndexVersion   int       `json:"index_version"`
	BuildID        string    `json:"build_id"`
	CreatedAt      time.Time `json:"created_at"`
	NumPDFs        int       `json:"num_pdfs"`
	NumChunks      int       `json:"num_chunks"`
	PDFFiles       []string  `json:"pdf_files"`
	ChunkSize      int       `json:"chunk_size"`
	ChunkOverlap   int       `json:"chunk_overlap"`
	EmbeddingModel string    `json:"embedding_model"`
	EmbeddingDim   int       `json:"embedding_dim"`
}

// SearchResult is a retrieved chunk with its relevance score.
type SearchResult struct {
	Chunk
	Score float64 `json:"relevance_score"`
}
