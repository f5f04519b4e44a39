package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quillforge/pdfrag/docstore"
	"github.com/quillforge/pdfrag/readers"
)

var (
	// ErrNoPDFs means the corpus folder exists but holds no PDF files.
	ErrNoPDFs = errors.New("no pdf files found")
	// ErrNoText means the corpus produced no chunk long enough to index.
	ErrNoText = errors.New("no extractable text in corpus")
)

type PageReader interface {
	CanRead(path string) bool
	ReadPages(path string) ([]readers.Page, error)
}

type Chunkifier interface {
	Chunkify(text string) []string
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	ModelID() string
}

type IndexStore interface {
	Save(index *docstore.FlatIndex, chunks []docstore.Chunk, manifest docstore.Manifest) error
	Load() (*docstore.FlatIndex, []docstore.Chunk, docstore.Manifest, error)
	Exists() bool
}

// RAGService owns one corpus index end to end: building it from a folder of
// PDFs and answering top-k queries against it. The resident index and chunk
// array are loaded lazily on first search and swapped wholesale on re-index.
type RAGService struct {
	log          *slog.Logger
	pdfDir       string
	indexDir     string
	store        IndexStore
	reader       PageReader
	chunkifier   Chunkifier
	embedder     Embedder
	chunkSize    int
	chunkOverlap int
	topK         int

	mu     sync.Mutex
	index  *docstore.FlatIndex
	chunks []docstore.Chunk
}

// IndexCorpus rebuilds the index from every PDF in the corpus folder and
// persists it, replacing any previous index. Files that cannot be parsed are
// skipped with a warning; the run fails only when the folder is missing,
// holds no PDFs, or nothing in them survives chunking.
func (s *RAGService) IndexCorpus(ctx context.Context) (docstore.Manifest, error) {
	var manifest docstore.Manifest

	files, err := s.collectPDFs()
	if err != nil {
		return manifest, err
	}
	if len(files) == 0 {
		return manifest, fmt.Errorf("%w in %s", ErrNoPDFs, s.pdfDir)
	}

	var chunks []docstore.Chunk
	var skipped int
	for _, file := range files {
		pages, err := s.reader.ReadPages(filepath.Join(s.pdfDir, file))
		if err != nil {
			s.log.Warn("skipping unreadable pdf", "file", file, "error", err)
			skipped++
			continue
		}

		for _, page := range pages {
			for idx, text := range s.chunkifier.Chunkify(page.Text) {
				chunks = append(chunks, docstore.Chunk{
					Filename: file,
					PageNum:  page.Num,
					ChunkIdx: idx,
					Text:     text,
				})
			}
		}
	}

	if len(chunks) == 0 {
		return manifest, fmt.Errorf("%w: %d files scanned", ErrNoText, len(files))
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return manifest, fmt.Errorf("failed to embed corpus: %w", err)
	}

	index, err := docstore.NewFlatIndex(len(vectors[0]))
	if err != nil {
		return manifest, fmt.Errorf("failed to build index: %w", err)
	}
	if err := index.Add(vectors); err != nil {
		return manifest, fmt.Errorf("failed to build index: %w", err)
	}

	manifest = docstore.Manifest{
		IndexVersion:   docstore.IndexVersion,
		BuildID:        uuid.NewString(),
		CreatedAt:      time.Now().UTC(),
		NumPDFs:        len(files),
		NumChunks:      len(chunks),
		PDFFiles:       files,
		ChunkSize:      s.chunkSize,
		ChunkOverlap:   s.chunkOverlap,
		EmbeddingModel: s.embedder.ModelID(),
		EmbeddingDim:   len(vectors[0]),
	}

	if err := s.store.Save(index, chunks, manifest); err != nil {
		return manifest, fmt.Errorf("failed to persist index: %w", err)
	}

	s.mu.Lock()
	s.index = index
	s.chunks = chunks
	s.mu.Unlock()

	s.log.Info("indexing complete",
		"pdfs", len(files),
		"skipped", skipped,
		"chunks", len(chunks),
		"model", manifest.EmbeddingModel)

	return manifest, nil
}

// Search embeds the query and returns the k most relevant chunks, best
// first. A corpus that was never indexed yields an empty result, not an
// error; k <= 0 falls back to the configured result count.
func (s *RAGService) Search(ctx context.Context, query string, k int) ([]docstore.SearchResult, error) {
	if k <= 0 {
		k = s.topK
	}

	index, chunks, err := s.resident()
	if err != nil {
		return nil, err
	}
	if index == nil {
		return []docstore.SearchResult{}, nil
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := index.Search(vec, k)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	results := make([]docstore.SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, docstore.SearchResult{
			Chunk: chunks[h.Pos],
			Score: docstore.Relevance(h.Distance),
		})
	}

	return results, nil
}

// HasIndex reports whether a searchable index is resident or on disk.
func (s *RAGService) HasIndex() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.index != nil || s.store.Exists()
}

// Ready reports whether retrieval can serve queries right now.
func (s *RAGService) Ready() (bool, string) {
	return CheckReady(s.pdfDir, s.indexDir)
}

// resident returns the in-memory index, loading the persisted one on first
// use. A nil index with a nil error means no index exists anywhere yet.
func (s *RAGService) resident() (*docstore.FlatIndex, []docstore.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		return s.index, s.chunks, nil
	}
	if !s.store.Exists() {
		return nil, nil, nil
	}

	index, chunks, manifest, err := s.store.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load index: %w", err)
	}

	s.warnOnDrift(manifest)
	s.index = index
	s.chunks = chunks
	s.log.Info("loaded persisted index", "chunks", len(chunks), "model", manifest.EmbeddingModel)

	return s.index, s.chunks, nil
}

// warnOnDrift flags a persisted index whose build parameters no longer match
// the live configuration. The load proceeds; re-running the indexing clears
// the warning.
func (s *RAGService) warnOnDrift(m docstore.Manifest) {
	if m.ChunkSize != s.chunkSize || m.ChunkOverlap != s.chunkOverlap {
		s.log.Warn("index was built with different chunking parameters",
			"stored_size", m.ChunkSize,
			"stored_overlap", m.ChunkOverlap,
			"configured_size", s.chunkSize,
			"configured_overlap", s.chunkOverlap)
	}
	if m.EmbeddingModel != s.embedder.ModelID() {
		s.log.Warn("index was built with a different embedding model",
			"stored_model", m.EmbeddingModel,
			"configured_model", s.embedder.ModelID())
	}
}

// collectPDFs lists readable corpus files, non-recursively, in name order.
func (s *RAGService) collectPDFs() ([]string, error) {
	entries, err := os.ReadDir(s.pdfDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf folder %s: %w", s.pdfDir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !s.reader.CanRead(e.Name()) {
			continue
		}

		files = append(files, e.Name())
	}

	return files, nil
}

// CheckReady reports whether retrieval can be offered at all. It only stats
// folders and files; neither the embedding model nor the index is loaded.
func CheckReady(pdfDir, indexDir string) (bool, string) {
	info, err := os.Stat(pdfDir)
	if err != nil || !info.IsDir() {
		return false, fmt.Sprintf("PDF folder not found: %s", pdfDir)
	}

	entries, err := os.ReadDir(pdfDir)
	if err != nil {
		return false, fmt.Sprintf("PDF folder not readable: %s", pdfDir)
	}

	var pdfs int
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".pdf" {
			pdfs++
		}
	}
	if pdfs == 0 {
		return false, fmt.Sprintf("No PDF files found in %s", pdfDir)
	}

	if !docstore.NewFileStore(indexDir).Exists() {
		return false, "RAG index not found. Run 'pdfrag index' first."
	}

	return true, fmt.Sprintf("RAG ready: %d PDFs indexed", pdfs)
}
