// Package embed turns chunk and query text into fixed-dimension vectors
// using chroma-go embedding functions.
package embed

import (
	"context"
	"fmt"

	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	defaultef "github.com/amikos-tech/chroma-go/pkg/embeddings/default_ef"
	gemini "github.com/amikos-tech/chroma-go/pkg/embeddings/gemini"
	openai "github.com/amikos-tech/chroma-go/pkg/embeddings/openai"
)

// LocalModelID identifies the bundled sentence-embedding model that runs in
// process, without an API key.
const LocalModelID = "all-MiniLM-L6-v2"

const defaultBatchSize = 32

// embeddingFunction is the slice of chroma-go's embedding API this package
// depends on.
type embeddingFunction interface {
	EmbedDocuments(ctx context.Context, texts []string) ([]embeddings.Embedding, error)
	EmbedQuery(ctx context.Context, text string) (embeddings.Embedding, error)
}

// Embedder produces one vector per text, deterministically for a given model
// version. The underlying model is created once and reused for the process
// lifetime; construct at startup, Close on shutdown.
type Embedder struct {
	ef        embeddingFunction
	closer    func() error
	model     string
	dim       int
	batchSize int
}

// NewLocal runs all-MiniLM-L6-v2 over the ONNX runtime. Weights are fetched
// on first use; after that no network access is needed.
func NewLocal() (*Embedder, error) {
	ef, closeEF, err := defaultef.NewDefaultEmbeddingFunction()
	if err != nil {
		return nil, fmt.Errorf("failed to create local embedding function: %w", err)
	}

	return &Embedder{ef: ef, closer: closeEF, model: LocalModelID, batchSize: defaultBatchSize}, nil
}

// NewOpenAI embeds through the OpenAI embeddings API.
func NewOpenAI(apiKey, model string) (*Embedder, error) {
	ef, err := openai.NewOpenAIEmbeddingFunction(apiKey,
		openai.WithModel(openai.EmbeddingModel(model)))
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI embedding function: %w", err)
	}

	return &Embedder{ef: ef, model: model, batchSize: defaultBatchSize}, nil
}

// NewGemini embeds through the Gemini embeddings API.
func NewGemini(apiKey, model string) (*Embedder, error) {
	ef, err := gemini.NewGeminiEmbeddingFunction(
		gemini.WithAPIKey(apiKey),
		gemini.WithDefaultModel(embeddings.EmbeddingModel(model)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini embedding function: %w", err)
	}

	return &Embedder{ef: ef, model: model, batchSize: defaultBatchSize}, nil
}

// SetBatchSize caps how many texts go into one embedding request.
func (e *Embedder) SetBatchSize(n int) {
	if n > 0 {
		e.batchSize = n
	}
}

// Warmup embeds a short fixed text, forcing model and credential
// initialization and recording the vector dimension.
func (e *Embedder) Warmup(ctx context.Context) error {
	if _, err := e.Embed(ctx, "warmup"); err != nil {
		return fmt.Errorf("embedding model unavailable: %w", err)
	}

	return nil
}

// Embed returns the vector for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	emb, err := e.ef.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed text: %w", err)
	}

	vec := emb.ContentAsFloat32()
	if e.dim == 0 {
		e.dim = len(vec)
	}

	return vec, nil
}

// EmbedBatch returns one vector per text, in input order, sending the texts
// in batches of the configured request size.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	size := e.batchSize
	if size < 1 {
		size = defaultBatchSize
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))

		embs, err := e.ef.EmbedDocuments(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed texts %d..%d: %w", start, end-1, err)
		}
		if len(embs) != end-start {
			return nil, fmt.Errorf("embedding request returned %d vectors for %d texts", len(embs), end-start)
		}

		for _, emb := range embs {
			out = append(out, emb.ContentAsFloat32())
		}
	}

	if e.dim == 0 {
		e.dim = len(out[0])
	}

	return out, nil
}

func (e *Embedder) ModelID() string { return e.model }

// Dim reports the vector dimension, zero until the first successful
// embedding. Call Warmup first.
func (e *Embedder) Dim() int { return e.dim }

// Close releases model resources. Safe on providers that hold none.
func (e *Embedder) Close() error {
	if e.closer == nil {
		return nil
	}

	return e.closer()
}
