package benchmark

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/agenthands/weft/internal/llm"
)

// EmbeddingSimilarity scores terms by the cosine similarity of their label
// embeddings. Equal identifiers score 1 without an embedding call, and a
// term without a label scores 0 against anything else.
type EmbeddingSimilarity struct {
	Embedder llm.EmbedderClient

	mu      sync.Mutex
	vectors map[string][]float32
}

func NewEmbeddingSimilarity(embedder llm.EmbedderClient) *EmbeddingSimilarity {
	return &EmbeddingSimilarity{Embedder: embedder, vectors: make(map[string][]float32)}
}

func (e *EmbeddingSimilarity) Similarity(ctx context.Context, a, b Term) (float64, error) {
	if a.ID == b.ID {
		return 1, nil
	}
	if a.Label == "" || b.Label == "" {
		return 0, nil
	}
	va, err := e.vector(ctx, a.Label)
	if err != nil {
		return 0, err
	}
	vb, err := e.vector(ctx, b.Label)
	if err != nil {
		return 0, err
	}
	return max(0, cosine(va, vb)), nil
}

func (e *EmbeddingSimilarity) vector(ctx context.Context, label string) ([]float32, error) {
	e.mu.Lock()
	v, ok := e.vectors[label]
	e.mu.Unlock()
	if ok {
		return v, nil
	}

	v, err := e.Embedder.Embed(ctx, label)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %q: %w", label, err)
	}
	e.mu.Lock()
	if e.vectors == nil {
		e.vectors = make(map[string][]float32)
	}
	e.vectors[label] = v
	e.mu.Unlock()
	return v, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
