package embeddings

import "context"

// DefaultHashDimensions is the vector size of the hash embedder
const DefaultHashDimensions = 128

// Hash is a deterministic embedder that needs no model:
// every code point at position i adds 1 to bucket (i + codepoint) mod dim.
type Hash struct {
	dim int
}

// NewHash returns the hash embedder,
// dim <= 0 selects DefaultHashDimensions.
func NewHash(dim int) *Hash {
	if dim <= 0 {
		dim = DefaultHashDimensions
	}
	return &Hash{dim: dim}
}

// Dimensions returns the vector size
func (h *Hash) Dimensions() int {
	return h.dim
}

func (h *Hash) embed(text string) []float32 {
	vec := make([]float32, h.dim)
	i := 0
	for _, ch := range text {
		vec[(i+int(ch))%h.dim] += 1.0
		i++
	}
	return vec
}

// EmbedDocuments implements Embedder
func (h *Hash) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	res := make([][]float32, len(texts))
	for i, t := range texts {
		res[i] = h.embed(t)
	}
	return res, nil
}

// EmbedQuery implements Embedder
func (h *Hash) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return h.embed(text), nil
}
