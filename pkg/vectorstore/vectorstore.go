// Package vectorstore provides an in-memory embedding index with cosine similarity search.
package vectorstore

import (
	"context"
	"maps"
	"math"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolhub/pkg/embeddings"
)

// ErrDimensionMismatch is returned when vectors of different sizes are compared.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Document is an entry of the index
type Document struct {
	Content  string
	Metadata map[string]string
}

// Result is a search hit
type Result struct {
	Document
	Score float64
}

type entry struct {
	doc  Document
	vec  []float32
	norm float64
}

// Store is an append-only index.
// Added documents are searchable as soon as Add returns.
type Store struct {
	embedder embeddings.Embedder

	lock    sync.RWMutex
	entries []entry
	dim     int
}

// New returns an empty index
func New(embedder embeddings.Embedder) *Store {
	return &Store{embedder: embedder}
}

// Len returns the number of documents
func (s *Store) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.entries)
}

// Add embeds and appends the documents.
// On error nothing is appended.
func (s *Store) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}

	vecs, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return errors.Wrap(err, "failed to embed documents")
	}
	if len(vecs) != len(docs) {
		return errors.Errorf("embedder returned %d vectors for %d documents", len(vecs), len(docs))
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	dim := s.dim
	for _, v := range vecs {
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim {
			return errors.Wrapf(ErrDimensionMismatch, "expected %d, got %d", dim, len(v))
		}
	}

	for i, d := range docs {
		s.entries = append(s.entries, entry{
			doc: Document{
				Content:  d.Content,
				Metadata: maps.Clone(d.Metadata),
			},
			vec:  vecs[i],
			norm: norm(vecs[i]),
		})
	}
	s.dim = dim
	return nil
}

// Search returns up to k documents most similar to the query,
// ties are returned in insertion order.
func (s *Store) Search(ctx context.Context, query string, k int) ([]Result, error) {
	if k <= 0 || s.Len() == 0 {
		return []Result{}, nil
	}

	q, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed query")
	}

	s.lock.RLock()
	defer s.lock.RUnlock()

	if len(q) != s.dim {
		return nil, errors.Wrapf(ErrDimensionMismatch, "index has %d, query has %d", s.dim, len(q))
	}

	qnorm := norm(q)
	results := make([]Result, len(s.entries))
	for i, e := range s.entries {
		results[i] = Result{
			Document: e.doc,
			Score:    cosine(q, qnorm, e.vec, e.norm),
		}
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 when either vector has zero norm
func cosine(a []float32, anorm float64, b []float32, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (anorm * bnorm)
}
