// Package store provides caches for embedding vectors.
package store

import "context"

// VectorStore keeps embedding vectors by key.
type VectorStore interface {
	// Get returns vectors for keys, in the same order.
	// A missing key yields a nil entry.
	Get(ctx context.Context, keys []string) ([][]float32, error)
	// Put stores the vectors.
	Put(ctx context.Context, entries map[string][]float32) error
}
