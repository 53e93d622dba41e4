package embeddings

import (
	"context"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolhub/pkg/metricskey"
	"github.com/effective-security/toolhub/store"
	"github.com/effective-security/xlog"
)

// Cached memoises vectors of the wrapped embedder in a store.
// Store failures are logged and treated as misses.
type Cached struct {
	embedder  Embedder
	store     store.VectorStore
	namespace string
}

// NewCached returns embedder that caches vectors under namespace,
// use a namespace per provider and model.
func NewCached(embedder Embedder, st store.VectorStore, namespace string) *Cached {
	return &Cached{
		embedder:  embedder,
		store:     st,
		namespace: namespace,
	}
}

// Key returns the cache key of the document text
func (c *Cached) Key(text string) string {
	return c.namespace + "/d/" + strconv.FormatUint(xxhash.Sum64String(text), 16)
}

// QueryKey returns the cache key of the query text,
// providers may embed queries differently from documents.
func (c *Cached) QueryKey(text string) string {
	return c.namespace + "/q/" + strconv.FormatUint(xxhash.Sum64String(text), 16)
}

// EmbedDocuments implements Embedder
func (c *Cached) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = c.Key(t)
	}

	res, err := c.store.Get(ctx, keys)
	if err != nil {
		logger.ContextKV(ctx, xlog.WARNING, "reason", "cache_get", "namespace", c.namespace, "err", err)
		res = make([][]float32, len(texts))
	} else if len(res) != len(texts) {
		logger.ContextKV(ctx, xlog.WARNING, "reason", "cache_get", "namespace", c.namespace, "expected", len(texts), "got", len(res))
		res = make([][]float32, len(texts))
	}

	// unique texts to embed, in first-seen order
	var missing []string
	pending := map[string][]int{}
	for i, vec := range res {
		if vec != nil {
			continue
		}
		if _, ok := pending[keys[i]]; !ok {
			missing = append(missing, texts[i])
		}
		pending[keys[i]] = append(pending[keys[i]], i)
	}

	hits := len(texts)
	for _, idx := range pending {
		hits -= len(idx)
	}
	if hits > 0 {
		metricskey.StatsEmbeddingsCacheHits.IncrCounter(float64(hits), c.namespace)
	}
	if len(missing) == 0 {
		return res, nil
	}
	metricskey.StatsEmbeddingsCacheMisses.IncrCounter(float64(len(missing)), c.namespace)

	vecs, err := c.embedder.EmbedDocuments(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missing) {
		return nil, errors.Wrapf(ErrUnexpectedResponseLength, "expected %d, got %d", len(missing), len(vecs))
	}

	entries := make(map[string][]float32, len(missing))
	for i, text := range missing {
		key := c.Key(text)
		entries[key] = vecs[i]
		for _, pos := range pending[key] {
			res[pos] = vecs[i]
		}
	}
	if err = c.store.Put(ctx, entries); err != nil {
		logger.ContextKV(ctx, xlog.WARNING, "reason", "cache_put", "namespace", c.namespace, "err", err)
	}
	return res, nil
}

// EmbedQuery implements Embedder
func (c *Cached) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := c.QueryKey(text)
	res, err := c.store.Get(ctx, []string{key})
	if err != nil {
		logger.ContextKV(ctx, xlog.WARNING, "reason", "cache_get", "namespace", c.namespace, "err", err)
	} else if len(res) == 1 && res[0] != nil {
		metricskey.StatsEmbeddingsCacheHits.IncrCounter(1, c.namespace)
		return res[0], nil
	}
	metricskey.StatsEmbeddingsCacheMisses.IncrCounter(1, c.namespace)

	vec, err := c.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	if err = c.store.Put(ctx, map[string][]float32{key: vec}); err != nil {
		logger.ContextKV(ctx, xlog.WARNING, "reason", "cache_put", "namespace", c.namespace, "err", err)
	}
	return vec, nil
}
