package embeddings_test

import (
	"context"
	"testing"

	"github.com/effective-security/toolhub/pkg/embeddings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Hash(t *testing.T) {
	ctx := context.Background()
	h := embeddings.NewHash(0)
	assert.Equal(t, embeddings.DefaultHashDimensions, h.Dimensions())

	vec, err := h.EmbedQuery(ctx, "ab")
	require.NoError(t, err)
	require.Len(t, vec, 128)
	// 'a'=97 at 0, 'b'=98 at 1
	assert.Equal(t, float32(1), vec[97])
	assert.Equal(t, float32(1), vec[99])

	var sum float32
	for _, v := range vec {
		sum += v
	}
	assert.Equal(t, float32(2), sum)

	docs, err := h.EmbedDocuments(ctx, []string{"ab", "ab", ""})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, vec, docs[0])
	assert.Equal(t, docs[0], docs[1])
	assert.Equal(t, make([]float32, 128), docs[2])

	small := embeddings.NewHash(4)
	vec, err = small.EmbedQuery(ctx, "aaaa")
	require.NoError(t, err)
	// 97%4=1, 98%4=2, 99%4=3, 100%4=0
	assert.Equal(t, []float32{1, 1, 1, 1}, vec)

	// code points, not bytes
	vec, err = small.EmbedQuery(ctx, "é")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0, 0}, vec) // 233%4=1
}
