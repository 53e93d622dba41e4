package embeddings_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/effective-security/toolhub/pkg/embeddings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions"`
}

func newOpenAIServer(t *testing.T, status int) (*httptest.Server, *[]embeddingRequest) {
	var requests []embeddingRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/embeddings"), r.URL.Path)
		assert.Equal(t, "Bearer testkey", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
			return
		}

		data := make([]map[string]any, 0, len(req.Input))
		// reversed order, the client must use index
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float64{float64(len(req.Input[i])), float64(i)},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]any{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func Test_OpenAI(t *testing.T) {
	ctx := context.Background()
	server, requests := newOpenAIServer(t, http.StatusOK)

	_, err := embeddings.NewOpenAI(embeddings.Config{})
	assert.EqualError(t, err, "OpenAI embeddings require a token")

	em, err := embeddings.NewOpenAI(embeddings.Config{
		Token:      "testkey",
		BaseURL:    server.URL,
		Dimensions: 2,
	}, embeddings.WithHTTPClient(server.Client()))
	require.NoError(t, err)
	assert.Equal(t, embeddings.DefaultOpenAIModel, em.Model())

	vecs, err := em.EmbedDocuments(ctx, []string{"a", "bbb"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {3, 1}}, vecs)

	vec, err := em.EmbedQuery(ctx, "cc")
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 0}, vec)

	vecs, err = em.EmbedDocuments(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)

	require.Len(t, *requests, 2)
	assert.Equal(t, embeddings.DefaultOpenAIModel, (*requests)[0].Model)
	assert.Equal(t, 2, (*requests)[0].Dimensions)
	assert.Equal(t, []string{"cc"}, (*requests)[1].Input)
}

func Test_OpenAI_Error(t *testing.T) {
	server, _ := newOpenAIServer(t, http.StatusUnauthorized)

	em, err := embeddings.NewOpenAI(embeddings.Config{
		Token:   "testkey",
		BaseURL: server.URL,
	}, embeddings.WithHTTPClient(server.Client()))
	require.NoError(t, err)

	_, err = em.EmbedQuery(context.Background(), "cc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create openai embeddings")
}

func Test_Local(t *testing.T) {
	_, err := embeddings.NewLocal(embeddings.Config{})
	assert.EqualError(t, err, "local embeddings require base URL")

	var gotAuth, gotModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req embeddingRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.5,0.25]}],"model":"all-minilm"}`))
	}))
	defer server.Close()

	em, err := embeddings.NewLocal(embeddings.Config{BaseURL: server.URL + "/v1"})
	require.NoError(t, err)

	vec, err := em.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, vec)
	assert.Equal(t, "Bearer local", gotAuth)
	assert.Equal(t, embeddings.DefaultLocalModel, gotModel)
}
