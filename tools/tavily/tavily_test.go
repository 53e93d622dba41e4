package tavily_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	tavilyModels "github.com/diverged/tavily-go/models"
	"github.com/effective-security/toolhub/loaders/sdk"
	"github.com/effective-security/toolhub/pkg/llmutils"
	"github.com/effective-security/toolhub/tools/tavily"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Search(t *testing.T) {
	t.Setenv(tavily.EnvAPIKey, "testkey")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req tavilyModels.SearchRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		assert.NoError(t, err)

		assert.Equal(t, "What is capital of France", req.Query)

		resp := tavily.SearchResult{
			Results: []tavilyModels.SearchResult{
				{Title: "Test Result", URL: "https://example.com", Content: "Test content", Score: 0.9},
			},
		}
		if req.IncludeAnswer {
			resp.Answer = "Paris"
		}

		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	ctx := context.Background()

	client, err := tavily.New("")
	require.NoError(t, err)
	client.WithBaseURL(server.URL).WithHTTPClient(server.Client())

	_, err = client.Search(ctx, &tavily.SearchRequest{})
	assert.EqualError(t, err, "invalid request: empty query")

	input := &tavily.SearchRequest{
		Query: "What is capital of France",
	}

	resp, err := client.Search(ctx, input)
	require.NoError(t, err)
	exp := `ANSWER: Paris
- URL: https://example.com
  TITLE: Test Result
  SCORE: 0.900000
  CONTENT: Test content
`
	assert.Equal(t, exp, resp.String())

	m, err := client.Module()
	require.NoError(t, err)
	loaded, err := sdk.New([]sdk.Module{m}).Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	tool := loaded[0].Tool
	assert.Equal(t, "tavily__search", tool.Name())
	assert.Contains(t, tool.Description(), "Search the web")

	expParams := `{
	"properties": {
		"query": {
			"type": "string",
			"title": "Search Query",
			"description": "The query to search web."
		},
		"include_domains": {
			"items": {
				"type": "string"
			},
			"type": "array",
			"description": "Only return results from these domains."
		},
		"exclude_domains": {
			"items": {
				"type": "string"
			},
			"type": "array",
			"description": "Never return results from these domains."
		}
	},
	"type": "object",
	"required": [
		"query"
	]
}`
	assert.JSONEq(t, expParams, llmutils.ToJSONIndent(tool.Parameters()))

	out, err := tool.Call(ctx, llmutils.ToJSON(input))
	require.NoError(t, err)
	assert.Equal(t, exp, out)

	_, err = tool.Call(ctx, `{}`)
	assert.EqualError(t, err, "missing required parameters: [query]")
}

func Test_New(t *testing.T) {
	t.Setenv(tavily.EnvAPIKey, "")
	_, err := tavily.New("")
	assert.EqualError(t, err, "TAVILY_API_KEY is not set")

	_, err = tavily.New("key")
	require.NoError(t, err)
}

func Test_Search_Real(t *testing.T) {
	// uncomment to run Real Tests
	t.Skip("skipping real test")

	apikey := os.Getenv(tavily.EnvAPIKey)
	if apikey == "" {
		t.Skip("TAVILY_API_KEY is not set")
	}

	client, err := tavily.New(apikey)
	require.NoError(t, err)

	resp, err := client.Search(context.Background(), &tavily.SearchRequest{Query: "What is capital of France"})
	require.NoError(t, err)
	assert.Contains(t, resp.String(), "Paris")
}
