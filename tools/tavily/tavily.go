// Package tavily provides a web search SDK module backed by Tavily.
package tavily

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/cockroachdb/errors"
	tavilygo "github.com/diverged/tavily-go"
	tavilyModels "github.com/diverged/tavily-go/models"
	"github.com/effective-security/toolhub/loaders/sdk"
	"github.com/effective-security/x/values"
)

// Tool names
const (
	ModuleName   = "tavily"
	FunctionName = "search"
)

// EnvAPIKey is the environment variable with the default API key
const EnvAPIKey = "TAVILY_API_KEY"

// SearchRequest represents the tool input.
type SearchRequest struct {
	Query          string   `json:"query" yaml:"query" jsonschema:"title=Search Query,description=The query to search web." validate:"required"`
	IncludeDomains []string `json:"include_domains,omitempty" yaml:"include_domains,omitempty" jsonschema:"description=Only return results from these domains."`
	ExcludeDomains []string `json:"exclude_domains,omitempty" yaml:"exclude_domains,omitempty" jsonschema:"description=Never return results from these domains."`
}

// SearchResult represents the structure for a search response
type SearchResult struct {
	Results []tavilyModels.SearchResult `json:"results" yaml:"results" jsonschema:"title=results,description=The results from a web search."`
	Answer  string                      `json:"answer,omitempty" yaml:"answer,omitempty" jsonschema:"title=answer,description=The aggregated answer from a web search."`
}

// Client performs web searches
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New returns the search client,
// the API key defaults to TAVILY_API_KEY environment variable.
func New(apiKey string) (*Client, error) {
	apiKey = values.StringsCoalesce(apiKey, os.Getenv(EnvAPIKey))
	if apiKey == "" {
		return nil, errors.Errorf("%s is not set", EnvAPIKey)
	}
	return &Client{
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
	}, nil
}

func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

func (c *Client) WithHTTPClient(client *http.Client) *Client {
	c.httpClient = client
	return c
}

// Module returns the SDK module with the search function
func (c *Client) Module() (sdk.Module, error) {
	fn, err := sdk.Typed(FunctionName, "Search the web for up to date information, answers who and what questions.", c.Search)
	if err != nil {
		return sdk.Module{}, err
	}
	return sdk.Module{
		Name:      ModuleName,
		Functions: []sdk.Function{fn},
	}, nil
}

// Search performs a web search
func (c *Client) Search(_ context.Context, req *SearchRequest) (*SearchResult, error) {
	if req.Query == "" {
		return nil, errors.New("invalid request: empty query")
	}

	client := tavilygo.NewClient(c.apiKey)
	if c.baseURL != "" {
		client.BaseURL = c.baseURL
	}
	if c.httpClient != nil {
		client.HTTPClient = c.httpClient
	}

	searchReq := tavilyModels.SearchRequest{
		Query:          req.Query,
		SearchDepth:    "basic",
		IncludeAnswer:  true,
		IncludeDomains: req.IncludeDomains,
		ExcludeDomains: req.ExcludeDomains,
	}

	searchResp, err := tavilygo.Search(client, searchReq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to perform search")
	}

	return &SearchResult{
		Results: searchResp.Results,
		Answer:  searchResp.Answer,
	}, nil
}

func (r *SearchResult) String() string {
	var buf bytes.Buffer
	if r.Answer != "" {
		fmt.Fprintf(&buf, "ANSWER: %s\n", r.Answer)
	}

	for _, result := range r.Results {
		fmt.Fprintf(&buf, "- URL: %s\n", result.URL)
		fmt.Fprintf(&buf, "  TITLE: %s\n", result.Title)
		fmt.Fprintf(&buf, "  SCORE: %f\n", result.Score)
		fmt.Fprintf(&buf, "  CONTENT: %s\n", result.Content)
	}

	return buf.String()
}
