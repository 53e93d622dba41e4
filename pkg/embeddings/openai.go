package embeddings

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/values"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ErrUnexpectedResponseLength is returned when a provider returns
// a different number of vectors than texts submitted.
var ErrUnexpectedResponseLength = errors.New("unexpected length of response")

// OpenAI embeds texts with the OpenAI embeddings API,
// or any server compatible with it.
type OpenAI struct {
	client     openai.Client
	model      string
	dimensions int
}

// OpenAIOption configures the OpenAI embedder
type OpenAIOption func(*[]option.RequestOption)

// WithHTTPClient sets the HTTP client
func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(o *[]option.RequestOption) {
		*o = append(*o, option.WithHTTPClient(client))
	}
}

// NewOpenAI returns OpenAI embedder, the token is required.
func NewOpenAI(cfg Config, opts ...OpenAIOption) (*OpenAI, error) {
	if cfg.Token == "" {
		return nil, errors.New("OpenAI embeddings require a token")
	}
	return newOpenAI(cfg.Token, cfg.BaseURL, values.StringsCoalesce(cfg.Model, DefaultOpenAIModel), cfg.Dimensions, opts...), nil
}

// NewLocal returns embedder for OpenAI-compatible local server,
// such as Ollama at http://localhost:11434/v1.
func NewLocal(cfg Config, opts ...OpenAIOption) (*OpenAI, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("local embeddings require base URL")
	}
	token := values.StringsCoalesce(cfg.Token, "local")
	return newOpenAI(token, cfg.BaseURL, values.StringsCoalesce(cfg.Model, DefaultLocalModel), cfg.Dimensions, opts...), nil
}

func newOpenAI(token, baseURL, model string, dimensions int, opts ...OpenAIOption) *OpenAI {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(token),
	}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	for _, opt := range opts {
		opt(&reqOpts)
	}
	return &OpenAI{
		client:     openai.NewClient(reqOpts...),
		model:      model,
		dimensions: dimensions,
	}
}

// Model returns the embedding model name
func (o *OpenAI) Model() string {
	return o.model
}

// EmbedDocuments implements Embedder
func (o *OpenAI) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	params := openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:          openai.EmbeddingModel(o.model),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	}
	if o.dimensions > 0 {
		params.Dimensions = openai.Int(int64(o.dimensions))
	}

	resp, err := o.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create openai embeddings")
	}
	if len(resp.Data) != len(texts) {
		return nil, errors.Wrapf(ErrUnexpectedResponseLength, "expected %d, got %d", len(texts), len(resp.Data))
	}

	res := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(texts) {
			return nil, errors.Errorf("embedding index out of range: %d", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		res[d.Index] = vec
	}
	return res, nil
}

// EmbedQuery implements Embedder
func (o *OpenAI) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	res, err := o.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return res[0], nil
}
