package embeddings

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/values"
	"google.golang.org/genai"
)

// Google AI task types
const (
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// maxGoogleAIBatch is the number of contents per batch request
const maxGoogleAIBatch = 100

// GoogleAI embeds texts with the Gemini API.
type GoogleAI struct {
	client     *genai.Client
	model      string
	dimensions int
}

// NewGoogleAI returns Google AI embedder, the token is required.
func NewGoogleAI(ctx context.Context, cfg Config) (*GoogleAI, error) {
	if cfg.Token == "" {
		return nil, errors.New("Google AI embeddings require a token")
	}

	gcfg := &genai.ClientConfig{
		APIKey:  cfg.Token,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		gcfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, gcfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Google AI client")
	}
	return &GoogleAI{
		client:     client,
		model:      values.StringsCoalesce(cfg.Model, DefaultGoogleAIModel),
		dimensions: cfg.Dimensions,
	}, nil
}

func (g *GoogleAI) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	ecfg := &genai.EmbedContentConfig{
		TaskType: taskType,
	}
	if g.dimensions > 0 {
		d := int32(g.dimensions)
		ecfg.OutputDimensionality = &d
	}

	results := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxGoogleAIBatch {
		end := min(start+maxGoogleAIBatch, len(texts))
		contents := make([]*genai.Content, 0, end-start)
		for _, t := range texts[start:end] {
			contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
		}

		resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, ecfg)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create Google AI embeddings")
		}
		if len(resp.Embeddings) != len(contents) {
			return nil, errors.Wrapf(ErrUnexpectedResponseLength, "expected %d, got %d", len(contents), len(resp.Embeddings))
		}
		for _, e := range resp.Embeddings {
			results = append(results, e.Values)
		}
	}
	return results, nil
}

// EmbedDocuments implements Embedder
func (g *GoogleAI) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	return g.embed(ctx, texts, taskRetrievalDocument)
}

// EmbedQuery implements Embedder
func (g *GoogleAI) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	res, err := g.embed(ctx, []string{text}, taskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return res[0], nil
}
