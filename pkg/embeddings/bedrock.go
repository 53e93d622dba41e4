package embeddings

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/values"
)

// Bedrock embeds texts with Amazon Titan embedding models.
type Bedrock struct {
	client     *bedrockruntime.Client
	model      string
	dimensions int
}

type titanRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions,omitempty"`
	Normalize  bool   `json:"normalize,omitempty"`
}

type titanResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// NewBedrock returns Bedrock embedder.
// AWS credentials are loaded from the default chain,
// unless static keys are provided in the config.
func NewBedrock(ctx context.Context, cfg Config) (*Bedrock, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}

	client := bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		if cfg.BaseURL != "" {
			o.BaseEndpoint = aws.String(cfg.BaseURL)
		}
	})

	return &Bedrock{
		client:     client,
		model:      values.StringsCoalesce(cfg.Model, DefaultBedrockModel),
		dimensions: cfg.Dimensions,
	}, nil
}

func (b *Bedrock) embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(titanRequest{
		InputText:  text,
		Dimensions: b.dimensions,
		Normalize:  true,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.model),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Bedrock embeddings")
	}

	var resp titanResponse
	if err = json.Unmarshal(out.Body, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to decode Bedrock response")
	}
	if len(resp.Embedding) == 0 {
		return nil, errors.New("empty embedding in Bedrock response")
	}
	return resp.Embedding, nil
}

// EmbedDocuments implements Embedder.
// Titan models accept one text per request.
func (b *Bedrock) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	res := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := b.embed(ctx, t)
		if err != nil {
			return nil, err
		}
		res[i] = vec
	}
	return res, nil
}

// EmbedQuery implements Embedder
func (b *Bedrock) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return b.embed(ctx, text)
}
