package embeddings

import (
	"context"
	"fmt"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	gcpcredentials "cloud.google.com/go/auth/credentials"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/values"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	defaultVertexLocation = "us-central1"
	// maxVertexBatch is the number of instances per predict request
	maxVertexBatch = 250
)

// ErrInvalidPrediction is returned when a prediction has no embedding values
var ErrInvalidPrediction = errors.New("invalid prediction")

// Vertex embeds texts with Vertex AI publisher models.
type Vertex struct {
	client     *aiplatform.PredictionClient
	endpoint   string
	dimensions int
}

// NewVertex returns Vertex AI embedder, the project is required.
// Credentials are loaded from CredentialsFile when set,
// otherwise application default credentials are used.
func NewVertex(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Vertex, error) {
	if cfg.Project == "" {
		return nil, errors.New("Vertex AI embeddings require a project")
	}
	location := values.StringsCoalesce(cfg.Location, defaultVertexLocation)

	o := []option.ClientOption{
		option.WithEndpoint(values.StringsCoalesce(cfg.BaseURL, fmt.Sprintf("%s-aiplatform.googleapis.com:443", location))),
	}
	if cfg.CredentialsFile != "" {
		creds, err := gcpcredentials.DetectDefault(&gcpcredentials.DetectOptions{
			Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
			CredentialsFile: cfg.CredentialsFile,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load credentials %s", cfg.CredentialsFile)
		}
		o = append(o, option.WithAuthCredentials(creds))
	}
	o = append(o, opts...)

	client, err := aiplatform.NewPredictionClient(ctx, o...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Vertex AI client")
	}

	model := values.StringsCoalesce(cfg.Model, DefaultVertexModel)
	return &Vertex{
		client:     client,
		endpoint:   fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/%s", cfg.Project, location, model),
		dimensions: cfg.Dimensions,
	}, nil
}

// Close releases the connection
func (v *Vertex) Close() error {
	return v.client.Close()
}

func (v *Vertex) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	var params *structpb.Value
	if v.dimensions > 0 {
		params = structpb.NewStructValue(&structpb.Struct{
			Fields: map[string]*structpb.Value{
				"outputDimensionality": structpb.NewNumberValue(float64(v.dimensions)),
			},
		})
	}

	results := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxVertexBatch {
		end := min(start+maxVertexBatch, len(texts))
		instances := make([]*structpb.Value, 0, end-start)
		for _, t := range texts[start:end] {
			instances = append(instances, structpb.NewStructValue(&structpb.Struct{
				Fields: map[string]*structpb.Value{
					"content":   structpb.NewStringValue(t),
					"task_type": structpb.NewStringValue(taskType),
				},
			}))
		}

		resp, err := v.client.Predict(ctx, &aiplatformpb.PredictRequest{
			Endpoint:   v.endpoint,
			Instances:  instances,
			Parameters: params,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create Vertex AI embeddings")
		}
		predictions := resp.GetPredictions()
		if len(predictions) != len(instances) {
			return nil, errors.Wrapf(ErrUnexpectedResponseLength, "expected %d, got %d", len(instances), len(predictions))
		}
		for i, p := range predictions {
			vec, err := predictionVector(p)
			if err != nil {
				return nil, errors.WithMessagef(err, "prediction %d", start+i)
			}
			results = append(results, vec)
		}
	}
	return results, nil
}

// predictionVector extracts embeddings.values of the prediction
func predictionVector(p *structpb.Value) ([]float32, error) {
	emb := p.GetStructValue().GetFields()["embeddings"].GetStructValue()
	list := emb.GetFields()["values"].GetListValue()
	if list == nil {
		return nil, errors.WithStack(ErrInvalidPrediction)
	}
	vec := make([]float32, len(list.GetValues()))
	for i, val := range list.GetValues() {
		num, ok := val.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidPrediction, "value %d is not a number", i)
		}
		vec[i] = float32(num.NumberValue)
	}
	return vec, nil
}

// EmbedDocuments implements Embedder
func (v *Vertex) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	return v.embed(ctx, texts, taskRetrievalDocument)
}

// EmbedQuery implements Embedder
func (v *Vertex) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	res, err := v.embed(ctx, []string{text}, taskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return res[0], nil
}
