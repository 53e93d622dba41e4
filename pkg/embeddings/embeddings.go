package embeddings

import (
	"context"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolhub", "embeddings")

//go:generate mockgen -source=embeddings.go -destination=../../mocks/mockembeddings/embeddings_mock.gen.go  -package mockembeddings

// Embedder converts text into vectors.
type Embedder interface {
	// EmbedDocuments returns one vector per text, in order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedQuery returns the vector for a search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Provider names supported by New.
const (
	ProviderAuto     = "AUTO"
	ProviderOpenAI   = "OPENAI"
	ProviderGoogleAI = "GOOGLEAI"
	ProviderBedrock  = "BEDROCK"
	ProviderVertexAI = "VERTEXAI"
	ProviderLocal    = "LOCAL"
	ProviderHash     = "HASH"
)

// Default models
const (
	DefaultOpenAIModel   = "text-embedding-3-small"
	DefaultGoogleAIModel = "text-embedding-004"
	DefaultBedrockModel  = "amazon.titan-embed-text-v2:0"
	DefaultVertexModel   = "text-embedding-005"
	DefaultLocalModel    = "all-minilm"
)

// Config specifies the embedder to use
type Config struct {
	// Provider specifies the embeddings provider:
	// AUTO|OPENAI|GOOGLEAI|VERTEXAI|BEDROCK|LOCAL|HASH.
	// When empty, AUTO is used.
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
	// Token is the API key of the cloud provider
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
	// Model overrides the provider default model
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
	// BaseURL overrides the provider endpoint,
	// for LOCAL it is the address of OpenAI-compatible server.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	// Region is AWS region for BEDROCK
	Region string `json:"region,omitempty" yaml:"region,omitempty"`
	// Project and Location of VERTEXAI models, the location defaults to us-central1
	Project  string `json:"project,omitempty" yaml:"project,omitempty"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
	// CredentialsFile is optional service account file for VERTEXAI
	CredentialsFile string `json:"credentials_file,omitempty" yaml:"credentials_file,omitempty"`
	// AccessKey and SecretKey are optional static AWS credentials for BEDROCK
	AccessKey string `json:"access_key,omitempty" yaml:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty" yaml:"secret_key,omitempty"`
	// Dimensions requests vectors of the given size, when supported
	Dimensions int `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	// Verify embeds a probe text at construction to fail fast on bad credentials
	Verify bool `json:"verify,omitempty" yaml:"verify,omitempty"`
}

// ResolveProvider returns the provider New will construct for the config.
func (c *Config) ResolveProvider() string {
	provider := strings.ToUpper(strings.TrimSpace(c.Provider))
	if provider != "" && provider != ProviderAuto {
		return provider
	}
	switch {
	case c.Token != "":
		return ProviderOpenAI
	case c.BaseURL != "":
		return ProviderLocal
	default:
		return ProviderHash
	}
}

// New returns the embedder selected by the config.
func New(ctx context.Context, cfg Config) (Embedder, error) {
	provider := cfg.ResolveProvider()

	var (
		em  Embedder
		err error
	)
	switch provider {
	case ProviderOpenAI:
		em, err = NewOpenAI(cfg)
	case ProviderLocal:
		em, err = NewLocal(cfg)
	case ProviderGoogleAI:
		em, err = NewGoogleAI(ctx, cfg)
	case ProviderVertexAI:
		em, err = NewVertex(ctx, cfg)
	case ProviderBedrock:
		em, err = NewBedrock(ctx, cfg)
	case ProviderHash:
		em = NewHash(cfg.Dimensions)
	default:
		return nil, errors.Errorf("unsupported embeddings provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	logger.KV(xlog.DEBUG, "provider", provider, "model", cfg.Model)

	if cfg.Verify && provider != ProviderHash {
		if _, err = em.EmbedQuery(ctx, "ping"); err != nil {
			return nil, errors.Wrapf(err, "failed to verify %s embeddings", strings.ToLower(provider))
		}
	}
	return em, nil
}

// Environment variables read by ConfigFromEnv
const (
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvProvider     = "TOOLHUB_EMBEDDINGS_PROVIDER"
	EnvModel        = "TOOLHUB_EMBEDDINGS_MODEL"
	EnvLocalURL     = "TOOLHUB_LOCAL_EMBEDDINGS_URL"
	EnvAWSRegion    = "AWS_REGION"
	EnvGCPProject   = "GOOGLE_CLOUD_PROJECT"
	EnvGCPLocation  = "GOOGLE_CLOUD_LOCATION"
)

// ConfigFromEnv returns the embeddings config from environment variables.
func ConfigFromEnv() Config {
	return Config{
		Provider: os.Getenv(EnvProvider),
		Token:    os.Getenv(EnvOpenAIAPIKey),
		Model:    os.Getenv(EnvModel),
		BaseURL:  os.Getenv(EnvLocalURL),
		Region:   values.StringsCoalesce(os.Getenv(EnvAWSRegion), os.Getenv("AWS_DEFAULT_REGION")),
		Project:  os.Getenv(EnvGCPProject),
		Location: os.Getenv(EnvGCPLocation),
	}
}
