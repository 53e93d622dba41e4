// Package builder assembles a tool hub from SDK modules, OpenAPI documents
// and MCP servers.
package builder

import (
	"context"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolhub/config"
	"github.com/effective-security/toolhub/loaders/mcp"
	"github.com/effective-security/toolhub/loaders/openapi"
	"github.com/effective-security/toolhub/loaders/sdk"
	"github.com/effective-security/toolhub/pkg/embeddings"
	"github.com/effective-security/toolhub/pkg/toolhub"
	"github.com/effective-security/toolhub/store"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolhub", "builder")

// Sources of tools
type Sources struct {
	SDK     []sdk.Module
	OpenAPI []string
	MCP     mcp.Connections
}

// Option configures Build
type Option func(*options)

type options struct {
	embedder embeddings.Embedder
	hub      []toolhub.Option
	sdk      []sdk.Option
	openapi  []openapi.Option
	mcp      []mcp.Option
}

// WithEmbedder sets the embedder,
// by default it is created from the environment.
func WithEmbedder(embedder embeddings.Embedder) Option {
	return func(o *options) {
		o.embedder = embedder
	}
}

// WithHubOptions sets the hub options
func WithHubOptions(opts ...toolhub.Option) Option {
	return func(o *options) {
		o.hub = append(o.hub, opts...)
	}
}

// WithSDKOptions sets the SDK loader options
func WithSDKOptions(opts ...sdk.Option) Option {
	return func(o *options) {
		o.sdk = append(o.sdk, opts...)
	}
}

// WithOpenAPIOptions sets the OpenAPI loader options
func WithOpenAPIOptions(opts ...openapi.Option) Option {
	return func(o *options) {
		o.openapi = append(o.openapi, opts...)
	}
}

// WithMCPOptions sets the MCP loader options
func WithMCPOptions(opts ...mcp.Option) Option {
	return func(o *options) {
		o.mcp = append(o.mcp, opts...)
	}
}

// Result of Build
type Result struct {
	Hub *toolhub.Hub

	mcpLoader *mcp.Loader
}

// Close releases the MCP sessions
func (r *Result) Close() error {
	if r.mcpLoader == nil {
		return nil
	}
	return r.mcpLoader.Close()
}

// Build loads every source concurrently and adds the tools to a new hub:
// SDK modules first, then OpenAPI documents in the declared order, then MCP servers.
func Build(ctx context.Context, src Sources, opts ...Option) (*Result, error) {
	o := new(options)
	for _, opt := range opts {
		opt(o)
	}

	embedder := o.embedder
	if embedder == nil {
		var err error
		embedder, err = embeddings.New(ctx, embeddings.ConfigFromEnv())
		if err != nil {
			return nil, errors.Wrap(err, "failed to create embeddings")
		}
	}

	var (
		sdkTools     []toolhub.LoadedTool
		openapiTools = make([][]toolhub.LoadedTool, len(src.OpenAPI))
		mcpTools     []toolhub.LoadedTool
		mcpLoader    *mcp.Loader
	)

	g, gctx := errgroup.WithContext(ctx)
	if len(src.SDK) > 0 {
		g.Go(func() error {
			list, err := sdk.New(src.SDK, o.sdk...).Load(gctx)
			if err != nil {
				return errors.Wrap(err, "failed to load SDK tools")
			}
			sdkTools = list
			return nil
		})
	}
	for i, specURL := range src.OpenAPI {
		g.Go(func() error {
			list, err := openapi.New(specURL, o.openapi...).Load(gctx)
			if err != nil {
				return errors.Wrapf(err, "failed to load OpenAPI tools from %s", specURL)
			}
			openapiTools[i] = list
			return nil
		})
	}
	if len(src.MCP) > 0 {
		mcpLoader = mcp.New(src.MCP, o.mcp...)
		g.Go(func() error {
			list, err := mcpLoader.Load(gctx)
			if err != nil {
				return errors.Wrap(err, "failed to load MCP tools")
			}
			mcpTools = list
			return nil
		})
	}

	res := &Result{mcpLoader: mcpLoader}
	if err := g.Wait(); err != nil {
		_ = res.Close()
		return nil, err
	}

	all := sdkTools
	for _, list := range openapiTools {
		all = append(all, list...)
	}
	all = append(all, mcpTools...)

	hub := toolhub.New(embedder, o.hub...)
	if err := hub.AddLoadedTools(ctx, all); err != nil {
		_ = res.Close()
		return nil, err
	}
	res.Hub = hub

	logger.ContextKV(ctx, xlog.INFO,
		"hub", hub.Name(),
		"sdk", len(sdkTools),
		"openapi", len(all)-len(sdkTools)-len(mcpTools),
		"mcp", len(mcpTools),
		"total", hub.Len())
	return res, nil
}

// FromConfig builds the hub from configuration,
// with SDK modules provided by the caller.
func FromConfig(ctx context.Context, cfg *config.Config, modules []sdk.Module, opts ...Option) (*Result, error) {
	embedder, err := NewEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}

	all := []Option{WithEmbedder(embedder)}
	if cfg.Name != "" {
		all = append(all, WithHubOptions(toolhub.WithName(cfg.Name)))
	}
	if cfg.MaxToolsPerModule > 0 {
		all = append(all, WithSDKOptions(sdk.WithMaxToolsPerModule(cfg.MaxToolsPerModule)))
	}
	all = append(all, opts...)

	return Build(ctx, Sources{
		SDK:     modules,
		OpenAPI: cfg.Sources.OpenAPI,
		MCP:     cfg.Sources.MCP,
	}, all...)
}

// NewEmbedder returns the configured embedder,
// wrapped by the cache unless it is disabled.
func NewEmbedder(ctx context.Context, cfg *config.Config) (embeddings.Embedder, error) {
	embedder, err := embeddings.New(ctx, cfg.Embeddings)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create embeddings")
	}
	if cfg.Cache.Disabled {
		return embedder, nil
	}

	vs, err := newVectorStore(&cfg.Cache)
	if err != nil {
		return nil, err
	}
	return embeddings.NewCached(embedder, vs, cacheNamespace(&cfg.Embeddings)), nil
}

func newVectorStore(cfg *config.CacheConfig) (store.VectorStore, error) {
	if cfg.RedisURL == "" {
		return store.NewMemoryStore(), nil
	}

	ttl, err := cfg.TTLDuration()
	if err != nil {
		return nil, err
	}
	ropts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid Redis URL")
	}
	return store.NewRedisStore(redis.NewClient(ropts), values.StringsCoalesce(cfg.Prefix, "toolhub"), ttl), nil
}

// cacheNamespace separates vectors of different providers, models and sizes
func cacheNamespace(cfg *embeddings.Config) string {
	ns := strings.ToLower(cfg.ResolveProvider()) + "/" + values.StringsCoalesce(cfg.Model, "default")
	if cfg.Dimensions > 0 {
		ns += "/" + strconv.Itoa(cfg.Dimensions)
	}
	return ns
}
