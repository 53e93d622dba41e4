package toolhub

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolhub/pkg/embeddings"
	"github.com/effective-security/toolhub/pkg/metricskey"
	"github.com/effective-security/toolhub/pkg/naming"
	"github.com/effective-security/toolhub/pkg/vectorstore"
	"github.com/effective-security/toolhub/tools"
	"github.com/effective-security/xlog"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolhub", "toolhub")

// Metadata keys of index documents
const (
	MetaToolName = "tool_name"
	MetaSource   = "source"
	MetaOrigin   = "origin"
)

// Index is the semantic index of tool texts
type Index interface {
	Add(ctx context.Context, docs []vectorstore.Document) error
	Search(ctx context.Context, query string, k int) ([]vectorstore.Result, error)
}

// Option configures the Hub
type Option func(*options)

type options struct {
	name      string
	index     Index
	callbacks []tools.Callback
}

// WithName sets the name reported in metrics and logs
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithIndex replaces the default in-memory index
func WithIndex(index Index) Option {
	return func(o *options) {
		o.index = index
	}
}

// WithCallbacks registers callbacks invoked around every tool call
func WithCallbacks(callbacks ...tools.Callback) Option {
	return func(o *options) {
		o.callbacks = append(o.callbacks, callbacks...)
	}
}

// Hub holds the tools of a session, and their index.
type Hub struct {
	name      string
	index     Index
	callbacks []tools.Callback

	nameToTool *orderedmap.OrderedMap[string, tools.ITool]
	toolText   map[string]string
}

// New returns an empty hub indexing with the embedder.
func New(embedder embeddings.Embedder, opts ...Option) *Hub {
	o := options{name: "default"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.index == nil {
		o.index = vectorstore.New(embedder)
	}
	return &Hub{
		name:       o.name,
		index:      o.index,
		callbacks:  o.callbacks,
		nameToTool: orderedmap.New[string, tools.ITool](),
		toolText:   map[string]string{},
	}
}

// NewWithConfig returns an empty hub with the embedder selected by the config.
// Embedder construction errors are returned.
func NewWithConfig(ctx context.Context, cfg embeddings.Config, opts ...Option) (*Hub, error) {
	em, err := embeddings.New(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create embeddings")
	}
	return New(em, opts...), nil
}

// Name returns the hub name
func (h *Hub) Name() string {
	return h.name
}

// Len returns the number of registered tools
func (h *Hub) Len() int {
	return h.nameToTool.Len()
}

// AllTools returns registered tools in insertion order
func (h *Hub) AllTools() []tools.ITool {
	list := make([]tools.ITool, 0, h.nameToTool.Len())
	for pair := h.nameToTool.Oldest(); pair != nil; pair = pair.Next() {
		list = append(list, pair.Value)
	}
	return list
}

// Names returns registered tool names in insertion order
func (h *Hub) Names() []string {
	list := make([]string, 0, h.nameToTool.Len())
	for pair := h.nameToTool.Oldest(); pair != nil; pair = pair.Next() {
		list = append(list, pair.Key)
	}
	return list
}

// Tool returns the tool by its resolved name
func (h *Hub) Tool(name string) (tools.ITool, bool) {
	return h.nameToTool.Get(name)
}

type pending struct {
	name string
	tool tools.ITool
	text string
	item *LoadedTool
}

// AddLoadedTools registers the batch.
// Each name is made unique against registered tools and earlier items of the batch
// by suffixing _2, _3, ..., and the tool is renamed accordingly.
// All new tools are indexed in one call, and registered only if indexing succeeded.
func (h *Hub) AddLoadedTools(ctx context.Context, items []LoadedTool) error {
	if len(items) == 0 {
		return nil
	}

	taken := map[string]bool{}
	isTaken := func(name string) bool {
		if taken[name] {
			return true
		}
		_, ok := h.nameToTool.Get(name)
		return ok
	}

	batch := make([]pending, 0, len(items))
	docs := make([]vectorstore.Document, 0, len(items))
	for i := range items {
		item := &items[i]
		if item.Name == "" {
			return errors.Errorf("tool at position %d has empty name", i)
		}
		if item.Tool == nil {
			return errors.Errorf("tool %q has no handle", item.Name)
		}

		name := naming.Resolve(item.Name, isTaken)
		taken[name] = true

		text := indexText(name, item.Source, item.Origin, item.Description)
		batch = append(batch, pending{
			name: name,
			tool: tools.Observed(tools.Renamed(item.Tool, name), h.callbacks...),
			text: text,
			item: item,
		})
		docs = append(docs, vectorstore.Document{
			Content: text,
			Metadata: map[string]string{
				MetaToolName: name,
				MetaSource:   string(item.Source),
				MetaOrigin:   item.Origin,
			},
		})
	}

	if err := h.index.Add(ctx, docs); err != nil {
		return errors.Wrap(err, "failed to index tools")
	}

	for _, p := range batch {
		h.nameToTool.Set(p.name, p.tool)
		h.toolText[p.name] = p.text
		metricskey.StatsToolsRegistered.IncrCounter(1, string(p.item.Source))
		if p.name != p.item.Name {
			logger.ContextKV(ctx, xlog.DEBUG,
				"hub", h.name,
				"renamed", p.item.Name,
				"to", p.name,
				"source", p.item.Source,
				"origin", p.item.Origin)
		}
	}

	logger.ContextKV(ctx, xlog.DEBUG, "hub", h.name, "added", len(batch), "total", h.nameToTool.Len())
	return nil
}
