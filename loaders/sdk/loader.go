package sdk

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolhub/pkg/llmutils"
	"github.com/effective-security/toolhub/pkg/naming"
	"github.com/effective-security/toolhub/pkg/schema"
	"github.com/effective-security/toolhub/pkg/toolhub"
	"github.com/effective-security/toolhub/tools"
	"github.com/effective-security/xlog"
	"github.com/invopop/jsonschema"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolhub", "sdk")

// Option configures the Loader
type Option func(*options)

type options struct {
	include        func(module string, fn *Function) bool
	maxPerModule   int
	includePrivate bool
}

// WithIncludePredicate loads only functions accepted by the predicate
func WithIncludePredicate(include func(module string, fn *Function) bool) Option {
	return func(o *options) {
		o.include = include
	}
}

// WithMaxToolsPerModule limits the number of tools per module,
// after sorting by name.
func WithMaxToolsPerModule(limit int) Option {
	return func(o *options) {
		o.maxPerModule = limit
	}
}

// WithPrivate includes functions with names starting with underscore
func WithPrivate() Option {
	return func(o *options) {
		o.includePrivate = true
	}
}

// Loader loads tools from SDK modules
type Loader struct {
	modules []Module
	opts    options
}

// New returns SDK loader
func New(modules []Module, opts ...Option) *Loader {
	l := &Loader{modules: modules}
	for _, opt := range opts {
		opt(&l.opts)
	}
	return l
}

// Load returns one tool per function, named {module}__{function}.
// Names are sanitized and unique within the loader.
func (l *Loader) Load(_ context.Context) ([]toolhub.LoadedTool, error) {
	var loaded []toolhub.LoadedTool
	var used naming.Set

	for _, m := range l.modules {
		var candidates []*Function
		for i := range m.Functions {
			fn := &m.Functions[i]
			if fn.Name == "" {
				return nil, errors.Errorf("function at position %d of module %q has no name", i, m.Name)
			}
			if fn.Handler == nil {
				return nil, errors.Errorf("function %s of module %q has no handler", fn.Name, m.Name)
			}
			if !l.opts.includePrivate && strings.HasPrefix(fn.Name, "_") {
				continue
			}
			if l.opts.include != nil && !l.opts.include(m.Name, fn) {
				continue
			}
			candidates = append(candidates, fn)
		}

		slices.SortStableFunc(candidates, func(a, b *Function) int {
			return strings.Compare(a.Name, b.Name)
		})
		if l.opts.maxPerModule > 0 && len(candidates) > l.opts.maxPerModule {
			candidates = candidates[:l.opts.maxPerModule]
		}

		for _, fn := range candidates {
			name := used.Unique(naming.Sanitize(m.Name + "__" + fn.Name))
			t := newTool(name, m.Name, fn)
			loaded = append(loaded, toolhub.LoadedTool{
				Name:        name,
				Description: t.description,
				Tool:        t,
				Source:      toolhub.SourceSDK,
				Origin:      m.Name,
			})
		}
		logger.KV(xlog.DEBUG, "module", m.Name, "tools", len(candidates))
	}
	return loaded, nil
}

// Tool is a function exposed as a tool
type Tool struct {
	name        string
	description string
	params      []schema.Param
	parameters  *jsonschema.Schema
	handler     Handler
	rawInput    bool
}

var _ tools.ITool = (*Tool)(nil)

func newTool(name, origin string, fn *Function) *Tool {
	description := fn.Description
	if description == "" {
		description = fmt.Sprintf("Function %s from %s", fn.Name, origin)
	}

	params := fn.Params
	rawInput := false
	if len(params) == 0 {
		params = []schema.Param{schema.DefaultInputParam}
		rawInput = true
	}

	parameters := fn.parameters
	if parameters == nil || rawInput {
		parameters = schema.FromParams(params)
	}

	return &Tool{
		name:        name,
		description: description,
		params:      params,
		parameters:  parameters,
		handler:     fn.Handler,
		rawInput:    rawInput,
	}
}

func (t *Tool) Name() string {
	return t.name
}

func (t *Tool) Description() string {
	return t.description
}

func (t *Tool) Parameters() any {
	return t.parameters
}

// Params returns the parameter descriptors
func (t *Tool) Params() []schema.Param {
	return t.params
}

// Call decodes JSON arguments, applies defaults and required checks,
// and returns the result as text.
// A tool with the synthesized input parameter also accepts plain text.
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	args, err := llmutils.DecodeArgs(input)
	if err != nil {
		if !t.rawInput {
			return "", errors.Mark(errors.Wrap(err, "failed to unmarshal input"), tools.ErrFailedUnmarshalInput)
		}
		args = map[string]any{schema.DefaultInputParam.Name: input}
	}

	args, err = schema.ApplyParams(t.params, args)
	if err != nil {
		return "", err
	}

	res, err := t.handler(ctx, args)
	if err != nil {
		return "", err
	}
	return llmutils.Stringify(res), nil
}
