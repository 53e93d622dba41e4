package tools

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolhub/pkg/llmutils"
)

// ErrFailedUnmarshalInput is returned when a tool cannot parse its input.
var ErrFailedUnmarshalInput = errors.New("failed to unmarshal input")

//go:generate mockgen -source=tools.go -destination=../mocks/mocktools/tools_mock.gen.go  -package mocktools

// ITool is an invokable handle registered in the hub.
// SDK functions, OpenAPI operations and MCP server tools all implement it.
type ITool interface {
	// Name returns the name the agent uses to select the tool.
	Name() string
	// Description returns the description indexed for retrieval.
	Description() string
	// Parameters returns JSON Schema of the tool input.
	Parameters() any
	// Call invokes the tool with JSON input.
	// Parse failures are marked with ErrFailedUnmarshalInput.
	Call(ctx context.Context, input string) (string, error)
}

// Callback receives tool invocation events.
type Callback interface {
	OnToolStart(ctx context.Context, tool ITool, input string)
	OnToolEnd(ctx context.Context, tool ITool, input string, output string)
	OnToolError(ctx context.Context, tool ITool, input string, err error)
}

// Description is the catalog entry of one tool
type Description struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Parameters  any    `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Catalog describes the selected tools for a prompt
type Catalog struct {
	Tools []Description `json:"tools" yaml:"tools"`
}

// Describe returns the catalog of tools
func Describe(list ...ITool) Catalog {
	c := Catalog{Tools: make([]Description, 0, len(list))}
	for _, t := range list {
		c.Tools = append(c.Tools, Description{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return c
}

// GetDescriptions returns the catalog as fenced JSON block
func GetDescriptions(list ...ITool) string {
	return llmutils.BackticksJSON(llmutils.ToJSONIndent(Describe(list...)))
}
