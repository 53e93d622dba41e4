package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolhub/pkg/llmutils"
	"github.com/effective-security/toolhub/tools"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ErrToolFailed is returned when the server reports a tool error
var ErrToolFailed = errors.New("MCP tool failed")

// Tool calls a remote MCP tool through its session
type Tool struct {
	name        string
	description string
	remoteName  string
	inputSchema any
	session     *sdk.ClientSession
	timeout     time.Duration
}

var _ tools.ITool = (*Tool)(nil)

func (t *Tool) Name() string {
	return t.name
}

func (t *Tool) Description() string {
	return t.description
}

// Parameters returns the input schema reported by the server
func (t *Tool) Parameters() any {
	if t.inputSchema == nil {
		return map[string]any{"type": "object"}
	}
	return t.inputSchema
}

// RemoteName returns the tool name on the server
func (t *Tool) RemoteName() string {
	return t.remoteName
}

// Call passes the JSON object input as the tool arguments,
// and returns the text content of the result.
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	args := map[string]any{}
	if cleaned := bytes.TrimSpace(llmutils.CleanJSON([]byte(input))); len(cleaned) > 0 {
		if err := json.Unmarshal(cleaned, &args); err != nil {
			return "", errors.Mark(errors.Wrap(err, "failed to unmarshal input"), tools.ErrFailedUnmarshalInput)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	res, err := t.session.CallTool(ctx, &sdk.CallToolParams{
		Name:      t.remoteName,
		Arguments: args,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to call MCP tool %s", t.remoteName)
	}

	text := contentText(res)
	if res.IsError {
		return "", errors.Mark(errors.Newf("MCP tool %s failed: %s", t.remoteName, text), ErrToolFailed)
	}
	return text, nil
}

// contentText joins text content, other content is returned as JSON
func contentText(res *sdk.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		switch v := c.(type) {
		case *sdk.TextContent:
			parts = append(parts, v.Text)
		default:
			if js, err := json.Marshal(v); err == nil {
				parts = append(parts, string(js))
			}
		}
	}
	if len(parts) == 0 && res.StructuredContent != nil {
		if js, err := json.Marshal(res.StructuredContent); err == nil {
			parts = append(parts, string(js))
		}
	}
	return strings.Join(parts, "\n")
}
