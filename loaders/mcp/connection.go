package mcp

import (
	"net/http"
	"os"
	"os/exec"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolhub/pkg/naming"
	"github.com/effective-security/x/values"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Transport kinds
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable_http"
	TransportSSE            = "sse"
)

// Connection describes how to reach one MCP server
type Connection struct {
	// Transport is one of stdio, streamable_http or sse.
	// If empty, stdio is used when Command is set, otherwise streamable_http.
	Transport string            `json:"transport,omitempty" yaml:"transport,omitempty"`
	Command   string            `json:"command,omitempty" yaml:"command,omitempty"`
	Args      []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Env       map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	URL       string            `json:"url,omitempty" yaml:"url,omitempty"`
	Headers   map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	// Prefix overrides the derived tool name prefix
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// Connections maps server name to its connection
type Connections map[string]Connection

// Names returns the server names in sorted order
func (c Connections) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// TransportKind returns the effective transport
func (c *Connection) TransportKind() string {
	if c.Transport != "" {
		return strings.ToLower(c.Transport)
	}
	if c.Command != "" {
		return TransportStdio
	}
	return TransportStreamableHTTP
}

// NewTransport returns the client transport for the connection
func (c *Connection) NewTransport() (sdk.Transport, error) {
	switch kind := c.TransportKind(); kind {
	case TransportStdio:
		if c.Command == "" {
			return nil, errors.New("command is required for stdio transport")
		}
		cmd := exec.Command(c.Command, c.Args...)
		if len(c.Env) > 0 {
			cmd.Env = append(os.Environ(), formatEnv(c.Env)...)
		}
		return &sdk.CommandTransport{Command: cmd}, nil
	case TransportStreamableHTTP, "http", "streamable-http":
		if c.URL == "" {
			return nil, errors.Errorf("url is required for %s transport", kind)
		}
		return &sdk.StreamableClientTransport{
			Endpoint:   c.URL,
			HTTPClient: c.httpClient(),
		}, nil
	case TransportSSE:
		if c.URL == "" {
			return nil, errors.Errorf("url is required for %s transport", kind)
		}
		return &sdk.SSEClientTransport{
			Endpoint:   c.URL,
			HTTPClient: c.httpClient(),
		}, nil
	default:
		return nil, errors.Errorf("unsupported MCP transport: %s", kind)
	}
}

// ToolPrefix returns the prefix for tools of the server:
// the explicit Prefix, ccxt or mindmap for well known servers,
// otherwise the sanitized server name, or mcp.
func (c *Connection) ToolPrefix(serverName string) string {
	if c.Prefix != "" {
		return c.Prefix
	}

	var parts []string
	for _, v := range []string{serverName, c.Command, c.URL} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	text := strings.ToLower(strings.Join(parts, " "))
	switch {
	case strings.Contains(text, "ccxt"):
		return "ccxt"
	case strings.Contains(text, "mindmap"), strings.Contains(text, "memory"):
		return "mindmap"
	}
	return values.StringsCoalesce(strings.Trim(naming.Sanitize(serverName), "_"), "mcp")
}

func (c *Connection) httpClient() *http.Client {
	if len(c.Headers) == 0 {
		return http.DefaultClient
	}
	headers := http.Header{}
	for k, v := range c.Headers {
		headers.Set(strings.TrimSpace(k), v)
	}
	return &http.Client{
		Transport: &headerRoundTripper{
			base:    http.DefaultTransport,
			headers: headers,
		},
	}
}

func formatEnv(env map[string]string) []string {
	list := make([]string, 0, len(env))
	for k, v := range env {
		list = append(list, k+"="+v)
	}
	slices.Sort(list)
	return list
}

type headerRoundTripper struct {
	base    http.RoundTripper
	headers http.Header
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for key, vals := range h.headers {
		req.Header.Del(key)
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}
	return h.base.RoundTrip(req)
}
