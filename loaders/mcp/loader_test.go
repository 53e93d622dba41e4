package mcp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolhub/loaders/mcp"
	"github.com/effective-security/toolhub/pkg/toolhub"
	"github.com/effective-security/toolhub/tools"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var objectSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"symbol": map[string]any{"type": "string"},
	},
}

func newServer(name string, pageSize int, toolNames ...string) *sdk.Server {
	server := sdk.NewServer(&sdk.Implementation{Name: name, Version: "0.1.0"}, &sdk.ServerOptions{HasTools: true, PageSize: pageSize})
	for _, tn := range toolNames {
		desc := "Tool " + tn
		if tn == "nodesc" {
			desc = ""
		}
		server.AddTool(&sdk.Tool{
			Name:        tn,
			Description: desc,
			InputSchema: objectSchema,
		}, func(ctx context.Context, req *sdk.CallToolRequest) (*sdk.CallToolResult, error) {
			if tn == "fail" {
				return &sdk.CallToolResult{
					IsError: true,
					Content: []sdk.Content{&sdk.TextContent{Text: "boom"}},
				}, nil
			}
			return &sdk.CallToolResult{
				Content: []sdk.Content{
					&sdk.TextContent{Text: req.Params.Name},
					&sdk.TextContent{Text: string(req.Params.Arguments)},
				},
			}, nil
		})
	}
	return server
}

// inMemory connects every server over in-memory transports
func inMemory(t *testing.T, servers map[string]*sdk.Server) mcp.TransportFactory {
	return func(name string, _ mcp.Connection) (sdk.Transport, error) {
		server, ok := servers[name]
		if !ok {
			return nil, errors.Newf("unknown server %s", name)
		}
		ct, st := sdk.NewInMemoryTransports()
		ss, err := server.Connect(context.Background(), st, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = ss.Close() })
		return ct, nil
	}
}

func Test_Load(t *testing.T) {
	ctx := context.Background()
	servers := map[string]*sdk.Server{
		"exchange": newServer("exchange", 0, "fetch_ticker", "ccxt_markets"),
		"notes":    newServer("notes", 1, "add", "nodesc", "fail"),
		"weather":  newServer("weather", 0, "forecast"),
	}
	connections := mcp.Connections{
		"weather":  {URL: "http://localhost/weather"},
		"notes":    {Command: "memory-server"},
		"exchange": {Command: "ccxt-mcp"},
	}

	loader := mcp.New(connections, mcp.WithTransportFactory(inMemory(t, servers)))
	defer func() {
		assert.NoError(t, loader.Close())
	}()

	loaded, err := loader.Load(ctx)
	require.NoError(t, err)

	var names, origins []string
	byName := map[string]toolhub.LoadedTool{}
	for _, lt := range loaded {
		names = append(names, lt.Name)
		origins = append(origins, lt.Origin)
		byName[lt.Name] = lt
		assert.Equal(t, toolhub.SourceMCP, lt.Source)
		assert.Equal(t, lt.Name, lt.Tool.Name())
	}
	assert.ElementsMatch(t, []string{"ccxt_fetch_ticker", "ccxt_markets"}, names[:2])
	assert.ElementsMatch(t, []string{"mindmap_add", "mindmap_nodesc", "mindmap_fail"}, names[2:5])
	assert.Equal(t, "weather_forecast", names[5])
	assert.Equal(t, []string{"exchange", "exchange", "notes", "notes", "notes", "weather"}, origins)

	assert.Equal(t, "Tool forecast", byName["weather_forecast"].Description)
	assert.Equal(t, mcp.DefaultDescription, byName["mindmap_nodesc"].Description)

	ticker := byName["ccxt_fetch_ticker"].Tool.(*mcp.Tool)
	assert.Equal(t, "fetch_ticker", ticker.RemoteName())
	js, err := json.Marshal(ticker.Parameters())
	require.NoError(t, err)
	assert.Contains(t, string(js), `"symbol"`)

	out, err := ticker.Call(ctx, `{"symbol":"BTC/USDT"}`)
	require.NoError(t, err)
	assert.Equal(t, "fetch_ticker\n{\"symbol\":\"BTC/USDT\"}", out)

	out, err = byName["weather_forecast"].Tool.Call(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "forecast\n{}", out)

	_, err = byName["mindmap_fail"].Tool.Call(ctx, "{}")
	require.Error(t, err)
	assert.True(t, errors.Is(err, mcp.ErrToolFailed))
	assert.Contains(t, err.Error(), "boom")

	_, err = ticker.Call(ctx, "[1,2]")
	assert.True(t, errors.Is(err, tools.ErrFailedUnmarshalInput))
}

func Test_Load_Errors(t *testing.T) {
	ctx := context.Background()

	loader := mcp.New(mcp.Connections{
		"a": {},
		"b": {},
	}, mcp.WithTransportFactory(inMemory(t, map[string]*sdk.Server{
		"a": newServer("a", 0, "one"),
	})))

	_, err := loader.Load(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid MCP server b")
	assert.NoError(t, loader.Close())

	_, err = mcp.New(mcp.Connections{"x": {Transport: "ftp"}}).Load(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported MCP transport: ftp")
}

func Test_Load_Empty(t *testing.T) {
	loaded, err := mcp.New(nil).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func Test_Load_HTTPTransports(t *testing.T) {
	server := newServer("srv", 0, "echo")
	getServer := func(*http.Request) *sdk.Server { return server }

	tcases := []struct {
		transport string
		handler   http.Handler
	}{
		{mcp.TransportSSE, sdk.NewSSEHandler(getServer, nil)},
		{mcp.TransportStreamableHTTP, sdk.NewStreamableHTTPHandler(getServer, nil)},
	}
	for _, tc := range tcases {
		t.Run(tc.transport, func(t *testing.T) {
			ts := httptest.NewServer(tc.handler)
			defer ts.Close()

			loader := mcp.New(mcp.Connections{
				"srv": {Transport: tc.transport, URL: ts.URL},
			}, mcp.WithTimeout(5*time.Second))
			defer func() {
				assert.NoError(t, loader.Close())
			}()

			// sessions must survive the context used to load them
			ctx, cancel := context.WithCancel(context.Background())
			loaded, err := loader.Load(ctx)
			cancel()
			require.NoError(t, err)
			require.Len(t, loaded, 1)
			assert.Equal(t, "srv_echo", loaded[0].Name)

			out, err := loaded[0].Tool.Call(context.Background(), `{"symbol":"ETH"}`)
			require.NoError(t, err)
			assert.Equal(t, "echo\n{\"symbol\":\"ETH\"}", out)
		})
	}
}

func Test_Load_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loader := mcp.New(mcp.Connections{"a": {}}, mcp.WithTransportFactory(inMemory(t, map[string]*sdk.Server{
		"a": newServer("a", 0, "one"),
	})))
	_, err := loader.Load(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to MCP server a")
	assert.NoError(t, loader.Close())
}
