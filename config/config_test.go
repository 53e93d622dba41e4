package config_test

import (
	"testing"
	"time"

	"github.com/effective-security/toolhub/config"
	"github.com/effective-security/toolhub/loaders/mcp"
	"github.com/effective-security/toolhub/pkg/embeddings"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg, err := config.Load("testdata/toolhub.yaml")
	require.NoError(t, err)

	assert.Equal(t, "ops", cfg.Name)
	assert.Equal(t, 10, cfg.MaxToolsPerModule)
	assert.Equal(t, embeddings.Config{Provider: "hash", Dimensions: 64}, cfg.Embeddings)
	assert.Equal(t, "toolhub", cfg.Cache.Prefix)
	ttl, err := cfg.Cache.TTLDuration()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, ttl)

	assert.Equal(t, []string{"https://petstore.example.com/openapi.json"}, cfg.Sources.OpenAPI)
	exp := mcp.Connections{
		"exchange": {
			Transport: "stdio",
			Command:   "ccxt-mcp",
			Args:      []string{"--sandbox"},
			Env:       map[string]string{"LOG_LEVEL": "debug"},
		},
		"weather": {
			Transport: "streamable_http",
			URL:       "http://localhost:8000/mcp",
			Headers:   map[string]string{"Authorization": "Bearer token"},
		},
	}
	if diff := cmp.Diff(exp, cfg.Sources.MCP); diff != "" {
		t.Errorf("mcp connections mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Default(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Sources.OpenAPI)

	ttl, err := cfg.Cache.TTLDuration()
	require.NoError(t, err)
	assert.Zero(t, ttl)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load("testdata/missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config testdata/missing.yaml")

	c := config.CacheConfig{TTL: "soon"}
	_, err = c.TTLDuration()
	assert.ErrorContains(t, err, `invalid cache TTL "soon"`)
}
