// Package config provides the hub configuration loaded from YAML or JSON files.
package config

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolhub/loaders/mcp"
	"github.com/effective-security/toolhub/pkg/embeddings"
	"github.com/effective-security/x/configloader"
)

// Config of the tool hub
type Config struct {
	// Name of the hub, used in metrics and logs
	Name       string            `json:"name,omitempty" yaml:"name,omitempty"`
	Embeddings embeddings.Config `json:"embeddings" yaml:"embeddings"`
	Cache      CacheConfig       `json:"cache" yaml:"cache"`
	Sources    SourcesConfig     `json:"sources" yaml:"sources"`
	// MaxToolsPerModule limits the tools loaded from one SDK module, 0 means no limit
	MaxToolsPerModule int `json:"max_tools_per_module,omitempty" yaml:"max_tools_per_module,omitempty"`
}

// CacheConfig specifies the embeddings cache.
// Redis is used when RedisURL is set, otherwise vectors are cached in memory.
type CacheConfig struct {
	Disabled bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	RedisURL string `json:"redis_url,omitempty" yaml:"redis_url,omitempty"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	// TTL is a duration string, like 24h; empty means no expiration
	TTL string `json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

// SourcesConfig lists the remote tool sources
type SourcesConfig struct {
	OpenAPI []string        `json:"openapi,omitempty" yaml:"openapi,omitempty"`
	MCP     mcp.Connections `json:"mcp,omitempty" yaml:"mcp,omitempty"`
}

// TTLDuration parses TTL
func (c *CacheConfig) TTLDuration() (time.Duration, error) {
	if c.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid cache TTL %q", c.TTL)
	}
	return d, nil
}

// Load returns configuration from file.
// An empty file name returns the default configuration.
func Load(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}

	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load config %s", file)
	}
	return cfg, nil
}
