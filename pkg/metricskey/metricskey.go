package metricskey

import "github.com/effective-security/metrics"

// Stats
var (
	// StatsToolsRegistered is base for counter metric for tools added to the hub
	StatsToolsRegistered = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tools_registered",
		Help:         "stats_tools_registered provides total tools registered in the hub",
		RequiredTags: []string{"source"},
	}

	// StatsToolQueryFallback counts queries served without vector candidates
	StatsToolQueryFallback = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_query_fallback",
		Help:         "stats_tool_query_fallback provides total queries ranked lexically after an index failure",
		RequiredTags: []string{"hub"},
	}

	StatsEmbeddingsCacheHits = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_embeddings_cache_hits",
		Help:         "stats_embeddings_cache_hits provides total embeddings served from cache",
		RequiredTags: []string{"namespace"},
	}

	StatsEmbeddingsCacheMisses = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_embeddings_cache_misses",
		Help:         "stats_embeddings_cache_misses provides total embeddings computed by the provider",
		RequiredTags: []string{"namespace"},
	}

	StatsToolCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_succeeded",
		Help:         "stats_tool_calls_succeeded provides total tool calls succeeded",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_failed",
		Help:         "stats_tool_calls_failed provides total tool calls failed",
		RequiredTags: []string{"tool"},
	}
)

// Perf
var (
	PerfToolQuery = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_query",
		Help:         "perf_tool_query provides duration of tool retrieval",
		RequiredTags: []string{"hub"},
	}

	PerfToolCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_call",
		Help:         "perf_tool_call provides duration of tool call",
		RequiredTags: []string{"tool"},
	}
)

// Metrics returns slice of metrics from this repo
// keep sorted by name
var Metrics = []*metrics.Describe{
	&PerfToolCall,
	&PerfToolQuery,
	&StatsEmbeddingsCacheHits,
	&StatsEmbeddingsCacheMisses,
	&StatsToolCallsFailed,
	&StatsToolCallsSucceeded,
	&StatsToolQueryFallback,
	&StatsToolsRegistered,
}
