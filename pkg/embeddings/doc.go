// Package embeddings provides text embedders used by the tool index:
// cloud providers (OpenAI, Google AI, Bedrock), an OpenAI-compatible local server,
// a deterministic hash fallback, and a caching wrapper.
package embeddings
