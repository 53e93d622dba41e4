// Package toolhub aggregates tools loaded from SDK modules, OpenAPI documents and MCP servers
// into one catalog with globally unique names, and ranks them for a query
// by combining embedding similarity with lexical heuristics.
//
// A Hub is not safe for concurrent AddLoadedTools calls,
// callers must serialize building.
package toolhub
