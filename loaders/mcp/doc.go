// Package mcp loads tools exposed by Model Context Protocol servers.
//
// Each configured server is connected over stdio, streamable HTTP or SSE,
// its tools are listed and wrapped so that calls go through the live session.
// Tool names are prefixed with a stable identifier derived from the server.
package mcp
