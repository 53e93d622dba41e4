package toolhub

import (
	"fmt"

	"github.com/effective-security/toolhub/tools"
)

// Source is the kind of a tool source
type Source string

// Sources
const (
	SourceSDK     Source = "sdk"
	SourceOpenAPI Source = "openapi"
	SourceMCP     Source = "mcp"
)

// LoadedTool is the record a loader produces for one tool.
type LoadedTool struct {
	Name        string
	Description string
	Tool        tools.ITool
	Source      Source
	// Origin identifies where the tool came from:
	// module name, OpenAPI document URL, or MCP server name.
	Origin string
}

// indexText returns the text indexed for the tool
func indexText(name string, source Source, origin, description string) string {
	return fmt.Sprintf("name: %s\nsource: %s\norigin: %s\n%s", name, source, origin, description)
}
