package main

import (
	"Tether/mcp"
)

// App shares its types with the mcp package through pkg/types, so it
// satisfies mcp.TetherApp directly.
var _ mcp.TetherApp = (*App)(nil)

// StartMCPServer serves the backend over stdio until the client disconnects
func StartMCPServer(app *App) {
	mcpServer := mcp.NewMCPServer(app)
	if err := mcpServer.Start(); err != nil {
		LogError("mcp").Err(err).Msg("Failed to start MCP server")
	}
}
