// Package mcp exposes the latest price snapshot to MCP clients over stdio or HTTP.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/thewisemo/al-eairy-ota/internal/version"
)

const serverName = "al-eairy-ota"

// NewServer builds an MCP server with every tool registered.
func NewServer(d Deps) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version.Version,
		server.WithToolCapabilities(true),
	)
	registerTools(s, d)
	return s
}

// Serve runs the MCP server on stdio until stdin closes.
func Serve(d Deps) error {
	return server.ServeStdio(NewServer(d))
}
