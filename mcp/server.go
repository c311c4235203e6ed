package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/analytics"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/search"
)

// Deps are the services the MCP tools call into.
type Deps struct {
	Search    *search.Service
	Analytics *analytics.Aggregator
}

func newServer(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"tokped-scrapper",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	registerTools(s, deps)
	return s
}

// Serve starts the MCP stdio server with all tools registered.
func Serve(deps Deps) error {
	return server.ServeStdio(newServer(deps))
}
