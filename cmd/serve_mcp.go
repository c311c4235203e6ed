package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	mcpserver "github.com/Ev3lynx727/containerd-apps-tokped-scrapper/mcp"
)

var serveMCPCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Start the MCP stdio server",
	RunE:  runServeMCP,
}

var serveMCPHTTPCmd = &cobra.Command{
	Use:   "serve-mcp-http",
	Short: "Start the MCP server over HTTP",
	Long:  "Start the MCP server over HTTP for remote access (e.g. from Fly.io).",
	RunE:  runServeMCPHTTP,
}

func init() {
	serveMCPHTTPCmd.Flags().String("port", "", "HTTP port (default from $PORT or 8080)")
	rootCmd.AddCommand(serveMCPCmd)
	rootCmd.AddCommand(serveMCPHTTPCmd)
}

func mcpDeps(cmd *cobra.Command) mcpserver.Deps {
	application := buildApp(cmd.Context())
	return mcpserver.Deps{
		Search:    application.search,
		Analytics: application.analytics,
	}
}

func runServeMCP(cmd *cobra.Command, args []string) error {
	deps := mcpDeps(cmd)
	fmt.Fprintln(cmd.ErrOrStderr(), "Starting MCP server on stdio...")
	return mcpserver.Serve(deps)
}

func runServeMCPHTTP(cmd *cobra.Command, args []string) error {
	deps := mcpDeps(cmd)

	port := cfg.HTTPPort
	if p, _ := cmd.Flags().GetString("port"); p != "" {
		port = p
	}
	return mcpserver.ServeHTTP(fmt.Sprintf(":%s", port), cfg.APIKey, deps)
}
