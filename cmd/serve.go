package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  "Start the HTTP API: scraping, cached products, and analytics over recent searches.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("port", "", "HTTP port (default from $PORT or 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	application := buildApp(cmd.Context())

	port := cfg.HTTPPort
	if p, _ := cmd.Flags().GetString("port"); p != "" {
		port = p
	}

	server := api.NewServer(
		application.search,
		application.analytics,
		application.store,
		application.metrics,
		application.log,
		cfg.APIKey,
	)
	return server.ListenAndServe(fmt.Sprintf(":%s", port))
}
