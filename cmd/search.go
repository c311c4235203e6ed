package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/platform"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/ui"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search and enrich products for a query",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().Int("count", 10, "Number of products to collect")
	searchCmd.Flags().String("format", "json", "Output format: json, table")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	count, _ := cmd.Flags().GetInt("count")
	format, _ := cmd.Flags().GetString("format")

	application := buildApp(cmd.Context())

	spin := ui.NewSpinner()
	spin.Start(fmt.Sprintf("Searching '%s'...", query))
	ctx := platform.WithProgress(context.Background(), spin.Update)
	result, err := application.search.Search(ctx, query, count)
	spin.Stop()
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	switch format {
	case "table":
		fmt.Printf("%d products for \"%s\" (strategy: %s, cached: %v)\n\n",
			result.TotalProducts, result.Query, result.StrategyUsed, result.Cached)
		printProductsTable(result.Products)
		if len(result.RecommendedShops) > 0 {
			fmt.Println()
			printShopsTable(result.RecommendedShops)
		}
	default:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(result)
	}

	return nil
}
