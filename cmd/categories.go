package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/analytics"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/platform"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/ui"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories [query]",
	Short: "Show the category labels behind a query's products",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategories,
}

func init() {
	categoriesCmd.Flags().Int("limit", 60, "Number of products to sample")
	categoriesCmd.Flags().String("type", "", `Filter by category type: "product" or "location"`)
	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(cmd *cobra.Command, args []string) error {
	query := args[0]
	limit, _ := cmd.Flags().GetInt("limit")
	typeFilter, _ := cmd.Flags().GetString("type")

	scraper := buildScraper()

	spin := ui.NewSpinner()
	spin.Start(fmt.Sprintf("Sampling categories for '%s'...", query))
	ctx := platform.WithProgress(context.Background(), spin.Update)
	products, strategy := scraper.Collect(ctx, query, limit)
	spin.Stop()

	if len(products) == 0 {
		fmt.Println("No products found.")
		return nil
	}

	// Aggregate labels across the sampled batch.
	type row struct {
		name  string
		ctype string
		count int
	}
	counts := make(map[string]*row)
	for _, p := range products {
		for _, c := range analytics.CategoriesFromProduct(p) {
			if typeFilter != "" && c.Type != typeFilter {
				continue
			}
			r, ok := counts[c.Name]
			if !ok {
				r = &row{name: c.Name, ctype: c.Type}
				counts[c.Name] = r
			}
			r.count++
		}
	}

	if len(counts) == 0 {
		fmt.Println("No categories found.")
		return nil
	}

	rows := make([]*row, 0, len(counts))
	for _, r := range counts {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].name < rows[j].name
	})

	fmt.Printf("Categories for \"%s\" (%d products sampled via %s):\n\n", query, len(products), strategy)
	for i, r := range rows {
		fmt.Printf(" %2d. %-40s  %-10s (%d products)\n", i+1, r.name, r.ctype, r.count)
	}

	return nil
}
