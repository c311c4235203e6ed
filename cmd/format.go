package cmd

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/models"
)

// printProductsTable prints products in a human-friendly card layout.
func printProductsTable(products []models.Product) {
	for i, p := range products {
		if i > 0 {
			fmt.Fprintln(os.Stdout)
		}
		name := p.Name
		var flags []string
		if p.IsBestSeller {
			flags = append(flags, "BESTSELLER")
		}
		if p.IsTrending {
			flags = append(flags, "TRENDING")
		}
		if p.IsTopRated {
			flags = append(flags, "TOP RATED")
		}
		if len(flags) > 0 {
			name = "[" + strings.Join(flags, ", ") + "] " + name
		}
		fmt.Fprintf(os.Stdout, " %d. %s\n", i+1, name)

		// Price line with optional original price and discount
		priceLine := "    Price: " + p.Price
		if p.OriginalPrice != "" && p.DiscountPercentage > 0 {
			priceLine += fmt.Sprintf("  (was %s, -%d%%)", p.OriginalPrice, p.DiscountPercentage)
		}
		priceLine += "  |  Shop: " + p.Shop.Name
		if p.Shop.City != "" {
			priceLine += fmt.Sprintf(" (%s)", p.Shop.City)
		}
		if p.Shop.IsOfficial {
			priceLine += " [Official]"
		}
		fmt.Fprintln(os.Stdout, priceLine)

		if p.Rating > 0 {
			ratingLine := fmt.Sprintf("    Rating: %.1f (%d reviews)", p.Rating, p.ReviewCount)
			if p.PopularityScore > 0 {
				ratingLine += fmt.Sprintf("  |  Popularity: %.2f", p.PopularityScore)
			}
			fmt.Fprintln(os.Stdout, ratingLine)
		}
		if len(p.LabelGroups) > 0 {
			var tags []string
			for _, l := range p.LabelGroups {
				tags = append(tags, "["+l.Title+"]")
			}
			fmt.Fprintf(os.Stdout, "    %s\n", strings.Join(tags, " "))
		}
		if p.Category != "" {
			fmt.Fprintf(os.Stdout, "    Category: %s\n", p.Category)
		}
		fmt.Fprintf(os.Stdout, "    %s\n", cleanURL(p.URL))
	}
}

// printShopsTable prints the recommended-shop leaderboard.
func printShopsTable(shops []models.Shop) {
	fmt.Fprintln(os.Stdout, " Recommended shops:")
	for i, s := range shops {
		line := fmt.Sprintf(" %d. %-30s  score %.1f", i+1, truncate(s.Name, 30), s.RecommendationScore)
		if s.AvgRating > 0 {
			line += fmt.Sprintf("  rating %.1f (%d reviews)", s.AvgRating, s.TotalReviews)
		}
		if s.City != "" {
			line += "  " + s.City
		}
		fmt.Fprintln(os.Stdout, line)
	}
}

// cleanURL strips tracking query params (extParam, search_id, src, etc.)
// and returns just the product page URL.
func cleanURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.RawQuery = ""
	return u.String()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
