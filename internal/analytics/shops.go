package analytics

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/models"
)

// collectShops walks every resolvable cached result and deduplicates
// shops by id. The first occurrence of a shop wins, except its product
// count, which accumulates across queries. Shops without an id are
// excluded from all rollups.
func (a *Aggregator) collectShops(ctx context.Context) []models.Shop {
	byID := make(map[int64]*models.Shop)
	var order []int64

	for _, r := range a.resolveResults(ctx) {
		for _, p := range r.Products {
			id := p.Shop.ID
			if id == 0 {
				continue
			}
			if existing, ok := byID[id]; ok {
				existing.ProductCount += p.Shop.ProductCount
				continue
			}
			shop := p.Shop
			byID[id] = &shop
			order = append(order, id)
		}
	}

	shops := make([]models.Shop, 0, len(order))
	for _, id := range order {
		shops = append(shops, *byID[id])
	}
	return shops
}

func sortShops(shops []models.Shop) {
	sort.SliceStable(shops, func(i, j int) bool {
		if shops[i].RecommendationScore != shops[j].RecommendationScore {
			return shops[i].RecommendationScore > shops[j].RecommendationScore
		}
		return shops[i].AvgRating > shops[j].AvgRating
	})
}

// TopShops ranks all known shops by (recommendationScore, avgRating)
// descending.
func (a *Aggregator) TopShops(ctx context.Context, limit int) []models.Shop {
	shops := a.collectShops(ctx)
	sortShops(shops)
	if limit > 0 && len(shops) > limit {
		shops = shops[:limit]
	}
	return shops
}

// ShopsByCity returns the ranked shops whose city matches
// case-insensitively.
func (a *Aggregator) ShopsByCity(ctx context.Context, city string, limit int) []models.Shop {
	var matched []models.Shop
	for _, s := range a.collectShops(ctx) {
		if strings.EqualFold(s.City, city) {
			matched = append(matched, s)
		}
	}
	sortShops(matched)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// ShopStatistics computes distributional stats over all known shops:
// a rating-bucket histogram, the top-10 city histogram, and min/max/avg
// recommendation score.
func (a *Aggregator) ShopStatistics(ctx context.Context) models.ShopStats {
	shops := a.collectShops(ctx)

	stats := models.ShopStats{
		TotalShops:    len(shops),
		RatingBuckets: map[string]int{},
	}
	if len(shops) == 0 {
		return stats
	}

	cityCounts := make(map[string]int)
	var sum float64
	stats.MinScore = shops[0].RecommendationScore
	stats.MaxScore = shops[0].RecommendationScore

	for _, s := range shops {
		stats.RatingBuckets[ratingBucket(s.AvgRating)]++
		if s.City != "" {
			cityCounts[s.City]++
		}
		score := s.RecommendationScore
		sum += score
		if score < stats.MinScore {
			stats.MinScore = score
		}
		if score > stats.MaxScore {
			stats.MaxScore = score
		}
	}
	stats.AvgScore = sum / float64(len(shops))

	cities := make([]models.CityCount, 0, len(cityCounts))
	for city, n := range cityCounts {
		cities = append(cities, models.CityCount{City: city, Count: n})
	}
	sort.Slice(cities, func(i, j int) bool {
		if cities[i].Count != cities[j].Count {
			return cities[i].Count > cities[j].Count
		}
		return cities[i].City < cities[j].City
	})
	if len(cities) > 10 {
		cities = cities[:10]
	}
	stats.TopCities = cities

	return stats
}

// ratingBucket maps an average rating onto half-star histogram buckets.
func ratingBucket(rating float64) string {
	switch {
	case rating <= 0:
		return "unrated"
	case rating < 3:
		return "below_3"
	case rating >= 5:
		return "5.0"
	default:
		lower := float64(int(rating*2)) / 2
		return fmt.Sprintf("%.1f-%.1f", lower, lower+0.5)
	}
}
