// Package enrich derives bestseller/trending/top-rated signals for
// products and recommendation scores for shops. Everything here is a
// pure function of its arguments: no I/O, no hidden state, and the
// same inputs always produce the same outputs.
package enrich

import (
	"math"

	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/models"
)

// Fixed thresholds for the derived signals. These are part of the
// contract, not configuration.
const (
	bestsellerMinRating     = 4.5
	bestsellerMinReviews    = 50
	bestsellerMinPopularity = 3.5

	trendingMinDiscount = 10
	trendingMinRating   = 4.0
	trendingMinReviews  = 20

	topRatedMargin     = 0.5
	topRatedFloor      = 4.0
	reviewBonusCap     = 3.0
	reviewBonusDivisor = 100.0
)

// PopularityScore combines rating and review volume into a single
// signal. Unrated products score 0 regardless of review count.
func PopularityScore(rating float64, reviewCount int) float64 {
	if rating <= 0 {
		return 0
	}
	bonus := math.Min(float64(reviewCount)/reviewBonusDivisor, reviewBonusCap)
	return round2(rating*0.7 + bonus)
}

// BatchAvgRating is the mean rating across batch members with a
// positive rating, or 0 when none qualify.
func BatchAvgRating(batch []models.Product) float64 {
	var sum float64
	var n int
	for _, p := range batch {
		if p.Rating > 0 {
			sum += p.Rating
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Enrich computes the derived signals for one product using the whole
// batch it arrived in as context. The input product is not mutated.
func Enrich(p models.Product, batch []models.Product) models.Product {
	pop := PopularityScore(p.Rating, p.ReviewCount)

	p.PopularityScore = pop
	p.IsBestSeller = p.Rating >= bestsellerMinRating &&
		p.ReviewCount >= bestsellerMinReviews &&
		pop >= bestsellerMinPopularity
	p.IsTrending = p.DiscountPercentage >= trendingMinDiscount &&
		p.Rating >= trendingMinRating &&
		p.ReviewCount >= trendingMinReviews

	avg := BatchAvgRating(batch)
	p.IsTopRated = false
	if p.Rating > 0 {
		if avg > 0 {
			p.IsTopRated = p.Rating > avg+topRatedMargin
		} else {
			p.IsTopRated = p.Rating >= topRatedFloor
		}
	}

	return p
}

// ScoreShop computes batch-scoped aggregates for a shop from the subset
// of batch products belonging to it, then derives the recommendation
// score. Aggregates are recomputed fresh on every call; nothing is
// carried over from previous batches.
func ScoreShop(shop models.Shop, shopProducts []models.Product) models.Shop {
	var ratingSum float64
	var rated int
	var reviews int
	var discountSum float64
	var discounted int

	for _, p := range shopProducts {
		if p.Rating > 0 {
			ratingSum += p.Rating
			rated++
		}
		reviews += p.ReviewCount
		discountSum += float64(p.DiscountPercentage)
		discounted++
	}

	shop.AvgRating = 0
	if rated > 0 {
		shop.AvgRating = round1(ratingSum / float64(rated))
	}
	shop.AvgDiscountPercent = 0
	if discounted > 0 {
		shop.AvgDiscountPercent = round1(discountSum / float64(discounted))
	}
	shop.TotalReviews = reviews
	shop.ProductCount = len(shopProducts)
	shop.RecommendationScore = round1(ShopScore(shop))

	return shop
}

// ShopScore is the weighted 0-100 composite over a shop's derived
// fields. Component weights sum to 100: badges 35, rating 30, review
// volume 20, discounts 10, catalog size 5.
func ShopScore(shop models.Shop) float64 {
	var score float64

	if shop.IsOfficial {
		score += 25
	}
	if shop.IsPower {
		score += 10
	}

	if shop.AvgRating > 0 {
		score += (shop.AvgRating / 5.0) * 30
	}

	switch {
	case shop.TotalReviews > 1000:
		score += 20
	case shop.TotalReviews > 500:
		score += 15
	case shop.TotalReviews > 100:
		score += 10
	case shop.TotalReviews > 50:
		score += 5
	}

	score += math.Min(shop.AvgDiscountPercent, 10)

	if shop.ProductCount > 0 {
		score += math.Min(float64(shop.ProductCount)/10, 5)
	}

	return math.Min(100, math.Max(0, score))
}

// EnrichBatch enriches every product in a batch and rescores each
// product's embedded shop snapshot against that shop's subset of the
// batch. Products whose shop carries no id keep an unscored snapshot;
// they are excluded from shop-level rollups downstream.
func EnrichBatch(batch []models.Product) []models.Product {
	if len(batch) == 0 {
		return batch
	}

	out := make([]models.Product, len(batch))
	for i, p := range batch {
		out[i] = Enrich(p, batch)
	}

	byShop := make(map[int64][]models.Product)
	for _, p := range out {
		if p.Shop.ID != 0 {
			byShop[p.Shop.ID] = append(byShop[p.Shop.ID], p)
		}
	}
	for i := range out {
		if id := out[i].Shop.ID; id != 0 {
			out[i].Shop = ScoreShop(out[i].Shop, byShop[id])
		}
	}

	return out
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
