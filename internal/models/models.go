package models

import (
	"fmt"
	"hash/fnv"
	"time"
)

// Badge is a marketplace badge attached to a product listing
// (e.g. official store, free shipping).
type Badge struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// LabelGroup is a free-form listing tag such as "Terjual 100+" or a
// promo label. Type distinguishes sales/promo/location labels upstream.
type LabelGroup struct {
	Title    string `json:"title"`
	Position string `json:"position,omitempty"`
	Type     string `json:"type,omitempty"`
}

// Shop is a storefront snapshot embedded in each product. The embedded
// copy is enriched per search batch and may diverge from the same shop
// seen in other searches; there is no cross-query reconciliation.
type Shop struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	URL        string `json:"url,omitempty"`
	City       string `json:"city,omitempty"`
	IsOfficial bool   `json:"isOfficial,omitempty"`
	IsPower    bool   `json:"isPowerBadge,omitempty"`

	// Batch-scoped aggregates, written only by enrich.ScoreShop.
	AvgRating           float64 `json:"avgRating"`
	TotalReviews        int     `json:"totalReviews"`
	AvgDiscountPercent  float64 `json:"avgDiscountPercent"`
	ProductCount        int     `json:"productCount"`
	RecommendationScore float64 `json:"recommendationScore"`
}

// Product is one marketplace listing. Rating 0 means unrated; optional
// numeric fields default to their zero value when the upstream payload
// omits them.
type Product struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	Price              string       `json:"price"`
	PriceRaw           int64        `json:"price_raw,omitempty"`
	OriginalPrice      string       `json:"originalPrice,omitempty"`
	DiscountPercentage int          `json:"discountPercentage,omitempty"`
	ImageURL           string       `json:"imageUrl,omitempty"`
	URL                string       `json:"url"`
	Category           string       `json:"category,omitempty"`
	Rating             float64      `json:"rating"`
	ReviewCount        int          `json:"reviewCount"`
	Badges             []Badge      `json:"badges,omitempty"`
	LabelGroups        []LabelGroup `json:"labelGroups,omitempty"`
	Shop               Shop         `json:"shop"`

	// Derived signals, written only by enrich.Enrich.
	IsBestSeller    bool    `json:"isBestSeller"`
	IsTrending      bool    `json:"isTrending"`
	IsTopRated      bool    `json:"isTopRated"`
	PopularityScore float64 `json:"popularityScore"`

	ScrapedAt time.Time `json:"scraped_at"`
	Strategy  string    `json:"strategy,omitempty"`
}

// SyntheticID derives a stable fallback identity from listing content
// when the upstream record carries no id. Identity is best-effort: a
// 64-bit FNV-1a content hash, so collisions are possible but far less
// likely than a narrow modulo hash.
func SyntheticID(name, shopName, url string) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s", name, shopName, url)
	return fmt.Sprintf("%016x", h.Sum64())
}

// SearchHistoryEntry records one completed search. Entries live in a
// bounded list (newest first, max HistoryLimit) under the
// search_history cache key.
type SearchHistoryEntry struct {
	Query           string    `json:"query"`
	Timestamp       time.Time `json:"timestamp"`
	TotalProducts   int       `json:"totalProducts"`
	BestsellerCount int       `json:"bestsellerCount"`
	TrendingCount   int       `json:"trendingCount"`
}

// HistoryLimit bounds the search_history list; older entries fall off
// the tail.
const HistoryLimit = 10

// Summary carries batch-level rollups for one search response.
type Summary struct {
	TotalShops       int     `json:"total_shops"`
	BestsellerCount  int     `json:"bestseller_count"`
	TrendingCount    int     `json:"trending_count"`
	AvgProductRating float64 `json:"avg_product_rating"`
}

// SearchResult is the full enriched response for one (query, count)
// pair. It is what gets cached under scrape:{query}:{count} and what
// the analytics aggregator later resolves from history entries.
type SearchResult struct {
	Status           string    `json:"status"`
	Timestamp        time.Time `json:"timestamp"`
	Query            string    `json:"query"`
	TotalProducts    int       `json:"total_products"`
	Products         []Product `json:"products"`
	Bestsellers      []Product `json:"bestsellers"`
	TrendingProducts []Product `json:"trending_products"`
	RecommendedShops []Shop    `json:"recommended_shops"`
	Summary          Summary   `json:"summary"`
	StrategyUsed     string    `json:"strategy_used,omitempty"`
	Cached           bool      `json:"cached,omitempty"`
}

// QueryStat is one row of the popular-queries ranking.
type QueryStat struct {
	Query    string    `json:"query"`
	Count    int       `json:"count"`
	LastUsed time.Time `json:"last_used"`
}

// Category is one extracted category with its classification type
// ("product" or "location").
type Category struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// CityCount is one row of the city histogram.
type CityCount struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

// ShopStats is the distributional rollup over all shops resolvable
// from the search history.
type ShopStats struct {
	TotalShops    int            `json:"total_shops"`
	RatingBuckets map[string]int `json:"rating_buckets"`
	TopCities     []CityCount    `json:"top_cities"`
	MinScore      float64        `json:"min_score"`
	MaxScore      float64        `json:"max_score"`
	AvgScore      float64        `json:"avg_score"`
}
