// Package search runs the end-to-end pipeline for one query: cache
// lookup, strategy-chain collection, batch enrichment, response
// assembly, and persistence of everything the analytics layer reads
// later.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/analytics"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/cache"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/enrich"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/metrics"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/models"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/platform"
)

const (
	// DefaultCount is used when a request does not specify how many
	// products to collect.
	DefaultCount = 10
	// MaxCount caps a single collection pass.
	MaxCount = 100
	// recommendedShopLimit bounds the recommended_shops section of a
	// search response.
	recommendedShopLimit = 5
)

// Validation errors. Handlers map these to 400 responses.
var (
	ErrEmptyQuery   = errors.New("search: query must not be empty")
	ErrInvalidCount = fmt.Errorf("search: count must be between 1 and %d", MaxCount)
)

// Service wires the collector, the cache, and the metrics collector
// into the search pipeline.
type Service struct {
	collector platform.Collector
	store     cache.Store
	history   *analytics.Aggregator
	metrics   *metrics.Collector
	log       *logrus.Logger

	now func() time.Time
}

func NewService(collector platform.Collector, store cache.Store, history *analytics.Aggregator, m *metrics.Collector, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		collector: collector,
		store:     store,
		history:   history,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

// scrapeEvent is the payload published to the events channel after a
// completed (non-cached) search.
type scrapeEvent struct {
	Query         string    `json:"query"`
	TotalProducts int       `json:"total_products"`
	Strategy      string    `json:"strategy"`
	Timestamp     time.Time `json:"timestamp"`
}

// Search runs the pipeline for (query, count). A fresh result is
// cached, recorded in the history list, and announced on the events
// channel; a cached result short-circuits before any collection. An
// exhausted strategy chain is not an error: the result simply carries
// zero products and the sentinel strategy, and is not cached so the
// next request retries.
func (s *Service) Search(ctx context.Context, query string, count int) (*models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if count == 0 {
		count = DefaultCount
	}
	if count < 1 || count > MaxCount {
		return nil, ErrInvalidCount
	}

	key := cache.SearchKey(query, count)
	var cached models.SearchResult
	if err := s.store.Get(ctx, key, &cached); err == nil {
		s.metrics.RecordCache(true)
		cached.Cached = true
		return &cached, nil
	}
	s.metrics.RecordCache(false)

	products, strategy := s.collector.Collect(ctx, query, count)
	s.metrics.RecordScrape(strategy, len(products) > 0)

	if len(products) == 0 {
		s.metrics.RecordEvent("warn", fmt.Sprintf("no products for %q, all strategies exhausted", query))
		s.log.WithField("query", query).Warn("all strategies exhausted")
		result := s.assemble(query, nil, platform.StrategyNone)
		return &result, nil
	}

	enriched := enrich.EnrichBatch(products)
	result := s.assemble(query, enriched, strategy)

	s.persist(ctx, key, &result)
	s.metrics.RecordEvent("info", fmt.Sprintf("scraped %d products for %q via %s", len(enriched), query, strategy))

	return &result, nil
}

// Product returns one cached product by id.
func (s *Service) Product(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := s.store.Get(ctx, cache.ProductKey(id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Trending returns the trending slice of the most recent search.
func (s *Service) Trending(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.store.Get(ctx, cache.TrendingKey, &products)
	if errors.Is(err, cache.ErrMiss) {
		return nil, nil
	}
	return products, err
}

// RecommendedShops returns the shop leaderboard of the most recent
// search.
func (s *Service) RecommendedShops(ctx context.Context) ([]models.Shop, error) {
	var shops []models.Shop
	err := s.store.Get(ctx, cache.RecommendedShopsKey, &shops)
	if errors.Is(err, cache.ErrMiss) {
		return nil, nil
	}
	return shops, err
}

// assemble builds the full response document from an enriched batch.
func (s *Service) assemble(query string, enriched []models.Product, strategy string) models.SearchResult {
	result := models.SearchResult{
		Status:        "success",
		Timestamp:     s.now().UTC(),
		Query:         query,
		TotalProducts: len(enriched),
		Products:      enriched,
		StrategyUsed:  strategy,
	}

	shopIDs := make(map[int64]bool)
	var ratedSum float64
	var ratedN int
	for _, p := range enriched {
		if p.IsBestSeller {
			result.Bestsellers = append(result.Bestsellers, p)
		}
		if p.IsTrending {
			result.TrendingProducts = append(result.TrendingProducts, p)
		}
		if p.Rating > 0 {
			ratedSum += p.Rating
			ratedN++
		}
		if p.Shop.ID != 0 && !shopIDs[p.Shop.ID] {
			shopIDs[p.Shop.ID] = true
			result.RecommendedShops = append(result.RecommendedShops, p.Shop)
		}
	}

	sort.SliceStable(result.RecommendedShops, func(i, j int) bool {
		a, b := result.RecommendedShops[i], result.RecommendedShops[j]
		if a.RecommendationScore != b.RecommendationScore {
			return a.RecommendationScore > b.RecommendationScore
		}
		return a.AvgRating > b.AvgRating
	})
	if len(result.RecommendedShops) > recommendedShopLimit {
		result.RecommendedShops = result.RecommendedShops[:recommendedShopLimit]
	}

	result.Summary = models.Summary{
		TotalShops:      len(shopIDs),
		BestsellerCount: len(result.Bestsellers),
		TrendingCount:   len(result.TrendingProducts),
	}
	if ratedN > 0 {
		result.Summary.AvgProductRating = round1(ratedSum / float64(ratedN))
	}

	return result
}

// persist writes everything downstream consumers read. Cache writes are
// best-effort: a failed write degrades freshness, not the response.
func (s *Service) persist(ctx context.Context, key string, result *models.SearchResult) {
	if err := s.store.Set(ctx, key, result, cache.SearchTTL); err != nil {
		s.log.WithError(err).Warn("cache search result")
	}
	for _, p := range result.Products {
		if err := s.store.Set(ctx, cache.ProductKey(p.ID), p, cache.ProductTTL); err != nil {
			s.log.WithError(err).WithField("product_id", p.ID).Warn("cache product")
		}
	}
	if len(result.TrendingProducts) > 0 {
		if err := s.store.Set(ctx, cache.TrendingKey, result.TrendingProducts, cache.AnalyticsTTL); err != nil {
			s.log.WithError(err).Warn("cache trending products")
		}
	}
	if len(result.RecommendedShops) > 0 {
		if err := s.store.Set(ctx, cache.RecommendedShopsKey, result.RecommendedShops, cache.AnalyticsTTL); err != nil {
			s.log.WithError(err).Warn("cache recommended shops")
		}
	}

	entry := models.SearchHistoryEntry{
		Query:           result.Query,
		Timestamp:       result.Timestamp,
		TotalProducts:   result.TotalProducts,
		BestsellerCount: result.Summary.BestsellerCount,
		TrendingCount:   result.Summary.TrendingCount,
	}
	if err := s.history.AppendHistory(ctx, entry); err != nil {
		s.log.WithError(err).Warn("append search history")
	}

	event := scrapeEvent{
		Query:         result.Query,
		TotalProducts: result.TotalProducts,
		Strategy:      result.StrategyUsed,
		Timestamp:     result.Timestamp,
	}
	if err := s.store.Publish(ctx, cache.EventsChannel, event); err != nil {
		s.log.WithError(err).Warn("publish scrape event")
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
