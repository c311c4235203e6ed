package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/cache"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/models"
)

func newTestAggregator(t *testing.T) (*Aggregator, *cache.MemoryStore) {
	t.Helper()
	store := cache.NewMemoryStore()
	return NewAggregator(store, nil), store
}

func historyEntry(query string, ts time.Time) models.SearchHistoryEntry {
	return models.SearchHistoryEntry{Query: query, Timestamp: ts, TotalProducts: 5}
}

func seedResult(t *testing.T, store *cache.MemoryStore, agg *Aggregator, query string, count int, products []models.Product) {
	t.Helper()
	ctx := context.Background()
	r := models.SearchResult{
		Status:        "success",
		Timestamp:     time.Now().UTC(),
		Query:         query,
		TotalProducts: len(products),
		Products:      products,
	}
	require.NoError(t, store.Set(ctx, cache.SearchKey(query, count), r, cache.SearchTTL))
	require.NoError(t, agg.AppendHistory(ctx, historyEntry(query, r.Timestamp)))
}

func TestAppendHistoryBounded(t *testing.T) {
	agg, _ := newTestAggregator(t)
	ctx := context.Background()

	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 11; i++ {
		require.NoError(t, agg.AppendHistory(ctx, historyEntry(fmt.Sprintf("query %d", i), base.Add(time.Duration(i)*time.Minute))))
	}

	entries := agg.History(ctx)
	require.Len(t, entries, 10)
	assert.Equal(t, "query 10", entries[0].Query) // newest first
	assert.Equal(t, "query 1", entries[9].Query)  // oldest fell off
}

func TestPopularQueriesRankingAndTieBreak(t *testing.T) {
	agg, _ := newTestAggregator(t)
	ctx := context.Background()

	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, q := range []string{"laptop", "decal", "laptop", "helm", "decal", "laptop"} {
		require.NoError(t, agg.AppendHistory(ctx, historyEntry(q, base.Add(time.Duration(i)*time.Minute))))
	}
	// "sepatu" appears once but later than "helm"
	require.NoError(t, agg.AppendHistory(ctx, historyEntry("sepatu", base.Add(time.Hour))))

	stats := agg.PopularQueries(ctx, 10)
	require.Len(t, stats, 4)
	assert.Equal(t, "laptop", stats[0].Query)
	assert.Equal(t, 3, stats[0].Count)
	assert.Equal(t, base.Add(5*time.Minute), stats[0].LastUsed)
	assert.Equal(t, "decal", stats[1].Query)
	// tie at count 1 broken by most recent use
	assert.Equal(t, "sepatu", stats[2].Query)
	assert.Equal(t, "helm", stats[3].Query)

	assert.Len(t, agg.PopularQueries(ctx, 2), 2)
}

func TestPopularQueriesCaseSensitiveGrouping(t *testing.T) {
	agg, _ := newTestAggregator(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, agg.AppendHistory(ctx, historyEntry("Laptop", now)))
	require.NoError(t, agg.AppendHistory(ctx, historyEntry("laptop", now)))

	assert.Len(t, agg.PopularQueries(ctx, 10), 2)
}

func TestFilterHistoryFuzzy(t *testing.T) {
	agg, _ := newTestAggregator(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, agg.AppendHistory(ctx, historyEntry("laptop gaming", now)))
	require.NoError(t, agg.AppendHistory(ctx, historyEntry("sepatu lari", now)))

	matches, total := agg.FilterHistory(ctx, "laptop", time.Time{}, 10)
	require.Equal(t, 1, total)
	assert.Equal(t, "laptop gaming", matches[0].Query)

	matches, total = agg.FilterHistory(ctx, "xyz123", time.Time{}, 10)
	assert.Zero(t, total)
	assert.Empty(t, matches)
}

func TestFilterHistorySinceInclusive(t *testing.T) {
	agg, _ := newTestAggregator(t)
	ctx := context.Background()

	cutoff := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, agg.AppendHistory(ctx, historyEntry("old", cutoff.Add(-time.Hour))))
	require.NoError(t, agg.AppendHistory(ctx, historyEntry("exact", cutoff)))
	require.NoError(t, agg.AppendHistory(ctx, historyEntry("new", cutoff.Add(time.Hour))))

	matches, total := agg.FilterHistory(ctx, "", cutoff, 10)
	assert.Equal(t, 2, total)
	for _, m := range matches {
		assert.NotEqual(t, "old", m.Query)
	}
}

func TestFilterHistoryTruncationKeepsTotal(t *testing.T) {
	agg, _ := newTestAggregator(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		require.NoError(t, agg.AppendHistory(ctx, historyEntry("laptop", now)))
	}

	matches, total := agg.FilterHistory(ctx, "laptop", time.Time{}, 2)
	assert.Equal(t, 5, total)
	assert.Len(t, matches, 2)
}

func TestExtractCategories(t *testing.T) {
	agg, store := newTestAggregator(t)
	ctx := context.Background()

	seedResult(t, store, agg, "laptop murah", 10, []models.Product{
		{
			ID:     "p1",
			Name:   "Laptop Gaming ROG",
			Badges: []models.Badge{{Title: "Jakarta Pusat"}, {Title: "OK"}}, // short badge dropped
			LabelGroups: []models.LabelGroup{
				{Title: "Terjual 500+"}, // sold-count label excluded
				{Title: "Garansi Resmi"},
			},
		},
		{ID: "p2", Name: "Decal motor beat"},
	})
	// same product id appears under another query; must not double-count
	seedResult(t, store, agg, "rog", 10, []models.Product{
		{ID: "p1", Name: "Laptop Gaming ROG", Badges: []models.Badge{{Title: "Jakarta Pusat"}}},
	})

	all := agg.ExtractCategories(ctx, TypeAll, "", 50)
	assert.Contains(t, all, models.Category{Name: "Jakarta Pusat", Type: TypeLocation})
	assert.Contains(t, all, models.Category{Name: "Garansi Resmi", Type: TypeProduct})
	assert.Contains(t, all, models.Category{Name: "Electronics", Type: TypeProduct})
	assert.Contains(t, all, models.Category{Name: "Gaming", Type: TypeProduct})
	assert.Contains(t, all, models.Category{Name: "Automotive", Type: TypeProduct})
	for _, c := range all {
		assert.NotContains(t, c.Name, "Terjual")
		assert.NotEqual(t, "OK", c.Name)
	}

	// alphabetical order
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].Name, all[i].Name)
	}

	locations := agg.ExtractCategories(ctx, TypeLocation, "", 50)
	require.NotEmpty(t, locations)
	for _, c := range locations {
		assert.Equal(t, TypeLocation, c.Type)
	}

	fuzzy := agg.ExtractCategories(ctx, TypeAll, "electronic", 50)
	require.NotEmpty(t, fuzzy)
	assert.Equal(t, "Electronics", fuzzy[0].Name)
}

func TestExtractCategoriesMalformedEntrySkipped(t *testing.T) {
	agg, store := newTestAggregator(t)
	ctx := context.Background()

	seedResult(t, store, agg, "laptop", 10, []models.Product{{ID: "p1", Name: "Laptop Asus"}})
	require.NoError(t, agg.AppendHistory(ctx, historyEntry("broken", time.Now().UTC())))
	store.SetRaw(cache.SearchKey("broken", 10), []byte("{not json"), cache.SearchTTL)

	cats := agg.ExtractCategories(ctx, TypeAll, "", 50)
	assert.Contains(t, cats, models.Category{Name: "Electronics", Type: TypeProduct})
}

func TestResolveResultsTriesCandidateCounts(t *testing.T) {
	agg, store := newTestAggregator(t)
	ctx := context.Background()

	// stored under count 20, not the default 10
	r := models.SearchResult{
		Query:    "helm",
		Products: []models.Product{{ID: "h1", Name: "Helm full face", Shop: models.Shop{ID: 3, Name: "Helm Shop"}}},
	}
	require.NoError(t, store.Set(ctx, cache.SearchKey("helm", 20), r, cache.SearchTTL))
	require.NoError(t, agg.AppendHistory(ctx, historyEntry("helm", time.Now().UTC())))

	results := agg.resolveResults(ctx)
	require.Len(t, results, 1)
	assert.Equal(t, "helm", results[0].Query)
}

func TestResolveResultsChronologicalOrder(t *testing.T) {
	agg, store := newTestAggregator(t)
	ctx := context.Background()

	seedResult(t, store, agg, "first", 10, []models.Product{{ID: "f1", Name: "Helm first"}})
	seedResult(t, store, agg, "second", 10, []models.Product{{ID: "s1", Name: "Helm second"}})

	// History holds "second" at the head; resolution still yields the
	// older query first so earliest snapshots win dedupe.
	results := agg.resolveResults(ctx)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Query)
	assert.Equal(t, "second", results[1].Query)
}

func shopProduct(id string, shop models.Shop) models.Product {
	return models.Product{ID: id, Name: "product " + id, Shop: shop}
}

func TestTopShops(t *testing.T) {
	agg, store := newTestAggregator(t)
	ctx := context.Background()

	seedResult(t, store, agg, "query a", 10, []models.Product{
		shopProduct("a1", models.Shop{ID: 1, Name: "Alpha", City: "Jakarta", RecommendationScore: 80, AvgRating: 4.5, ProductCount: 2}),
		shopProduct("a2", models.Shop{ID: 2, Name: "Beta", City: "Bandung", RecommendationScore: 90, AvgRating: 4.0, ProductCount: 1}),
		shopProduct("a3", models.Shop{ID: 3, Name: "Gamma", City: "Jakarta", RecommendationScore: 80, AvgRating: 4.9, ProductCount: 3}),
	})
	seedResult(t, store, agg, "query b", 10, []models.Product{
		// same shop seen again: first occurrence wins, product count accumulates
		shopProduct("b1", models.Shop{ID: 1, Name: "Alpha Renamed", City: "Surabaya", RecommendationScore: 10, AvgRating: 1.0, ProductCount: 4}),
	})

	shops := agg.TopShops(ctx, 10)
	require.Len(t, shops, 3)
	assert.Equal(t, int64(2), shops[0].ID) // highest score
	assert.Equal(t, int64(3), shops[1].ID) // tie on 80 broken by avgRating
	assert.Equal(t, int64(1), shops[2].ID)

	alpha := shops[2]
	assert.Equal(t, "Alpha", alpha.Name) // first occurrence wins
	assert.Equal(t, "Jakarta", alpha.City)
	assert.Equal(t, 6, alpha.ProductCount) // 2 + 4 accumulated

	assert.Len(t, agg.TopShops(ctx, 2), 2)
}

func TestShopsByCity(t *testing.T) {
	agg, store := newTestAggregator(t)
	ctx := context.Background()

	seedResult(t, store, agg, "query", 10, []models.Product{
		shopProduct("a", models.Shop{ID: 1, Name: "One", City: "Jakarta", RecommendationScore: 50}),
		shopProduct("b", models.Shop{ID: 2, Name: "Two", City: "Bandung", RecommendationScore: 70}),
		shopProduct("c", models.Shop{ID: 3, Name: "Three", City: "jakarta", RecommendationScore: 90}),
	})

	shops := agg.ShopsByCity(ctx, "Jakarta", 10)
	require.Len(t, shops, 2)
	assert.Equal(t, int64(3), shops[0].ID)
	assert.Equal(t, int64(1), shops[1].ID)
}

func TestShopStatistics(t *testing.T) {
	agg, store := newTestAggregator(t)
	ctx := context.Background()

	seedResult(t, store, agg, "query", 10, []models.Product{
		shopProduct("a", models.Shop{ID: 1, City: "Jakarta", AvgRating: 4.6, RecommendationScore: 80}),
		shopProduct("b", models.Shop{ID: 2, City: "Jakarta", AvgRating: 4.2, RecommendationScore: 60}),
		shopProduct("c", models.Shop{ID: 3, City: "Bandung", AvgRating: 0, RecommendationScore: 10}),
		shopProduct("d", models.Shop{ID: 4, City: "", AvgRating: 2.1, RecommendationScore: 30}),
	})

	stats := agg.ShopStatistics(ctx)
	assert.Equal(t, 4, stats.TotalShops)
	assert.Equal(t, 10.0, stats.MinScore)
	assert.Equal(t, 80.0, stats.MaxScore)
	assert.Equal(t, 45.0, stats.AvgScore)
	assert.Equal(t, 1, stats.RatingBuckets["4.5-5.0"])
	assert.Equal(t, 1, stats.RatingBuckets["4.0-4.5"])
	assert.Equal(t, 1, stats.RatingBuckets["unrated"])
	assert.Equal(t, 1, stats.RatingBuckets["below_3"])
	require.NotEmpty(t, stats.TopCities)
	assert.Equal(t, models.CityCount{City: "Jakarta", Count: 2}, stats.TopCities[0])
	// blank cities are not a bucket
	for _, c := range stats.TopCities {
		assert.NotEmpty(t, c.City)
	}
}

func TestShopStatisticsEmpty(t *testing.T) {
	agg, _ := newTestAggregator(t)
	stats := agg.ShopStatistics(context.Background())
	assert.Zero(t, stats.TotalShops)
	assert.Empty(t, stats.TopCities)
}

func TestCategoriesFromProductKeywordVocabulary(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Laptop Asus Vivobook", "Electronics"},
		{"Mouse wireless murah", "Electronics"},
		{"Stik PS5 original", "Gaming"},
		{"Decal MX King 150", "Automotive"},
		{"Sepatu lari pria", "Fashion"},
	}
	for _, tc := range cases {
		cats := CategoriesFromProduct(models.Product{Name: tc.name})
		assert.Contains(t, cats, models.Category{Name: tc.want, Type: TypeProduct}, tc.name)
	}

	assert.Empty(t, CategoriesFromProduct(models.Product{Name: "Kursi kayu jati"}))
}
