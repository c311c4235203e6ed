package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/models"
)

func TestKeyLayout(t *testing.T) {
	assert.Equal(t, "scrape:laptop gaming:10", SearchKey("laptop gaming", 10))
	assert.Equal(t, "product:42", ProductKey("42"))
	assert.Equal(t, "trending_products", TrendingKey)
	assert.Equal(t, "search_history", HistoryKey)
	assert.Equal(t, "recommended_shops", RecommendedShopsKey)
}

func TestMemoryStoreMiss(t *testing.T) {
	s := NewMemoryStore()
	var v string
	assert.ErrorIs(t, s.Get(context.Background(), "nope", &v), ErrMiss)

	ok, err := s.Exists(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	base := time.Now()
	s.now = func() time.Time { return base }
	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))

	var v string
	require.NoError(t, s.Get(ctx, "k", &v))
	assert.Equal(t, "v", v)

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	assert.ErrorIs(t, s.Get(ctx, "k", &v), ErrMiss)

	ok, err := s.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSearchResultRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	result := models.SearchResult{
		Status:        "success",
		Timestamp:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Query:         "decal mx king 150",
		TotalProducts: 1,
		Products: []models.Product{{
			ID:                 "abc123",
			Name:               "Decal MX King 150 Full Body",
			Price:              "Rp150.000",
			PriceRaw:           150000,
			OriginalPrice:      "Rp200.000",
			DiscountPercentage: 25,
			ImageURL:           "https://images.example/1.webp",
			URL:                "https://www.tokopedia.com/decalworks/decal-mx-king",
			Rating:             4.8,
			ReviewCount:        321,
			Badges:             []models.Badge{{Title: "Official Store", URL: "https://badge"}},
			LabelGroups:        []models.LabelGroup{{Title: "Terjual 250+", Type: "integrity"}},
			IsBestSeller:       true,
			IsTrending:         true,
			IsTopRated:         true,
			PopularityScore:    6.36,
			Shop: models.Shop{
				ID: 77, Name: "Decal Works", City: "Jakarta",
				IsOfficial: true, IsPower: true,
				AvgRating: 4.8, TotalReviews: 321, AvgDiscountPercent: 25,
				ProductCount: 1, RecommendationScore: 83.3,
			},
		}},
		Summary:      models.Summary{TotalShops: 1, BestsellerCount: 1, TrendingCount: 1, AvgProductRating: 4.8},
		StrategyUsed: "v5",
	}
	result.Bestsellers = result.Products
	result.TrendingProducts = result.Products
	result.RecommendedShops = []models.Shop{result.Products[0].Shop}

	require.NoError(t, s.Set(ctx, SearchKey(result.Query, 10), result, SearchTTL))

	var got models.SearchResult
	require.NoError(t, s.Get(ctx, SearchKey(result.Query, 10), &got))
	assert.Equal(t, result, got)
}

func TestPublishRecorded(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Publish(context.Background(), EventsChannel, map[string]string{"query": "laptop"}))
	msgs := s.PublishedOn(EventsChannel)
	require.Len(t, msgs, 1)
	assert.JSONEq(t, `{"query":"laptop"}`, string(msgs[0]))
}
