package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/models"
)

func TestShopScoreMaximum(t *testing.T) {
	shop := models.Shop{
		IsOfficial:         true,
		IsPower:            true,
		AvgRating:          5.0,
		TotalReviews:       2000,
		AvgDiscountPercent: 15,
		ProductCount:       100,
	}

	// 25 + 10 + 30 + 20 + 10 + 5
	assert.Equal(t, 100.0, ShopScore(shop))
}

func TestShopScoreZeroShop(t *testing.T) {
	assert.Equal(t, 0.0, ShopScore(models.Shop{}))
}

func TestShopScoreClamped(t *testing.T) {
	shops := []models.Shop{
		{},
		{IsOfficial: true},
		{IsPower: true, AvgRating: 3.3, TotalReviews: 51},
		{IsOfficial: true, IsPower: true, AvgRating: 5, TotalReviews: 5000, AvgDiscountPercent: 99, ProductCount: 9999},
	}
	for _, s := range shops {
		score := ShopScore(s)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
	}
}

func TestShopScoreDeterministic(t *testing.T) {
	shop := models.Shop{
		IsOfficial:         true,
		AvgRating:          4.3,
		TotalReviews:       742,
		AvgDiscountPercent: 7.5,
		ProductCount:       23,
	}
	first := ShopScore(shop)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, ShopScore(shop))
	}
}

func TestShopScoreReviewSteps(t *testing.T) {
	cases := []struct {
		reviews int
		want    float64
	}{
		{0, 0},
		{50, 0},
		{51, 5},
		{100, 5},
		{101, 10},
		{500, 10},
		{501, 15},
		{1000, 15},
		{1001, 20},
	}
	for _, tc := range cases {
		got := ShopScore(models.Shop{TotalReviews: tc.reviews})
		assert.Equal(t, tc.want, got, "reviews=%d", tc.reviews)
	}
}

func TestScoreShopAggregates(t *testing.T) {
	shop := models.Shop{ID: 7, Name: "Decal Works"}
	products := []models.Product{
		{Rating: 4.0, ReviewCount: 100, DiscountPercentage: 10, Shop: models.Shop{ID: 7}},
		{Rating: 5.0, ReviewCount: 200, DiscountPercentage: 20, Shop: models.Shop{ID: 7}},
		{Rating: 0, ReviewCount: 30, DiscountPercentage: 0, Shop: models.Shop{ID: 7}},
	}

	scored := ScoreShop(shop, products)

	assert.Equal(t, 4.5, scored.AvgRating) // unrated product excluded
	assert.Equal(t, 330, scored.TotalReviews)
	assert.Equal(t, 10.0, scored.AvgDiscountPercent)
	assert.Equal(t, 3, scored.ProductCount)
	// rating (4.5/5)*30=27 + reviews 10 + discount 10 + catalog 0.3
	assert.Equal(t, 47.3, scored.RecommendationScore)
}

func TestScoreShopEmptyProducts(t *testing.T) {
	scored := ScoreShop(models.Shop{ID: 1}, nil)
	assert.Equal(t, 0.0, scored.AvgRating)
	assert.Equal(t, 0, scored.TotalReviews)
	assert.Equal(t, 0.0, scored.AvgDiscountPercent)
	assert.Equal(t, 0, scored.ProductCount)
	assert.Equal(t, 0.0, scored.RecommendationScore)
}

func TestPopularityScore(t *testing.T) {
	assert.Equal(t, 0.0, PopularityScore(0, 500))
	assert.Equal(t, 3.65, PopularityScore(4.5, 50))
	// review bonus capped at 3
	assert.Equal(t, 6.5, PopularityScore(5.0, 100000))
}

func TestBestsellerBoundary(t *testing.T) {
	batch := []models.Product{{Rating: 4.5, ReviewCount: 50}}

	p := Enrich(models.Product{Rating: 4.5, ReviewCount: 50}, batch)
	// pop = 4.5*0.7 + 0.5 = 3.65 >= 3.5
	assert.True(t, p.IsBestSeller)

	p = Enrich(models.Product{Rating: 4.4, ReviewCount: 50}, batch)
	assert.False(t, p.IsBestSeller)

	p = Enrich(models.Product{Rating: 4.5, ReviewCount: 49}, batch)
	assert.False(t, p.IsBestSeller)
}

func TestTrendingCriteria(t *testing.T) {
	batch := []models.Product{}

	p := Enrich(models.Product{Rating: 4.0, ReviewCount: 20, DiscountPercentage: 10}, batch)
	assert.True(t, p.IsTrending)

	p = Enrich(models.Product{Rating: 4.0, ReviewCount: 20, DiscountPercentage: 9}, batch)
	assert.False(t, p.IsTrending)

	p = Enrich(models.Product{Rating: 3.9, ReviewCount: 20, DiscountPercentage: 50}, batch)
	assert.False(t, p.IsTrending)

	p = Enrich(models.Product{Rating: 4.0, ReviewCount: 19, DiscountPercentage: 50}, batch)
	assert.False(t, p.IsTrending)
}

func TestTopRatedAgainstBatchAverage(t *testing.T) {
	// Other members average 3.5, so the cutoff is 3.5 + 0.5.
	// The batch average includes the candidate itself.
	batch := []models.Product{
		{Rating: 4.2},
		{Rating: 3.5},
		{Rating: 3.5},
		{Rating: 3.5},
		{Rating: 3.5},
		{Rating: 3.5},
		{Rating: 3.5},
		{Rating: 3.5},
	}

	p := Enrich(models.Product{Rating: 4.2}, batch)
	// avg = (4.2 + 7*3.5)/8 = 3.5875; 4.2 > 4.0875 → true
	assert.True(t, p.IsTopRated)

	p = Enrich(models.Product{Rating: 3.6}, batch)
	assert.False(t, p.IsTopRated)
}

func TestTopRatedNoBatchAverage(t *testing.T) {
	unrated := []models.Product{{Rating: 0}, {Rating: 0}}

	p := Enrich(models.Product{Rating: 4.0}, unrated)
	assert.True(t, p.IsTopRated)

	p = Enrich(models.Product{Rating: 3.9}, unrated)
	assert.False(t, p.IsTopRated)

	p = Enrich(models.Product{Rating: 0}, unrated)
	assert.False(t, p.IsTopRated)
}

func TestEnrichDoesNotThrowOnZeroValues(t *testing.T) {
	p := Enrich(models.Product{}, nil)
	assert.False(t, p.IsBestSeller)
	assert.False(t, p.IsTrending)
	assert.False(t, p.IsTopRated)
	assert.Equal(t, 0.0, p.PopularityScore)
	assert.Equal(t, 0.0, p.Rating) // original value preserved
}

func TestEnrichBatchScoresShopsPerBatch(t *testing.T) {
	batch := []models.Product{
		{ID: "a", Rating: 4.8, ReviewCount: 600, Shop: models.Shop{ID: 1, Name: "One", IsOfficial: true}},
		{ID: "b", Rating: 4.6, ReviewCount: 500, Shop: models.Shop{ID: 1, Name: "One", IsOfficial: true}},
		{ID: "c", Rating: 3.0, ReviewCount: 5, Shop: models.Shop{ID: 2, Name: "Two"}},
		{ID: "d", Rating: 4.9, ReviewCount: 80, Shop: models.Shop{}}, // no shop id
	}

	out := EnrichBatch(batch)
	require.Len(t, out, 4)

	one := out[0].Shop
	assert.Equal(t, 2, one.ProductCount)
	assert.Equal(t, 1100, one.TotalReviews)
	assert.Equal(t, 4.7, one.AvgRating)
	assert.Greater(t, one.RecommendationScore, 0.0)
	// both products of shop 1 carry identical snapshots
	assert.Equal(t, out[0].Shop, out[1].Shop)

	two := out[2].Shop
	assert.Equal(t, 1, two.ProductCount)
	assert.Equal(t, 5, two.TotalReviews)

	// shopless product keeps an unscored snapshot
	assert.Equal(t, 0.0, out[3].Shop.RecommendationScore)
}

func TestEnrichBatchEmpty(t *testing.T) {
	assert.Empty(t, EnrichBatch(nil))
}
