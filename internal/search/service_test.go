package search

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/analytics"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/cache"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/metrics"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/models"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/platform"
)

type fakeCollector struct {
	products []models.Product
	strategy string
	calls    int
}

func (f *fakeCollector) Collect(_ context.Context, _ string, _ int) ([]models.Product, string) {
	f.calls++
	return f.products, f.strategy
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestService(collector platform.Collector, store cache.Store) *Service {
	log := quietLogger()
	return NewService(collector, store, analytics.NewAggregator(store, log), metrics.NewCollector(), log)
}

func sampleBatch() []models.Product {
	return []models.Product{
		{
			ID: "p1", Name: "Laptop Gaming", Price: "Rp15.000.000",
			Rating: 4.8, ReviewCount: 600, DiscountPercentage: 10,
			Shop: models.Shop{ID: 1, Name: "Toko A", City: "Jakarta"},
		},
		{
			ID: "p2", Name: "Laptop Murah", Price: "Rp5.000.000",
			Rating: 4.2, ReviewCount: 30,
			Shop: models.Shop{ID: 2, Name: "Toko B", City: "Surabaya"},
		},
		{
			ID: "p3", Name: "Tas Laptop", Price: "Rp150.000",
			Rating: 0, ReviewCount: 0,
			Shop: models.Shop{ID: 1, Name: "Toko A", City: "Jakarta"},
		},
	}
}

func TestSearchValidation(t *testing.T) {
	svc := newTestService(&fakeCollector{}, cache.NewMemoryStore())

	_, err := svc.Search(context.Background(), "", 10)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = svc.Search(context.Background(), "   ", 10)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = svc.Search(context.Background(), "laptop", -1)
	assert.ErrorIs(t, err, ErrInvalidCount)

	_, err = svc.Search(context.Background(), "laptop", MaxCount+1)
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestSearchZeroCountUsesDefault(t *testing.T) {
	store := cache.NewMemoryStore()
	collector := &fakeCollector{products: sampleBatch(), strategy: "v5"}
	svc := newTestService(collector, store)

	result, err := svc.Search(context.Background(), "laptop", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalProducts)

	ok, err := store.Exists(context.Background(), cache.SearchKey("laptop", DefaultCount))
	require.NoError(t, err)
	assert.True(t, ok, "result cached under the default count")
}

func TestSearchAssemblesResult(t *testing.T) {
	store := cache.NewMemoryStore()
	collector := &fakeCollector{products: sampleBatch(), strategy: "v5"}
	svc := newTestService(collector, store)

	result, err := svc.Search(context.Background(), "laptop", 10)
	require.NoError(t, err)

	assert.Equal(t, "success", result.Status)
	assert.Equal(t, "laptop", result.Query)
	assert.Equal(t, "v5", result.StrategyUsed)
	assert.False(t, result.Cached)
	assert.Equal(t, 3, result.TotalProducts)

	// p1: rating 4.8, 600 reviews -> bestseller
	require.Len(t, result.Bestsellers, 1)
	assert.Equal(t, "p1", result.Bestsellers[0].ID)

	assert.Equal(t, 2, result.Summary.TotalShops)
	assert.Equal(t, 1, result.Summary.BestsellerCount)
	// avg of rated products: (4.8+4.2)/2 = 4.5
	assert.InDelta(t, 4.5, result.Summary.AvgProductRating, 1e-9)

	require.Len(t, result.RecommendedShops, 2)
	assert.Equal(t, int64(1), result.RecommendedShops[0].ID, "two-product shop scores higher")
	assert.Positive(t, result.RecommendedShops[0].RecommendationScore)
}

func TestSearchCacheHitShortCircuits(t *testing.T) {
	store := cache.NewMemoryStore()
	collector := &fakeCollector{products: sampleBatch(), strategy: "v5"}
	svc := newTestService(collector, store)

	first, err := svc.Search(context.Background(), "laptop", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, collector.calls)

	second, err := svc.Search(context.Background(), "laptop", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, collector.calls, "cached result must not trigger collection")
	assert.True(t, second.Cached)
	assert.Equal(t, first.TotalProducts, second.TotalProducts)
	assert.Equal(t, first.Query, second.Query)
}

func TestSearchDistinctCountIsDistinctCacheEntry(t *testing.T) {
	store := cache.NewMemoryStore()
	collector := &fakeCollector{products: sampleBatch(), strategy: "v5"}
	svc := newTestService(collector, store)

	_, err := svc.Search(context.Background(), "laptop", 10)
	require.NoError(t, err)
	_, err = svc.Search(context.Background(), "laptop", 20)
	require.NoError(t, err)

	assert.Equal(t, 2, collector.calls, "different count means a different cache key")
}

func TestSearchPersistsDownstreamKeys(t *testing.T) {
	store := cache.NewMemoryStore()
	collector := &fakeCollector{products: sampleBatch(), strategy: "v5"}
	svc := newTestService(collector, store)

	_, err := svc.Search(context.Background(), "laptop", 10)
	require.NoError(t, err)

	ctx := context.Background()
	for _, id := range []string{"p1", "p2", "p3"} {
		p, err := svc.Product(ctx, id)
		require.NoError(t, err, id)
		assert.Equal(t, id, p.ID)
	}

	shops, err := svc.RecommendedShops(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, shops)

	var history []models.SearchHistoryEntry
	require.NoError(t, store.Get(ctx, cache.HistoryKey, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "laptop", history[0].Query)
	assert.Equal(t, 3, history[0].TotalProducts)
}

func TestSearchPublishesEvent(t *testing.T) {
	store := cache.NewMemoryStore()
	svc := newTestService(&fakeCollector{products: sampleBatch(), strategy: "markup"}, store)

	_, err := svc.Search(context.Background(), "laptop", 10)
	require.NoError(t, err)

	published := store.PublishedOn(cache.EventsChannel)
	require.Len(t, published, 1)

	var event scrapeEvent
	require.NoError(t, json.Unmarshal(published[0], &event))
	assert.Equal(t, "laptop", event.Query)
	assert.Equal(t, 3, event.TotalProducts)
	assert.Equal(t, "markup", event.Strategy)
}

func TestSearchExhaustedChain(t *testing.T) {
	store := cache.NewMemoryStore()
	collector := &fakeCollector{strategy: platform.StrategyNone}
	svc := newTestService(collector, store)

	result, err := svc.Search(context.Background(), "laptop", 10)
	require.NoError(t, err, "an exhausted chain is not an error")
	assert.Equal(t, platform.StrategyNone, result.StrategyUsed)
	assert.Zero(t, result.TotalProducts)

	ok, err := store.Exists(context.Background(), cache.SearchKey("laptop", 10))
	require.NoError(t, err)
	assert.False(t, ok, "empty results are not cached")

	_, err = svc.Search(context.Background(), "laptop", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, collector.calls, "next request retries the chain")
}

func TestTrendingMissIsEmpty(t *testing.T) {
	svc := newTestService(&fakeCollector{}, cache.NewMemoryStore())

	products, err := svc.Trending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestProductMiss(t *testing.T) {
	svc := newTestService(&fakeCollector{}, cache.NewMemoryStore())

	_, err := svc.Product(context.Background(), "nope")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestSearchTimestampIsUTC(t *testing.T) {
	store := cache.NewMemoryStore()
	svc := newTestService(&fakeCollector{products: sampleBatch(), strategy: "v5"}, store)

	result, err := svc.Search(context.Background(), "laptop", 10)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, result.Timestamp.Location())
}
