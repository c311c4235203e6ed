package tokopedia

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/models"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/platform"
)

// Scraper implements platform.Scraper for Tokopedia with an ordered
// fallback chain: searchProductV5 first, then the legacy ace_search
// versions, then plain-markup scraping, then (when enabled) a headless
// browser. Strategies run one at a time in that order; the first
// non-empty batch wins and later strategies are never touched.
type Scraper struct {
	strategies    []platform.Strategy
	rateLimiter   *rate.Limiter
	maxConcurrent int
}

// Options tunes the chain composition.
type Options struct {
	// EnableHeadless appends the rod-based strategy to the chain.
	EnableHeadless bool
	// LauncherURL points the headless strategy at a remote rod
	// launcher instead of a local browser.
	LauncherURL string
	// MaxConcurrent bounds concurrent page fetches in SearchAll.
	MaxConcurrent int
}

// NewScraper builds the full strategy chain.
func NewScraper(client *http.Client, rateLimiter *rate.Limiter, opts Options) *Scraper {
	strategies := []platform.Strategy{
		NewProductV5Strategy(client),
		NewVersionedGraphQLStrategy(client, "v4"),
		NewVersionedGraphQLStrategy(client, "v3"),
		NewMarkupStrategy(client),
	}
	if opts.EnableHeadless {
		strategies = append(strategies, NewHeadlessBrowserStrategy(opts.LauncherURL))
	}
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	return &Scraper{
		strategies:    strategies,
		rateLimiter:   rateLimiter,
		maxConcurrent: maxConcurrent,
	}
}

// newChain is the test seam: a scraper over explicit strategies.
func newChain(strategies []platform.Strategy) *Scraper {
	return &Scraper{strategies: strategies, maxConcurrent: 3}
}

// Collect runs the chain for a search query. It never returns an
// error: strategy failures are part of normal operation, and an
// exhausted chain is reported as an empty batch with StrategyNone.
func (t *Scraper) Collect(ctx context.Context, query string, count int) ([]models.Product, string) {
	if count <= 0 {
		count = 20
	}
	req := platform.Request{
		Type:    platform.SearchRequest,
		Keyword: query,
		Page:    1,
		Limit:   count,
	}
	return t.run(ctx, req)
}

func (t *Scraper) run(ctx context.Context, req platform.Request) ([]models.Product, string) {
	for _, s := range t.strategies {
		if ctx.Err() != nil {
			break
		}
		if t.rateLimiter != nil {
			if err := t.rateLimiter.Wait(ctx); err != nil {
				break
			}
		}
		platform.ReportProgress(ctx, fmt.Sprintf("Trying %s strategy...", s.Name()))
		result, err := s.Execute(ctx, req)
		if err != nil || result == nil || len(result.Products) == 0 {
			platform.ReportProgress(ctx, fmt.Sprintf("Strategy %s yielded nothing, trying next...", s.Name()))
			continue
		}
		platform.ReportProgress(ctx, fmt.Sprintf("Found %d products via %s", len(result.Products), s.Name()))
		return result.Products, s.Name()
	}
	return nil, platform.StrategyNone
}

func (t *Scraper) Search(ctx context.Context, keyword string, opts platform.SearchOpts) ([]models.Product, error) {
	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	req := platform.Request{
		Type:    platform.SearchRequest,
		Keyword: keyword,
		Page:    opts.Page,
		Limit:   opts.Limit,
	}
	products, _ := t.run(ctx, req)
	return products, nil
}

// Trending searches a category keyword and orders the batch by review
// volume, then rating, so the heaviest sellers come first.
func (t *Scraper) Trending(ctx context.Context, opts platform.TrendingOpts) ([]models.Product, error) {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	keyword := "trending"
	if opts.Category != "" {
		keyword = opts.Category
	}
	req := platform.Request{
		Type:    platform.TrendingRequest,
		Keyword: keyword,
		Page:    1,
		Limit:   opts.Limit,
	}
	products, _ := t.run(ctx, req)
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].ReviewCount != products[j].ReviewCount {
			return products[i].ReviewCount > products[j].ReviewCount
		}
		return products[i].Rating > products[j].Rating
	})
	return products, nil
}

func (t *Scraper) ProductDetail(ctx context.Context, url string) (*models.Product, error) {
	req := platform.Request{
		Type: platform.ProductDetailRequest,
		URL:  url,
	}
	products, strategy := t.run(ctx, req)
	if len(products) == 0 || strategy == platform.StrategyNone {
		return nil, fmt.Errorf("no product detail found for: %s", url)
	}
	return &products[0], nil
}

// SearchAll fetches multiple result pages concurrently, bounded by the
// rate limiter and the concurrency cap.
func (t *Scraper) SearchAll(ctx context.Context, keyword string, pages, perPage int) ([]models.Product, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(t.maxConcurrent)

	results := make([][]models.Product, pages)
	for i := 0; i < pages; i++ {
		g.Go(func() error {
			products, err := t.Search(ctx, keyword, platform.SearchOpts{Page: i + 1, Limit: perPage})
			if err != nil {
				return err
			}
			results[i] = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []models.Product
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}
