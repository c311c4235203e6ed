package platform

import (
	"context"
	"encoding/json"

	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/models"
)

type RequestType int

const (
	SearchRequest RequestType = iota
	TrendingRequest
	ProductDetailRequest
)

type Request struct {
	Type    RequestType
	Keyword string
	URL     string
	Page    int
	Limit   int
}

type Result struct {
	Products  []models.Product
	TotalData int
	Strategy  string
	Raw       json.RawMessage
}

type SearchOpts struct {
	Page  int
	Limit int
}

type TrendingOpts struct {
	Category string
	Limit    int
}

// Strategy is one concrete method of obtaining raw product records for
// a request. Strategies may retry internally (alternate parameter
// shapes, endpoint versions); those retries stay private to the
// strategy.
type Strategy interface {
	Name() string
	Execute(ctx context.Context, req Request) (*Result, error)
}

// StrategyNone is the sentinel reported when every strategy in a chain
// failed or returned nothing. Total failure is a valid outcome, not an
// error.
const StrategyNone = "none"

// Collector runs an ordered strategy chain for a query. It never
// returns an error: an exhausted chain yields an empty batch and
// StrategyNone.
type Collector interface {
	Collect(ctx context.Context, query string, count int) ([]models.Product, string)
}

// Scraper is the full platform surface used by the CLI and MCP tools.
type Scraper interface {
	Collector
	Search(ctx context.Context, keyword string, opts SearchOpts) ([]models.Product, error)
	Trending(ctx context.Context, opts TrendingOpts) ([]models.Product, error)
	ProductDetail(ctx context.Context, url string) (*models.Product, error)
}
