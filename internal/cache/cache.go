// Package cache provides the key/value store the scraper and the
// analytics aggregator share. Values are JSON-encoded; every write
// carries a TTL. The canonical backend is Redis, with an in-process
// store for tests and cacheless deployments.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMiss reports a key that is absent or expired.
var ErrMiss = errors.New("cache: key not found")

// Store is the cache surface the rest of the system consumes. Get
// decodes the stored JSON into dest and returns ErrMiss when the key
// is absent. No atomicity is assumed across a Get/Set pair: the
// bounded history list is read-modify-write and tolerates
// last-writer-wins races.
type Store interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Publish(ctx context.Context, channel string, payload any) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Key layout. The format is shared with prior deployments and must not
// change.
const (
	TrendingKey         = "trending_products"
	HistoryKey          = "search_history"
	RecommendedShopsKey = "recommended_shops"

	// EventsChannel receives a notification payload after every
	// completed search.
	EventsChannel = "scrape_events"

	SearchTTL    = 30 * time.Minute
	ProductTTL   = 30 * time.Minute
	AnalyticsTTL = time.Hour
)

// SearchKey is the composite key for one (query, count) search result.
func SearchKey(query string, numProducts int) string {
	return fmt.Sprintf("scrape:%s:%d", query, numProducts)
}

// ProductKey addresses a single cached product by id.
func ProductKey(id string) string {
	return "product:" + id
}

func marshal(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("cache: encode value: %w", err)
	}
	return data, nil
}

func decode(data []byte, dest any) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache: decode value: %w", err)
	}
	return nil
}
