// Package metrics keeps in-process operational counters: per-route
// request counts, a bounded ring of response-time samples, and a
// bounded ring of recent events. A Collector is constructed once per
// process and passed by reference; there is no package-level state, so
// tests can use a fresh instance per case.
package metrics

import (
	"sync"
	"time"
)

const (
	sampleRingSize = 256
	eventRingSize  = 100
)

// Event is one entry of the recent-events ring.
type Event struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// RouteStat summarizes one route's traffic.
type RouteStat struct {
	Requests int64 `json:"requests"`
	Errors   int64 `json:"errors"`
}

// Snapshot is a point-in-time copy of everything the collector holds.
type Snapshot struct {
	StartedAt      time.Time            `json:"started_at"`
	UptimeSeconds  float64              `json:"uptime_seconds"`
	TotalRequests  int64                `json:"total_requests"`
	TotalErrors    int64                `json:"total_errors"`
	Routes         map[string]RouteStat `json:"routes"`
	CacheHits      int64                `json:"cache_hits"`
	CacheMisses    int64                `json:"cache_misses"`
	Scrapes        int64                `json:"scrapes"`
	ScrapeFailures int64                `json:"scrape_failures"`
	AvgResponseMs  float64              `json:"avg_response_ms"`
	MaxResponseMs  float64              `json:"max_response_ms"`
	SampleCount    int                  `json:"sample_count"`
	RecentEvents   []Event              `json:"recent_events"`
	StrategyCounts map[string]int64     `json:"strategy_counts"`
}

// Collector accumulates observations behind a single mutex. All
// methods are safe for concurrent use.
type Collector struct {
	mu sync.Mutex

	startedAt time.Time
	routes    map[string]RouteStat
	total     int64
	errors    int64

	cacheHits   int64
	cacheMisses int64

	scrapes        int64
	scrapeFailures int64
	strategies     map[string]int64

	samples [sampleRingSize]time.Duration
	sampleN int // total recorded, monotonically increasing

	events [eventRingSize]Event
	eventN int

	now func() time.Time
}

// NewCollector creates a collector whose uptime starts now.
func NewCollector() *Collector {
	return &Collector{
		startedAt:  time.Now(),
		routes:     make(map[string]RouteStat),
		strategies: make(map[string]int64),
		now:        time.Now,
	}
}

// RecordRequest notes one served HTTP request.
func (c *Collector) RecordRequest(route string, status int, dur time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.routes[route]
	st.Requests++
	c.total++
	if status >= 400 {
		st.Errors++
		c.errors++
	}
	c.routes[route] = st

	c.samples[c.sampleN%sampleRingSize] = dur
	c.sampleN++
}

// RecordCache notes a cache lookup outcome.
func (c *Collector) RecordCache(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.cacheHits++
	} else {
		c.cacheMisses++
	}
}

// RecordScrape notes one collection pass and which strategy produced
// the batch. An empty batch counts as a failure under the sentinel
// strategy name.
func (c *Collector) RecordScrape(strategy string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scrapes++
	if !ok {
		c.scrapeFailures++
	}
	c.strategies[strategy]++
}

// RecordEvent appends to the bounded event ring.
func (c *Collector) RecordEvent(level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events[c.eventN%eventRingSize] = Event{Time: c.now(), Level: level, Message: message}
	c.eventN++
}

// Snapshot copies the current state. The returned value shares nothing
// with the collector.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	routes := make(map[string]RouteStat, len(c.routes))
	for k, v := range c.routes {
		routes[k] = v
	}
	strategies := make(map[string]int64, len(c.strategies))
	for k, v := range c.strategies {
		strategies[k] = v
	}

	n := c.sampleN
	if n > sampleRingSize {
		n = sampleRingSize
	}
	var sum, max time.Duration
	for i := 0; i < n; i++ {
		d := c.samples[i]
		sum += d
		if d > max {
			max = d
		}
	}
	var avgMs float64
	if n > 0 {
		avgMs = float64(sum.Microseconds()) / float64(n) / 1000
	}

	en := c.eventN
	if en > eventRingSize {
		en = eventRingSize
	}
	events := make([]Event, 0, en)
	// oldest first
	start := 0
	if c.eventN > eventRingSize {
		start = c.eventN % eventRingSize
	}
	for i := 0; i < en; i++ {
		events = append(events, c.events[(start+i)%eventRingSize])
	}

	return Snapshot{
		StartedAt:      c.startedAt,
		UptimeSeconds:  time.Since(c.startedAt).Seconds(),
		TotalRequests:  c.total,
		TotalErrors:    c.errors,
		Routes:         routes,
		CacheHits:      c.cacheHits,
		CacheMisses:    c.cacheMisses,
		Scrapes:        c.scrapes,
		ScrapeFailures: c.scrapeFailures,
		AvgResponseMs:  avgMs,
		MaxResponseMs:  float64(max.Microseconds()) / 1000,
		SampleCount:    n,
		RecentEvents:   events,
		StrategyCounts: strategies,
	}
}
