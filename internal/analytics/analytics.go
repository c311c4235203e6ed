// Package analytics rolls up cached historical search results into
// cross-query insights: popular queries, fuzzy-filtered history,
// category extraction, and shop leaderboards. Every operation degrades
// to partial results: a missing or malformed cached entry contributes
// nothing and never fails the whole pass.
package analytics

import (
	"context"
	"sort"
	"strings"
	"time"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"github.com/sirupsen/logrus"

	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/cache"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/models"
)

// FuzzyThreshold gates all fuzzy matching on the 0-100 partial-ratio
// scale.
const FuzzyThreshold = 70

// candidateCounts are the product counts tried when re-deriving the
// scrape:{query}:{n} key from a history entry; the entry itself does
// not record the count it was searched with.
var candidateCounts = []int{10, 5, 20, 50}

// Aggregator answers analytics queries over the persisted search
// history and the cached search results it references.
type Aggregator struct {
	store cache.Store
	log   *logrus.Logger
}

// NewAggregator creates an aggregator over the given store.
func NewAggregator(store cache.Store, log *logrus.Logger) *Aggregator {
	if log == nil {
		log = logrus.New()
	}
	return &Aggregator{store: store, log: log}
}

// History returns the bounded search-history list, newest first.
// A missing or unreadable list is simply empty.
func (a *Aggregator) History(ctx context.Context) []models.SearchHistoryEntry {
	var entries []models.SearchHistoryEntry
	if err := a.store.Get(ctx, cache.HistoryKey, &entries); err != nil {
		return nil
	}
	return entries
}

// AppendHistory prepends an entry and trims the list to
// models.HistoryLimit. The read-modify-write is not atomic; concurrent
// writers race last-writer-wins, which is an accepted consistency gap.
func (a *Aggregator) AppendHistory(ctx context.Context, entry models.SearchHistoryEntry) error {
	entries := a.History(ctx)
	entries = append([]models.SearchHistoryEntry{entry}, entries...)
	if len(entries) > models.HistoryLimit {
		entries = entries[:models.HistoryLimit]
	}
	return a.store.Set(ctx, cache.HistoryKey, entries, cache.AnalyticsTTL)
}

// PopularQueries groups history entries by exact query text and ranks
// them by occurrence count, most recent use breaking ties.
func (a *Aggregator) PopularQueries(ctx context.Context, limit int) []models.QueryStat {
	byQuery := make(map[string]*models.QueryStat)
	for _, e := range a.History(ctx) {
		st, ok := byQuery[e.Query]
		if !ok {
			st = &models.QueryStat{Query: e.Query}
			byQuery[e.Query] = st
		}
		st.Count++
		if e.Timestamp.After(st.LastUsed) {
			st.LastUsed = e.Timestamp
		}
	}

	stats := make([]models.QueryStat, 0, len(byQuery))
	for _, st := range byQuery {
		stats = append(stats, *st)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].LastUsed.After(stats[j].LastUsed)
	})

	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}

// FilterHistory applies an inclusive since bound and a fuzzy query
// filter to the history, returning the truncated matches and the match
// count before truncation.
func (a *Aggregator) FilterHistory(ctx context.Context, queryFilter string, since time.Time, limit int) ([]models.SearchHistoryEntry, int) {
	var matches []models.SearchHistoryEntry
	for _, e := range a.History(ctx) {
		if !since.IsZero() && e.Timestamp.Before(since) {
			continue
		}
		if queryFilter != "" && !fuzzyMatch(queryFilter, e.Query) {
			continue
		}
		matches = append(matches, e)
	}

	total := len(matches)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, total
}

// fuzzyMatch reports whether candidate matches filter at or above the
// partial-ratio threshold, case-insensitively.
func fuzzyMatch(filter, candidate string) bool {
	return fuzzy.PartialRatio(strings.ToLower(filter), strings.ToLower(candidate)) >= FuzzyThreshold
}

// extractBest ranks candidates by partial ratio against query and
// returns those at or above the threshold, best first, at most limit.
func extractBest(query string, candidates []string, limit int) []string {
	type scored struct {
		value string
		score int
	}
	var kept []scored
	for _, c := range candidates {
		if s := fuzzy.PartialRatio(strings.ToLower(query), strings.ToLower(c)); s >= FuzzyThreshold {
			kept = append(kept, scored{value: c, score: s})
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].score > kept[j].score })
	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	out := make([]string, len(kept))
	for i, k := range kept {
		out[i] = k.value
	}
	return out
}

// BestSellers gathers bestseller-flagged products across every cached
// result reachable from history, deduplicated by product id and ranked
// by popularity score.
func (a *Aggregator) BestSellers(ctx context.Context, limit int) []models.Product {
	seen := make(map[string]bool)
	var out []models.Product
	for _, r := range a.resolveResults(ctx) {
		for _, p := range r.Bestsellers {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PopularityScore > out[j].PopularityScore
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// resolveResults loads every cached search result still reachable from
// the history, trying each candidate product count per query. Each
// query resolves at most once; unreadable entries are skipped. The
// history list is stored newest first, so it is walked from the tail
// to yield results in chronological order: downstream dedupe keeps the
// earliest-seen snapshot of a shop or product.
func (a *Aggregator) resolveResults(ctx context.Context) []models.SearchResult {
	entries := a.History(ctx)
	seen := make(map[string]bool)
	var results []models.SearchResult
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if seen[e.Query] {
			continue
		}
		seen[e.Query] = true
		for _, n := range candidateCounts {
			var r models.SearchResult
			if err := a.store.Get(ctx, cache.SearchKey(e.Query, n), &r); err != nil {
				continue
			}
			if len(r.Products) == 0 {
				continue
			}
			results = append(results, r)
			break
		}
	}
	return results
}
