package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/cache"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/search"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"service": "tokped-scrapper",
		"status":  "running",
		"endpoints": []string{
			"POST /scrape",
			"GET /health",
			"GET /products/{id}",
			"GET /products/trending",
			"GET /products/bestsellers",
			"GET /shops/recommended",
			"GET /analytics/popular-queries",
			"GET /analytics/history",
			"GET /analytics/categories",
			"GET /analytics/shops/top",
			"GET /analytics/shops/by-city",
			"GET /analytics/shops/statistics",
			"GET /metrics",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	cacheStatus := "ok"
	if _, err := s.store.Exists(ctx, cache.HistoryKey); err != nil {
		cacheStatus = "unavailable"
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"cache":     cacheStatus,
		"timestamp": time.Now().UTC(),
	})
}

type scrapeRequest struct {
	Query       string `json:"query"`
	NumProducts int    `json:"num_products"`
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.search.Search(r.Context(), req.Query, req.NumProducts)
	switch {
	case errors.Is(err, search.ErrEmptyQuery), errors.Is(err, search.ErrInvalidCount):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.log.WithError(err).Error("scrape failed")
		s.writeError(w, http.StatusInternalServerError, "scrape failed")
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := s.search.Product(r.Context(), id)
	if errors.Is(err, cache.ErrMiss) {
		s.writeError(w, http.StatusNotFound, "product not found or expired")
		return
	}
	if err != nil {
		s.log.WithError(err).Error("product lookup failed")
		s.writeError(w, http.StatusInternalServerError, "product lookup failed")
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	products, err := s.search.Trending(r.Context())
	if err != nil {
		s.log.WithError(err).Error("trending lookup failed")
		s.writeError(w, http.StatusInternalServerError, "trending lookup failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"count":    len(products),
		"products": products,
	})
}

func (s *Server) handleBestsellers(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	products := s.analytics.BestSellers(r.Context(), limit)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"count":    len(products),
		"products": products,
	})
}

func (s *Server) handleRecommendedShops(w http.ResponseWriter, r *http.Request) {
	shops, err := s.search.RecommendedShops(r.Context())
	if err != nil {
		s.log.WithError(err).Error("recommended shops lookup failed")
		s.writeError(w, http.StatusInternalServerError, "recommended shops lookup failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"count":  len(shops),
		"shops":  shops,
	})
}

func (s *Server) handlePopularQueries(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)
	stats := s.analytics.PopularQueries(r.Context(), limit)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"count":   len(stats),
		"queries": stats,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	queryFilter := r.URL.Query().Get("query")

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "since must be RFC 3339")
			return
		}
		since = parsed
	}

	entries, total := s.analytics.FilterHistory(r.Context(), queryFilter, since, limit)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"count":   len(entries),
		"total":   total,
		"history": entries,
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	typeFilter := r.URL.Query().Get("type")
	queryFilter := r.URL.Query().Get("query")
	limit := queryInt(r, "limit", 0)

	categories := s.analytics.ExtractCategories(r.Context(), typeFilter, queryFilter, limit)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "success",
		"count":      len(categories),
		"categories": categories,
	})
}

func (s *Server) handleTopShops(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)
	shops := s.analytics.TopShops(r.Context(), limit)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"count":  len(shops),
		"shops":  shops,
	})
}

func (s *Server) handleShopsByCity(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	if city == "" {
		s.writeError(w, http.StatusBadRequest, "city parameter is required")
		return
	}
	limit := queryInt(r, "limit", 0)
	shops := s.analytics.ShopsByCity(r.Context(), city, limit)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"city":   city,
		"count":  len(shops),
		"shops":  shops,
	})
}

func (s *Server) handleShopStatistics(w http.ResponseWriter, r *http.Request) {
	stats := s.analytics.ShopStatistics(r.Context())
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "success",
		"statistics": stats,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
