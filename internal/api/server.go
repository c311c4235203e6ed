// Package api exposes the collection pipeline and the analytics
// aggregator over HTTP. Routing uses the stdlib mux with method
// patterns; responses are JSON throughout, errors included.
package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/analytics"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/cache"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/metrics"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/search"
)

// Server handles the REST surface.
type Server struct {
	search    *search.Service
	analytics *analytics.Aggregator
	store     cache.Store
	metrics   *metrics.Collector
	log       *logrus.Logger
	apiKey    string
}

// NewServer wires the handler set. apiKey, when non-empty, gates the
// scrape endpoint behind bearer auth; read endpoints stay open.
func NewServer(svc *search.Service, agg *analytics.Aggregator, store cache.Store, m *metrics.Collector, log *logrus.Logger, apiKey string) *Server {
	if log == nil {
		log = logrus.New()
	}
	return &Server{
		search:    svc,
		analytics: agg,
		store:     store,
		metrics:   m,
		log:       log,
		apiKey:    apiKey,
	}
}

// Handler builds the routed, middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)

	scrape := http.HandlerFunc(s.handleScrape)
	if s.apiKey != "" {
		mux.Handle("POST /scrape", s.bearerAuth(scrape))
	} else {
		mux.Handle("POST /scrape", scrape)
	}

	mux.HandleFunc("GET /products/trending", s.handleTrending)
	mux.HandleFunc("GET /products/bestsellers", s.handleBestsellers)
	mux.HandleFunc("GET /products/{id}", s.handleProduct)
	mux.HandleFunc("GET /shops/recommended", s.handleRecommendedShops)

	mux.HandleFunc("GET /analytics/popular-queries", s.handlePopularQueries)
	mux.HandleFunc("GET /analytics/history", s.handleHistory)
	mux.HandleFunc("GET /analytics/categories", s.handleCategories)
	mux.HandleFunc("GET /analytics/shops/top", s.handleTopShops)
	mux.HandleFunc("GET /analytics/shops/by-city", s.handleShopsByCity)
	mux.HandleFunc("GET /analytics/shops/statistics", s.handleShopStatistics)

	mux.HandleFunc("GET /metrics", s.handleMetrics)

	return s.requestID(s.cors(s.observe(mux)))
}

// ListenAndServe runs the server until it fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	s.log.WithField("addr", addr).Info("HTTP API listening")
	return srv.ListenAndServe()
}

// ---- middleware ----

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// observe records per-route metrics and logs each request.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Method + " " + r.URL.Path
		dur := time.Since(start)
		s.metrics.RecordRequest(route, rec.status, dur)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": dur.String(),
		}).Info("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) bearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
			s.writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}
		token, found := strings.CutPrefix(auth, "Bearer ")
		if !found || subtle.ConstantTimeCompare([]byte(token), []byte(s.apiKey)) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
			s.writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ---- response helpers ----

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.WithError(err).Warn("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"status": "error",
		"error":  message,
	})
}
