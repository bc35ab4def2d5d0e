// Package http exposes the aggregation engine and record store as a
// JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"walletmate/internal/engine"
	"walletmate/internal/log"
	"walletmate/internal/period"
	"walletmate/internal/prefs"
	"walletmate/internal/storage"
)

// EventPublisher notifies downstream consumers of transaction changes.
// A nil publisher means local-only mode.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, id, action string, version int64) error
}

// SuggestSettings is the suggestion policy clients must honor when
// driving an edit form: how long to wait after typing stops before
// asking for a suggestion, and whether a suggestion may replace a
// manually picked category.
type SuggestSettings struct {
	Override bool
	Debounce time.Duration
}

type Server struct {
	http.Server

	store      *storage.Store
	currency   *prefs.CurrencyStore
	suggester  *engine.Suggester
	suggestCfg SuggestSettings
	publisher  EventPublisher
	resolver   period.Resolver
	agg        engine.Aggregator
	logger     *log.Logger

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures all routes and returns a ready-to-run server.
func NewServer(addr string, store *storage.Store, currency *prefs.CurrencyStore, suggester *engine.Suggester, suggestCfg SuggestSettings, publisher EventPublisher, resolver period.Resolver, agg engine.Aggregator, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		store:       store,
		currency:    currency,
		suggester:   suggester,
		suggestCfg:  suggestCfg,
		publisher:   publisher,
		resolver:    resolver,
		agg:         agg,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           log.Middleware(logger)(s.withSecurity(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/summary/live", s.handleLiveSummary)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleUpsertCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/tags", s.handleListTags)
	mux.HandleFunc("POST /api/tags", s.handleUpsertTag)
	mux.HandleFunc("PUT /api/tags/{id}", s.handleUpsertTag)
	mux.HandleFunc("DELETE /api/tags/{id}", s.handleDeleteTag)
	mux.HandleFunc("GET /api/tags/{id}/transactions", s.handleTagTransactions)

	mux.HandleFunc("GET /api/suggest", s.handleSuggest)

	mux.HandleFunc("GET /api/settings/currency", s.handleGetCurrency)
	mux.HandleFunc("PUT /api/settings/currency", s.handleSetCurrency)
	mux.HandleFunc("GET /api/settings/suggest", s.handleGetSuggestSettings)
	mux.HandleFunc("POST /api/settings/clear", s.handleClearData)

	return s
}

// Shutdown stops the rate limiter's cleanup goroutine along with the
// listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// withSecurity adds response headers and rate-limits mutating requests.
func (s *Server) withSecurity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP(r)) {
			s.logger.Warn("Rate limit exceeded",
				log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.ListCategories(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store not ready")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
