package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/SamuelvVelzen/Financely2025-sub002/internal/budget"
	"github.com/SamuelvVelzen/Financely2025-sub002/internal/cache"
	"github.com/SamuelvVelzen/Financely2025-sub002/internal/core"
)

// Store is the persistence surface the handlers need. *storage.Repository
// satisfies it.
type Store interface {
	CreateUser(ctx context.Context, u core.User) error
	GetUser(ctx context.Context, id string) (core.User, error)

	CreateTag(ctx context.Context, t core.Tag) error
	UpdateTag(ctx context.Context, t core.Tag) error
	DeleteTag(ctx context.Context, userID, id string) error
	GetTag(ctx context.Context, userID, id string) (core.Tag, error)
	ListTags(ctx context.Context, userID string) ([]core.Tag, error)
	ReorderTags(ctx context.Context, userID string, orderedIDs []string) error

	CreateTransaction(ctx context.Context, t core.Transaction) error
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id string) error
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)

	CreateBudget(ctx context.Context, b core.Budget) error
	UpdateBudget(ctx context.Context, b core.Budget) error
	DeleteBudget(ctx context.Context, userID, id string) error
	GetBudget(ctx context.Context, userID, id string) (core.Budget, error)
	ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)

	ListMessages(ctx context.Context, userID string, unreadOnly bool) ([]core.Message, error)
	MarkMessageRead(ctx context.Context, userID, id string, at time.Time) error
}

// BudgetEvaluator computes budget comparisons. *services.BudgetService
// satisfies it.
type BudgetEvaluator interface {
	Comparison(ctx context.Context, userID, budgetID string, now time.Time) (budget.OverviewEntry, error)
	Overview(ctx context.Context, userID string, now time.Time) ([]budget.OverviewEntry, error)
}

type Server struct {
	http.Server
	store       Store
	budgets     BudgetEvaluator
	rateLimiter *rateLimiter

	// Overview responses are cached per user and invalidated on any write
	// that can change the numbers.
	overviewCache *cache.TTLCache[[]budget.OverviewEntry]

	stopCacheSweep chan struct{}
	shutdownOnce   sync.Once

	// now is swappable in tests.
	now func() time.Time
}

// Options tunes server internals; zero values pick the defaults.
type Options struct {
	CacheSize          int
	CacheTTL           time.Duration
	RateLimitPerMinute int
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, store Store, budgets BudgetEvaluator, opts Options) *Server {
	if opts.CacheSize == 0 {
		opts.CacheSize = 200
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.RateLimitPerMinute == 0 {
		opts.RateLimitPerMinute = 60
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:          store,
		budgets:        budgets,
		rateLimiter:    newRateLimiter(opts.RateLimitPerMinute),
		overviewCache:  cache.NewTTL[[]budget.OverviewEntry](opts.CacheSize, opts.CacheTTL),
		stopCacheSweep: make(chan struct{}),
		now:            time.Now,
	}

	go s.startCacheSweep()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("POST /users", s.handleCreateUser)
	mux.HandleFunc("GET /users/me", s.withMiddleware(s.handleGetCurrentUser))

	mux.HandleFunc("GET /tags", s.withMiddleware(s.handleListTags))
	mux.HandleFunc("POST /tags", s.withMiddleware(s.handleCreateTag))
	mux.HandleFunc("PUT /tags/{id}", s.withMiddleware(s.handleUpdateTag))
	mux.HandleFunc("DELETE /tags/{id}", s.withMiddleware(s.handleDeleteTag))
	mux.HandleFunc("POST /tags/reorder", s.withMiddleware(s.handleReorderTags))

	mux.HandleFunc("GET /transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("POST /transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("GET /transactions/{id}", s.withMiddleware(s.handleGetTransaction))
	mux.HandleFunc("PUT /transactions/{id}", s.withMiddleware(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("GET /budgets", s.withMiddleware(s.handleListBudgets))
	mux.HandleFunc("POST /budgets", s.withMiddleware(s.handleCreateBudget))
	mux.HandleFunc("GET /budgets/{id}", s.withMiddleware(s.handleGetBudget))
	mux.HandleFunc("PUT /budgets/{id}", s.withMiddleware(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /budgets/{id}", s.withMiddleware(s.handleDeleteBudget))
	mux.HandleFunc("GET /budgets/{id}/comparison", s.withMiddleware(s.handleBudgetComparison))
	mux.HandleFunc("GET /budgets/overview", s.withMiddleware(s.handleBudgetOverview))

	mux.HandleFunc("GET /messages", s.withMiddleware(s.handleListMessages))
	mux.HandleFunc("POST /messages/{id}/read", s.withMiddleware(s.handleMarkMessageRead))

	return s
}

// startCacheSweep drops expired overview entries periodically so a quiet
// server does not hold stale data for its full LRU capacity.
func (s *Server) startCacheSweep() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := s.overviewCache.Sweep(); removed > 0 {
				slog.Debug("Cache sweep completed", "entries_removed", removed)
			}
		case <-s.stopCacheSweep:
			return
		}
	}
}

// Shutdown stops the background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.stopCacheSweep)
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds request logging with a request ID, security headers,
// user resolution from the X-User-ID header, and rate limiting on mutating
// methods.
func (s *Server) withMiddleware(next func(w http.ResponseWriter, r *http.Request, userID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r, userID)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// invalidateOverview drops the user's cached overview entries after a write.
func (s *Server) invalidateOverview(userID string) {
	s.overviewCache.DeletePrefix(userID + "|")
}

func overviewKey(userID string) string {
	return userID + "|overview"
}
