// Package http serves the computed analytics as a JSON API.
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

	"finboard/internal/log"
	"finboard/internal/services"
)

type Server struct {
	http.Server
	svc              *services.AnalyticsService
	rateLimiter      *rateLimiter
	metrics          *securityMetrics
	defaultWorkspace string
	shutdownOnce     sync.Once

	// now is replaceable in tests
	now func() time.Time
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server. defaultWorkspace is the scope used when a request carries
// no workspaces parameter.
func NewServer(addr string, svc *services.AnalyticsService, defaultWorkspace string) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		svc:              svc,
		rateLimiter:      newRateLimiter(),
		metrics:          &securityMetrics{},
		defaultWorkspace: defaultWorkspace,
		now:              time.Now,
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/overview", s.withMiddleware(s.handleOverview))
	mux.HandleFunc("/api/analytics/expenses", s.withMiddleware(s.handleExpenseAnalytics))
	mux.HandleFunc("/api/analytics/invoices", s.withMiddleware(s.handleInvoiceAnalytics))
	mux.HandleFunc("/api/analytics/trend", s.withMiddleware(s.handleTrend))
	mux.HandleFunc("/api/budgets", s.withMiddleware(s.handleBudgets))
	mux.HandleFunc("/api/projects/health", s.withMiddleware(s.handleProjectHealth))
	mux.HandleFunc("/api/costcenters", s.withMiddleware(s.handleCostCenters))
	mux.HandleFunc("/api/alerts", s.withMiddleware(s.handleAlerts))
	mux.HandleFunc("/api/workspaces", s.withMiddleware(s.handleWorkspaces))

	return s
}

// withMiddleware adds security headers, rate limiting, request-id tracing
// and request logging. All API endpoints are read-only.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		fields := log.NewFields().
			WithComponent(log.ComponentHTTP).
			WithRequestID(requestID).
			WithHTTPRequest(r.Method, r.URL.Path, clientIP)
		slog.InfoContext(ctx, "Request started", fields.ToSlice()...)

		if r.Method != http.MethodGet {
			w.Header().Set("Allow", "GET")
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		if !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			fields.WithHTTPResponse(rw.statusCode, time.Since(start)).ToSlice()...)
	}
}

// RateLimitHits reports how many requests the rate limiter has rejected.
func (s *Server) RateLimitHits() int64 {
	return s.metrics.RateLimitHits()
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		slog.InfoContext(ctx, "HTTP server shutting down",
			log.FieldOperation, log.OpShutdown,
			"rate_limit_hits", s.metrics.RateLimitHits())
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
