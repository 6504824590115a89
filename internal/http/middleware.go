package http

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/example/studio-scheduler/internal/application"
	"github.com/example/studio-scheduler/internal/logging"
)

// RequestLogger attaches a per-request logger to the context and records
// start/completion lines.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := logging.ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}

// ResolvePrincipal builds the acting principal from trusted gateway headers.
// Session handling lives outside this service; an upstream proxy is expected
// to authenticate and forward X-User-ID and X-Roles.
func ResolvePrincipal(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := application.Principal{
				UserID: strings.TrimSpace(r.Header.Get("X-User-ID")),
			}
			for _, role := range strings.Split(r.Header.Get("X-Roles"), ",") {
				role = strings.TrimSpace(strings.ToLower(role))
				switch application.Role(role) {
				case application.RoleOwner, application.RoleStaff, application.RoleCustomer:
					principal.Roles = append(principal.Roles, application.Role(role))
				}
			}

			ctx := ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// clientLimiter tracks one token bucket per client address.
type clientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func (cl *clientLimiter) limiterFor(addr string) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	limiter, ok := cl.limiters[addr]
	if !ok {
		limiter = rate.NewLimiter(cl.rps, cl.burst)
		cl.limiters[addr] = limiter
	}
	return limiter
}

// RateLimit rejects clients exceeding the configured request rate with 429.
func RateLimit(perSecond float64, burst int, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)
	cl := &clientLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(perSecond),
		burst:    burst,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := clientAddr(r)
			if !cl.limiterFor(addr).Allow() {
				responder.writeJSON(r.Context(), w, http.StatusTooManyRequests, errorResponse{
					ErrorCode: "RATE_LIMITED",
					Message:   "too many requests",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
