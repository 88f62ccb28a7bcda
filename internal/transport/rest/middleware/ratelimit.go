package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"devscreen/internal/cache"
	"devscreen/internal/config"
	"devscreen/internal/metrics"
)

// RateLimitMiddleware limits requests per clinician (or client IP when
// unauthenticated) using Redis fixed windows
type RateLimitMiddleware struct {
	limiter cache.RateLimitCache
	config  config.RateLimitConfig
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(limiter cache.RateLimitCache, cfg config.RateLimitConfig, m *metrics.Metrics, logger *zap.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		config:  cfg,
		metrics: m,
		logger:  logger.Named("ratelimit"),
	}
}

// Limit rejects requests over the window budget with 429. Redis failures let
// the request through.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		key := "ip:" + clientIP(r)
		if id := GetClinicianID(r.Context()); id != "" {
			key = "clin:" + id
		}

		allowed, retryAfter, err := m.limiter.Allow(r.Context(), key, m.config.Requests, m.config.Window)
		if err != nil {
			m.logger.Warn("rate limiter unavailable, allowing request",
				zap.String("requestId", GetRequestID(r.Context())),
				zap.String("key", key),
				zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			m.metrics.RateLimitedTotal.Inc()
			m.logger.Info("rate limit exceeded",
				zap.String("requestId", GetRequestID(r.Context())),
				zap.String("key", key),
				zap.Duration("retryAfter", retryAfter))
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
