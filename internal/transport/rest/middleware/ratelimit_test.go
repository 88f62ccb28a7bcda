package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"devscreen/internal/config"
	"devscreen/internal/metrics"
)

type stubLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (l *stubLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, time.Duration, error) {
	l.keys = append(l.keys, key)
	return l.allowed, 1500 * time.Millisecond, l.err
}

func serveLimited(t *testing.T, limiter *stubLimiter, req *http.Request) (*httptest.ResponseRecorder, *observer.ObservedLogs, *metrics.Metrics) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	m := metrics.New(prometheus.NewRegistry())
	mw := NewRateLimitMiddleware(limiter, config.RateLimitConfig{Requests: 1, Window: time.Minute}, m, zap.New(core))

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RequestLogger(zap.NewNop())(mw.Limit(ok))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, logs, m
}

func TestRateLimit_RejectionLogsRequestID(t *testing.T) {
	req := httptest.NewRequest("GET", "/v1/screenings", nil)
	req.Header.Set("X-Request-ID", "req-123")
	req = req.WithContext(context.WithValue(req.Context(), ClinicianIDKey, "clin_a"))

	limiter := &stubLimiter{allowed: false}
	rec, logs, m := serveLimited(t, limiter, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, []string{"clin:clin_a"}, limiter.keys)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitedTotal))

	entries := logs.FilterMessage("rate limit exceeded").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-123", entries[0].ContextMap()["requestId"])
}

func TestRateLimit_FailsOpenAndLogsRequestID(t *testing.T) {
	req := httptest.NewRequest("GET", "/v1/auth/login", nil)
	req.Header.Set("X-Request-ID", "req-456")
	req.RemoteAddr = "10.0.0.7:5123"

	limiter := &stubLimiter{err: errors.New("connection refused")}
	rec, logs, _ := serveLimited(t, limiter, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"ip:10.0.0.7"}, limiter.keys)

	entries := logs.FilterMessage("rate limiter unavailable, allowing request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-456", entries[0].ContextMap()["requestId"])
}
