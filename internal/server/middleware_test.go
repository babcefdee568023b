package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HerbHall/coldtrace/internal/version"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRequestIDMiddleware_GeneratesUUID(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	w := serve(h, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	id := w.Header().Get("X-Request-ID")
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, seen)
}

func TestRequestIDMiddleware_PropagatesExistingID(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("X-Request-ID", "trace-42")
	w := serve(h, req)

	assert.Equal(t, "trace-42", seen)
	assert.Equal(t, "trace-42", w.Header().Get("X-Request-ID"))
}

func TestLoggingMiddleware_PassesStatusThrough(t *testing.T) {
	h := LoggingMiddleware(zap.NewNop(), nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	w := serve(h, httptest.NewRequest(http.MethodGet, "/x", http.NoBody))
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	w := serve(SecurityHeadersMiddleware(okHandler), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'none'")
}

func TestVersionHeaderMiddleware(t *testing.T) {
	w := serve(VersionHeaderMiddleware(okHandler), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	assert.Equal(t, version.Short(), w.Header().Get("X-Coldtrace-Version"))
}

func TestRecoveryMiddleware_CatchesPanic(t *testing.T) {
	h := RecoveryMiddleware(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := serve(h, httptest.NewRequest(http.MethodGet, "/panic", http.NoBody))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), ProblemTypeInternal)
}

func TestBodyLimitMiddleware(t *testing.T) {
	var readErr error
	h := BodyLimitMiddleware(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	t.Run("declared length over limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
		w := serve(h, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("unknown length over limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", io.NopCloser(strings.NewReader("0123456789")))
		req.ContentLength = -1
		serve(h, req)
		var tooLarge *http.MaxBytesError
		assert.ErrorAs(t, readErr, &tooLarge)
	})

	t.Run("within limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123"))
		w := serve(h, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, readErr)
	})

	t.Run("disabled", func(t *testing.T) {
		h := BodyLimitMiddleware(0)(okHandler)
		w := serve(h, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimitMiddleware(1, 2, []string{"/healthz"})(okHandler)

	request := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
		req.RemoteAddr = "10.0.0.7:5555"
		return serve(h, req).Code
	}

	assert.Equal(t, http.StatusOK, request("/api/v1/analyze"))
	assert.Equal(t, http.StatusOK, request("/api/v1/analyze"))
	assert.Equal(t, http.StatusTooManyRequests, request("/api/v1/analyze"))

	for range 5 {
		assert.Equal(t, http.StatusOK, request("/healthz"))
	}
}

func TestVisitorLimiter_EvictIdle(t *testing.T) {
	l := newVisitorLimiter(1, 1)
	l.allow("a")
	l.allow("b")
	l.visitors["a"].lastSeen = time.Now().Add(-2 * visitorIdleTTL)

	l.evictIdle(time.Now())

	assert.NotContains(t, l.visitors, "a")
	assert.Contains(t, l.visitors, "b")
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	serve(Chain(okHandler, mark("outer"), mark("inner")), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"remote addr", "192.168.1.9:4000", "", "192.168.1.9"},
		{"forwarded", "10.0.0.1:4000", "203.0.113.5, 10.0.0.1", "203.0.113.5"},
		{"blank forwarded", "10.0.0.1:4000", " ", "10.0.0.1"},
		{"no port", "unix", "", "unix"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.RemoteAddr = tc.remote
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			assert.Equal(t, tc.want, clientIP(req))
		})
	}
}

func TestStatusWriter_IgnoresSecondWriteHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec, status: http.StatusOK}

	sw.WriteHeader(http.StatusNotFound)
	sw.WriteHeader(http.StatusTeapot)

	assert.Equal(t, http.StatusNotFound, sw.status)
}
