package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hyroxlab/roxcoach/internal/auth"
	"github.com/hyroxlab/roxcoach/internal/middleware"
	"github.com/hyroxlab/roxcoach/internal/ratelimit"
	"github.com/hyroxlab/roxcoach/internal/telemetry/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.New(2, time.Minute)
	handlerCalls := 0
	handler := middleware.RateLimit(limiter, metrics.NewTestManager())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalls++
			w.WriteHeader(http.StatusOK)
		}),
	)

	doRequest := func(userID int) *httptest.ResponseRecorder {
		req, err := http.NewRequest("GET", "/readiness", nil)
		require.NoError(t, err)
		req = req.WithContext(auth.ContextWithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, doRequest(1).Code)
	assert.Equal(t, http.StatusOK, doRequest(1).Code)

	rec := doRequest(1)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, 2, handlerCalls)

	// another user is keyed separately
	assert.Equal(t, http.StatusOK, doRequest(2).Code)
}

func TestRateLimit_AnonymousKeyedByIP(t *testing.T) {
	limiter := ratelimit.New(1, time.Minute)
	handler := middleware.RateLimit(limiter, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	doRequest := func(ip string) *httptest.ResponseRecorder {
		req, err := http.NewRequest("GET", "/version", nil)
		require.NoError(t, err)
		req.Header.Set("X-Real-Ip", ip)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, doRequest("5.5.5.5").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest("5.5.5.5").Code)
	assert.Equal(t, http.StatusOK, doRequest("6.6.6.6").Code)
}
