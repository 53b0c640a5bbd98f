package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RateLimit(3, time.Minute)(ok)

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rr.Code, "request %d within the limit", i+1)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	var env struct {
		Error *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	require.NotNil(t, env.Error)
	assert.Equal(t, "too_many_requests", env.Error.Code)
}

func TestRateLimitKeysByClientIP(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RateLimit(1, time.Minute)(ok)

	first := httptest.NewRequest(http.MethodGet, "/", nil)
	first.RemoteAddr = "198.51.100.1:4000"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, first)
	require.Equal(t, http.StatusOK, rr.Code)

	// Same client is throttled, a different client is not.
	again := httptest.NewRequest(http.MethodGet, "/", nil)
	again.RemoteAddr = "198.51.100.1:4001"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, again)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "203.0.113.9:4000"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, other)
	assert.Equal(t, http.StatusOK, rr.Code)
}
