package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadimbarashkov/shrimpli/pkg/response"
)

type stubLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (l *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allowed, l.err
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestNew(t *testing.T) {
	t.Run("allowed", func(t *testing.T) {
		limiter := &stubLimiter{allowed: true}

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()

		New(limiter)(okHandler()).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"10.0.0.1"}, limiter.keys)
	})

	t.Run("rejected", func(t *testing.T) {
		limiter := &stubLimiter{allowed: false}
		var rejected int

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.2"
		rec := httptest.NewRecorder()

		New(limiter,
			WithRetryAfter(time.Minute),
			WithRejectHook(func() { rejected++ }),
		)(okHandler()).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		assert.Equal(t, 1, rejected)
		assert.Equal(t, []string{"10.0.0.2"}, limiter.keys)

		var body response.Response
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, response.TooManyRequestsResponse, body)
	})

	t.Run("limiter error fails open", func(t *testing.T) {
		limiter := &stubLimiter{err: errors.New("redis down")}

		rec := httptest.NewRecorder()
		New(limiter)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
