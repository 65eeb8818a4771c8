// Package ratelimit rejects requests once a client exceeds its quota.
package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/vadimbarashkov/shrimpli/pkg/middleware"
	"github.com/vadimbarashkov/shrimpli/pkg/ratelimit"
	"github.com/vadimbarashkov/shrimpli/pkg/response"
)

type Option func(*options)

type options struct {
	retryAfter time.Duration
	onReject   func()
}

// WithRetryAfter sets the Retry-After header of rejected requests.
func WithRetryAfter(d time.Duration) Option {
	return func(o *options) {
		o.retryAfter = d
	}
}

// WithRejectHook is called once per rejected request.
func WithRejectHook(fn func()) Option {
	return func(o *options) {
		o.onReject = fn
	}
}

// New limits requests per client IP. It expects RealIP to run first. When
// the limiter fails the request is let through and the error is attached
// to the request log entry.
func New(limiter ratelimit.Limiter, opts ...Option) middleware.Middleware {
	o := options{
		retryAfter: time.Second,
		onReject:   func() {},
	}
	for _, opt := range opts {
		opt(&o)
	}

	retryAfter := strconv.Itoa(int(o.retryAfter.Round(time.Second) / time.Second))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), clientIP(r))
			if err != nil {
				httplog.LogEntrySetField(r.Context(), "ratelimit_err", slog.AnyValue(err))
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				o.onReject()

				w.Header().Set("Retry-After", retryAfter)
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.TooManyRequestsResponse)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
