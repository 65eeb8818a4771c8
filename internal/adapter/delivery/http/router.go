// Package http exposes the URL shortener over HTTP.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/vadimbarashkov/shrimpli/docs"
	"github.com/vadimbarashkov/shrimpli/pkg/middleware/ratelimit"
	"github.com/vadimbarashkov/shrimpli/pkg/middleware/recoverer"

	limiter "github.com/vadimbarashkov/shrimpli/pkg/ratelimit"
)

const defaultBaseURL = "http://localhost:8080"

type Option func(*routerOptions)

type routerOptions struct {
	baseURL        string
	metricsHandler http.Handler
	limiter        limiter.Limiter
	limitWindow    time.Duration
	onRateLimited  func()
}

// WithBaseURL sets the prefix of returned short URLs.
func WithBaseURL(baseURL string) Option {
	return func(o *routerOptions) {
		o.baseURL = baseURL
	}
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(o *routerOptions) {
		o.metricsHandler = h
	}
}

// WithRateLimiter guards POST /api/shorten. window is reported to rejected
// clients as Retry-After and onReject is called for every rejection.
func WithRateLimiter(l limiter.Limiter, window time.Duration, onReject func()) Option {
	return func(o *routerOptions) {
		o.limiter = l
		o.limitWindow = window
		if onReject != nil {
			o.onRateLimited = onReject
		}
	}
}

func NewRouter(logger *httplog.Logger, urlUseCase urlUseCase, opts ...Option) *chi.Mux {
	o := routerOptions{
		baseURL:       defaultBaseURL,
		onRateLimited: func() {},
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(recoverer.New(logger.Logger))

	r.Get("/health", handleHealth)

	if o.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", o.metricsHandler)
	}

	r.Get("/swagger/doc.yml", handleSwaggerDoc)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.yml"),
	))

	h := newURLHandler(urlUseCase, validator.New(), o.baseURL)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if o.limiter != nil {
				r.Use(ratelimit.New(o.limiter,
					ratelimit.WithRetryAfter(o.limitWindow),
					ratelimit.WithRejectHook(o.onRateLimited),
				))
			}
			r.Post("/shorten", h.shortenURL)
		})

		r.Get("/stats/{shortCode}", h.getURLStats)
	})

	r.Get("/{shortCode}", h.redirect)

	return r
}

func handleSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(docs.Swagger)
}
