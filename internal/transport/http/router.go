// Package httptransport assembles the public router.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"xverify/pkg/platform/middleware/auth"
	"xverify/pkg/platform/middleware/request"
)

// MaxBodyBytes bounds request bodies. Verification payloads are tiny.
const MaxBodyBytes = 16 << 10

// Routes mounts a group of endpoints.
type Routes interface {
	Register(r chi.Router)
}

// Config carries everything the router needs.
type Config struct {
	Logger         *slog.Logger
	Metrics        *request.Metrics
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
	RequestTimeout time.Duration
	Validator      auth.JWTValidator

	// Public routes are open; Protected routes require a bearer token.
	Public    []Routes
	Protected []Routes
}

// NewRouter wires middleware and routes.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	if cfg.Metrics != nil {
		r.Use(request.LatencyMiddleware(cfg.Metrics))
	}

	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(request.Timeout(cfg.RequestTimeout))
		}
		r.Use(request.BodyLimit(MaxBodyBytes))
		r.Use(request.ContentTypeJSON)

		for _, routes := range cfg.Public {
			routes.Register(r)
		}

		if cfg.Validator != nil && len(cfg.Protected) > 0 {
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth(cfg.Validator, cfg.Logger))
				for _, routes := range cfg.Protected {
					routes.Register(r)
				}
			})
		}
	})

	return r
}
