package router

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-movies-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/category"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/docs"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/movie"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/role"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/user"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware returns a middleware that logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"request_id", RequestIDFromContext(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

			// the API serves JSON only, so nothing needs to load
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none';")
			}

			// HSTS only over TLS, 30 days
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Handlers groups the feature handlers mounted by RegisterRoutes.
type Handlers struct {
	Users      *user.Handler
	Categories *category.Handler
	Movies     *movie.Handler
}

type Options struct {
	// Tokens verifies bearer tokens on administrative routes.
	Tokens      auth.TokenParser
	CORSOrigins []string
	Metrics     *Metrics
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes mounts HTTP handlers on a http.ServeMux and wraps it with
// the middleware chain.
func RegisterRoutes(logger *zap.SugaredLogger, h Handlers, opts Options) http.Handler {
	mux := http.NewServeMux()
	admin := auth.RequireRole(opts.Tokens, logger, role.Admin)
	guarded := func(fn http.HandlerFunc) http.Handler { return admin(fn) }

	// health
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	}
	mux.HandleFunc("GET /docs/schemas", docs.Handler())

	// accounts
	mux.HandleFunc("POST /register", h.Users.Register)
	mux.HandleFunc("POST /login", h.Users.Login)
	mux.Handle("GET /users", guarded(h.Users.List))
	mux.Handle("GET /users/{id}", guarded(h.Users.Get))

	// categories
	mux.HandleFunc("GET /categories", h.Categories.List)
	mux.HandleFunc("GET /categories/{id}", h.Categories.Get)
	mux.Handle("POST /categories", guarded(h.Categories.Create))
	mux.Handle("PUT /categories/{id}", guarded(h.Categories.Update))
	mux.Handle("PATCH /categories/{id}", guarded(h.Categories.Update))
	mux.Handle("DELETE /categories/{id}", guarded(h.Categories.Delete))

	// movies
	mux.HandleFunc("GET /movies", h.Movies.List)
	mux.HandleFunc("GET /movies/{id}", h.Movies.Get)
	mux.HandleFunc("GET /movies/search", h.Movies.Search)
	mux.HandleFunc("GET /movies/category/{categoryId}", h.Movies.ByCategory)
	mux.Handle("POST /movies", guarded(h.Movies.Create))
	mux.Handle("PATCH /movies/{id}", guarded(h.Movies.Update))
	mux.Handle("DELETE /movies/{id}", guarded(h.Movies.Delete))

	c := cors.New(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader, "Location"},
		AllowCredentials: true,
		MaxAge:           600,
	})

	var handler http.Handler = c.Handler(mux)
	handler = SecurityHeadersMiddleware()(handler)
	handler = LoggingMiddleware(logger)(handler)
	if opts.Metrics != nil {
		handler = opts.Metrics.Middleware(handler)
	}
	return RequestIDMiddleware()(handler)
}
