package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jonwraymond/tiercache/auth"
	"github.com/jonwraymond/tiercache/cache"
	"github.com/jonwraymond/tiercache/health"
	"github.com/jonwraymond/tiercache/observe"
	"github.com/jonwraymond/tiercache/route"
)

// ErrNilCache is returned by New when no cache is supplied.
var ErrNilCache = errors.New("server: cache is nil")

// DefaultWriteRole is the role required by mutating endpoints.
const DefaultWriteRole = "cache:write"

// Server routes HTTP requests to a tiered cache.
type Server struct {
	cache     *cache.Tiered
	router    *route.Router
	health    *health.Aggregator
	authn     auth.Authenticator
	writeRole string
	metrics   http.Handler
	logger    observe.Logger
	clock     clockwork.Clock
}

// Option configures a Server.
type Option func(*Server)

// WithRouter sets the router used by /route when the request does not
// name a bucket count.
func WithRouter(r *route.Router) Option {
	return func(s *Server) {
		s.router = r
	}
}

// WithHealth serves the aggregator's checks on the probe endpoints.
func WithHealth(agg *health.Aggregator) Option {
	return func(s *Server) {
		s.health = agg
	}
}

// WithAuth requires authn and role on PUT and DELETE. An empty role means
// DefaultWriteRole.
func WithAuth(authn auth.Authenticator, role string) Option {
	return func(s *Server) {
		s.authn = authn
		if role != "" {
			s.writeRole = role
		}
	}
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(l observe.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the clock used for forecast dates.
func WithClock(c clockwork.Clock) Option {
	return func(s *Server) {
		if c != nil {
			s.clock = c
		}
	}
}

// New creates a server over c.
func New(c *cache.Tiered, opts ...Option) (*Server, error) {
	if c == nil {
		return nil, ErrNilCache
	}
	s := &Server{
		cache:     c,
		writeRole: DefaultWriteRole,
		logger:    observe.NoopLogger(),
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the traced HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(ScopeMiddleware)

	r.Get("/weather/{id}", s.getWeather)
	r.Get("/route", s.getRoute)

	r.Get("/cache/{key}", s.getCache)
	guarded := r.With(s.writeGuards()...)
	guarded.Put("/cache/{key}", s.putCache)
	guarded.Delete("/cache/{key}", s.deleteCache)

	if s.health != nil {
		health.RegisterHandlers(r, s.health)
	}
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	return otelhttp.NewHandler(r, "tiercache",
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return req.Method + " " + req.URL.Path
		}),
	)
}

// ScopeMiddleware attaches a fresh cache.Scope to each request unless the
// context already carries one.
func ScopeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cache.ScopeFromContext(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(cache.WithScope(r.Context(), cache.NewScope())))
	})
}

func (s *Server) writeGuards() []func(http.Handler) http.Handler {
	if s.authn == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{
		auth.Middleware(s.authn, s.logger),
		auth.RequireRole(s.writeRole),
	}
}
