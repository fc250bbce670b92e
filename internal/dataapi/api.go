// Package dataapi implements the HTTP Data API: experiment assignments,
// exposure and conversion tracking, and copy resolution.
package dataapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/rafaeljc/bifrost/internal/copydoc"
	"github.com/rafaeljc/bifrost/internal/experiment"
	"github.com/rafaeljc/bifrost/internal/validation"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 64 << 10

// API holds the router and the read-side dependencies of the Data API.
type API struct {
	// Router is the Chi multiplexer that handles HTTP requests.
	Router *chi.Mux

	logger   *slog.Logger
	engine   *experiment.Engine
	resolver *copydoc.Resolver
	validate *validator.Validate

	maxBodyBytes int64
}

// Option customizes the API.
type Option func(*API)

// WithMaxBodyBytes limits the size of POST bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(a *API) {
		if n > 0 {
			a.maxBodyBytes = n
		}
	}
}

// NewAPI creates the Data API and registers its routes.
// Panics if engine or resolver are nil.
func NewAPI(logger *slog.Logger, engine *experiment.Engine, resolver *copydoc.Resolver, opts ...Option) *API {
	validation.AssertNotNil(engine, "experiment engine")
	validation.AssertNotNil(resolver, "copy resolver")
	if logger == nil {
		logger = slog.Default()
	}

	a := &API{
		Router:       chi.NewRouter(),
		logger:       logger.With("component", "data_api"),
		engine:       engine,
		resolver:     resolver,
		validate:     validator.New(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.configureRoutes()
	return a
}

// ServeHTTP makes the API usable directly as an http.Handler.
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.Router.ServeHTTP(w, r)
}

// configureRoutes registers the global middleware stack and API endpoints.
func (a *API) configureRoutes() {
	a.Router.Use(middleware.RequestID)
	a.Router.Use(middleware.RealIP)
	a.Router.Use(a.RequestLogger)
	a.Router.Use(Metrics)
	a.Router.Use(middleware.Recoverer)
	a.Router.Use(render.SetContentType(render.ContentTypeJSON))

	a.Router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "ERR_NOT_FOUND", "Route not found")
	})

	a.Router.Route("/api/v1", func(r chi.Router) {
		r.Route("/experiments", func(r chi.Router) {
			r.Get("/", a.handleListExperiments)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/assignment", a.handleGetAssignment)
				r.Post("/exposure", a.handleTrackExposure)
				r.Post("/conversions", a.handleTrackConversion)
			})
		})

		r.Route("/copy", func(r chi.Router) {
			r.Get("/", a.handleResolveCopy)
			r.Get("/status", a.handleCopyStatus)
			r.Get("/keys/{key}", a.handleResolveKey)
		})
	})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Code: code, Message: message})
}
