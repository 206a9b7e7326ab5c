package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/TwigBush/opa-authz/internal/enforce"
	"github.com/TwigBush/opa-authz/internal/handlers"
	"github.com/TwigBush/opa-authz/internal/metrics"
	mw2 "github.com/TwigBush/opa-authz/internal/mw"
)

type Options struct {
	EnableCORS     bool
	AllowedOrigins []string
}

type Deps struct {
	Dispatcher *enforce.Dispatcher
	Metrics    *metrics.Decisions
	Log        *slog.Logger
}

// BuildRouter serves the checks and filters of d.Dispatcher to the engine
// shim, plus health, version and metrics endpoints.
func BuildRouter(d Deps, opts Options, mw ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(mw2.NoStore)

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if opts.EnableCORS {
		origins := opts.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "TRACE_ID"},
			ExposedHeaders: []string{"TRACE_ID"},
			MaxAge:         300,
		}))
	}
	for _, m := range mw {
		r.Use(m)
	}

	r.Use(mw2.Trace())
	r.Use(mw2.Logger(mw2.LogOpts{
		Logger:    d.Log,
		SkipPaths: []string{"/healthz", "/version", "/metrics"},
	}))

	r.Get("/healthz", handlers.Health)
	r.Get("/version", handlers.Version)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	checks := handlers.NewChecks(d.Dispatcher, d.Log)
	r.Route("/v1", func(v1 chi.Router) {
		v1.Post("/checks/{operation}", checks.Check)
		v1.Post("/filters/{operation}", checks.Filter)
	})

	return r
}
