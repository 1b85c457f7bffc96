// Package httpapi exposes the search engine over HTTP.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/goliatone/go-component-search/search"
)

// Router wires engine operations to chi routes.
type Router struct {
	engine *search.Engine
	logger *zap.Logger
}

// NewRouter creates a router. A nil logger disables request logging.
func NewRouter(engine *search.Engine, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{engine: engine, logger: logger}
}

// Setup configures middleware and routes. extra is mounted next to the
// API, e.g. a metrics handler.
func (rt *Router) Setup(extra ...func(chi.Router)) http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(rt.logger))

	router.Get("/health", rt.healthCheck)

	h := &handler{engine: rt.engine, logger: rt.logger}
	router.Route("/api", func(r chi.Router) {
		r.Route("/search", func(r chi.Router) {
			r.Post("/", h.advancedSearch)
			r.Get("/text", h.fullTextSearch)
			r.Get("/category", h.searchByCategory)
			r.Post("/parameters", h.searchByParameters)
			r.Get("/suggestions", h.suggestions)
		})

		r.Get("/components/{componentID}", h.component)

		r.Route("/manufacturers", func(r chi.Router) {
			r.Get("/", h.manufacturers)
			r.Get("/{manufacturer}/categories", h.manufacturerCategoryTree)
		})

		r.Get("/categories", h.categoryTree)
		r.Get("/families", h.familyMeta)
		r.Get("/parameters/definitions", h.parameterDefinitions)
		r.Get("/statistics", h.statistics)

		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", h.cacheStats)
			r.Delete("/search", h.invalidateSearch)
			r.Delete("/meta", h.invalidateMetadata)
			r.Delete("/components/{componentID}", h.invalidateComponent)
		})
	})

	for _, mount := range extra {
		mount(router)
	}
	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(rt.logger, w, http.StatusOK, map[string]string{"status": "healthy"})
}
