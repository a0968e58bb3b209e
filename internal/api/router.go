package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"fabric-bridge/internal/config"
	"fabric-bridge/internal/middleware"
	"fabric-bridge/internal/ui"
)

// NewRouter builds the chi router for the migration API. Reference ids
// contain slashes, so handlers that take a reference accept it in the
// request body or as a query parameter rather than a path segment.
// The status UI is mounted under /ui when uiHandler is non-nil.
func NewRouter(cfg *config.Config, h *Handler, uiHandler *ui.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.BearerAuth(cfg.JWTSecret))

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.createSession)
			r.Get("/", h.listSessions)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getSession)
				r.Delete("/", h.deleteSession)
				r.Post("/scan", h.scanSession)
				r.Post("/scan-source", h.scanSessionFromSource)

				r.Get("/references", h.listReferences)
				r.Get("/mappings", h.listMappings)
				r.Post("/mappings", h.setMapping)
				r.Delete("/mappings", h.clearMapping)
				r.Get("/connection-targets", h.listConnectionTargets)

				r.Get("/summary", h.sessionSummary)
				r.Get("/pipelines/{pipeline}/summary", h.pipelineSummary)
				r.Get("/skip-plan", h.skipPlan)

				r.Get("/export/components.csv", h.exportComponentsCSV)
				r.Get("/export/pipelines.csv", h.exportPipelinesCSV)
				r.Get("/export/state.yaml", h.exportStateYAML)

				r.Get("/audit", h.listAudit)
			})
		})

		r.Get("/supported-types", h.supportedTypes)
		r.Post("/supported-types/refresh", h.refreshSupportedTypes)
		r.Get("/skip-decision", h.skipDecision)
		r.Get("/connections", h.listConnections)
	})

	if uiHandler != nil {
		r.Route("/ui", func(r chi.Router) {
			ui.MountRoutes(r, uiHandler, middleware.BearerAuth(cfg.JWTSecret))
		})
	}

	return r
}
