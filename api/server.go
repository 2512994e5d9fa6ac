/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests from the editor frontend

ROUTE GROUPS:
  /api/calendars/*      Calendars, categories, events, import/export
  /api/replications/*   Replication preview, apply and history
  /api/feeds/*          Holiday feed sync
  /api/scenarios/*      Demo scenarios
  /health               Liveness

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultAllowedOrigins is used when no origins are configured.
var DefaultAllowedOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/calendars", func(r chi.Router) {
			r.Get("/", h.ListCalendars)
			r.Post("/", h.CreateCalendar)
			r.Post("/import", h.ImportCalendar)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetCalendar)
				r.Delete("/", h.DeleteCalendar)
				r.Get("/export.json", h.ExportJSON)
				r.Get("/export.ics", h.ExportICS)
				r.Post("/import.ics", h.ImportICS)

				r.Get("/categories", h.ListCategories)
				r.Post("/categories", h.CreateCategory)
				r.Delete("/categories/{categoryID}", h.DeleteCategory)

				r.Get("/events", h.ListEvents)
				r.Post("/events", h.CreateEvent)
				r.Put("/events/{eventID}", h.UpdateEvent)
				r.Delete("/events/{eventID}", h.DeleteEvent)
			})
		})

		r.Route("/replications", func(r chi.Router) {
			r.Post("/", h.ApplyReplication)
			r.Post("/preview", h.PreviewReplication)
			r.Get("/runs", h.ListReplicationRuns)
		})

		r.Route("/feeds", func(r chi.Router) {
			r.Post("/sync", h.SyncFeeds)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
