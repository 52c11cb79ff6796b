/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/checkins       Check-in capture
  /api/attendance/*   Day ledgers and administrative deletes
  /api/identities/*   Directory management
  /api/stats/*        Rollups and trend series
  /api/warnings/*     Threshold warnings
  /api/leave/*        Leave workflow
  /api/settings       Schedule configuration
  /metrics            Prometheus metrics
  /healthz            Liveness probe

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Check-in capture
		r.Post("/checkins", h.RecordCheckin)

		// Attendance ledgers
		r.Route("/attendance", func(r chi.Router) {
			r.Get("/today", h.GetToday)
			r.Delete("/today", h.DeleteToday)
			r.Delete("/today/{id}", h.DeleteRecord)
			r.Get("/{date}", h.GetDay)
		})

		// Identity directory
		r.Route("/identities", func(r chi.Router) {
			r.Get("/", h.ListIdentities)
			r.Post("/", h.RegisterIdentity)
			r.Get("/{id}", h.GetIdentity)
			r.Put("/{id}", h.UpdateIdentity)
			r.Post("/{id}/reset", h.ResetCredential)
			r.Get("/{id}/stats", h.GetIdentityStats)
			r.Get("/{id}/leave", h.ListIdentityLeave)
		})

		// Statistics
		r.Route("/stats", func(r chi.Router) {
			r.Get("/rollup", h.GetRollup)
			r.Get("/trend", h.GetTrend)
		})
		r.Get("/search", h.Search)

		// Warnings and reminders
		r.Route("/warnings", func(r chi.Router) {
			r.Get("/late", h.GetLateWarnings)
			r.Get("/low-attendance", h.GetLowAttendanceWarnings)
			r.Get("/missing", h.GetMissingToday)
		})
		r.Get("/reminders/leave", h.GetLeaveReminders)

		// Leave workflow
		r.Route("/leave", func(r chi.Router) {
			r.Post("/", h.SubmitLeave)
			r.Get("/{id}", h.GetLeave)
			r.Post("/{id}/approve", h.ApproveLeave)
			r.Post("/{id}/reject", h.RejectLeave)
		})

		// Settings
		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)
	})

	// Operational endpoints
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())
	}
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
