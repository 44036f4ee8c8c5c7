package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter constructs the chi router with all middleware and routes.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware, outermost first.
	r.Use(s.requestIDMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Account endpoints. Register/login/refresh authenticate by
		// credential, not bearer token.
		r.Post("/auth/register", s.handleAuthRegister)
		r.Post("/auth/login", s.handleAuthLogin)
		r.Post("/auth/refresh", s.handleAuthRefresh)

		// Hardware endpoints. Devices identify themselves by ID and
		// activation key; they hold no user token.
		r.Post("/device/register", s.handleDeviceRegister)
		r.Put("/devices/{deviceID}/heartbeat", s.handleDeviceHeartbeat)

		// Everything below requires a valid access token.
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/auth/me", s.handleAuthMe)

			r.Post("/device/activate", s.handleDeviceActivate)
			r.Get("/devices", s.handleDeviceList)
			r.Get("/devices/{deviceID}", s.handleDeviceGet)
			r.Post("/devices/{deviceID}/trigger", s.handleDeviceTrigger)
		})
	})

	return r
}

// handleHealth returns the service health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}
