// Package server assembles the service's HTTP router.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"membershipd/internal/auth"
	"membershipd/internal/httpx"
	"membershipd/internal/membership"
)

// HealthFunc reports whether the service's dependencies are reachable.
type HealthFunc func(ctx context.Context) error

// NewRouter mounts the membership resource at /membership and /api/membership.
func NewRouter(logger *log.Logger, verifier *auth.Verifier, h *membership.Handler, health HealthFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(
		httpx.RequestID,
		middleware.RealIP,
		httpx.AccessLog(logger),
		httpx.Recoverer,
		auth.Middleware(verifier),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteMessage(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteMessage(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := health(ctx); err != nil {
			log.FromContext(r.Context()).Warn("health check failed", "err", err)
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Mount("/membership", h.Routes())
	r.Mount("/api/membership", h.Routes())
	return r
}
