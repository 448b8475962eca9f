// Package server is the storefront-facing HTTP surface. Screens talk JSON to
// it; it runs the local booking gate and forwards to the backend.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"homebook/internal/backend"
	"homebook/internal/clock"
	"homebook/internal/draft"
	"homebook/internal/notifications"
)

// BackendAPI is the slice of the backend client the server needs.
type BackendAPI interface {
	ListServices(ctx context.Context) ([]backend.Service, error)
	ListWorkItems(ctx context.Context, serviceID int64) ([]backend.WorkItem, error)
	ListBookings(ctx context.Context, token string) ([]backend.Booking, error)
	CreateBooking(ctx context.Context, token string, req backend.BookingRequest) (*backend.Confirmation, error)
	RescheduleBooking(ctx context.Context, token string, bookingID int64, req backend.BookingRequest) (*backend.Confirmation, error)
	CancelBooking(ctx context.Context, token string, bookingID int64) error
	HealthCheck(ctx context.Context) error
}

// Server wires handlers to the backend client and the local stores.
type Server struct {
	api      BackendAPI
	clk      clock.Clock
	sessions *draft.SessionStore
	viewed   *notifications.Store
	logger   zerolog.Logger
}

// New builds the server.
func New(api BackendAPI, clk clock.Clock, sessionTimeout time.Duration, viewed *notifications.Store, logger zerolog.Logger) *Server {
	return &Server{
		api:      api,
		clk:      clk,
		sessions: draft.NewSessionStore(sessionTimeout),
		viewed:   viewed,
		logger:   logger,
	}
}

// Router returns the chi router with all storefront routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/services", s.handleListServices)
		r.Get("/services/{serviceID}/work-items", s.handleListWorkItems)
		r.Get("/slots", s.handleSlots)

		r.Get("/bookings", s.handleListBookings)
		r.Get("/bookings/export", s.handleExportBookings)
		r.Delete("/bookings/{bookingID}", s.handleCancelBooking)

		r.Post("/drafts", s.handleCreateDraft)
		r.Patch("/drafts/{draftID}", s.handleUpdateDraft)
		r.Post("/drafts/{draftID}/submit", s.handleSubmitDraft)
		r.Delete("/drafts/{draftID}", s.handleDiscardDraft)

		r.Get("/notifications/viewed", s.handleViewedList)
		r.Post("/notifications/viewed", s.handleMarkViewed)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.api.HealthCheck(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "backend unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// bearerToken extracts the storefront session's credential for passthrough.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
