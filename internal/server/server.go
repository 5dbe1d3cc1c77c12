package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"notification_feed/internal/db"
	"notification_feed/internal/logger"
	"notification_feed/internal/metrics"
	"notification_feed/internal/models"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// Store is the persistence the HTTP handlers need.
type Store interface {
	ListNotifications(ctx context.Context, beforeID int64, limit int) ([]models.Notification, error)
	DeleteNotification(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	store   Store
	metrics *metrics.Metrics
	log     *logger.Entry
}

// NewServer creates a Server backed by store. m may be nil.
func NewServer(store Store, m *metrics.Metrics) *Server {
	return &Server{store: store, metrics: m, log: logger.Component("server")}
}

// Routes builds the router with request id, logging and metrics middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(MetricsMiddleware(s.metrics))

	r.Get("/health", s.HealthCheck)
	r.Get("/notification", s.ListNotifications)
	r.Delete("/notification/{id}", s.DeleteNotification)
	return r
}

// HealthCheck answers 200 OK when the store is reachable, 503 otherwise.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		http.Error(w, "DB unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("OK"))
}

// ListNotifications serves one page of notifications, newest first.
// Query: cursor (opaque, optional), size (1..50, default 10).
func (s *Server) ListNotifications(w http.ResponseWriter, r *http.Request) {
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	var beforeID int64
	if token := r.URL.Query().Get("cursor"); token != "" {
		beforeID, err = decodeCursor(token)
		if err != nil {
			http.Error(w, "invalid cursor", http.StatusBadRequest)
			return
		}
	}

	// One extra row tells whether another page exists.
	items, err := s.store.ListNotifications(r.Context(), beforeID, size+1)
	if err != nil {
		s.log.WithError(err).Error("List notifications failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	page := models.Page{Notifications: items}
	if len(items) > size {
		page.Notifications = items[:size]
		next, err := encodeCursor(items[size-1].ID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		page.NextCursor = &next
	}

	writeJSON(w, http.StatusOK, page)
}

// DeleteNotification removes the notification named in the path.
func (s *Server) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		http.Error(w, "invalid notification id", http.StatusBadRequest)
		return
	}

	err = s.store.DeleteNotification(r.Context(), id)
	switch {
	case errors.Is(err, db.ErrNotFound):
		http.Error(w, "notification not found", http.StatusNotFound)
		return
	case err != nil:
		s.log.WithError(err).WithField("id", id).Error("Delete notification failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Warn("Failed to encode response")
	}
}
