package notification

import (
	"errors"
	"log/slog"
	"net/http"

	"coursemate/internal/httputil"
	"coursemate/internal/metrics"

	"github.com/go-chi/chi/v5"
)

type ListResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unreadCount"`
}

type Handler struct {
	tracker *Tracker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewHandler(tracker *Tracker, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		tracker: tracker,
		logger:  logger,
		metrics: m,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/notifications", h.List)
	router.Post("/notifications/read-all", h.MarkAllRead)
	router.Post("/notifications/{id}/read", h.MarkRead)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	httputil.RespondWithJSON(w, http.StatusOK, h.snapshot())
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	changed, err := h.tracker.MarkRead(id)
	if err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "notification not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to mark notification read", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if changed {
		h.logger.InfoContext(r.Context(), "notification marked read", "notification_id", id)
		h.metrics.RecordNotificationsRead(r.Context(), 1)
	}

	httputil.RespondWithJSON(w, http.StatusOK, h.snapshot())
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	changed := h.tracker.MarkAllRead()
	h.metrics.RecordNotificationsRead(r.Context(), changed)

	httputil.RespondWithJSON(w, http.StatusOK, h.snapshot())
}

func (h *Handler) snapshot() ListResponse {
	return ListResponse{
		Notifications: h.tracker.List(),
		UnreadCount:   h.tracker.UnreadCount(),
	}
}
