package results

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"

	"coursemate/internal/httputil"

	"github.com/go-chi/chi/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/results/query", h.QueryResults)
	router.Post("/results/export", h.ExportResults)
}

func (h *Handler) QueryResults(w http.ResponseWriter, r *http.Request) {
	var q Query
	if err := httputil.DecodeJSON(r, &q); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request")
		return
	}

	h.logger.InfoContext(r.Context(), "looking up results", "session", q.Session, "semester", q.Semester)
	report, err := h.service.Lookup(r.Context(), q)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, report)
}

func (h *Handler) ExportResults(w http.ResponseWriter, r *http.Request) {
	var q Query
	if err := httputil.DecodeJSON(r, &q); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request")
		return
	}

	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), q, &buf); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+ExportFilename(q))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidQuery):
		httputil.RespondWithError(w, http.StatusBadRequest, ErrInvalidQuery.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.logger.InfoContext(r.Context(), "results lookup cancelled")
		httputil.RespondWithError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		h.logger.ErrorContext(r.Context(), "results request failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
