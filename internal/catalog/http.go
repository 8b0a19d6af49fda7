package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"coursemate/internal/httputil"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	provider Provider
	logger   *slog.Logger
}

func NewHandler(provider Provider, logger *slog.Logger) *Handler {
	return &Handler{
		provider: provider,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/courses", h.ListCourses)
}

// ListCourses returns the whole catalog, or one level when ?level= is set.
func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("level")
	if raw == "" {
		courses, err := h.provider.Courses(r.Context())
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}
		httputil.RespondWithJSON(w, http.StatusOK, courses)
		return
	}

	level, err := strconv.Atoi(raw)
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid level")
		return
	}

	courses, err := h.provider.CoursesByLevel(r.Context(), level)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, courses)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrInvalidLevel) {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.ErrorContext(r.Context(), "failed to load courses", "error", err)
	httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
}
