package registration

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"coursemate/internal/catalog"
	"coursemate/internal/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  *Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/registration", func(r chi.Router) {
		r.Get("/", h.GetRegistration)
		r.Put("/level", h.SelectLevel)
		r.Post("/courses/{id}/toggle", h.ToggleCourse)
		r.Post("/submit", h.Submit)
		r.Post("/reset", h.Reset)
	})
}

func (h *Handler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, summary)
}

func (h *Handler) SelectLevel(w http.ResponseWriter, r *http.Request) {
	var req SelectLevelRequest
	if err := httputil.DecodeJSON(r, &req); err != nil || h.validate.Struct(&req) != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "level must be one of 100, 200, 300, 400")
		return
	}

	h.logger.InfoContext(r.Context(), "selecting registration level", "level", req.Level)
	summary, err := h.service.SelectLevel(r.Context(), req.Level)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, summary)
}

func (h *Handler) ToggleCourse(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid course ID")
		return
	}

	summary, err := h.service.Toggle(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, summary)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Submit(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusAccepted, summary)
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Reset(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidLevel):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrCourseNotAtLevel):
		httputil.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidCredits):
		httputil.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrAlreadySubmitted), errors.Is(err, ErrRegistrationFixed):
		httputil.RespondWithError(w, http.StatusConflict, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "registration request failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
