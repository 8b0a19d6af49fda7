package portal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"coursemate/internal/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	portal   *Portal
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(portal *Portal, logger *slog.Logger) *Handler {
	return &Handler{
		portal:   portal,
		validate: validator.New(),
		logger:   logger,
	}
}

// RegisterPublicRoutes mounts the routes reachable without a login.
func (h *Handler) RegisterPublicRoutes(router chi.Router) {
	router.Get("/portal", h.GetState)
	router.Post("/session/login", h.Login)
	router.Post("/session/logout", h.Logout)
}

// RegisterRoutes mounts the routes behind RequireLogin.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/portal/navigate", h.Navigate)
	router.Get("/dashboard", h.GetDashboard)
	router.Get("/timetable/download", h.DownloadTimetable)
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	state, err := h.portal.State(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, state)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, ErrEmptyCredentials.Error())
		return
	}

	state, err := h.portal.Login(r.Context(), req.JAMBNumber, req.Password)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, state)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	state, err := h.portal.Logout(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, state)
}

func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil || h.validate.Struct(&req) != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "view is required")
		return
	}

	state, err := h.portal.Navigate(r.Context(), req.View)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, state)
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.portal.Dashboard(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, dashboard)
}

// DownloadTimetable only records the request; timetables are not published yet.
func (h *Handler) DownloadTimetable(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "timetable download requested")
	httputil.RespondWithJSON(w, http.StatusAccepted, map[string]string{
		"status":  "coming_soon",
		"message": "timetable downloads are coming soon",
	})
}

// RequireLogin rejects requests while the session flag is unset.
func (h *Handler) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loggedIn, err := h.portal.LoggedIn(r.Context())
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}
		if !loggedIn {
			httputil.RespondWithError(w, http.StatusUnauthorized, ErrNotLoggedIn.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrEmptyCredentials), errors.Is(err, ErrUnknownView):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotLoggedIn):
		httputil.RespondWithError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrSplashActive), errors.Is(err, ErrInvalidTransition):
		httputil.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		httputil.RespondWithError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		h.logger.ErrorContext(r.Context(), "portal request failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
