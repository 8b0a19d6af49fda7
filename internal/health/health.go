package health

import (
	"context"
	"net/http"
	"time"

	"coursemate/internal/httputil"
	"coursemate/internal/metrics"

	"github.com/go-chi/chi/v5"
)

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

type Handler struct {
	checks  map[string]Checker
	metrics *metrics.Metrics
}

func NewHandler(m *metrics.Metrics) *Handler {
	return &Handler{
		checks:  make(map[string]Checker),
		metrics: m,
	}
}

// AddCheck registers a dependency probed by /ready.
func (h *Handler) AddCheck(name string, check Checker) {
	h.checks[name] = check
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.Health)
	router.Get("/ready", h.Ready)
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ready"}
	code := http.StatusOK
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}
	for name, check := range h.checks {
		start := time.Now()
		err := check(ctx)
		if h.metrics != nil {
			h.metrics.Dependencies.RecordCheck(ctx, name, time.Since(start), err)
		}
		if err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "unavailable"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	httputil.RespondWithJSON(w, code, resp)
}
