// Package api exposes the sync service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"villagefeed/logging"
	"villagefeed/models"
	"villagefeed/syncer"
)

// Service is the part of syncer.Service the handlers use.
type Service interface {
	Run(ctx context.Context, force bool, trigger models.Trigger) (*models.SyncOutcome, error)
	Properties(ctx context.Context, f syncer.Filters) (*syncer.PropertiesResult, error)
	RecentRuns(ctx context.Context, limit int) ([]models.SyncRun, error)
}

type Handler struct {
	svc        Service
	locations  []string
	cronSecret string
	log        *logging.Logger
}

func NewHandler(svc Service, locations []models.Location, cronSecret string, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.NewLogger(string(models.LogLevelInfo))
	}
	slugs := make([]string, 0, len(locations))
	for _, loc := range locations {
		slugs = append(slugs, loc.Slug)
	}
	return &Handler{svc: svc, locations: slugs, cronSecret: cronSecret, log: log}
}

// NewRouter mounts the handlers. metrics may be nil.
func NewRouter(h *Handler, metrics http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.log))

	r.Get("/healthz", h.HandleHealth)
	r.Get("/api/properties", h.HandleProperties)
	r.Get("/api/properties/sync", h.HandleManualSync)
	r.Post("/api/properties/sync", h.HandleAutomatedSync)
	r.Get("/api/properties/runs", h.HandleRuns)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	return r
}

func requestLogger(log *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Logf(models.LogLevelDebug, "http", "%s %s %d %s",
				r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Millisecond))
		})
	}
}

type errorResponse struct {
	Success   bool     `json:"success"`
	Error     string   `json:"error"`
	Message   string   `json:"message,omitempty"`
	Retryable bool     `json:"retryable,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Logf(models.LogLevelError, "http", "Failed to encode response: %v", err)
	}
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) HandleProperties(w http.ResponseWriter, r *http.Request) {
	filters := syncer.ParseFilters(r.URL.Query(), h.locations)

	res, err := h.svc.Properties(r.Context(), filters)
	if errors.Is(err, syncer.ErrNoData) {
		h.writeJSON(w, http.StatusNotFound, errorResponse{
			Error:   "No properties data available",
			Message: "Properties extraction failed",
		})
		return
	}
	if err != nil {
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	if res.Unavailable() {
		h.writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error:     "Listings are temporarily unavailable",
			Retryable: true,
			Errors:    res.Errors,
		})
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleManualSync(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"
	outcome, err := h.svc.Run(r.Context(), force, models.TriggerManual)
	h.writeOutcome(w, outcome, err)
}

// HandleAutomatedSync is the cron entry point. When a cron secret is
// configured the caller must present it as a bearer token.
func (h *Handler) HandleAutomatedSync(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret != "" && r.Header.Get("Authorization") != "Bearer "+h.cronSecret {
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
		return
	}
	outcome, err := h.svc.Run(r.Context(), false, models.TriggerAutomated)
	h.writeOutcome(w, outcome, err)
}

type outcomeResponse struct {
	*models.SyncOutcome
	Retryable bool `json:"retryable,omitempty"`
}

func (h *Handler) writeOutcome(w http.ResponseWriter, outcome *models.SyncOutcome, err error) {
	if err == nil {
		h.writeJSON(w, http.StatusOK, outcome)
		return
	}
	if outcome == nil {
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	switch {
	case errors.Is(err, syncer.ErrNoListings):
		h.writeJSON(w, http.StatusServiceUnavailable, outcomeResponse{SyncOutcome: outcome, Retryable: true})
	case errors.Is(err, syncer.ErrStoreFailed):
		outcome.Error = "Failed to store properties"
		h.writeJSON(w, http.StatusInternalServerError, outcomeResponse{SyncOutcome: outcome})
	default:
		h.writeJSON(w, http.StatusInternalServerError, outcomeResponse{SyncOutcome: outcome})
	}
}

func (h *Handler) HandleRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	runs, err := h.svc.RecentRuns(r.Context(), limit)
	if err != nil {
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if runs == nil {
		runs = []models.SyncRun{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "runs": runs})
}
