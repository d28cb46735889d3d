package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/services/ingest"
)

// StatusHandler serves the current ingestion job status plus version and
// health endpoints.
type StatusHandler struct {
	orchestrator *ingest.Orchestrator
	logger       arbor.ILogger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(orchestrator *ingest.Orchestrator, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// CurrentJobHandler handles GET /api/jobs/current. A dismissed or absent
// job answers 204 so clients can clear their indicator.
func (h *StatusHandler) CurrentJobHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	job, ok := h.orchestrator.Status()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// VersionHandler handles GET /api/version.
func (h *StatusHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetFullVersion(),
	})
}

// HealthHandler handles GET /api/health.
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NotFoundHandler answers unmatched /api/ routes.
func (h *StatusHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, "unknown API route")
}
