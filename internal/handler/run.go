package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/goalpost-app/goalpost/internal/repository"
	"github.com/goalpost-app/goalpost/internal/service"
)

// RunHandler is the scheduler-facing surface: trigger a daily run, requeue
// a failed escalation. Partial failures never produce a non-200 response;
// they are counted in the report body.
type RunHandler struct {
	orchestrator *service.Orchestrator
	escalation   *service.EscalationService
	location     *time.Location
}

func NewRunHandler(orchestrator *service.Orchestrator, escalation *service.EscalationService, location *time.Location) *RunHandler {
	return &RunHandler{
		orchestrator: orchestrator,
		escalation:   escalation,
		location:     location,
	}
}

func (h *RunHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now().In(h.location)

	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", dateStr, h.location)
		if err != nil {
			http.Error(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		asOf = parsed
	}

	report, err := h.orchestrator.RunDaily(r.Context(), asOf)
	if err != nil {
		slog.Error("daily run failed to start", "error", err)
		http.Error(w, "Failed to run", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (h *RunHandler) Requeue(w http.ResponseWriter, r *http.Request) {
	recordID := r.PathValue("id")

	result, err := h.escalation.Requeue(r.Context(), recordID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEscalationNotFound):
			http.Error(w, "Escalation not found", http.StatusNotFound)
		case errors.Is(err, service.ErrNotRequeueable):
			http.Error(w, "Only failed escalations can be re-queued", http.StatusConflict)
		default:
			slog.Error("requeue failed", "error", err, "record_id", recordID)
			// The dispatch failed again; the result still describes it.
			if result != nil {
				writeJSON(w, http.StatusOK, result)
				return
			}
			http.Error(w, "Failed to requeue", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
