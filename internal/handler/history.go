package handler

import (
	"log/slog"
	"net/http"

	"github.com/goalpost-app/goalpost/internal/service"
)

// HistoryHandler exposes escalation and milestone history read-only for
// external dashboards.
type HistoryHandler struct {
	escalation *service.EscalationService
	milestone  *service.MilestoneService
}

func NewHistoryHandler(escalation *service.EscalationService, milestone *service.MilestoneService) *HistoryHandler {
	return &HistoryHandler{
		escalation: escalation,
		milestone:  milestone,
	}
}

func (h *HistoryHandler) Escalations(w http.ResponseWriter, r *http.Request) {
	goalID := r.PathValue("id")

	records, err := h.escalation.History(goalID)
	if err != nil {
		slog.Error("failed to load escalation history", "error", err, "goal_id", goalID)
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

func (h *HistoryHandler) Milestones(w http.ResponseWriter, r *http.Request) {
	goalID := r.PathValue("id")

	events, err := h.milestone.History(goalID)
	if err != nil {
		slog.Error("failed to load milestone history", "error", err, "goal_id", goalID)
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, events)
}
