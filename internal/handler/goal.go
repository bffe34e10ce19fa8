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

type GoalHandler struct {
	goals    *service.GoalService
	location *time.Location
}

func NewGoalHandler(goals *service.GoalService, location *time.Location) *GoalHandler {
	return &GoalHandler{
		goals:    goals,
		location: location,
	}
}

type createGoalRequest struct {
	UserID        string `json:"user_id"`
	Title         string `json:"title"`
	FrequencyRule string `json:"frequency_rule"`
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createGoalRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil || req.UserID == "" || req.Title == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.FrequencyRule == "" {
		req.FrequencyRule = "daily"
	}

	goal, err := h.goals.Create(req.UserID, req.Title, req.FrequencyRule)
	if err != nil {
		slog.Error("failed to create goal", "error", err, "user_id", req.UserID)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

type updateGoalRequest struct {
	UserID        string `json:"user_id"`
	Status        string `json:"status"`
	FrequencyRule string `json:"frequency_rule"`
}

// Update changes status or frequency. An edit closes out any still-pending
// escalation record for the current date.
func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	goalID := r.PathValue("id")

	var req updateGoalRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil || req.UserID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err = h.goals.Update(req.UserID, goalID, req.Status, req.FrequencyRule)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrGoalNotFound):
			http.Error(w, "Goal not found", http.StatusNotFound)
		case errors.Is(err, service.ErrGoalNotEditable):
			http.Error(w, "Completed goals cannot be edited", http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type logCompletionRequest struct {
	UserID string `json:"user_id"`
	Date   string `json:"date"`
	Note   string `json:"note"`
}

// LogCompletion appends a completion entry. Omitting the date logs today;
// past dates are accepted as late entries.
func (h *GoalHandler) LogCompletion(w http.ResponseWriter, r *http.Request) {
	goalID := r.PathValue("id")

	var req logCompletionRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil || req.UserID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	date := time.Now().In(h.location)
	if req.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.Date, h.location)
		if err != nil {
			http.Error(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		date = parsed
	}

	entry, err := h.goals.LogCompletion(req.UserID, goalID, date, req.Note)
	if err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			http.Error(w, "Goal not found", http.StatusNotFound)
			return
		}
		slog.Error("failed to log completion", "error", err, "goal_id", goalID)
		http.Error(w, "Failed to log completion", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}
