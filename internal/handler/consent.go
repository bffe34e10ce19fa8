package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/goalpost-app/goalpost/internal/repository"
	"github.com/goalpost-app/goalpost/internal/service"
)

type ConsentHandler struct {
	consent *service.ConsentService
}

func NewConsentHandler(consent *service.ConsentService) *ConsentHandler {
	return &ConsentHandler{consent: consent}
}

type consentRequest struct {
	MemberID string `json:"member_id"`
	Accepted bool   `json:"accepted"`
}

// Respond records a support member's consent decision. Idempotent:
// repeating the same decision returns 200 without re-sending anything.
func (h *ConsentHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var req consentRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil || req.MemberID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err = h.consent.Respond(r.Context(), req.MemberID, req.Accepted)
	if err != nil {
		if errors.Is(err, repository.ErrSupportMemberNotFound) {
			http.Error(w, "Support member not found", http.StatusNotFound)
			return
		}
		slog.Error("failed to record consent response", "error", err, "member_id", req.MemberID)
		http.Error(w, "Failed to record response", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
