package routes

import (
	"net/http"

	"github.com/goalpost-app/goalpost/internal/app"
	"github.com/goalpost-app/goalpost/internal/handler"
	"github.com/goalpost-app/goalpost/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler()
	run := handler.NewRunHandler(app.Orchestrator, app.EscalationService, app.Location)
	consent := handler.NewConsentHandler(app.ConsentService)
	history := handler.NewHistoryHandler(app.EscalationService, app.MilestoneService)
	goal := handler.NewGoalHandler(app.GoalService, app.Location)

	mux := http.NewServeMux()

	// Liveness
	mux.HandleFunc("GET /health", health.Health)

	// Consent responses land here from links in outreach messages
	// (rate limited per IP).
	rateLimiter := middleware.RateLimitConsent()
	mux.HandleFunc("POST /support/consent", rateLimiter(consent.Respond))

	// Goals and history
	mux.HandleFunc("POST /api/goals", goal.Create)
	mux.HandleFunc("PATCH /api/goals/{id}", goal.Update)
	mux.HandleFunc("POST /api/goals/{id}/log", goal.LogCompletion)
	mux.HandleFunc("GET /api/goals/{id}/escalations", history.Escalations)
	mux.HandleFunc("GET /api/goals/{id}/milestones", history.Milestones)

	// Internal: scheduler trigger and operator requeue, signed with the
	// shared run secret.
	webhookAuth := middleware.WebhookAuth(app.Cfg.RunSecret)
	mux.HandleFunc("POST /internal/run", webhookAuth(run.Trigger))
	mux.HandleFunc("POST /internal/escalations/{id}/requeue", webhookAuth(run.Requeue))

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.RequestLogging,
	)

	return handler
}
