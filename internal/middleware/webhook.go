package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"
)

// WebhookAuth verifies the standard-webhooks signature on internal routes
// (the scheduler trigger and requeue). An empty secret disables
// verification, which config validation forbids in production.
func WebhookAuth(secret string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				slog.Warn("no run secret configured, skipping signature verification", "path", r.URL.Path)
				next(w, r)
				return
			}

			wh, err := standardwebhooks.NewWebhookRaw([]byte(secret))
			if err != nil {
				slog.Error("failed to create webhook verifier", "error", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			payload, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "Failed to read request body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(payload))

			err = wh.Verify(payload, r.Header)
			if err != nil {
				slog.Warn("invalid webhook signature", "path", r.URL.Path, "error", err)
				http.Error(w, "Invalid signature", http.StatusUnauthorized)
				return
			}

			next(w, r)
		}
	}
}
