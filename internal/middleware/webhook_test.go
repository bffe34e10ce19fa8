package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookAuthVerifiesSignature(t *testing.T) {
	const secret = "run-secret"
	payload := []byte(`{}`)

	handler := WebhookAuth(secret)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	wh, err := standardwebhooks.NewWebhookRaw([]byte(secret))
	require.NoError(t, err)

	now := time.Now()
	signature, err := wh.Sign("msg-1", now, payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/internal/run", strings.NewReader(string(payload)))
	req.Header.Set("webhook-id", "msg-1")
	req.Header.Set("webhook-timestamp", strconv.FormatInt(now.Unix(), 10))
	req.Header.Set("webhook-signature", signature)

	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookAuthRejectsUnsignedRequest(t *testing.T) {
	handler := WebhookAuth("run-secret")(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodPost, "/internal/run", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookAuthEmptySecretSkipsVerification(t *testing.T) {
	handler := WebhookAuth("")(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/internal/run", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
