package dispatch

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// logSender is the development-mode sender: it logs instead of delivering,
// so local runs need no provider credentials.
type logSender struct {
	channel string
}

func NewLogSender(channel string) Sender {
	return &logSender{channel: channel}
}

func (s *logSender) Name() string { return "log-" + s.channel }

func (s *logSender) Send(ctx context.Context, recipient string, msg Message) (string, error) {
	slog.Info("notification sent (dev mode)",
		"channel", s.channel,
		"to", recipient,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return "dev-" + uuid.New().String(), nil
}
