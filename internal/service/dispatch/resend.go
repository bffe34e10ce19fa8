package dispatch

import (
	"context"
	"net/mail"

	"github.com/resend/resend-go/v2"
)

type resendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(apiKey, from string) Sender {
	return &resendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (s *resendSender) Name() string { return "resend" }

func (s *resendSender) Send(ctx context.Context, recipient string, msg Message) (string, error) {
	// A malformed address can never succeed; classify before the API call.
	if _, err := mail.ParseAddress(recipient); err != nil {
		return "", Permanentf("invalid email address %q: %v", recipient, err)
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{recipient},
		Subject: msg.Subject,
		Text:    msg.Body,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", &TransientError{Err: err}
	}

	return sent.Id, nil
}
