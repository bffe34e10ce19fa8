package dispatch

import (
	"log/slog"

	"github.com/goalpost-app/goalpost/internal/config"
	"github.com/goalpost-app/goalpost/internal/model"
)

// NewSenders builds the channel sender table from configuration, chosen
// once at startup. Development, or missing provider credentials in
// development, selects log-mode senders; production credentials are
// enforced by config validation.
func NewSenders(cfg *config.Config) map[string]Sender {
	senders := map[string]Sender{}

	if cfg.IsDevelopment() || cfg.TwilioAccountSID == "" {
		senders[model.ChannelText] = NewLogSender(model.ChannelText)
		senders[model.ChannelVoice] = NewLogSender(model.ChannelVoice)
		slog.Info("dispatch using log mode for text and voice")
	} else {
		client := newTwilioClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, cfg.DispatchTimeout)
		senders[model.ChannelText] = newTwilioTextSender(client)
		senders[model.ChannelVoice] = newTwilioVoiceSender(client, cfg.VoiceCallbackURL)
		slog.Info("dispatch using twilio for text and voice")
	}

	if cfg.IsDevelopment() || cfg.ResendAPIKey == "" {
		senders[model.ChannelEmail] = NewLogSender(model.ChannelEmail)
		slog.Info("dispatch using log mode for email")
	} else {
		senders[model.ChannelEmail] = NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom)
		slog.Info("dispatch using resend for email")
	}

	return senders
}
