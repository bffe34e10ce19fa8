package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

// twilioClient is shared by the text and voice senders.
type twilioClient struct {
	rest *twilio.RestClient
	from string
}

func newTwilioClient(accountSID, authToken, from string, timeout time.Duration) *twilioClient {
	c := &twclient.Client{
		Credentials: twclient.NewCredentials(accountSID, authToken),
	}
	c.SetTimeout(timeout)

	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
		Client:   c,
	})

	return &twilioClient{rest: rest, from: from}
}

// classifyTwilioError maps Twilio REST failures onto the delivery taxonomy:
// rate limits and provider 5xx are transient, any other API rejection
// (invalid number, unreachable destination, blocked recipient) is permanent.
// Non-REST errors are network faults and stay transient.
func classifyTwilioError(err error) error {
	var restErr *twclient.TwilioRestError
	if errors.As(err, &restErr) {
		if restErr.Status == 429 || restErr.Status >= 500 {
			return &TransientError{Err: err}
		}
		return &PermanentError{Err: err}
	}
	return &TransientError{Err: err}
}

type twilioTextSender struct {
	client *twilioClient
}

func newTwilioTextSender(client *twilioClient) Sender {
	return &twilioTextSender{client: client}
}

func (s *twilioTextSender) Name() string { return "twilio-sms" }

func (s *twilioTextSender) Send(ctx context.Context, recipient string, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &TransientError{Err: err}
	}
	if recipient == "" {
		return "", Permanentf("member has no phone number")
	}

	params := &api.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(s.client.from)
	params.SetBody(msg.Body)

	resp, err := s.client.rest.Api.CreateMessage(params)
	if err != nil {
		return "", classifyTwilioError(err)
	}
	if resp.Sid == nil {
		return "", Transientf("twilio returned message without sid")
	}

	return *resp.Sid, nil
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func xmlEscape(s string) string {
	return xmlEscaper.Replace(s)
}

type twilioVoiceSender struct {
	client      *twilioClient
	callbackURL string
}

func newTwilioVoiceSender(client *twilioClient, callbackURL string) Sender {
	return &twilioVoiceSender{client: client, callbackURL: callbackURL}
}

func (s *twilioVoiceSender) Name() string { return "twilio-voice" }

func (s *twilioVoiceSender) Send(ctx context.Context, recipient string, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &TransientError{Err: err}
	}
	if recipient == "" {
		return "", Permanentf("member has no phone number")
	}

	params := &api.CreateCallParams{}
	params.SetTo(recipient)
	params.SetFrom(s.client.from)
	if s.callbackURL != "" {
		params.SetUrl(s.callbackURL)
	} else {
		params.SetTwiml(fmt.Sprintf("<Response><Say>%s</Say></Response>", xmlEscape(msg.Body)))
	}

	resp, err := s.client.rest.Api.CreateCall(params)
	if err != nil {
		return "", classifyTwilioError(err)
	}
	if resp.Sid == nil {
		return "", Transientf("twilio returned call without sid")
	}

	return *resp.Sid, nil
}
