package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goalpost-app/goalpost/internal/model"
	"github.com/goalpost-app/goalpost/internal/repository"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// Target is who a message goes to. MemberID is empty when the target is the
// goal owner (self outreach), in which case consent and contact counters do
// not apply.
type Target struct {
	MemberID      string
	Name          string
	Phone         string
	Email         string
	ChannelSet    string
	PhoneUnusable bool
	EmailUnusable bool
}

func TargetFromMember(m *model.SupportMember) Target {
	return Target{
		MemberID:      m.ID,
		Name:          m.Name,
		Phone:         m.Phone,
		Email:         m.Email,
		ChannelSet:    m.ChannelSet,
		PhoneUnusable: m.PhoneUnusable,
		EmailUnusable: m.EmailUnusable,
	}
}

func TargetFromContact(c *model.UserContact) Target {
	return Target{
		Phone:      c.Phone,
		Email:      c.Email,
		ChannelSet: c.ChannelSet,
	}
}

// Ref ties receipts to the escalation record or milestone event they belong
// to. Exactly one of the two is set.
type Ref struct {
	EscalationID *string
	MilestoneID  *string
}

func EscalationRef(id string) Ref { return Ref{EscalationID: &id} }
func MilestoneRef(id string) Ref  { return Ref{MilestoneID: &id} }

// Dispatcher delivers rendered messages with per-channel retry, the
// text-to-voice fallback rule, and receipt persistence. All contact-counter
// and channel-health side effects happen here and nowhere else.
type Dispatcher struct {
	senders  map[string]Sender
	receipts repository.ReceiptRepository
	members  repository.SupportMemberRepository
	timeout  time.Duration
	attempts int
}

func NewDispatcher(
	senders map[string]Sender,
	receipts repository.ReceiptRepository,
	members repository.SupportMemberRepository,
	timeout time.Duration,
	attempts int,
) *Dispatcher {
	if attempts < 1 {
		attempts = 1
	}
	return &Dispatcher{
		senders:  senders,
		receipts: receipts,
		members:  members,
		timeout:  timeout,
		attempts: attempts,
	}
}

// attemptPlan is the fallback table over the closed channel-set enum.
// Only text+voice has a fallback, and it applies on transient failure only.
func attemptPlan(channelSet string) (primary, fallback string, err error) {
	switch channelSet {
	case model.ChannelSetText:
		return model.ChannelText, "", nil
	case model.ChannelSetVoice:
		return model.ChannelVoice, "", nil
	case model.ChannelSetTextVoice:
		return model.ChannelText, model.ChannelVoice, nil
	case model.ChannelSetEmail:
		return model.ChannelEmail, "", nil
	}
	return "", "", fmt.Errorf("unknown channel set: %q", channelSet)
}

func (t Target) recipient(channel string) (string, bool) {
	switch channel {
	case model.ChannelText, model.ChannelVoice:
		return t.Phone, !t.PhoneUnusable
	case model.ChannelEmail:
		return t.Email, !t.EmailUnusable
	}
	return "", false
}

// Deliver renders the template and runs the target's attempt plan. Every
// attempt is persisted as a receipt under ref. Returns the receipts and
// whether any attempt succeeded.
func (d *Dispatcher) Deliver(ctx context.Context, ref Ref, target Target, templateID string, vars Vars) ([]*model.DeliveryReceipt, bool, error) {
	msg, err := Render(templateID, vars)
	if err != nil {
		return nil, false, err
	}

	primary, fallback, err := attemptPlan(target.ChannelSet)
	if err != nil {
		return nil, false, err
	}

	first := d.Send(ctx, primary, target, msg)
	receipts := []*model.DeliveryReceipt{first}

	// Fallback fires only when the primary failed transiently; a permanent
	// failure means the address is bad, not that the message should chase
	// the member onto another channel.
	if first.Result == model.DeliveryTransientFailure && fallback != "" {
		second := d.Send(ctx, fallback, target, msg)
		receipts = append(receipts, second)
	}

	delivered := false
	for _, receipt := range receipts {
		receipt.EscalationID = ref.EscalationID
		receipt.MilestoneID = ref.MilestoneID
		if err := d.record(receipt, target); err != nil {
			return receipts, delivered, err
		}
		if receipt.Result == model.DeliverySuccess {
			delivered = true
		}
	}

	return receipts, delivered, nil
}

// Send runs one channel attempt with the transient retry budget and returns
// an unpersisted receipt describing the outcome.
func (d *Dispatcher) Send(ctx context.Context, channel string, target Target, msg Message) *model.DeliveryReceipt {
	receipt := &model.DeliveryReceipt{
		ID:          uuid.New().String(),
		MemberID:    target.MemberID,
		Channel:     channel,
		AttemptedAt: time.Now(),
	}

	recipient, usable := target.recipient(channel)
	receipt.Recipient = recipient

	sender, ok := d.senders[channel]
	if !ok {
		receipt.Result = model.DeliveryPermanentFailure
		receipt.ErrorDetail = "no sender configured for channel " + channel
		return receipt
	}

	if !usable {
		receipt.Result = model.DeliveryPermanentFailure
		receipt.ErrorDetail = "channel previously marked unusable"
		return receipt
	}

	backoff := retry.WithMaxRetries(uint64(d.attempts-1), retry.NewExponential(500*time.Millisecond))

	var providerID string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		id, sendErr := sender.Send(attemptCtx, recipient, msg)
		if sendErr != nil {
			if IsPermanent(sendErr) {
				return sendErr
			}
			return retry.RetryableError(sendErr)
		}
		providerID = id
		return nil
	})

	if err != nil {
		receipt.ErrorDetail = err.Error()
		if IsPermanent(err) {
			receipt.Result = model.DeliveryPermanentFailure
		} else {
			receipt.Result = model.DeliveryTransientFailure
		}
		slog.Warn("dispatch attempt failed",
			"channel", channel,
			"provider", sender.Name(),
			"result", receipt.Result,
			"member_id", target.MemberID,
		)
		return receipt
	}

	receipt.Result = model.DeliverySuccess
	receipt.ProviderID = providerID
	return receipt
}

// record persists the receipt and applies the centralized side effects:
// successful contact bumps the member's counters, a permanent failure marks
// the channel unusable for future runs.
func (d *Dispatcher) record(receipt *model.DeliveryReceipt, target Target) error {
	if err := d.receipts.Create(receipt); err != nil {
		return fmt.Errorf("failed to persist receipt: %w", err)
	}

	if target.MemberID == "" {
		return nil
	}

	switch receipt.Result {
	case model.DeliverySuccess:
		if err := d.members.RecordContact(target.MemberID, receipt.AttemptedAt); err != nil {
			slog.Error("failed to record member contact", "error", err, "member_id", target.MemberID)
		}
	case model.DeliveryPermanentFailure:
		if err := d.members.MarkChannelUnusable(target.MemberID, receipt.Channel); err != nil {
			slog.Error("failed to mark channel unusable", "error", err, "member_id", target.MemberID)
		}
	}

	return nil
}
