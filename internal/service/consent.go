package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goalpost-app/goalpost/internal/model"
	"github.com/goalpost-app/goalpost/internal/repository"
	"github.com/goalpost-app/goalpost/internal/service/dispatch"
)

// ConsentService is the gate in front of every support-member dispatch.
// The engine reads consent; only the response endpoint mutates it.
type ConsentService struct {
	members    repository.SupportMemberRepository
	contacts   repository.UserContactRepository
	dispatcher *dispatch.Dispatcher
	appName    string
}

func NewConsentService(
	members repository.SupportMemberRepository,
	contacts repository.UserContactRepository,
	dispatcher *dispatch.Dispatcher,
	appName string,
) *ConsentService {
	return &ConsentService{
		members:    members,
		contacts:   contacts,
		dispatcher: dispatcher,
		appName:    appName,
	}
}

// IsEligible reports whether a member may receive dispatches: consent
// granted and membership active. Pending counts the same as declined here.
func (s *ConsentService) IsEligible(member *model.SupportMember) bool {
	return member.ConsentState == model.ConsentGranted && member.Active
}

// EligibleMembers returns the user's support members that pass the consent
// check, alongside those that were filtered out.
func (s *ConsentService) EligibleMembers(userID string) (eligible, skipped []*model.SupportMember, err error) {
	members, err := s.members.ListFor(userID)
	if err != nil {
		return nil, nil, err
	}

	for _, m := range members {
		if s.IsEligible(m) {
			eligible = append(eligible, m)
		} else {
			skipped = append(skipped, m)
		}
	}

	return eligible, skipped, nil
}

// Respond applies a consent decision. Idempotent: a repeated identical
// decision changes nothing and sends nothing. Accepting sends a one-time
// confirmation; declining deactivates the member for all future dispatch
// until consent is re-requested through an external flow.
func (s *ConsentService) Respond(ctx context.Context, memberID string, accepted bool) error {
	member, err := s.members.ByID(memberID)
	if err != nil {
		return err
	}

	if accepted {
		if member.ConsentState == model.ConsentGranted && member.Active {
			return nil
		}

		err = s.members.UpdateConsent(memberID, model.ConsentGranted, true)
		if err != nil {
			return fmt.Errorf("failed to grant consent: %w", err)
		}

		s.sendConfirmation(ctx, member)
		slog.Info("consent granted", "member_id", memberID)
		return nil
	}

	if member.ConsentState == model.ConsentDeclined && !member.Active {
		return nil
	}

	err = s.members.UpdateConsent(memberID, model.ConsentDeclined, false)
	if err != nil {
		return fmt.Errorf("failed to decline consent: %w", err)
	}

	slog.Info("consent declined", "member_id", memberID)
	return nil
}

func (s *ConsentService) sendConfirmation(ctx context.Context, member *model.SupportMember) {
	userName := "your friend"
	contact, err := s.contacts.ByUser(member.UserID)
	if err == nil && contact.Name != "" {
		userName = contact.Name
	}

	vars := dispatch.Vars{
		UserName:   userName,
		MemberName: member.Name,
		AppName:    s.appName,
	}

	// Confirmation failures are logged, not surfaced: consent is already
	// recorded and the endpoint must stay idempotent.
	_, _, err = s.dispatcher.Deliver(ctx, dispatch.Ref{}, dispatch.TargetFromMember(member), dispatch.TemplateConsentConfirm, vars)
	if err != nil {
		slog.Error("failed to send consent confirmation", "error", err, "member_id", member.ID)
	}
}
