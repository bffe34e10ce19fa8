package dispatch

import "fmt"

const (
	TemplateSelfOutreach   = "self_outreach"
	TemplateSupportNotify  = "support_notify"
	TemplateSupportCheckin = "support_checkin"
	TemplateMilestone      = "milestone"
	TemplateConsentConfirm = "consent_confirm"
)

// Vars carries everything a template can reference. Unused fields are
// ignored by templates that don't need them.
type Vars struct {
	UserName   string
	MemberName string
	GoalTitle  string
	MissedDays int
	StreakDays int
	AppName    string
	AppURL     string
}

// Render produces the message for a template id. Text and voice use the
// body as-is; email additionally uses the subject.
func Render(templateID string, vars Vars) (Message, error) {
	switch templateID {
	case TemplateSelfOutreach:
		return selfOutreachTemplate(vars), nil
	case TemplateSupportNotify:
		return supportNotifyTemplate(vars), nil
	case TemplateSupportCheckin:
		return supportCheckinTemplate(vars), nil
	case TemplateMilestone:
		return milestoneTemplate(vars), nil
	case TemplateConsentConfirm:
		return consentConfirmTemplate(vars), nil
	}
	return Message{}, fmt.Errorf("unknown template: %q", templateID)
}

func selfOutreachTemplate(vars Vars) Message {
	subject := fmt.Sprintf("Don't lose momentum on %q", vars.GoalTitle)
	body := fmt.Sprintf(`Hey, it's %s. You haven't logged %q yet.

One missed day is nothing - log today and keep the streak alive: %s

You've got this.`, vars.AppName, vars.GoalTitle, vars.AppURL)

	return Message{Subject: subject, Body: body}
}

func supportNotifyTemplate(vars Vars) Message {
	subject := fmt.Sprintf("%s could use a nudge", vars.UserName)
	body := fmt.Sprintf(`Hi %s,

%s asked you to help them stay on track. They haven't logged their goal %q for %d days.

A quick message from you goes a long way.

- %s`, vars.MemberName, vars.UserName, vars.GoalTitle, vars.MissedDays, vars.AppName)

	return Message{Subject: subject, Body: body}
}

func supportCheckinTemplate(vars Vars) Message {
	subject := fmt.Sprintf("Daily check-in: %s is %d days behind", vars.UserName, vars.MissedDays)
	body := fmt.Sprintf(`Hi %s,

%s is now %d days behind on %q. Please check in with them today.

- %s`, vars.MemberName, vars.UserName, vars.MissedDays, vars.GoalTitle, vars.AppName)

	return Message{Subject: subject, Body: body}
}

func milestoneTemplate(vars Vars) Message {
	subject := fmt.Sprintf("%s hit a %d-day streak!", vars.UserName, vars.StreakDays)
	body := fmt.Sprintf(`Hi %s,

Great news: %s just completed %q for %d days in a row. Send them some love!

- %s`, vars.MemberName, vars.UserName, vars.GoalTitle, vars.StreakDays, vars.AppName)

	return Message{Subject: subject, Body: body}
}

func consentConfirmTemplate(vars Vars) Message {
	subject := fmt.Sprintf("You're part of %s's support network", vars.UserName)
	body := fmt.Sprintf(`Hi %s,

Thanks for agreeing to support %s. You'll hear from us if they fall behind on a goal, and when they hit a milestone worth celebrating.

You can opt out at any time.

- %s`, vars.MemberName, vars.UserName, vars.AppName)

	return Message{Subject: subject, Body: body}
}
