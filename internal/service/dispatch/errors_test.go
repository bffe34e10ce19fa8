package dispatch

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	twclient "github.com/twilio/twilio-go/client"
)

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsPermanent(Permanentf("bounced")))
	assert.False(t, IsPermanent(Transientf("timeout")))
	assert.True(t, IsTransient(Transientf("timeout")))
	assert.False(t, IsTransient(nil))

	// Unclassified errors get the retry budget, not a channel write-off.
	assert.True(t, IsTransient(errors.New("connection reset")))

	// Wrapping preserves the classification.
	wrapped := fmt.Errorf("send failed: %w", Permanentf("bounced"))
	assert.True(t, IsPermanent(wrapped))
}

func TestClassifyTwilioError(t *testing.T) {
	tests := []struct {
		status    int
		permanent bool
	}{
		{400, true}, // invalid number
		{404, true},
		{429, false}, // rate limit
		{500, false},
		{503, false},
	}

	for _, tt := range tests {
		err := classifyTwilioError(&twclient.TwilioRestError{Status: tt.status})
		assert.Equal(t, tt.permanent, IsPermanent(err), "status=%d", tt.status)
	}

	// Network-level failures never reach the REST error type.
	assert.True(t, IsTransient(classifyTwilioError(errors.New("dial tcp: timeout"))))
}

func TestRenderTemplates(t *testing.T) {
	vars := Vars{
		UserName:   "Jesse",
		MemberName: "Blake",
		GoalTitle:  "Run every morning",
		MissedDays: 3,
		StreakDays: 7,
		AppName:    "Goalpost",
		AppURL:     "https://goalpost.test",
	}

	for _, id := range []string{
		TemplateSelfOutreach,
		TemplateSupportNotify,
		TemplateSupportCheckin,
		TemplateMilestone,
		TemplateConsentConfirm,
	} {
		msg, err := Render(id, vars)
		assert.NoError(t, err, id)
		assert.NotEmpty(t, msg.Subject, id)
		assert.NotEmpty(t, msg.Body, id)
	}

	msg, err := Render(TemplateSupportCheckin, vars)
	assert.NoError(t, err)
	assert.Contains(t, msg.Body, "3 days behind")

	_, err = Render("nope", vars)
	assert.Error(t, err)
}
