package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/jobportal/apiserver/internal/mq"
	"github.com/jobportal/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outbox struct {
	mu   sync.Mutex
	sent []Email
	err  error
}

func (o *outbox) Send(_ context.Context, email Email) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, email)
	return nil
}

// replaySubscriber delivers its queued messages to the handler of the
// matching channel, then returns.
type replaySubscriber struct {
	messages map[string][]mq.Message
	errs     map[string]error
	mu       sync.Mutex
	results  []error
}

func (s *replaySubscriber) Subscribe(ctx context.Context, channel string, handler mq.Handler) error {
	if err := s.errs[channel]; err != nil {
		return err
	}
	for _, msg := range s.messages[channel] {
		err := handler(ctx, msg)
		s.mu.Lock()
		s.results = append(s.results, err)
		s.mu.Unlock()
	}
	return nil
}

func message(t *testing.T, channel string, payload any) mq.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return mq.Message{ID: "m1", Data: data, Attributes: map[string]string{"event_type": channel}}
}

func statusEvent() mq.StatusChangedEvent {
	return mq.StatusChangedEvent{
		StatusChange: types.StatusChange{
			ApplicationID:  7,
			ApplicantName:  "Ada",
			ApplicantEmail: "ada@example.com",
			JobTitle:       "Backend Engineer",
			Status:         types.StatusAccepted,
		},
		ChangedBy: 1,
	}
}

func TestStatusEmail(t *testing.T) {
	email := StatusEmail("JobPortal", statusEvent())

	assert.Equal(t, "ada@example.com", email.To)
	assert.Equal(t, "Update on your application for Backend Engineer", email.Subject)
	assert.Contains(t, email.Body, "Hi Ada,")
	assert.Contains(t, email.Body, "has been updated to: Accepted.")
	assert.Contains(t, email.Body, "JobPortal Team")
}

func TestStatusEmailFallsBackToApplicant(t *testing.T) {
	event := statusEvent()
	event.ApplicantName = ""
	assert.Contains(t, StatusEmail("JobPortal", event).Body, "Hi Applicant,")
}

func TestHandleStatusChangedSendsEmail(t *testing.T) {
	box := &outbox{}
	n := New(box, "")

	err := n.HandleStatusChanged(context.Background(), message(t, mq.ApplicationStatusChanged, statusEvent()))
	require.NoError(t, err)
	require.Len(t, box.sent, 1)
	assert.Contains(t, box.sent[0].Body, "JobPortal Team")
}

func TestHandleStatusChangedDropsUndecodable(t *testing.T) {
	box := &outbox{}
	n := New(box, "Acme Jobs")

	err := n.HandleStatusChanged(context.Background(), mq.Message{ID: "bad", Data: []byte("{")})
	assert.NoError(t, err)

	err = n.HandleStatusChanged(context.Background(), message(t, mq.ApplicationSubmitted, statusEvent()))
	assert.NoError(t, err)
	assert.Empty(t, box.sent)
}

func TestHandleStatusChangedReturnsMailerError(t *testing.T) {
	box := &outbox{err: errors.New("smtp down")}
	n := New(box, "")

	err := n.HandleStatusChanged(context.Background(), message(t, mq.ApplicationStatusChanged, statusEvent()))
	assert.EqualError(t, err, "smtp down")
}

func TestRunConsumesBothChannels(t *testing.T) {
	box := &outbox{}
	sub := &replaySubscriber{messages: map[string][]mq.Message{
		mq.ApplicationStatusChanged: {message(t, mq.ApplicationStatusChanged, statusEvent())},
		mq.ApplicationSubmitted: {message(t, mq.ApplicationSubmitted, mq.SubmittedEvent{
			ApplicationID:  7,
			JobTitle:       "Backend Engineer",
			ApplicantName:  "Ada",
			ApplicantEmail: "ada@example.com",
		})},
	}}

	require.NoError(t, New(box, "JobPortal").Run(context.Background(), sub))

	subjects := make([]string, 0, len(box.sent))
	for _, email := range box.sent {
		subjects = append(subjects, email.Subject)
	}
	assert.ElementsMatch(t, []string{
		"Update on your application for Backend Engineer",
		"Application Received: Backend Engineer",
	}, subjects)
}

func TestRunReportsSubscribeFailure(t *testing.T) {
	sub := &replaySubscriber{errs: map[string]error{mq.ApplicationSubmitted: errors.New("no channel")}}

	err := New(&outbox{}, "").Run(context.Background(), sub)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no channel")
}
