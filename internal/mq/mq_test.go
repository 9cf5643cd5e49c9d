package mq

import (
	"context"
	"testing"

	"github.com/jobportal/apiserver/config"
	"github.com/jobportal/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBackend struct {
	channel string
	data    []byte
	attrs   map[string]string
}

func (r *recordingBackend) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	r.channel, r.data, r.attrs = channel, data, attrs
	return "msg-1", nil
}

func (r *recordingBackend) Subscribe(context.Context, string, Handler) error { return nil }

func (r *recordingBackend) Close() error { return nil }

func TestPublishJSONRoundTripsStatusChange(t *testing.T) {
	backend := &recordingBackend{}
	q := New(backend)

	event := StatusChangedEvent{
		StatusChange: types.StatusChange{
			ApplicationID:  12,
			ApplicantName:  "Ada",
			ApplicantEmail: "ada@example.com",
			JobTitle:       "Engineer",
			Status:         types.StatusAccepted,
		},
		ChangedBy: 3,
	}
	id, err := q.PublishJSON(context.Background(), ApplicationStatusChanged, event)
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	assert.Equal(t, ApplicationStatusChanged, backend.channel)
	assert.Equal(t, ApplicationStatusChanged, backend.attrs[eventTypeAttr])
	assert.Contains(t, string(backend.data), `"application_id":12`)

	decoded, err := DecodeStatusChanged(Message{Data: backend.data, Attributes: backend.attrs})
	require.NoError(t, err)
	assert.Equal(t, event.StatusChange, decoded.StatusChange)
	assert.Equal(t, 3, decoded.ChangedBy)
}

func TestDecodeStatusChangedRejectsOtherEvents(t *testing.T) {
	_, err := DecodeStatusChanged(Message{
		Data:       []byte(`{}`),
		Attributes: map[string]string{eventTypeAttr: ApplicationSubmitted},
	})
	assert.Error(t, err)

	_, err = DecodeStatusChanged(Message{Data: []byte(`not json`)})
	assert.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	q, err := NewFromConfig(context.Background(), config.MQConfig{Backend: "none"})
	require.NoError(t, err)
	assert.Nil(t, q)

	_, err = NewFromConfig(context.Background(), config.MQConfig{Backend: "kafka"})
	assert.Error(t, err)

	_, err = NewFromConfig(context.Background(), config.MQConfig{Backend: "rabbitmq"})
	assert.ErrorContains(t, err, "url is required")
}
