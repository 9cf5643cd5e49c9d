package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jobportal/apiserver/types"
)

// Event channels.
const (
	ApplicationSubmitted     = "application.submitted"
	ApplicationStatusChanged = "application.status_changed"
)

const eventTypeAttr = "event_type"

// SubmittedEvent is published after an application is stored.
type SubmittedEvent struct {
	ApplicationID  int       `json:"application_id"`
	JobID          int       `json:"job_id"`
	JobSlug        string    `json:"job_slug"`
	JobTitle       string    `json:"job_title"`
	ApplicantName  string    `json:"applicant_name"`
	ApplicantEmail string    `json:"applicant_email"`
	ResumeType     string    `json:"resume_type"`
	AppliedAt      time.Time `json:"applied_at"`
}

// StatusChangedEvent is published once per application whose status changed.
type StatusChangedEvent struct {
	types.StatusChange
	ChangedBy int       `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

// PublishJSON marshals payload and publishes it on channel, tagging the
// message with the channel name as its event type.
func (m *MQ) PublishJSON(ctx context.Context, channel string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal %s event: %w", channel, err)
	}
	return m.Publish(ctx, channel, data, map[string]string{eventTypeAttr: channel})
}

// DecodeStatusChanged parses a status change message.
func DecodeStatusChanged(msg Message) (StatusChangedEvent, error) {
	if t, ok := msg.Attributes[eventTypeAttr]; ok && t != ApplicationStatusChanged {
		return StatusChangedEvent{}, fmt.Errorf("unexpected event type %q", t)
	}
	var event StatusChangedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return StatusChangedEvent{}, fmt.Errorf("decode status change: %w", err)
	}
	return event, nil
}

// DecodeSubmitted parses an application submitted message.
func DecodeSubmitted(msg Message) (SubmittedEvent, error) {
	if t, ok := msg.Attributes[eventTypeAttr]; ok && t != ApplicationSubmitted {
		return SubmittedEvent{}, fmt.Errorf("unexpected event type %q", t)
	}
	var event SubmittedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return SubmittedEvent{}, fmt.Errorf("decode submitted: %w", err)
	}
	return event, nil
}
