package domain

import (
	"fmt"
	"strings"
)

// JobKind selects the recipient policy and message template of a run.
type JobKind string

const (
	// JobKindReminder targets every active employee.
	JobKindReminder JobKind = "REMINDER"
	// JobKindFollowUp targets active employees without a report in the
	// trailing submission window.
	JobKindFollowUp JobKind = "FOLLOW_UP"
)

func (k JobKind) String() string { return string(k) }

func (k JobKind) IsValid() bool {
	switch k {
	case JobKindReminder, JobKindFollowUp:
		return true
	}
	return false
}

// Label is the short name used in logs and metrics.
func (k JobKind) Label() string {
	switch k {
	case JobKindReminder:
		return "weekly-reminder"
	case JobKindFollowUp:
		return "pending-follow-up"
	}
	return strings.ToLower(string(k))
}

// ParseJobKindFromString accepts "reminder", "follow-up" or "FOLLOW_UP" forms.
func ParseJobKindFromString(s string) (JobKind, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	kind := JobKind(normalized)
	if !kind.IsValid() {
		return "", fmt.Errorf("%w: invalid job kind %q", ErrValidation, s)
	}
	return kind, nil
}

const namePlaceholder = "{name}"

// MessageTemplate is a push title/body pair; {name} in either part is replaced
// with the recipient's display name.
type MessageTemplate struct {
	Title string
	Body  string
}

// PushPayload is the JSON document delivered to the browser service worker.
type PushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (t MessageTemplate) Render(name string) PushPayload {
	return PushPayload{
		Title: strings.ReplaceAll(t.Title, namePlaceholder, name),
		Body:  strings.ReplaceAll(t.Body, namePlaceholder, name),
	}
}

func (t MessageTemplate) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: message title is required", ErrValidation)
	}
	if strings.TrimSpace(t.Body) == "" {
		return fmt.Errorf("%w: message body is required", ErrValidation)
	}
	return nil
}

var (
	ReminderTemplate = MessageTemplate{
		Title: "Weekly Status Report Reminder",
		Body:  "Hi {name}, please submit your Weekly Status Report for this week before the deadline!",
	}
	FollowUpTemplate = MessageTemplate{
		Title: "WSR Not Submitted!",
		Body:  "Hi {name}, you still haven't submitted your Weekly Status Report. Please submit it now!",
	}
	TestTemplate = MessageTemplate{
		Title: "Test Notification",
		Body:  "This is a test from your server!",
	}
)

// DefaultTemplate returns the built-in template for a job kind.
func DefaultTemplate(kind JobKind) (MessageTemplate, error) {
	switch kind {
	case JobKindReminder:
		return ReminderTemplate, nil
	case JobKindFollowUp:
		return FollowUpTemplate, nil
	}
	return MessageTemplate{}, fmt.Errorf("%w: invalid job kind %q", ErrValidation, kind)
}
