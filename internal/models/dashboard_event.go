package models

import "time"

// Dashboard event types.
const (
	EventPollError       = "POLL_ERROR"
	EventAirconSettings  = "AIRCON_SETTINGS"
	EventSignalSent      = "SIGNAL_SENT"
	EventCommandFailed   = "COMMAND_FAILED"
	EventIntervalChanged = "INTERVAL_CHANGED"
)

// IsEventType reports whether s names one of the dashboard event types.
func IsEventType(s string) bool {
	switch s {
	case EventPollError, EventAirconSettings, EventSignalSent, EventCommandFailed, EventIntervalChanged:
		return true
	}
	return false
}

// DashboardEvent is one entry of the activity log.
type DashboardEvent struct {
	EventID     string         `json:"event_id"`
	OccurredAt  time.Time      `json:"occurred_at"`
	Type        string         `json:"type"`
	Target      string         `json:"target,omitempty"` // appliance or signal id
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// EventQuery selects activity log entries. Zero fields don't filter.
type EventQuery struct {
	From   time.Time
	To     time.Time
	Type   string
	Target string
	Limit  int
}
