package models

import "time"

// NotificationLevel is the severity shown to the administrator.
type NotificationLevel string

const (
	NotificationInfo    NotificationLevel = "info"
	NotificationSuccess NotificationLevel = "success"
	NotificationWarning NotificationLevel = "warning"
	NotificationError   NotificationLevel = "error"
)

// Notification is one entry of the activity feed.
type Notification struct {
	ID        string            `json:"id"`
	Kind      string            `json:"kind"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Level     NotificationLevel `json:"level"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
	Meta      map[string]any    `json:"meta,omitempty"`
}
