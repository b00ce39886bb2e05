package types

import "time"

// Severity of a notification
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// NotificationItem is a transient message shown to the user
type NotificationItem struct {
	ID        string
	Title     string
	Body      string
	Severity  Severity
	CreatedAt time.Time
	Duration  time.Duration
}

// ExpiresAt returns when the item removes itself from the queue
func (n NotificationItem) ExpiresAt() time.Time {
	return n.CreatedAt.Add(n.Duration)
}
