package model

import "time"

type NotificationType string

const (
	NotificationCourseUpdate NotificationType = "course_update"
	NotificationAchievement  NotificationType = "achievement"
	NotificationReminder     NotificationType = "reminder"
	NotificationAnnouncement NotificationType = "announcement"
)

// ValidNotificationType reports whether t is a known notification type.
func ValidNotificationType(t NotificationType) bool {
	switch t {
	case NotificationCourseUpdate, NotificationAchievement, NotificationReminder, NotificationAnnouncement:
		return true
	}
	return false
}

// Notification is a single mailbox entry. The record is created once and
// only the Read flag ever changes, false to true.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Link      string           `json:"link,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// NotificationEvent is published to the in-app channel when a mailbox
// entry is created, so connected clients can refresh without polling.
type NotificationEvent struct {
	NotificationID string           `json:"notification_id"`
	UserID         string           `json:"user_id"`
	Type           NotificationType `json:"type"`
	Title          string           `json:"title"`
	CreatedAt      time.Time        `json:"created_at"`
}
