package model

import (
	"time"

	"github.com/google/uuid"
)

type ActivityAction string

const (
	ActionView     ActivityAction = "view"
	ActionComplete ActivityAction = "complete"
	ActionInteract ActivityAction = "interact"
)

// ValidAction reports whether the action is one of the recorded enum values.
func ValidAction(a ActivityAction) bool {
	switch a {
	case ActionView, ActionComplete, ActionInteract:
		return true
	}
	return false
}

// ActivityEvent is an immutable, append-only record of a single user
// interaction. The ID keeps otherwise identical events distinct in the
// global series; there is no debouncing of rapid-fire duplicates.
type ActivityEvent struct {
	ID        uuid.UUID      `json:"id"`
	UserID    string         `json:"user_id"`
	CourseID  string         `json:"course_id"`
	Action    ActivityAction `json:"action"`
	Timestamp time.Time      `json:"timestamp"`
}
