package model

import "time"

type ScheduleMode string

const (
	ScheduleModeDelay ScheduleMode = "delay"
	ScheduleModeCron  ScheduleMode = "cron"
)

// ScheduledJob is the locally persisted handle for a job enqueued with the
// remote scheduler. MessageID is the only handle capable of cancelling it.
type ScheduledJob struct {
	MessageID   string       `json:"message_id"`
	UserID      string       `json:"user_id"`
	TargetID    string       `json:"target_id"`
	Mode        ScheduleMode `json:"mode"`
	CronExpr    string       `json:"cron_expr,omitempty"`
	ScheduledAt time.Time    `json:"scheduled_at"`
}

// ScheduleResult is the tagged outcome of a schedule request. A failed
// enqueue is a value the caller can inspect and retry, not a panic.
type ScheduleResult struct {
	OK        bool   `json:"ok"`
	MessageID string `json:"message_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}
