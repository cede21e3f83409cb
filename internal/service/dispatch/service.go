package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/learnloop/engage-api/internal/model"
	"github.com/learnloop/engage-api/internal/scheduler"
	"github.com/learnloop/engage-api/internal/store"
	apperrors "github.com/learnloop/engage-api/pkg/errors"
	"github.com/learnloop/engage-api/pkg/logger"
)

// Subject keys under which cancellation records are filed.
const (
	digestSubject = "digest"
)

// ReminderSubject is the cancellation handle for a per-course reminder.
func ReminderSubject(courseID string) string {
	return "reminder:" + courseID
}

// ReminderPayload is what the scheduler POSTs back to the worker when a
// course reminder fires. Email is optional; when present the worker also
// sends a reminder mail.
type ReminderPayload struct {
	UserID   string `json:"user_id"`
	CourseID string `json:"course_id"`
	Email    string `json:"email,omitempty"`
}

// DigestPayload is what the scheduler POSTs back when a recurring digest
// fires.
type DigestPayload struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

// Dispatcher schedules one-shot or recurring deliveries against the
// remote scheduler and keeps a per-user record so jobs can be cancelled
// later. Unlike the recorder, failures here are tagged results: losing a
// reminder is a product-visible regression worth signalling.
type Dispatcher interface {
	Schedule(ctx context.Context, userID, subjectKey, targetID, url string, payload interface{}, opts scheduler.PublishOptions) (*model.ScheduleResult, error)
	Cancel(ctx context.Context, userID, subjectKey string) bool
	ScheduleCourseReminder(ctx context.Context, userID, courseID string, delaySeconds int, email string) (*model.ScheduleResult, error)
	ScheduleWeeklyDigest(ctx context.Context, userID, cronExpr, email string) (*model.ScheduleResult, error)
	CancelDigest(ctx context.Context, userID string) bool
}

type Config struct {
	// CallbackBaseURL is where the scheduler delivers: the worker's
	// externally reachable base URL.
	CallbackBaseURL string
	DefaultRetries  int
}

type Service struct {
	store     store.Store
	scheduler scheduler.Scheduler
	logger    *logger.Logger
	config    Config
}

func NewService(st store.Store, sched scheduler.Scheduler, l *logger.Logger, cfg Config) *Service {
	if cfg.DefaultRetries <= 0 {
		cfg.DefaultRetries = 3
	}
	return &Service{
		store:     st,
		scheduler: sched,
		logger:    l,
		config:    cfg,
	}
}

// Schedule validates the request, publishes it, and files the message id
// under (user, subjectKey) for later cancellation. Exactly one of delay
// and cron must be set.
func (s *Service) Schedule(ctx context.Context, userID, subjectKey, targetID, url string, payload interface{}, opts scheduler.PublishOptions) (*model.ScheduleResult, error) {
	hasDelay := opts.DelaySeconds > 0
	hasCron := opts.Cron != ""
	if hasDelay == hasCron {
		result := &model.ScheduleResult{OK: false, Reason: "exactly one of delay_seconds and cron must be set"}
		return result, apperrors.BadRequest(result.Reason, nil)
	}
	if opts.RetryCount <= 0 {
		opts.RetryCount = s.config.DefaultRetries
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &model.ScheduleResult{OK: false, Reason: "unencodable payload"},
			apperrors.BadRequest("unencodable payload", err)
	}

	messageID, err := s.scheduler.Publish(ctx, url, body, opts)
	if err != nil {
		result := &model.ScheduleResult{OK: false, Reason: "scheduler publish failed"}
		return result, apperrors.Unavailable("scheduler", err)
	}

	mode := model.ScheduleModeDelay
	scheduledAt := time.Now().Add(time.Duration(opts.DelaySeconds) * time.Second)
	if hasCron {
		mode = model.ScheduleModeCron
		scheduledAt = time.Now()
	}
	job := model.ScheduledJob{
		MessageID:   messageID,
		UserID:      userID,
		TargetID:    targetID,
		Mode:        mode,
		CronExpr:    opts.Cron,
		ScheduledAt: scheduledAt,
	}
	record, err := json.Marshal(job)
	if err == nil {
		err = s.store.HSet(ctx, store.UserScheduleKey(userID), map[string]interface{}{subjectKey: string(record)})
	}
	if err != nil {
		// The job is enqueued but the handle is lost; it cannot be
		// cancelled through this API anymore. Surface that loudly.
		s.logger.Error(err, "scheduled job recorded remotely but not locally",
			"user_id", userID, "subject", subjectKey, "message_id", messageID)
	}

	return &model.ScheduleResult{OK: true, MessageID: messageID}, nil
}

// Cancel looks up the stored message id for (user, subjectKey). A missing
// record reads as false: nothing to cancel is a valid outcome, not an
// error.
func (s *Service) Cancel(ctx context.Context, userID, subjectKey string) bool {
	record, err := s.store.HGet(ctx, store.UserScheduleKey(userID), subjectKey)
	if err != nil {
		s.logger.Error(err, "failed to read schedule record", "user_id", userID, "subject", subjectKey)
		return false
	}
	if record == "" {
		return false
	}

	var job model.ScheduledJob
	if err := json.Unmarshal([]byte(record), &job); err != nil {
		s.logger.Error(err, "corrupt schedule record", "user_id", userID, "subject", subjectKey)
		return false
	}

	if err := s.scheduler.Cancel(ctx, job.MessageID); err != nil {
		s.logger.Error(err, "failed to cancel scheduled job", "message_id", job.MessageID)
		return false
	}

	if err := s.store.HDel(ctx, store.UserScheduleKey(userID), subjectKey); err != nil {
		s.logger.Error(err, "failed to delete schedule record", "user_id", userID, "subject", subjectKey)
	}
	return true
}

// ScheduleCourseReminder enqueues a one-shot nudge for a course,
// replacing any pending reminder for the same course.
func (s *Service) ScheduleCourseReminder(ctx context.Context, userID, courseID string, delaySeconds int, email string) (*model.ScheduleResult, error) {
	s.Cancel(ctx, userID, ReminderSubject(courseID))

	url := fmt.Sprintf("%s/callbacks/reminder", s.config.CallbackBaseURL)
	payload := ReminderPayload{UserID: userID, CourseID: courseID, Email: email}
	return s.Schedule(ctx, userID, ReminderSubject(courseID), courseID, url,
		payload, scheduler.PublishOptions{DelaySeconds: delaySeconds})
}

// ScheduleWeeklyDigest enqueues the recurring digest for a user,
// replacing any existing digest schedule.
func (s *Service) ScheduleWeeklyDigest(ctx context.Context, userID, cronExpr, email string) (*model.ScheduleResult, error) {
	s.Cancel(ctx, userID, digestSubject)

	url := fmt.Sprintf("%s/callbacks/digest", s.config.CallbackBaseURL)
	payload := DigestPayload{UserID: userID, Email: email}
	return s.Schedule(ctx, userID, digestSubject, digestSubject, url,
		payload, scheduler.PublishOptions{Cron: cronExpr})
}

// CancelDigest removes the user's recurring digest schedule.
func (s *Service) CancelDigest(ctx context.Context, userID string) bool {
	return s.Cancel(ctx, userID, digestSubject)
}
