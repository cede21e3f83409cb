package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/learnloop/engage-api/internal/model"
	"github.com/learnloop/engage-api/internal/store"
	"github.com/learnloop/engage-api/pkg/logger"
	"github.com/learnloop/engage-api/pkg/metrics"
)

// Recorder appends viewing and interaction events. Both record methods
// favor availability: a store failure is logged and reported as false,
// never raised, so product flows carrying the write are not interrupted.
type Recorder interface {
	RecordView(ctx context.Context, userID, courseID string) bool
	RecordActivity(ctx context.Context, userID, courseID string, action model.ActivityAction) bool
	RecentCourses(ctx context.Context, userID string, limit int) []string
}

type Service struct {
	store         store.Store
	logger        *logger.Logger
	metrics       *metrics.Metrics
	recentSetSize int
}

func NewService(st store.Store, l *logger.Logger, m *metrics.Metrics, recentSetSize int) *Service {
	if recentSetSize <= 0 {
		recentSetSize = 20
	}
	return &Service{
		store:         st,
		logger:        l,
		metrics:       m,
		recentSetSize: recentSetSize,
	}
}

// RecordView updates the three view structures for a single course view:
// the user's bounded recency set, the course's viewer weights, and the
// course's monotonic view counter.
func (s *Service) RecordView(ctx context.Context, userID, courseID string) bool {
	now := time.Now()
	ok := true

	if err := s.store.ZAdd(ctx, store.UserViewedKey(userID), float64(now.Unix()), courseID); err != nil {
		s.logger.Error(err, "failed to record recent view", "user_id", userID, "course_id", courseID)
		ok = false
	}
	// Trim to the newest recentSetSize members; rank range delete is
	// atomic, so concurrent views cannot grow the set past the bound.
	if err := s.store.ZRemRangeByRank(ctx, store.UserViewedKey(userID), 0, int64(-s.recentSetSize-1)); err != nil {
		s.logger.Error(err, "failed to trim recent views", "user_id", userID)
		ok = false
	}

	// Co-view weight, not a timestamp: each view adds 1.
	if _, err := s.store.ZIncrBy(ctx, store.CourseViewersKey(courseID), 1, userID); err != nil {
		s.logger.Error(err, "failed to record viewer weight", "user_id", userID, "course_id", courseID)
		ok = false
	}

	if _, err := s.store.Incr(ctx, store.CourseViewsKey(courseID)); err != nil {
		s.logger.Error(err, "failed to increment view counter", "course_id", courseID)
		ok = false
	}

	if ok {
		s.metrics.ViewsRecorded.Inc()
	} else {
		s.metrics.RecordFailures.Inc()
	}
	return ok
}

// RecordActivity appends one event to the global time-ordered series. The
// event id keeps identical rapid-fire events distinct; they are counted
// separately downstream.
func (s *Service) RecordActivity(ctx context.Context, userID, courseID string, action model.ActivityAction) bool {
	if !model.ValidAction(action) {
		s.logger.Warn("dropping activity with unknown action", "action", string(action))
		return false
	}

	now := time.Now()
	event := model.ActivityEvent{
		ID:        uuid.New(),
		UserID:    userID,
		CourseID:  courseID,
		Action:    action,
		Timestamp: now,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error(err, "failed to marshal activity event")
		return false
	}

	if err := s.store.ZAdd(ctx, store.ActivityEventsKey, float64(now.Unix()), string(payload)); err != nil {
		s.logger.Error(err, "failed to append activity event", "user_id", userID, "course_id", courseID)
		s.metrics.RecordFailures.Inc()
		return false
	}

	s.metrics.ActivitiesRecorded.WithLabelValues(string(action)).Inc()
	return true
}

// RecentCourses returns the user's most recently viewed courses, newest
// first. Degrades to empty on store errors.
func (s *Service) RecentCourses(ctx context.Context, userID string, limit int) []string {
	if limit <= 0 || limit > s.recentSetSize {
		limit = s.recentSetSize
	}
	courses, err := s.store.ZRange(ctx, store.UserViewedKey(userID), 0, int64(limit-1), true)
	if err != nil {
		s.logger.Error(err, "failed to read recent views", "user_id", userID)
		return []string{}
	}
	if courses == nil {
		courses = []string{}
	}
	return courses
}
