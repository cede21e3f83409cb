package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/learnloop/engage-api/internal/model"
	"github.com/learnloop/engage-api/internal/store"
	"github.com/learnloop/engage-api/pkg/logger"
	"github.com/learnloop/engage-api/pkg/metrics"
)

const dateLayout = "2006-01-02"

// Aggregator windows the raw event series into daily rollups and enforces
// retention. It is invoked once per day by the external scheduler; there
// is no internal timer.
type Aggregator interface {
	ProcessDaily(ctx context.Context, now time.Time) (*model.DailySummary, error)
	CourseStats(ctx context.Context, courseID string, days int) []model.RollupPoint
	UserEngagement(ctx context.Context, userID string, days int) []model.RollupPoint
}

type Service struct {
	store         store.Store
	logger        *logger.Logger
	metrics       *metrics.Metrics
	retentionDays int
}

func NewService(st store.Store, l *logger.Logger, m *metrics.Metrics, retentionDays int) *Service {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &Service{
		store:         st,
		logger:        l,
		metrics:       m,
		retentionDays: retentionDays,
	}
}

// ProcessDaily folds the last 24 hours of events into per-course view
// rollups and per-user engagement rollups, then prunes events past the
// retention horizon. Rollups are appended, not upserted: a second run in
// the same day writes a second record for that date, and readers
// aggregate by date key. A mid-run write failure is logged and counted;
// nothing is rolled back.
func (s *Service) ProcessDaily(ctx context.Context, now time.Time) (*model.DailySummary, error) {
	summary := &model.DailySummary{RanAt: now}

	windowStart := now.Add(-24 * time.Hour)
	raw, err := s.store.ZRangeByScore(ctx, store.ActivityEventsKey, float64(windowStart.Unix()), float64(now.Unix()))
	if err != nil {
		s.metrics.RollupRuns.WithLabelValues("error").Inc()
		return summary, fmt.Errorf("failed to query event window: %w", err)
	}

	if len(raw) == 0 {
		s.metrics.RollupRuns.WithLabelValues("empty").Inc()
		return summary, nil
	}

	courseViews := make(map[string]int64)
	userCourses := make(map[string]map[string]bool)
	for _, member := range raw {
		var event model.ActivityEvent
		if err := json.Unmarshal([]byte(member), &event); err != nil {
			s.logger.Warn("skipping malformed activity event")
			continue
		}
		if event.Action == model.ActionView {
			courseViews[event.CourseID]++
		}
		if userCourses[event.UserID] == nil {
			userCourses[event.UserID] = make(map[string]bool)
		}
		userCourses[event.UserID][event.CourseID] = true
		summary.ProcessedEvents++
	}

	date := now.Format(dateLayout)
	score := float64(now.Unix())

	for courseID, views := range courseViews {
		rollup := model.CourseRollup{CourseID: courseID, Date: date, Views: views}
		if !s.appendRollup(ctx, store.CourseRollupKey(courseID), rollup, score) {
			summary.Errors++
			continue
		}
		summary.CourseRollups++
	}

	for userID, courses := range userCourses {
		rollup := model.UserRollup{UserID: userID, Date: date, Courses: int64(len(courses))}
		if !s.appendRollup(ctx, store.UserRollupKey(userID), rollup, score) {
			summary.Errors++
			continue
		}
		summary.UserRollups++
	}

	cutoff := now.AddDate(0, 0, -s.retentionDays)
	pruned, err := s.store.ZRemRangeByScore(ctx, store.ActivityEventsKey, math.Inf(-1), float64(cutoff.Unix()))
	if err != nil {
		s.logger.Error(err, "failed to prune old events")
		summary.Errors++
	} else {
		summary.PrunedEvents = pruned
		s.metrics.EventsPruned.Add(float64(pruned))
	}

	s.metrics.RollupEvents.Observe(float64(summary.ProcessedEvents))
	if summary.Errors > 0 {
		s.metrics.RollupRuns.WithLabelValues("partial").Inc()
	} else {
		s.metrics.RollupRuns.WithLabelValues("ok").Inc()
	}
	return summary, nil
}

func (s *Service) appendRollup(ctx context.Context, key string, rollup interface{}, score float64) bool {
	payload, err := json.Marshal(rollup)
	if err != nil {
		s.logger.Error(err, "failed to marshal rollup", "key", key)
		return false
	}
	if err := s.store.ZAdd(ctx, key, score, string(payload)); err != nil {
		s.logger.Error(err, "failed to append rollup", "key", key)
		return false
	}
	return true
}

// CourseStats reads the last days of view rollups for a course, summing
// duplicate records that share a date.
func (s *Service) CourseStats(ctx context.Context, courseID string, days int) []model.RollupPoint {
	return s.readRollups(ctx, store.CourseRollupKey(courseID), days, func(member string) (string, int64, bool) {
		var r model.CourseRollup
		if err := json.Unmarshal([]byte(member), &r); err != nil {
			return "", 0, false
		}
		return r.Date, r.Views, true
	})
}

// UserEngagement reads the last days of engagement rollups for a user,
// summing duplicate records that share a date.
func (s *Service) UserEngagement(ctx context.Context, userID string, days int) []model.RollupPoint {
	return s.readRollups(ctx, store.UserRollupKey(userID), days, func(member string) (string, int64, bool) {
		var r model.UserRollup
		if err := json.Unmarshal([]byte(member), &r); err != nil {
			return "", 0, false
		}
		return r.Date, r.Courses, true
	})
}

func (s *Service) readRollups(ctx context.Context, key string, days int, decode func(string) (string, int64, bool)) []model.RollupPoint {
	if days <= 0 {
		days = 7
	}
	since := time.Now().AddDate(0, 0, -days)
	members, err := s.store.ZRangeByScore(ctx, key, float64(since.Unix()), math.Inf(1))
	if err != nil {
		s.logger.Error(err, "failed to read rollups", "key", key)
		return []model.RollupPoint{}
	}

	byDate := make(map[string]int64)
	for _, member := range members {
		date, value, ok := decode(member)
		if !ok {
			continue
		}
		byDate[date] += value
	}

	points := make([]model.RollupPoint, 0, len(byDate))
	for date, value := range byDate {
		points = append(points, model.RollupPoint{Date: date, Value: value})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}
