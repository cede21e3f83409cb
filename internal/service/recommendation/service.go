package recommendation

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/learnloop/engage-api/internal/store"
	"github.com/learnloop/engage-api/pkg/logger"
	"github.com/learnloop/engage-api/pkg/metrics"
)

// Recommender produces course suggestions by neighbor-weighted voting,
// a minimal user-based collaborative filter. Every store failure along
// the way degrades that sub-step to empty, pushing the result toward
// the popularity fallback instead of failing the call.
type Recommender interface {
	RecommendedCourses(ctx context.Context, userID string, limit int) []string
	PopularCourses(ctx context.Context, limit int) []string
	UpdatePopularityRanking(ctx context.Context) (int, error)
}

type Config struct {
	NeighborCount int
	DefaultLimit  int
	CacheTTL      time.Duration
}

type Service struct {
	store   store.Store
	logger  *logger.Logger
	metrics *metrics.Metrics
	config  Config
	cache   *gocache.Cache
}

func NewService(st store.Store, l *logger.Logger, m *metrics.Metrics, cfg Config) *Service {
	if cfg.NeighborCount <= 0 {
		cfg.NeighborCount = 5
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 5
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &Service{
		store:   st,
		logger:  l,
		metrics: m,
		config:  cfg,
		cache:   gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}
}

type scored struct {
	id    string
	score int
}

// sortScored orders by score descending, ties broken by id ascending so
// results are deterministic across store implementations.
func sortScored(items []scored) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].id < items[j].id
	})
}

// RecommendedCourses returns up to limit courses the user has not viewed,
// ranked by neighbor votes and topped up from the popularity ranking.
func (s *Service) RecommendedCourses(ctx context.Context, userID string, limit int) []string {
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}

	cacheKey := userID + ":" + strconv.Itoa(limit)
	if cached, ok := s.cache.Get(cacheKey); ok {
		s.metrics.RecommendationsServed.WithLabelValues("cached").Inc()
		return cached.([]string)
	}

	timer := prometheus.NewTimer(s.metrics.RecommendationLatency)
	defer timer.ObserveDuration()

	viewed := s.viewedSet(ctx, userID)

	neighbors := s.nearestNeighbors(ctx, userID, viewed)
	result := s.voteCandidates(ctx, neighbors, viewed, limit)

	source := "personalized"
	if len(neighbors) == 0 {
		source = "fallback"
	}

	if len(result) < limit {
		result = s.fillFromPopularity(ctx, result, viewed, limit)
	}

	s.metrics.RecommendationsServed.WithLabelValues(source).Inc()
	s.cache.Set(cacheKey, result, gocache.DefaultExpiration)
	return result
}

// viewedSet reads the user's recency set as a membership map. Empty on
// error or for new users.
func (s *Service) viewedSet(ctx context.Context, userID string) map[string]bool {
	courses, err := s.store.ZRange(ctx, store.UserViewedKey(userID), 0, -1, false)
	if err != nil {
		s.logger.Error(err, "failed to read viewed set", "user_id", userID)
		return map[string]bool{}
	}
	viewed := make(map[string]bool, len(courses))
	for _, c := range courses {
		viewed[c] = true
	}
	return viewed
}

// nearestNeighbors scores every co-viewer by the number of shared courses
// and keeps the top k.
func (s *Service) nearestNeighbors(ctx context.Context, userID string, viewed map[string]bool) []string {
	similarity := make(map[string]int)
	for courseID := range viewed {
		viewers, err := s.store.ZRange(ctx, store.CourseViewersKey(courseID), 0, -1, false)
		if err != nil {
			s.logger.Error(err, "failed to read course viewers", "course_id", courseID)
			continue
		}
		for _, viewer := range viewers {
			if viewer == userID {
				continue
			}
			similarity[viewer]++
		}
	}
	if len(similarity) == 0 {
		return nil
	}

	ranked := make([]scored, 0, len(similarity))
	for id, score := range similarity {
		ranked = append(ranked, scored{id: id, score: score})
	}
	sortScored(ranked)

	k := s.config.NeighborCount
	if k > len(ranked) {
		k = len(ranked)
	}
	neighbors := make([]string, 0, k)
	for _, n := range ranked[:k] {
		neighbors = append(neighbors, n.id)
	}
	return neighbors
}

// voteCandidates counts, per unseen course, how many neighbors viewed it,
// and returns the top limit by vote count.
func (s *Service) voteCandidates(ctx context.Context, neighbors []string, viewed map[string]bool, limit int) []string {
	votes := make(map[string]int)
	for _, neighbor := range neighbors {
		courses, err := s.store.ZRange(ctx, store.UserViewedKey(neighbor), 0, -1, false)
		if err != nil {
			s.logger.Error(err, "failed to read neighbor views", "neighbor_id", neighbor)
			continue
		}
		for _, courseID := range courses {
			if viewed[courseID] {
				continue
			}
			votes[courseID]++
		}
	}
	if len(votes) == 0 {
		return []string{}
	}

	ranked := make([]scored, 0, len(votes))
	for id, count := range votes {
		ranked = append(ranked, scored{id: id, score: count})
	}
	sortScored(ranked)

	if limit > len(ranked) {
		limit = len(ranked)
	}
	result := make([]string, 0, limit)
	for _, c := range ranked[:limit] {
		result = append(result, c.id)
	}
	return result
}

// fillFromPopularity tops the result up to limit from the global ranking,
// skipping courses already viewed or already selected. Guarantees a full
// result whenever any course has ever been viewed platform-wide.
func (s *Service) fillFromPopularity(ctx context.Context, result []string, viewed map[string]bool, limit int) []string {
	chosen := make(map[string]bool, len(result))
	for _, id := range result {
		chosen[id] = true
	}

	popular, err := s.store.ZRange(ctx, store.PopularCoursesKey, 0, int64(limit+len(viewed)+len(result)), true)
	if err != nil {
		s.logger.Error(err, "failed to read popularity ranking")
		return result
	}
	for _, courseID := range popular {
		if len(result) >= limit {
			break
		}
		if viewed[courseID] || chosen[courseID] {
			continue
		}
		result = append(result, courseID)
		chosen[courseID] = true
	}
	return result
}

// PopularCourses returns the global top courses by total views.
func (s *Service) PopularCourses(ctx context.Context, limit int) []string {
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}
	courses, err := s.store.ZRange(ctx, store.PopularCoursesKey, 0, int64(limit-1), true)
	if err != nil {
		s.logger.Error(err, "failed to read popularity ranking")
		return []string{}
	}
	if courses == nil {
		courses = []string{}
	}
	return courses
}

// UpdatePopularityRanking re-derives the global ranking from every view
// counter. It is a full scan meant for periodic maintenance, not per-view
// upkeep, and is safe to run concurrently with recording: each member is
// written last-writer-wins from its own counter.
func (s *Service) UpdatePopularityRanking(ctx context.Context) (int, error) {
	keys, err := s.store.Keys(ctx, store.CourseViewsPattern)
	if err != nil {
		return 0, fmt.Errorf("failed to scan view counters: %w", err)
	}

	refreshed := 0
	for _, key := range keys {
		courseID := store.CourseFromViewsKey(key)
		if courseID == "" {
			continue
		}
		raw, err := s.store.Get(ctx, key)
		if err != nil {
			s.logger.Error(err, "failed to read view counter", "key", key)
			continue
		}
		views, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		if err := s.store.ZAdd(ctx, store.PopularCoursesKey, float64(views), courseID); err != nil {
			s.logger.Error(err, "failed to update popularity member", "course_id", courseID)
			continue
		}
		refreshed++
	}

	s.metrics.PopularityRefreshes.Inc()
	return refreshed, nil
}
