package activity

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnloop/engage-api/internal/model"
	"github.com/learnloop/engage-api/internal/store"
	"github.com/learnloop/engage-api/pkg/logger"
	"github.com/learnloop/engage-api/pkg/metrics"
)

var testMetrics = metrics.New("activity_test")

func testLogger() *logger.Logger {
	return logger.New(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
}

func TestRecordViewIncrementsCounter(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := NewService(st, testLogger(), testMetrics, 20)

	// Repeat views count every time, including by the same user.
	assert.True(t, svc.RecordView(ctx, "user-a", "go101"))
	assert.True(t, svc.RecordView(ctx, "user-a", "go101"))
	assert.True(t, svc.RecordView(ctx, "user-b", "go101"))

	raw, err := st.Get(ctx, store.CourseViewsKey("go101"))
	require.NoError(t, err)
	assert.Equal(t, "3", raw)
}

func TestRecordViewAccumulatesViewerWeight(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := NewService(st, testLogger(), testMetrics, 20)

	svc.RecordView(ctx, "user-a", "go101")
	svc.RecordView(ctx, "user-a", "go101")

	viewers, err := st.ZRangeWithScores(ctx, store.CourseViewersKey("go101"), 0, -1, false)
	require.NoError(t, err)
	require.Len(t, viewers, 1)
	assert.Equal(t, "user-a", viewers[0].Value)
	assert.Equal(t, float64(2), viewers[0].Score)
}

func TestRecentViewsBounded(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := NewService(st, testLogger(), testMetrics, 20)

	for i := 1; i <= 25; i++ {
		svc.RecordView(ctx, "user-a", fmt.Sprintf("course-%02d", i))
	}

	card, err := st.ZCard(ctx, store.UserViewedKey("user-a"))
	require.NoError(t, err)
	assert.Equal(t, int64(20), card)

	// The oldest entries were trimmed, the newest survive.
	recent := svc.RecentCourses(ctx, "user-a", 20)
	assert.Len(t, recent, 20)
	assert.Contains(t, recent, "course-25")
	assert.NotContains(t, recent, "course-01")
}

func TestRecentCoursesEmptyForNewUser(t *testing.T) {
	svc := NewService(store.NewMemory(), testLogger(), testMetrics, 20)

	recent := svc.RecentCourses(context.Background(), "nobody", 10)
	assert.NotNil(t, recent)
	assert.Empty(t, recent)
}

func TestRecordActivityAppendsDistinctEvents(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := NewService(st, testLogger(), testMetrics, 20)

	// Identical rapid-fire events must both land; each carries its own id.
	assert.True(t, svc.RecordActivity(ctx, "user-a", "go101", model.ActionView))
	assert.True(t, svc.RecordActivity(ctx, "user-a", "go101", model.ActionView))
	assert.True(t, svc.RecordActivity(ctx, "user-a", "go101", model.ActionComplete))

	card, err := st.ZCard(ctx, store.ActivityEventsKey)
	require.NoError(t, err)
	assert.Equal(t, int64(3), card)
}

func TestRecordActivityRejectsUnknownAction(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := NewService(st, testLogger(), testMetrics, 20)

	assert.False(t, svc.RecordActivity(ctx, "user-a", "go101", model.ActivityAction("bogus")))

	card, err := st.ZCard(ctx, store.ActivityEventsKey)
	require.NoError(t, err)
	assert.Zero(t, card)
}

func TestRecordOperationsDegradeOnNoopStore(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewNoop(), testLogger(), testMetrics, 20)

	// The null store swallows writes without error; flows keep working.
	assert.True(t, svc.RecordView(ctx, "user-a", "go101"))
	assert.True(t, svc.RecordActivity(ctx, "user-a", "go101", model.ActionView))
	assert.Empty(t, svc.RecentCourses(ctx, "user-a", 10))
}
