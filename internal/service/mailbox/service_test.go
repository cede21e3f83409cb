package mailbox

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnloop/engage-api/internal/model"
	"github.com/learnloop/engage-api/internal/store"
	"github.com/learnloop/engage-api/pkg/logger"
	"github.com/learnloop/engage-api/pkg/metrics"
)

var testMetrics = metrics.New("mailbox_test")

func testLogger() *logger.Logger {
	return logger.New(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
}

func newTestService() *Service {
	return NewService(store.NewMemory(), nil, testLogger(), testMetrics)
}

func TestUnreadCountTracksAddsAndReads(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		id, err := svc.Add(ctx, "user-a", model.NotificationCourseUpdate, "title", "message", "")
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Equal(t, int64(5), svc.UnreadCount(ctx, "user-a"))

	assert.True(t, svc.MarkRead(ctx, "user-a", ids[0]))
	assert.True(t, svc.MarkRead(ctx, "user-a", ids[1]))
	assert.Equal(t, int64(3), svc.UnreadCount(ctx, "user-a"))
}

func TestMarkReadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	id, err := svc.Add(ctx, "user-a", model.NotificationAchievement, "title", "message", "")
	require.NoError(t, err)

	assert.True(t, svc.MarkRead(ctx, "user-a", id))
	// A duplicate click must not drive the counter below zero.
	assert.True(t, svc.MarkRead(ctx, "user-a", id))
	assert.Equal(t, int64(0), svc.UnreadCount(ctx, "user-a"))
}

func TestMarkReadRejectsWrongOwner(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	id, err := svc.Add(ctx, "user-a", model.NotificationReminder, "title", "message", "")
	require.NoError(t, err)

	assert.False(t, svc.MarkRead(ctx, "user-b", id))
	assert.Equal(t, int64(1), svc.UnreadCount(ctx, "user-a"))
}

func TestMarkReadUnknownNotification(t *testing.T) {
	svc := newTestService()
	assert.False(t, svc.MarkRead(context.Background(), "user-a", "no-such-id"))
}

func TestMarkAllRead(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	for i := 0; i < 3; i++ {
		_, err := svc.Add(ctx, "user-a", model.NotificationAnnouncement, "title", "message", "")
		require.NoError(t, err)
	}

	assert.True(t, svc.MarkAllRead(ctx, "user-a"))
	assert.Equal(t, int64(0), svc.UnreadCount(ctx, "user-a"))

	for _, n := range svc.List(ctx, "user-a", 10, 0) {
		assert.True(t, n.Read)
	}

	// Running it again against an already-clean mailbox stays at zero.
	assert.True(t, svc.MarkAllRead(ctx, "user-a"))
	assert.Equal(t, int64(0), svc.UnreadCount(ctx, "user-a"))
}

func TestListPaginates(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		id, err := svc.Add(ctx, "user-a", model.NotificationCourseUpdate, "title", "message", "/link")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	first := svc.List(ctx, "user-a", 3, 0)
	second := svc.List(ctx, "user-a", 3, 3)
	assert.Len(t, first, 3)
	assert.Len(t, second, 2)

	seen := make([]string, 0, 5)
	for _, n := range append(first, second...) {
		seen = append(seen, n.ID)
	}
	assert.ElementsMatch(t, ids, seen)
}

func TestListEmptyMailbox(t *testing.T) {
	svc := newTestService()
	page := svc.List(context.Background(), "nobody", 10, 0)
	assert.NotNil(t, page)
	assert.Empty(t, page)
}

func TestAddCoercesUnknownType(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	id, err := svc.Add(ctx, "user-a", model.NotificationType("bogus"), "title", "message", "")
	require.NoError(t, err)

	page := svc.List(ctx, "user-a", 1, 0)
	require.Len(t, page, 1)
	assert.Equal(t, id, page[0].ID)
	assert.Equal(t, model.NotificationAnnouncement, page[0].Type)
	assert.False(t, page[0].Read)
}

func TestUnreadCountDegradesToZero(t *testing.T) {
	svc := NewService(store.NewNoop(), nil, testLogger(), testMetrics)
	assert.Equal(t, int64(0), svc.UnreadCount(context.Background(), "user-a"))
}
