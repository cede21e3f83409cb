package mailbox

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/learnloop/engage-api/internal/model"
	"github.com/learnloop/engage-api/internal/store"
	"github.com/learnloop/engage-api/pkg/logger"
	"github.com/learnloop/engage-api/pkg/messaging"
	"github.com/learnloop/engage-api/pkg/metrics"
)

// notificationChannel is the pub/sub channel in-app events fan out on.
const notificationChannel = "notifications"

// Mailbox is the per-user ordered notification log with an unread
// counter maintained incrementally. Writes are best effort: the consuming
// UI tolerates eventual consistency, so a failed sub-write is logged and
// the call still completes.
type Mailbox interface {
	Add(ctx context.Context, userID string, typ model.NotificationType, title, message, link string) (string, error)
	List(ctx context.Context, userID string, limit, offset int) []*model.Notification
	MarkRead(ctx context.Context, userID, notificationID string) bool
	MarkAllRead(ctx context.Context, userID string) bool
	UnreadCount(ctx context.Context, userID string) int64
}

type Service struct {
	store   store.Store
	broker  messaging.Broker
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewService creates the mailbox. The broker may be nil; in-app fan-out
// is then skipped.
func NewService(st store.Store, broker messaging.Broker, l *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:   st,
		broker:  broker,
		logger:  l,
		metrics: m,
	}
}

// Add writes the record, appends it to the user's index scored by
// creation time, and increments the unread counter. The four writes are
// one logical unit but are not transactional; failures are logged and the
// generated id is returned regardless.
func (s *Service) Add(ctx context.Context, userID string, typ model.NotificationType, title, message, link string) (string, error) {
	if !model.ValidNotificationType(typ) {
		typ = model.NotificationAnnouncement
	}

	id := uuid.NewString()
	now := time.Now()

	fields := map[string]interface{}{
		"id":         id,
		"user_id":    userID,
		"type":       string(typ),
		"title":      title,
		"message":    message,
		"link":       link,
		"read":       "0",
		"created_at": strconv.FormatInt(now.Unix(), 10),
	}
	if err := s.store.HSet(ctx, store.NotificationKey(id), fields); err != nil {
		s.logger.Error(err, "failed to write notification record", "notification_id", id)
	}

	if err := s.store.ZAdd(ctx, store.UserNotificationsKey(userID), float64(now.Unix()), id); err != nil {
		s.logger.Error(err, "failed to index notification", "notification_id", id)
	}

	if _, err := s.store.Incr(ctx, store.UnreadCountKey(userID)); err != nil {
		s.logger.Error(err, "failed to increment unread counter", "user_id", userID)
	}

	if s.broker != nil {
		event := model.NotificationEvent{
			NotificationID: id,
			UserID:         userID,
			Type:           typ,
			Title:          title,
			CreatedAt:      now,
		}
		if err := s.broker.Publish(ctx, notificationChannel, event); err != nil {
			s.logger.Warn("failed to publish notification event", "notification_id", id)
		}
	}

	s.metrics.NotificationsCreated.WithLabelValues(string(typ)).Inc()
	return id, nil
}

// List returns a page of the user's notifications, newest first. An empty
// mailbox and a degraded store both read as an empty page.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) []*model.Notification {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	ids, err := s.store.ZRange(ctx, store.UserNotificationsKey(userID), int64(offset), int64(offset+limit-1), true)
	if err != nil {
		s.logger.Error(err, "failed to read notification index", "user_id", userID)
		return []*model.Notification{}
	}

	notifications := make([]*model.Notification, 0, len(ids))
	for _, id := range ids {
		record, err := s.store.HGetAll(ctx, store.NotificationKey(id))
		if err != nil {
			s.logger.Error(err, "failed to read notification record", "notification_id", id)
			continue
		}
		if len(record) == 0 {
			continue
		}
		notifications = append(notifications, decode(record))
	}
	return notifications
}

// MarkRead flips the read flag and decrements the unread counter, but
// only when the counter is positive and the record was actually unread.
// Repeating the call is a no-op, which keeps duplicate clicks from
// driving the counter negative.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) bool {
	key := store.NotificationKey(notificationID)

	owner, err := s.store.HGet(ctx, key, "user_id")
	if err != nil {
		s.logger.Error(err, "failed to read notification owner", "notification_id", notificationID)
		return false
	}
	if owner == "" || owner != userID {
		return false
	}

	read, err := s.store.HGet(ctx, key, "read")
	if err != nil {
		s.logger.Error(err, "failed to read notification state", "notification_id", notificationID)
		return false
	}
	if read == "1" {
		return true
	}

	if err := s.store.HSet(ctx, key, map[string]interface{}{"read": "1"}); err != nil {
		s.logger.Error(err, "failed to mark notification read", "notification_id", notificationID)
		return false
	}

	s.decrementUnread(ctx, userID)
	s.metrics.NotificationsRead.Inc()
	return true
}

// MarkAllRead sweeps the full index and resets the counter to exactly
// zero. The absolute reset self-heals any drift the incremental counter
// has accumulated.
func (s *Service) MarkAllRead(ctx context.Context, userID string) bool {
	ids, err := s.store.ZRange(ctx, store.UserNotificationsKey(userID), 0, -1, false)
	if err != nil {
		s.logger.Error(err, "failed to read notification index", "user_id", userID)
		return false
	}

	for _, id := range ids {
		if err := s.store.HSet(ctx, store.NotificationKey(id), map[string]interface{}{"read": "1"}); err != nil {
			s.logger.Error(err, "failed to mark notification read", "notification_id", id)
		}
	}

	if err := s.store.Set(ctx, store.UnreadCountKey(userID), "0"); err != nil {
		s.logger.Error(err, "failed to reset unread counter", "user_id", userID)
		return false
	}
	return true
}

// UnreadCount is the fast path for UI badges: a single counter read,
// zero when absent or degraded.
func (s *Service) UnreadCount(ctx context.Context, userID string) int64 {
	raw, err := s.store.Get(ctx, store.UnreadCountKey(userID))
	if err != nil {
		s.logger.Error(err, "failed to read unread counter", "user_id", userID)
		return 0
	}
	if raw == "" {
		return 0
	}
	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || count < 0 {
		return 0
	}
	return count
}

func (s *Service) decrementUnread(ctx context.Context, userID string) {
	key := store.UnreadCountKey(userID)
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Error(err, "failed to read unread counter", "user_id", userID)
		return
	}
	count, _ := strconv.ParseInt(raw, 10, 64)
	if count <= 0 {
		return
	}
	if _, err := s.store.Decr(ctx, key); err != nil {
		s.logger.Error(err, "failed to decrement unread counter", "user_id", userID)
	}
}

func decode(record map[string]string) *model.Notification {
	createdAt, _ := strconv.ParseInt(record["created_at"], 10, 64)
	return &model.Notification{
		ID:        record["id"],
		UserID:    record["user_id"],
		Type:      model.NotificationType(record["type"]),
		Title:     record["title"],
		Message:   record["message"],
		Link:      record["link"],
		Read:      record["read"] == "1",
		CreatedAt: time.Unix(createdAt, 0),
	}
}
