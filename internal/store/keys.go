package store

import "fmt"

// Key schema. Everything the core persists lives under these keys; the
// surrounding application never touches them directly.
const (
	// ActivityEventsKey holds the global append-only event series,
	// members scored by event timestamp.
	ActivityEventsKey = "activity:events"

	// PopularCoursesKey holds the global popularity ranking, members
	// scored by total view count.
	PopularCoursesKey = "courses:popular"

	// CourseViewsPattern matches every per-course view counter.
	CourseViewsPattern = "course:views:*"
)

// CourseViewsKey is the monotonically increasing per-course view counter.
func CourseViewsKey(courseID string) string {
	return fmt.Sprintf("course:views:%s", courseID)
}

// CourseViewersKey is the per-course sorted set of viewers, scored by
// co-view weight.
func CourseViewersKey(courseID string) string {
	return fmt.Sprintf("course:viewers:%s", courseID)
}

// UserViewedKey is the per-user recency set of courses, scored by last
// view timestamp and bounded to the most recent entries.
func UserViewedKey(userID string) string {
	return fmt.Sprintf("user:viewed:%s", userID)
}

// CourseRollupKey holds appended daily view rollups for a course.
func CourseRollupKey(courseID string) string {
	return fmt.Sprintf("analytics:daily:course:%s", courseID)
}

// UserRollupKey holds appended daily engagement rollups for a user.
func UserRollupKey(userID string) string {
	return fmt.Sprintf("analytics:daily:user:%s", userID)
}

// NotificationKey is the hash holding a single notification record.
func NotificationKey(id string) string {
	return fmt.Sprintf("notification:%s", id)
}

// UserNotificationsKey is the per-user notification index, scored by
// creation time.
func UserNotificationsKey(userID string) string {
	return fmt.Sprintf("user:notifications:%s", userID)
}

// UnreadCountKey is the per-user unread counter.
func UnreadCountKey(userID string) string {
	return fmt.Sprintf("user:notifications:unread:%s", userID)
}

// UserScheduleKey is the per-user hash of scheduled-job records, one
// field per subject key.
func UserScheduleKey(userID string) string {
	return fmt.Sprintf("user:schedule:%s", userID)
}

// CourseFromViewsKey extracts the course id from a view-counter key.
// Returns "" for keys outside the schema.
func CourseFromViewsKey(key string) string {
	const prefix = "course:views:"
	if len(key) <= len(prefix) || key[:len(prefix)] != prefix {
		return ""
	}
	return key[len(prefix):]
}
