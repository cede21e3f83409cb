package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/learnloop/engage-api/internal/model"
	"github.com/learnloop/engage-api/internal/scheduler"
	"github.com/learnloop/engage-api/internal/service/dispatch"
	apperrors "github.com/learnloop/engage-api/pkg/errors"
)

type stubDispatcher struct {
	unavailable bool
	cancelled   bool
}

var _ dispatch.Dispatcher = (*stubDispatcher)(nil)

func (s *stubDispatcher) Schedule(context.Context, string, string, string, string, interface{}, scheduler.PublishOptions) (*model.ScheduleResult, error) {
	return s.result()
}

func (s *stubDispatcher) ScheduleCourseReminder(context.Context, string, string, int, string) (*model.ScheduleResult, error) {
	return s.result()
}

func (s *stubDispatcher) ScheduleWeeklyDigest(context.Context, string, string, string) (*model.ScheduleResult, error) {
	return s.result()
}

func (s *stubDispatcher) Cancel(context.Context, string, string) bool { return s.cancelled }
func (s *stubDispatcher) CancelDigest(context.Context, string) bool   { return s.cancelled }

func (s *stubDispatcher) result() (*model.ScheduleResult, error) {
	if s.unavailable {
		result := &model.ScheduleResult{OK: false, Reason: "scheduler publish failed"}
		return result, apperrors.Unavailable("scheduler",
			fmt.Errorf("%w: connection refused", scheduler.ErrUnavailable))
	}
	return &model.ScheduleResult{OK: true, MessageID: "msg-1"}, nil
}

func setup(stub *stubDispatcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewHandler(stub).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func post(engine *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)
	return w
}

func TestScheduleReminder(t *testing.T) {
	engine := setup(&stubDispatcher{})

	w := post(engine, "/api/v1/users/user-a/reminders", `{"course_id":"go101","delay_seconds":3600}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "msg-1")
}

func TestScheduleReminderValidation(t *testing.T) {
	engine := setup(&stubDispatcher{})

	// Missing delay.
	w := post(engine, "/api/v1/users/user-a/reminders", `{"course_id":"go101"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Malformed email.
	w = post(engine, "/api/v1/users/user-a/reminders", `{"course_id":"go101","delay_seconds":60,"email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleReminderUnavailable(t *testing.T) {
	engine := setup(&stubDispatcher{unavailable: true})

	w := post(engine, "/api/v1/users/user-a/reminders", `{"course_id":"go101","delay_seconds":3600}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	// The tagged result rides along so callers can inspect the reason.
	assert.Contains(t, w.Body.String(), "scheduler publish failed")
}

func TestScheduleDigest(t *testing.T) {
	engine := setup(&stubDispatcher{})

	w := post(engine, "/api/v1/users/user-a/digests", `{"cron":"0 9 * * 1"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestScheduleDigestRejectsMalformedCron(t *testing.T) {
	engine := setup(&stubDispatcher{})

	w := post(engine, "/api/v1/users/user-a/digests", `{"cron":"weekly"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancel(t *testing.T) {
	engine := setup(&stubDispatcher{cancelled: true})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/user-a/schedules/digest", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cancelled":true`)
}

func TestCancelNothingPending(t *testing.T) {
	engine := setup(&stubDispatcher{cancelled: false})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/user-a/schedules/reminder:go101", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cancelled":false`)
}
