package activity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/learnloop/engage-api/internal/model"
)

type stubRecorder struct {
	views      []string
	activities []string
}

func (s *stubRecorder) RecordView(_ context.Context, userID, courseID string) bool {
	s.views = append(s.views, userID+"/"+courseID)
	return true
}

func (s *stubRecorder) RecordActivity(_ context.Context, userID, courseID string, action model.ActivityAction) bool {
	s.activities = append(s.activities, userID+"/"+courseID+"/"+string(action))
	return true
}

func (s *stubRecorder) RecentCourses(context.Context, string, int) []string {
	return []string{"go101", "db201"}
}

func setup(stub *stubRecorder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewHandler(stub).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func TestRecordView(t *testing.T) {
	stub := &stubRecorder{}
	engine := setup(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/activity/views",
		strings.NewReader(`{"user_id":"user-a","course_id":"go101"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"recorded":true`)
	assert.Equal(t, []string{"user-a/go101"}, stub.views)
}

func TestRecordViewValidation(t *testing.T) {
	engine := setup(&stubRecorder{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/activity/views",
		strings.NewReader(`{"user_id":"user-a"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordActivityRejectsUnknownAction(t *testing.T) {
	stub := &stubRecorder{}
	engine := setup(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/activity/events",
		strings.NewReader(`{"user_id":"user-a","course_id":"go101","action":"bogus"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, stub.activities)
}

func TestRecordActivity(t *testing.T) {
	stub := &stubRecorder{}
	engine := setup(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/activity/events",
		strings.NewReader(`{"user_id":"user-a","course_id":"go101","action":"complete"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"user-a/go101/complete"}, stub.activities)
}

func TestRecentCourses(t *testing.T) {
	engine := setup(&stubRecorder{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/user-a/activity/recent", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go101")
	assert.Contains(t, w.Body.String(), "db201")
}
