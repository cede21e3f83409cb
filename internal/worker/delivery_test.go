package worker

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnloop/engage-api/internal/email"
	"github.com/learnloop/engage-api/internal/model"
	"github.com/learnloop/engage-api/internal/service/mailbox"
	"github.com/learnloop/engage-api/internal/service/recommendation"
	"github.com/learnloop/engage-api/internal/store"
	"github.com/learnloop/engage-api/pkg/logger"
	"github.com/learnloop/engage-api/pkg/metrics"
)

var testMetrics = metrics.New("worker_test")

const testSigningKey = "test-signing-key"

func testLogger() *logger.Logger {
	return logger.New(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
}

func newTestServer(t *testing.T, signingKey string) (*httptest.Server, mailbox.Mailbox, store.Store) {
	t.Helper()
	st := store.NewMemory()
	mb := mailbox.NewService(st, nil, testLogger(), testMetrics)
	rec := recommendation.NewService(st, testLogger(), testMetrics, recommendation.Config{
		NeighborCount: 5,
		DefaultLimit:  5,
		CacheTTL:      time.Minute,
	})

	delivery := NewDeliveryServer(mb, rec, email.Noop{}, signingKey, testLogger())
	mux := http.NewServeMux()
	delivery.Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, mb, st
}

func signedRequest(t *testing.T, url, body string) *http.Request {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "scheduler",
		"iat": time.Now().Unix(),
	}).SignedString([]byte(testSigningKey))
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set(signatureHeader, token)
	return req
}

func TestReminderDeliveryCreatesNotification(t *testing.T) {
	srv, mb, _ := newTestServer(t, testSigningKey)

	req := signedRequest(t, srv.URL+"/callbacks/reminder", `{"user_id":"user-a","course_id":"go101"}`)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	page := mb.List(context.Background(), "user-a", 10, 0)
	require.Len(t, page, 1)
	assert.Equal(t, model.NotificationReminder, page[0].Type)
	assert.Contains(t, page[0].Message, "go101")
	assert.Equal(t, int64(1), mb.UnreadCount(context.Background(), "user-a"))
}

func TestReminderDeliveryRejectsBadPayload(t *testing.T) {
	srv, _, _ := newTestServer(t, testSigningKey)

	req := signedRequest(t, srv.URL+"/callbacks/reminder", `{"user_id":""}`)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeliveryRejectsMissingSignature(t *testing.T) {
	srv, mb, _ := newTestServer(t, testSigningKey)

	resp, err := http.Post(srv.URL+"/callbacks/reminder", "application/json",
		strings.NewReader(`{"user_id":"user-a","course_id":"go101"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, mb.List(context.Background(), "user-a", 10, 0))
}

func TestDeliveryRejectsForgedSignature(t *testing.T) {
	srv, _, _ := newTestServer(t, testSigningKey)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "attacker",
	}).SignedString([]byte("wrong-key"))
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/callbacks/reminder",
		strings.NewReader(`{"user_id":"user-a","course_id":"go101"}`))
	require.NoError(t, err)
	req.Header.Set(signatureHeader, token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDeliverySkipsVerificationWithoutKey(t *testing.T) {
	srv, mb, _ := newTestServer(t, "")

	resp, err := http.Post(srv.URL+"/callbacks/reminder", "application/json",
		strings.NewReader(`{"user_id":"user-a","course_id":"go101"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, mb.List(context.Background(), "user-a", 10, 0), 1)
}

func TestDigestDeliveryUsesRecommendations(t *testing.T) {
	srv, mb, st := newTestServer(t, testSigningKey)

	ctx := context.Background()
	require.NoError(t, st.ZAdd(ctx, store.PopularCoursesKey, 30, "go101"))
	require.NoError(t, st.ZAdd(ctx, store.PopularCoursesKey, 20, "db201"))

	req := signedRequest(t, srv.URL+"/callbacks/digest", `{"user_id":"user-a"}`)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	page := mb.List(ctx, "user-a", 10, 0)
	require.Len(t, page, 1)
	assert.Equal(t, model.NotificationAnnouncement, page[0].Type)
	assert.Contains(t, page[0].Message, "go101")
	assert.Contains(t, page[0].Message, "db201")
}

func TestDigestSkippedWhenNothingToRecommend(t *testing.T) {
	srv, mb, _ := newTestServer(t, testSigningKey)

	req := signedRequest(t, srv.URL+"/callbacks/digest", `{"user_id":"user-a"}`)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, mb.List(context.Background(), "user-a", 10, 0))
}

func TestDeliveryRejectsNonPost(t *testing.T) {
	srv, _, _ := newTestServer(t, testSigningKey)

	resp, err := http.Get(srv.URL + "/callbacks/reminder")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
