package notifications_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windlogs/notifykit/pkg/logger"
	"github.com/windlogs/notifykit/pkg/notifications"
	"github.com/windlogs/notifykit/pkg/requestid"
)

type capturedRequest struct {
	method    string
	path      string
	query     string
	auth      string
	requestID string
	body      string
}

func newTestClient(t *testing.T, status int, response string) (*notifications.Client, <-chan capturedRequest) {
	t.Helper()

	reqs := make(chan capturedRequest, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		reqs <- capturedRequest{
			method:    r.Method,
			path:      r.URL.Path,
			query:     r.URL.RawQuery,
			auth:      r.Header.Get("Authorization"),
			requestID: r.Header.Get(requestid.Header),
			body:      string(body),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)

	c, err := notifications.NewClient(srv.URL+"/api/",
		notifications.WithBearerToken(func() string { return "tok" }),
		notifications.WithTimeout(time.Second),
		notifications.WithClientLogger(logger.Discard()),
	)
	require.NoError(t, err)
	return c, reqs
}

func TestNewClient_InvalidURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "localhost:8080", "://bad"} {
		_, err := notifications.NewClient(raw)
		assert.ErrorIs(t, err, notifications.ErrInvalidBaseURL, raw)
	}
}

func TestClient_List(t *testing.T) {
	t.Parallel()

	c, reqs := newTestClient(t, http.StatusOK, `[
		{"id":1,"message":"one","createdAt":"2025-03-15T10:30:00"},
		{"id":2,"message":"two","createdAt":1742034600000,"read":true}
	]`)

	ctx := requestid.WithContext(context.Background(), "rid-1")
	recs, err := c.List(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(2), recs[1].ID)
	assert.True(t, recs[1].Read)

	req := <-reqs
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "/api/notifications", req.path)
	assert.Equal(t, "email=a%40x.com", req.query)
	assert.Equal(t, "Bearer tok", req.auth)
	assert.Equal(t, "rid-1", req.requestID)
}

func TestClient_GeneratesRequestID(t *testing.T) {
	t.Parallel()

	c, reqs := newTestClient(t, http.StatusOK, `[]`)
	_, err := c.List(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.NotEmpty(t, (<-reqs).requestID)
}

func TestClient_Unread(t *testing.T) {
	t.Parallel()

	c, reqs := newTestClient(t, http.StatusOK, `[{"id":5,"message":"u"}]`)
	recs, err := c.Unread(context.Background(), "a@x.com", "acme")
	require.NoError(t, err)
	require.Len(t, recs, 1)

	req := <-reqs
	assert.Equal(t, "/api/notifications/unread", req.path)
	assert.Equal(t, "email=a%40x.com&tenant=acme", req.query)
}

func TestClient_UnreadCount(t *testing.T) {
	t.Parallel()

	c, reqs := newTestClient(t, http.StatusOK, `3`)
	n, err := c.UnreadCount(context.Background(), "a@x.com", "")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	req := <-reqs
	assert.Equal(t, "/api/notifications/unread/count", req.path)
	assert.Equal(t, "email=a%40x.com", req.query)
}

func TestClient_MarkRead(t *testing.T) {
	t.Parallel()

	c, reqs := newTestClient(t, http.StatusOK, `{"id":42,"message":"m","read":true}`)
	rec, err := c.MarkRead(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, rec.Read)

	req := <-reqs
	assert.Equal(t, http.MethodPut, req.method)
	assert.Equal(t, "/api/notifications/42/read", req.path)
}

func TestClient_MarkAllRead(t *testing.T) {
	t.Parallel()

	c, reqs := newTestClient(t, http.StatusOK, `[]`)
	_, err := c.MarkAllRead(context.Background(), "a@x.com")
	require.NoError(t, err)

	req := <-reqs
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/api/notifications/mark-all-read", req.path)
	assert.JSONEq(t, `{"email":"a@x.com"}`, req.body)
}

func TestClient_Create(t *testing.T) {
	t.Parallel()

	c, reqs := newTestClient(t, http.StatusCreated, `{"id":100,"message":"hi","type":"info"}`)
	rec, err := c.Create(context.Background(), notifications.Record{Message: "hi", Type: "info"})
	require.NoError(t, err)
	assert.Equal(t, int64(100), rec.ID)

	req := <-reqs
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/api/notifications", req.path)

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.body), &sent))
	assert.Equal(t, "hi", sent["message"])
}

func TestClient_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unexpected status", func(t *testing.T) {
		c, _ := newTestClient(t, http.StatusInternalServerError, strings.Repeat("boom\n", 100))
		_, err := c.List(context.Background(), "a@x.com")
		assert.ErrorIs(t, err, notifications.ErrUnexpectedStatus)
		assert.Contains(t, err.Error(), "500")
		assert.NotContains(t, err.Error(), "\n")
	})

	t.Run("bad json", func(t *testing.T) {
		c, _ := newTestClient(t, http.StatusOK, `{"not":"a list"}`)
		_, err := c.List(context.Background(), "a@x.com")
		assert.ErrorIs(t, err, notifications.ErrDecode)
	})

	t.Run("unreachable", func(t *testing.T) {
		c, err := notifications.NewClient("http://127.0.0.1:1", notifications.WithClientLogger(logger.Discard()))
		require.NoError(t, err)
		_, err = c.List(context.Background(), "a@x.com")
		assert.ErrorIs(t, err, notifications.ErrRequestFailed)
	})
}
