package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/msaleh83/pagepilot/configs"
	"github.com/msaleh83/pagepilot/internal/models"
	"github.com/msaleh83/pagepilot/internal/store"
)

func newPostApp(t *testing.T, offsetHrs int) (*fiber.App, *store.PostStore) {
	t.Helper()

	dir := t.TempDir()
	postStore, err := store.NewPostStore(filepath.Join(dir, "posts.json"))
	require.NoError(t, err)

	cfg := config.Config{
		UploadDir:         filepath.Join(dir, "uploads"),
		ScheduleOffsetHrs: offsetHrs,
	}

	app := fiber.New()
	h := NewPostHandler(cfg, postStore)
	app.Post("/api/schedule-post", h.CreateScheduledPost)
	app.Get("/api/scheduled-posts", h.ListScheduledPosts)
	return app, postStore
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestCreateScheduledPostRequiresMessageAndTime(t *testing.T) {
	app, postStore := newPostApp(t, 0)

	for _, fields := range []map[string]string{
		{"schedule_time": "2026-09-01T10:00"},
		{"message": "hello"},
		{},
	} {
		body, contentType := multipartBody(t, fields)
		req := httptest.NewRequest(http.MethodPost, "/api/schedule-post", body)
		req.Header.Set("Content-Type", contentType)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}
	assert.Zero(t, postStore.Len())
}

func TestCreateScheduledPostStoresPendingWithOffset(t *testing.T) {
	app, postStore := newPostApp(t, 2)

	body, contentType := multipartBody(t, map[string]string{
		"message":       "launch announcement",
		"schedule_time": "2026-09-01T10:00",
		"link":          "https://example.com",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/schedule-post", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	posts := postStore.All()
	require.Len(t, posts, 1)
	post := posts[0]
	assert.Equal(t, models.PostStatusPending, post.Status)
	assert.Equal(t, "launch announcement", post.Message)
	assert.Equal(t, "https://example.com", post.Link)

	want := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, want, post.ScheduleTime)
}

func TestCreateScheduledPostRejectsBadTime(t *testing.T) {
	app, postStore := newPostApp(t, 0)

	body, contentType := multipartBody(t, map[string]string{
		"message":       "hello",
		"schedule_time": "next tuesday",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/schedule-post", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, postStore.Len())
}

func TestListScheduledPosts(t *testing.T) {
	app, postStore := newPostApp(t, 0)

	require.NoError(t, postStore.Append(&models.ScheduledPost{
		ID:      store.NewID(),
		Message: "queued",
		Status:  models.PostStatusPending,
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/scheduled-posts", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var posts []models.ScheduledPost
	require.NoError(t, json.Unmarshal(raw, &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "queued", posts[0].Message)
}
