package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/msaleh83/pagepilot/configs"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.Config{
		GraphBaseURL:     srv.URL,
		FBUserToken:      "user-token",
		FBPageID:         "133112064223614",
		PageNameKeywords: []string{"it", "solution"},
	})
}

func pagesResponse(pages ...map[string]string) []byte {
	body, _ := json.Marshal(map[string]any{"data": pages})
	return body
}

func TestPageTokenSelectsConfiguredPage(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/me/accounts", r.URL.Path)
		atomic.AddInt32(&calls, 1)
		w.Write(pagesResponse(
			map[string]string{"id": "1", "name": "Personal Blog", "access_token": "t1"},
			map[string]string{"id": "133112064223614", "name": "IT-Solutions", "access_token": "t2"},
		))
	}))

	cred, err := client.PageToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "133112064223614", cred.PageID)
	assert.Equal(t, "IT-Solutions", cred.PageName)
	assert.Equal(t, "t2", cred.Token)

	// Second resolve must come from the cache.
	_, err = client.PageToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPageTokenKeywordMatchAndFallback(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pagesResponse(
			map[string]string{"id": "9", "name": "Cooking Tips", "access_token": "t9"},
			map[string]string{"id": "10", "name": "Best Solutions Hub", "access_token": "t10"},
		))
	}))

	cred, err := client.PageToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "10", cred.PageID)

	// With no keyword or ID match the first usable page wins.
	client.Invalidate()
	client.pageID = ""
	client.keywords = nil
	cred, err = client.PageToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "9", cred.PageID)
}

func TestPageTokenNoPages(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))

	_, err := client.PageToken(context.Background())
	assert.ErrorIs(t, err, ErrNoPages)
}

func TestPageTokenNoUsablePage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pagesResponse(map[string]string{"id": "1", "name": "IT-Solutions"}))
	}))

	_, err := client.PageToken(context.Background())
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestUploadMediaPhoto(t *testing.T) {
	dir := t.TempDir()
	photo := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(photo, []byte("jpeg-bytes"), 0o644))

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/42/photos", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "page-token", r.FormValue("access_token"))
		assert.Equal(t, "false", r.FormValue("published"))

		file, header, err := r.FormFile("source")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "photo.jpg", header.Filename)

		fmt.Fprint(w, `{"id": "attach-1"}`)
	}))

	cred := &PageCredential{Token: "page-token", PageID: "42"}
	id, err := client.UploadMedia(context.Background(), photo, false, cred)
	require.NoError(t, err)
	assert.Equal(t, "attach-1", id)
}

func TestUploadMediaUnreadableFile(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an unreadable file")
	}))

	cred := &PageCredential{Token: "page-token", PageID: "42"}
	_, err := client.UploadMedia(context.Background(), "/nonexistent/photo.jpg", false, cred)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read media file")
}

func TestUploadMediaRejectionPassesUpstreamMessage(t *testing.T) {
	dir := t.TempDir()
	photo := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(photo, []byte("not-a-jpeg"), 0o644))

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": {"message": "Invalid image", "code": 100}}`)
	}))

	cred := &PageCredential{Token: "page-token", PageID: "42"}
	_, err := client.UploadMedia(context.Background(), photo, false, cred)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid image")
}

func TestPublishFeedWithAttachmentAndLink(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/42/feed", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "hello", r.FormValue("message"))
		assert.Equal(t, "https://example.com", r.FormValue("link"))
		assert.Equal(t, "attach-1", r.FormValue("object_attachment"))
		fmt.Fprint(w, `{"id": "999"}`)
	}))

	cred := &PageCredential{Token: "page-token", PageID: "42"}
	id, err := client.PublishFeed(context.Background(), "hello", "https://example.com", "attach-1", cred)
	require.NoError(t, err)
	assert.Equal(t, "999", id)
}

func TestPublishFeedRejection(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error": {"message": "Permissions error"}}`)
	}))

	cred := &PageCredential{Token: "page-token", PageID: "42"}
	_, err := client.PublishFeed(context.Background(), "hello", "", "", cred)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Permissions error")
}

func TestValidateTokens(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me":
			token := r.URL.Query().Get("access_token")
			if token == "bad-page-token" {
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, `{"error": {"message": "Session has expired"}}`)
				return
			}
			fmt.Fprint(w, `{"id": "77", "name": "Operator"}`)
		case "/me/accounts":
			w.Write(pagesResponse(map[string]string{"id": "42", "name": "IT-Solutions", "access_token": "fresh"}))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	status := client.ValidateTokens(context.Background(), "bad-page-token")
	assert.False(t, status.PageToken.Valid)
	assert.Contains(t, status.PageToken.Error, "Session has expired")
	assert.True(t, status.UserToken.Valid)
	require.NotNil(t, status.AutoPageToken)
	assert.Equal(t, "42", status.AutoPageToken.PageID)
	assert.Equal(t, "fresh", status.AutoPageToken.PageToken)
}
