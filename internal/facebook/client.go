package facebook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	config "github.com/msaleh83/pagepilot/configs"
)

var (
	// ErrNoPages is returned when the user token has no pages at all.
	ErrNoPages = errors.New("no pages found in user account")
	// ErrPageNotFound is returned when pages exist but none carries a
	// usable page access token.
	ErrPageNotFound = errors.New("target page not found in user accounts")
)

// PageCredential is a page-scoped publishing credential derived from the
// configured user token.
type PageCredential struct {
	Token    string
	PageID   string
	PageName string
}

// Client talks to the Facebook Graph API. The page credential is resolved
// once and cached for process lifetime; Invalidate forces a refresh.
type Client struct {
	baseURL   string
	userToken string
	pageID    string
	keywords  []string
	http      *http.Client

	mu     sync.Mutex
	cached *PageCredential
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.GraphBaseURL, "/"),
		userToken: cfg.FBUserToken,
		pageID:    cfg.FBPageID,
		keywords:  cfg.PageNameKeywords,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

type graphPage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
}

type graphError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// upstreamMessage extracts the Graph error message from a response body,
// falling back to the raw body so the operator always sees something.
func upstreamMessage(body []byte) string {
	var ge graphError
	if err := json.Unmarshal(body, &ge); err == nil && ge.Error.Message != "" {
		return ge.Error.Message
	}
	return strings.TrimSpace(string(body))
}

// PageToken resolves the page-scoped credential from the user token. The
// page is selected by the configured page ID, then by a name keyword
// match, then falls back to the first usable page.
func (c *Client) PageToken(ctx context.Context) (*PageCredential, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil {
		slog.Debug("using cached page token", "page", c.cached.PageName)
		return c.cached, nil
	}

	if c.userToken == "" {
		return nil, errors.New("FB_USER_TOKEN not configured")
	}

	pages, err := c.listPages(ctx)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	page := c.selectPage(pages)
	if page == nil {
		return nil, fmt.Errorf("%w, available: %s", ErrPageNotFound, pageNames(pages))
	}

	slog.Info("resolved page token", "page", page.Name, "page_id", page.ID)
	c.cached = &PageCredential{Token: page.AccessToken, PageID: page.ID, PageName: page.Name}
	return c.cached, nil
}

// Invalidate drops the cached credential so the next PageToken call does a
// fresh lookup.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}

func (c *Client) listPages(ctx context.Context) ([]graphPage, error) {
	reqURL := fmt.Sprintf("%s/me/accounts?access_token=%s", c.baseURL, url.QueryEscape(c.userToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user pages: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read pages response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch user pages: %s", upstreamMessage(body))
	}

	var result struct {
		Data []graphPage `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse pages response: %w", err)
	}
	return result.Data, nil
}

func (c *Client) selectPage(pages []graphPage) *graphPage {
	var fallback *graphPage
	for i := range pages {
		p := &pages[i]
		if p.AccessToken == "" {
			continue
		}
		if fallback == nil {
			fallback = p
		}
		if c.pageID != "" && p.ID == c.pageID {
			return p
		}
		name := strings.ToLower(p.Name)
		for _, kw := range c.keywords {
			if strings.Contains(name, kw) {
				return p
			}
		}
	}
	return fallback
}

func pageNames(pages []graphPage) string {
	names := make([]string, len(pages))
	for i, p := range pages {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

// UploadMedia pushes a local photo or video to the page's media
// sub-resource and returns the attachment handle. The caller must not
// delete the local file until the feed post itself succeeds.
func (c *Client) UploadMedia(ctx context.Context, localPath string, isVideo bool, cred *PageCredential) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("read media file: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/photos", c.baseURL, cred.PageID)
	kind := "photo"
	if isVideo {
		endpoint = fmt.Sprintf("%s/%s/videos", c.baseURL, cred.PageID)
		kind = "video"
	}

	fields := map[string]string{
		"access_token": cred.Token,
		"published":    "false",
	}
	id, err := c.postMultipart(ctx, endpoint, filepath.Base(localPath), data, fields)
	if err != nil {
		return "", fmt.Errorf("%s upload rejected: %w", kind, err)
	}
	slog.Info("media uploaded", "kind", kind, "attachment_id", id)
	return id, nil
}

// UploadGroupPhoto is the group-feed variant; groups are posted to with the
// user token directly.
func (c *Client) UploadGroupPhoto(ctx context.Context, localPath, groupID string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("read media file: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/photos", c.baseURL, groupID)
	fields := map[string]string{
		"access_token": c.userToken,
		"published":    "false",
	}
	id, err := c.postMultipart(ctx, endpoint, filepath.Base(localPath), data, fields)
	if err != nil {
		return "", fmt.Errorf("photo upload rejected: %w", err)
	}
	return id, nil
}

func (c *Client) postMultipart(ctx context.Context, endpoint, filename string, data []byte, fields map[string]string) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("source", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return "", err
		}
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.New(upstreamMessage(body))
	}

	var result struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parse upload response: %w", err)
	}
	if result.ID == "" && result.PostID == "" {
		return "", errors.New("no media ID returned")
	}
	if result.ID != "" {
		return result.ID, nil
	}
	return result.PostID, nil
}

// PublishFeed creates the visible feed entry. Exactly one feed call is made
// per post whether or not media is attached; media rides along as
// object_attachment so no implicit post is created for the upload.
func (c *Client) PublishFeed(ctx context.Context, message, link, attachmentID string, cred *PageCredential) (string, error) {
	form := url.Values{}
	form.Set("message", message)
	form.Set("access_token", cred.Token)
	if link != "" {
		form.Set("link", link)
	}
	if attachmentID != "" {
		form.Set("object_attachment", attachmentID)
	}

	id, err := c.postForm(ctx, fmt.Sprintf("%s/%s/feed", c.baseURL, cred.PageID), form)
	if err != nil {
		return "", fmt.Errorf("feed publish rejected: %w", err)
	}
	slog.Info("feed post created", "post_id", id, "page", cred.PageName)
	return id, nil
}

// PublishGroupFeed posts to a group feed with the user token, always with
// EVERYONE privacy like the dashboard's group flow.
func (c *Client) PublishGroupFeed(ctx context.Context, groupID, message, link, attachmentID string) (string, error) {
	form := url.Values{}
	form.Set("message", message)
	form.Set("access_token", c.userToken)
	form.Set("privacy", `{"value":"EVERYONE"}`)
	if link != "" {
		form.Set("link", link)
	}
	if attachmentID != "" {
		form.Set("object_attachment", attachmentID)
	}

	id, err := c.postForm(ctx, fmt.Sprintf("%s/%s/feed", c.baseURL, groupID), form)
	if err != nil {
		return "", fmt.Errorf("group publish rejected: %w", err)
	}
	return id, nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.New(upstreamMessage(body))
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parse feed response: %w", err)
	}
	if result.ID == "" {
		return "", errors.New("no post ID returned")
	}
	return result.ID, nil
}
