package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// TokenCheck is the verdict for a single token.
type TokenCheck struct {
	Valid bool   `json:"valid"`
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Error string `json:"error,omitempty"`
}

// AutoPageToken describes a page token that can be derived from the user
// token when the configured page token is broken.
type AutoPageToken struct {
	Available bool   `json:"available"`
	PageID    string `json:"page_id,omitempty"`
	PageName  string `json:"page_name,omitempty"`
	PageToken string `json:"page_token,omitempty"`
}

// TokenStatus is the full validation report for the operator.
type TokenStatus struct {
	PageToken     TokenCheck     `json:"page_token"`
	UserToken     TokenCheck     `json:"user_token"`
	AutoPageToken *AutoPageToken `json:"auto_page_token,omitempty"`
}

// PageDetails is the page identity plus its profile picture URL.
type PageDetails struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// ValidateTokens checks the configured page and user tokens against /me and
// reports whether a fresh page token could be derived from the user token.
func (c *Client) ValidateTokens(ctx context.Context, pageToken string) *TokenStatus {
	status := &TokenStatus{}

	if pageToken != "" {
		status.PageToken = c.checkToken(ctx, pageToken)
	} else {
		status.PageToken = TokenCheck{Error: "FB_PAGE_TOKEN not set in environment"}
	}

	if c.userToken == "" {
		status.UserToken = TokenCheck{Error: "FB_USER_TOKEN not set in environment"}
		return status
	}

	status.UserToken = c.checkToken(ctx, c.userToken)
	if !status.UserToken.Valid {
		return status
	}

	pages, err := c.listPages(ctx)
	if err != nil || len(pages) == 0 {
		return status
	}
	first := pages[0]
	status.AutoPageToken = &AutoPageToken{
		Available: true,
		PageID:    first.ID,
		PageName:  first.Name,
		PageToken: first.AccessToken,
	}
	return status
}

func (c *Client) checkToken(ctx context.Context, token string) TokenCheck {
	reqURL := fmt.Sprintf("%s/me?access_token=%s", c.baseURL, url.QueryEscape(token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return TokenCheck{Error: err.Error()}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return TokenCheck{Error: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TokenCheck{Error: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return TokenCheck{Error: upstreamMessage(body)}
	}

	var me struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &me); err != nil {
		return TokenCheck{Error: err.Error()}
	}
	return TokenCheck{Valid: true, ID: me.ID, Name: me.Name}
}

// PageInfo resolves the publishing page and fetches its profile picture.
func (c *Client) PageInfo(ctx context.Context) (*PageDetails, error) {
	cred, err := c.PageToken(ctx)
	if err != nil {
		return nil, err
	}

	details := &PageDetails{ID: cred.PageID, Name: cred.PageName}

	reqURL := fmt.Sprintf("%s/%s/picture?type=large&redirect=false&access_token=%s",
		c.baseURL, cred.PageID, url.QueryEscape(cred.Token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return details, nil
	}
	resp, err := c.http.Do(req)
	if err != nil {
		// Picture is cosmetic; the page identity is still useful.
		return details, nil
	}
	defer resp.Body.Close()

	var picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&picture); err == nil {
		details.Picture = picture.Data.URL
	}
	return details, nil
}
