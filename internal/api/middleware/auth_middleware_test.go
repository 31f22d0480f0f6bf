package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/msaleh83/pagepilot/configs"
	"github.com/msaleh83/pagepilot/pkg/utils"
)

func newProtectedApp(cfg config.Config) *fiber.App {
	app := fiber.New()
	m := NewAuthMiddleware(cfg)
	app.Post("/api/restart", m.AdminAuth(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	return app
}

func testConfig() config.Config {
	return config.Config{
		RestartPassword: "hunter2",
		SecretKey:       "test-secret",
		CookieName:      "pagepilot_session",
	}
}

func TestAdminAuthRejectsMissingCredentials(t *testing.T) {
	app := newProtectedApp(testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/restart", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminAuthRejectsWrongPassword(t *testing.T) {
	app := newProtectedApp(testConfig())

	form := url.Values{"password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/api/restart", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminAuthAcceptsPassword(t *testing.T) {
	app := newProtectedApp(testConfig())

	form := url.Values{"password": {"hunter2"}}
	req := httptest.NewRequest(http.MethodPost, "/api/restart", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminAuthAcceptsSessionCookie(t *testing.T) {
	cfg := testConfig()
	app := newProtectedApp(cfg)

	token, err := utils.GenerateToken(cfg.SecretKey, "admin", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/restart", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: token})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminAuthRejectsForgedCookie(t *testing.T) {
	cfg := testConfig()
	app := newProtectedApp(cfg)

	token, err := utils.GenerateToken("other-secret", "admin", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/restart", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: token})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
