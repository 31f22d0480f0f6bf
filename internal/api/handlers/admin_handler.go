package handlers

import (
	"log/slog"
	"os/exec"
	"regexp"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/msaleh83/pagepilot/configs"
	"github.com/msaleh83/pagepilot/internal/health"
	"github.com/msaleh83/pagepilot/internal/notify"
	"github.com/msaleh83/pagepilot/internal/store"
	"github.com/msaleh83/pagepilot/internal/transfer"
	"github.com/msaleh83/pagepilot/pkg/utils"
)

const sessionDuration = 24 * time.Hour

var serviceNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

type AdminHandler struct {
	cfg      config.Config
	store    *store.PostStore
	checker  *health.Checker
	notifier *notify.Notifier
}

func NewAdminHandler(cfg config.Config, postStore *store.PostStore, checker *health.Checker, notifier *notify.Notifier) *AdminHandler {
	return &AdminHandler{cfg: cfg, store: postStore, checker: checker, notifier: notifier}
}

func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req transfer.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		req.Password = c.FormValue("password")
	}

	if h.cfg.RestartPassword == "" || req.Password != h.cfg.RestartPassword {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid password",
		})
	}

	token, err := utils.GenerateToken(h.cfg.SecretKey, "admin", sessionDuration)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to create session",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionDuration.Seconds()),
		HTTPOnly: true,
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

func (h *AdminHandler) Restart(c *fiber.Ctx) error {
	if err := h.checker.Restart(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Restart initiated",
	})
}

func (h *AdminHandler) RestartService(c *fiber.Ctx) error {
	name := c.FormValue("service")
	if !serviceNameRe.MatchString(name) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid service name",
		})
	}

	cmd := exec.Command("systemctl", "restart", name)
	if err := cmd.Start(); err != nil {
		slog.Error("service restart failed", "service", name, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	slog.Info("service restart requested", "service", name)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"service": name,
	})
}

// Cleanup removes published posts and stale failed posts on demand,
// the same pass the daily prune job runs.
func (h *AdminHandler) Cleanup(c *fiber.Ctx) error {
	retention := time.Duration(h.cfg.FailedRetention) * 24 * time.Hour
	removed, err := h.store.Prune(time.Now(), retention)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(transfer.CleanupResponse{
		Success: true,
		Removed: removed,
	})
}

func (h *AdminHandler) TestNotification(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.notifier.Test())
}
