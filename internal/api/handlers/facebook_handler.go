package handlers

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	config "github.com/msaleh83/pagepilot/configs"
	"github.com/msaleh83/pagepilot/internal/dedup"
	"github.com/msaleh83/pagepilot/internal/facebook"
	"github.com/msaleh83/pagepilot/internal/media"
	"github.com/msaleh83/pagepilot/internal/notify"
	"github.com/msaleh83/pagepilot/internal/transfer"
)

type FacebookHandler struct {
	cfg      config.Config
	graph    *facebook.Client
	cache    *dedup.Cache
	notifier *notify.Notifier
}

func NewFacebookHandler(cfg config.Config, graph *facebook.Client, cache *dedup.Cache, notifier *notify.Notifier) *FacebookHandler {
	return &FacebookHandler{cfg: cfg, graph: graph, cache: cache, notifier: notifier}
}

// PostToFacebook publishes immediately: optional photo upload first, then
// the feed post referencing it. A post_hash lets clients retry safely.
func (h *FacebookHandler) PostToFacebook(c *fiber.Ctx) error {
	message := c.FormValue("message")
	link := c.FormValue("link")
	postHash := c.FormValue("post_hash")

	if message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "message is required",
		})
	}

	if h.cache.Seen(postHash) {
		slog.Info("duplicate post skipped", "hash", postHash)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success":   true,
			"duplicate": true,
			"message":   "Post already published recently",
		})
	}

	var photoPath string
	if fh, err := c.FormFile("photo"); err == nil {
		name, err := saveUpload(c, fh, h.cfg.UploadDir)
		if err != nil {
			slog.Error("photo upload failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unable to store uploaded photo",
			})
		}
		photoPath = filepath.Join(h.cfg.UploadDir, name)

		if v := media.Validate(photoPath); !v.Valid {
			os.Remove(photoPath)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": v.Error,
			})
		}
		media.Optimize(photoPath, media.MaxWidth, media.MaxHeight, media.JPEGQuality)
	}

	cred, err := h.graph.PageToken(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(transfer.PublishResponse{Error: err.Error()})
	}

	var attachmentID string
	if photoPath != "" {
		attachmentID, err = h.graph.UploadMedia(c.Context(), photoPath, false, cred)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(transfer.PublishResponse{Error: err.Error()})
		}
	}

	postID, err := h.graph.PublishFeed(c.Context(), message, link, attachmentID, cred)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(transfer.PublishResponse{Error: err.Error()})
	}

	if photoPath != "" {
		if err := os.Remove(photoPath); err != nil {
			slog.Warn("media cleanup failed", "path", photoPath, "error", err)
		}
	}
	h.cache.Remember(postHash)
	h.notifier.Success(postID, cred.PageName, message)

	return c.Status(fiber.StatusOK).JSON(transfer.PublishResponse{
		Success: true,
		PostID:  postID,
		Link:    "https://facebook.com/" + postID,
	})
}

func (h *FacebookHandler) PostToGroup(c *fiber.Ctx) error {
	groupID := c.FormValue("group_id")
	message := c.FormValue("message")
	link := c.FormValue("link")

	if groupID == "" || message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "group_id and message are required",
		})
	}

	var attachmentID string
	if fh, err := c.FormFile("photo"); err == nil {
		name, err := saveUpload(c, fh, h.cfg.UploadDir)
		if err != nil {
			slog.Error("photo upload failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unable to store uploaded photo",
			})
		}
		photoPath := filepath.Join(h.cfg.UploadDir, name)
		defer os.Remove(photoPath)

		attachmentID, err = h.graph.UploadGroupPhoto(c.Context(), photoPath, groupID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(transfer.PublishResponse{Error: err.Error()})
		}
	}

	postID, err := h.graph.PublishGroupFeed(c.Context(), groupID, message, link, attachmentID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(transfer.PublishResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(transfer.PublishResponse{
		Success: true,
		PostID:  postID,
	})
}

func (h *FacebookHandler) ValidateToken(c *fiber.Ctx) error {
	status := h.graph.ValidateTokens(c.Context(), h.cfg.FBPageToken)
	return c.Status(fiber.StatusOK).JSON(status)
}

func (h *FacebookHandler) PageInfo(c *fiber.Ctx) error {
	info, err := h.graph.PageInfo(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(info)
}
