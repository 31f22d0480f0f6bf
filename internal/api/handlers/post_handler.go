package handlers

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/msaleh83/pagepilot/configs"
	"github.com/msaleh83/pagepilot/internal/models"
	"github.com/msaleh83/pagepilot/internal/store"
	"github.com/msaleh83/pagepilot/internal/transfer"
)

type PostHandler struct {
	cfg   config.Config
	store *store.PostStore
}

func NewPostHandler(cfg config.Config, postStore *store.PostStore) *PostHandler {
	return &PostHandler{cfg: cfg, store: postStore}
}

func (h *PostHandler) CreateScheduledPost(c *fiber.Ctx) error {
	message := c.FormValue("message")
	scheduleTime := c.FormValue("schedule_time")
	link := c.FormValue("link")

	if message == "" || scheduleTime == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "message and schedule_time are required",
		})
	}

	parsed, err := parseScheduleTime(scheduleTime)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid schedule_time",
		})
	}
	// Dashboard clients send local wall-clock time without a zone.
	parsed = parsed.Add(time.Duration(h.cfg.ScheduleOffsetHrs) * time.Hour)

	post := &models.ScheduledPost{
		ID:           store.NewID(),
		Message:      message,
		Link:         link,
		ScheduleTime: parsed.UnixMilli(),
		Status:       models.PostStatusPending,
		CreatedAt:    time.Now().UnixMilli(),
	}

	if fh, err := c.FormFile("photo"); err == nil {
		name, err := saveUpload(c, fh, h.cfg.UploadDir)
		if err != nil {
			slog.Error("photo upload failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unable to store uploaded photo",
			})
		}
		post.Photo = name
	} else if fh, err := c.FormFile("video"); err == nil {
		name, err := saveUpload(c, fh, h.cfg.UploadDir)
		if err != nil {
			slog.Error("video upload failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unable to store uploaded video",
			})
		}
		post.Video = name
	}

	if err := h.store.Append(post); err != nil {
		slog.Error("scheduled post not persisted", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to save scheduled post",
		})
	}

	return c.Status(fiber.StatusOK).JSON(transfer.ScheduleResponse{
		Success: true,
		Message: "Post scheduled successfully",
		PostID:  post.ID,
	})
}

func (h *PostHandler) ListScheduledPosts(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.store.All())
}
