package handlers

import (
	"errors"
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	config "github.com/msaleh83/pagepilot/configs"
	"github.com/msaleh83/pagepilot/internal/storage"
	"github.com/msaleh83/pagepilot/internal/transfer"
)

type StorageHandler struct {
	cfg     config.Config
	backend storage.Backend
}

func NewStorageHandler(cfg config.Config, backend storage.Backend) *StorageHandler {
	return &StorageHandler{cfg: cfg, backend: backend}
}

// Upload pushes a file to the configured backend, falling back to local
// disk when the remote backend rejects it.
func (h *StorageHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
		})
	}

	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to read uploaded file",
		})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to read uploaded file",
		})
	}

	backend := h.backend
	obj, err := backend.Upload(c.Context(), data, fh.Filename)
	if err != nil && backend.Name() != "local" {
		slog.Warn("backend upload failed, falling back to local", "backend", backend.Name(), "error", err)
		backend = storage.NewLocalBackend(h.cfg.UploadDir)
		obj, err = backend.Upload(c.Context(), data, fh.Filename)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(transfer.UploadResponse{
		Success: true,
		URL:     obj.URL,
		ID:      obj.ID,
		Backend: backend.Name(),
	})
}

func (h *StorageHandler) Quota(c *fiber.Ctx) error {
	quota, err := h.backend.Quota(c.Context())
	if err != nil {
		if errors.Is(err, storage.ErrQuotaUnsupported) {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"supported": false,
				"backend":   h.backend.Name(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"supported": true,
		"backend":   h.backend.Name(),
		"used":      quota.Used,
		"total":     quota.Total,
	})
}

func (h *StorageHandler) Migrate(c *fiber.Ctx) error {
	if h.backend.Name() == "local" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No remote storage backend configured",
		})
	}

	results, err := storage.MigrateLocal(c.Context(), h.cfg.UploadDir, h.backend)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"results": results,
	})
}
