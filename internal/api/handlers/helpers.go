package handlers

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/msaleh83/pagepilot/internal/store"
)

var scheduleLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

func parseScheduleTime(value string) (time.Time, error) {
	for _, layout := range scheduleLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized schedule_time %q", value)
}

// saveUpload stores a multipart file under dir with a fresh unique name,
// keeping the original extension. Returns the stored filename.
func saveUpload(c *fiber.Ctx, fh *multipart.FileHeader, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := store.NewID() + filepath.Ext(fh.Filename)
	if err := c.SaveFile(fh, filepath.Join(dir, name)); err != nil {
		return "", err
	}
	return name, nil
}
