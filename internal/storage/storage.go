package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	config "github.com/msaleh83/pagepilot/configs"
)

// ErrQuotaUnsupported is returned by backends without a usage concept.
var ErrQuotaUnsupported = errors.New("storage backend does not report quota")

// Object describes a stored media asset.
type Object struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// Quota is the backend's storage usage in bytes.
type Quota struct {
	Used  int64 `json:"used"`
	Total int64 `json:"total"`
}

// Backend is a single capability interface over every media sink: local
// disk, any S3-compatible store, Google Drive. The scheduler and upload
// endpoint depend only on this, never on a concrete backend.
type Backend interface {
	Name() string
	Upload(ctx context.Context, data []byte, name string) (*Object, error)
	Delete(ctx context.Context, id string) error
	Quota(ctx context.Context) (*Quota, error)
}

// Select builds the configured backend. Unknown values fall back to local
// disk so the server always comes up.
func Select(cfg config.Config) Backend {
	switch cfg.StorageBackend {
	case "s3", "r2", "minio":
		b, err := NewS3Backend(cfg)
		if err != nil {
			slog.Error("s3 backend unavailable, falling back to local", "error", err)
			return NewLocalBackend(cfg.UploadDir)
		}
		return b
	case "drive":
		b, err := NewDriveBackend(cfg)
		if err != nil {
			slog.Error("google drive unavailable, falling back to local", "error", err)
			return NewLocalBackend(cfg.UploadDir)
		}
		return b
	case "local", "":
		return NewLocalBackend(cfg.UploadDir)
	default:
		slog.Warn("unknown storage backend, using local", "backend", cfg.StorageBackend)
		return NewLocalBackend(cfg.UploadDir)
	}
}

// MigrationResult is the per-file outcome of MigrateLocal.
type MigrationResult struct {
	File   string `json:"file"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// MigrateLocal uploads every file under dir to the backend and deletes the
// local copy of each file that made it. Failures keep their local copy.
func MigrateLocal(ctx context.Context, dir string, backend Backend) ([]MigrationResult, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read upload dir: %w", err)
	}

	var results []MigrationResult
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			results = append(results, MigrationResult{File: entry.Name(), Status: "failed", Error: err.Error()})
			continue
		}
		if _, err := backend.Upload(ctx, data, entry.Name()); err != nil {
			results = append(results, MigrationResult{File: entry.Name(), Status: "failed", Error: err.Error()})
			continue
		}
		if err := os.Remove(path); err != nil {
			slog.Warn("migrated file could not be deleted locally", "file", entry.Name(), "error", err)
		}
		results = append(results, MigrationResult{File: entry.Name(), Status: "uploaded"})
	}
	return results, nil
}
