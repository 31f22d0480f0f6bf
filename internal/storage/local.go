package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalBackend keeps media on disk under the temp upload directory, served
// by the HTTP layer at /temp-uploads.
type LocalBackend struct {
	dir string
}

func NewLocalBackend(dir string) *LocalBackend {
	return &LocalBackend{dir: dir}
}

func (l *LocalBackend) Name() string { return "local" }

func (l *LocalBackend) Upload(ctx context.Context, data []byte, name string) (*Object, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	name = filepath.Base(name)
	path := filepath.Join(l.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", name, err)
	}
	return &Object{
		ID:   name,
		URL:  "/temp-uploads/" + name,
		Size: int64(len(data)),
	}, nil
}

func (l *LocalBackend) Delete(ctx context.Context, id string) error {
	return os.Remove(filepath.Join(l.dir, filepath.Base(id)))
}

func (l *LocalBackend) Quota(ctx context.Context) (*Quota, error) {
	return nil, ErrQuotaUnsupported
}
