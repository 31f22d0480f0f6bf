package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/msaleh83/pagepilot/configs"
)

func TestLocalUploadDeleteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	b := NewLocalBackend(dir)
	ctx := context.Background()

	obj, err := b.Upload(ctx, []byte("jpeg-bytes"), "photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "photo.jpg", obj.ID)
	assert.Equal(t, "/temp-uploads/photo.jpg", obj.URL)
	assert.EqualValues(t, 10, obj.Size)
	assert.FileExists(t, filepath.Join(dir, "photo.jpg"))

	require.NoError(t, b.Delete(ctx, obj.ID))
	assert.NoFileExists(t, filepath.Join(dir, "photo.jpg"))
}

func TestLocalUploadStripsPathComponents(t *testing.T) {
	dir := t.TempDir()
	b := NewLocalBackend(dir)

	obj, err := b.Upload(context.Background(), []byte("x"), "../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "passwd", obj.ID)
	assert.FileExists(t, filepath.Join(dir, "passwd"))
}

func TestLocalQuotaUnsupported(t *testing.T) {
	b := NewLocalBackend(t.TempDir())
	_, err := b.Quota(context.Background())
	assert.ErrorIs(t, err, ErrQuotaUnsupported)
}

func TestSelectFallsBackToLocal(t *testing.T) {
	b := Select(config.Config{StorageBackend: "something-weird", UploadDir: t.TempDir()})
	assert.Equal(t, "local", b.Name())

	// A drive selection without a service file must degrade, not crash.
	b = Select(config.Config{StorageBackend: "drive", UploadDir: t.TempDir(), Drive: config.Drive{CredentialsFile: "missing.json"}})
	assert.Equal(t, "local", b.Name())
}

func TestMigrateLocalUploadsAndDeletes(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.jpg"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "b.jpg"), []byte("b"), 0o644))

	results, err := MigrateLocal(context.Background(), src, NewLocalBackend(dst))
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "uploaded", r.Status)
	}

	assert.NoFileExists(t, filepath.Join(src, "a.jpg"))
	assert.FileExists(t, filepath.Join(dst, "a.jpg"))
	assert.FileExists(t, filepath.Join(dst, "b.jpg"))
}
