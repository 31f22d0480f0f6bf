package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	config "github.com/msaleh83/pagepilot/configs"
)

// DriveBackend stores media in Google Drive through a service account.
type DriveBackend struct {
	service  *drive.Service
	folderID string
}

func NewDriveBackend(cfg config.Config) (*DriveBackend, error) {
	if _, err := os.Stat(cfg.Drive.CredentialsFile); err != nil {
		return nil, fmt.Errorf("service account file %s: %w", cfg.Drive.CredentialsFile, err)
	}

	srv, err := drive.NewService(context.Background(),
		option.WithCredentialsFile(cfg.Drive.CredentialsFile),
		option.WithScopes(drive.DriveScope),
	)
	if err != nil {
		return nil, fmt.Errorf("init drive service: %w", err)
	}

	return &DriveBackend{service: srv, folderID: cfg.Drive.FolderID}, nil
}

func (b *DriveBackend) Name() string { return "drive" }

func (b *DriveBackend) Upload(ctx context.Context, data []byte, name string) (*Object, error) {
	meta := &drive.File{Name: name}
	if b.folderID != "" {
		meta.Parents = []string{b.folderID}
	}

	file, err := b.service.Files.Create(meta).
		Context(ctx).
		Media(bytes.NewReader(data)).
		Fields("id, name, webViewLink, size").
		Do()
	if err != nil {
		return nil, fmt.Errorf("drive upload %s: %w", name, err)
	}

	return &Object{ID: file.Id, URL: file.WebViewLink, Size: file.Size}, nil
}

func (b *DriveBackend) Delete(ctx context.Context, id string) error {
	if err := b.service.Files.Delete(id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("drive delete %s: %w", id, err)
	}
	return nil
}

func (b *DriveBackend) Quota(ctx context.Context) (*Quota, error) {
	about, err := b.service.About.Get().Context(ctx).Fields("storageQuota").Do()
	if err != nil {
		return nil, fmt.Errorf("drive quota: %w", err)
	}
	return &Quota{
		Used:  about.StorageQuota.Usage,
		Total: about.StorageQuota.Limit,
	}, nil
}
