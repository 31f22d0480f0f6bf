package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/msaleh83/pagepilot/internal/models"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewID builds a post ID from the creation instant plus a random suffix.
// IDs are never reused.
func NewID() string {
	return fmt.Sprintf("%d%s", time.Now().UnixMilli(), gonanoid.MustGenerate(idAlphabet, 9))
}

// PostStore is the durable ordered collection of scheduled posts. The
// in-memory slice and the on-disk file are kept in lockstep: every mutation
// is followed by a full rewrite before the caller proceeds.
type PostStore struct {
	mu    sync.Mutex
	path  string
	posts []*models.ScheduledPost
}

// NewPostStore loads the collection from path, creating the parent
// directory and an empty file when missing.
func NewPostStore(path string) (*PostStore, error) {
	s := &PostStore{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
			return nil, fmt.Errorf("create data file: %w", err)
		}
		slog.Info("created scheduled posts file", "path", path)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}

	if err := json.Unmarshal(data, &s.posts); err != nil {
		return nil, fmt.Errorf("parse data file %s: %w", path, err)
	}
	slog.Info("loaded scheduled posts", "count", len(s.posts), "path", path)
	return s, nil
}

// Append adds a post at the end of the collection and persists. On a write
// failure the in-memory entry is kept but the error is surfaced so the
// caller knows durability was not achieved.
func (s *PostStore) Append(post *models.ScheduledPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append(s.posts, post)
	return s.persistLocked()
}

// All returns the ordered sequence as deep copies. Callers can read and
// marshal the result freely; status transitions go through Update so the
// live records are only ever touched under the lock.
func (s *PostStore) All() []*models.ScheduledPost {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.ScheduledPost, len(s.posts))
	for i, p := range s.posts {
		c := *p
		out[i] = &c
	}
	return out
}

// Update applies transition to the post with the given ID and persists,
// all under the lock so concurrent readers never observe a half-applied
// transition. The post may have been pruned since the caller saw it.
func (s *PostStore) Update(id string, transition func(*models.ScheduledPost)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.ID == id {
			transition(p)
			return s.persistLocked()
		}
	}
	return fmt.Errorf("post %s not found", id)
}

// Persist rewrites the whole collection to disk.
func (s *PostStore) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

// persistLocked writes to a temp file and renames it into place so a
// concurrent reader never observes a partial write.
func (s *PostStore) persistLocked() error {
	data, err := json.MarshalIndent(s.posts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode posts: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write posts: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace posts file: %w", err)
	}
	return nil
}

// Prune removes every published post, plus failed posts older than
// failedRetention when a non-zero retention is configured. Failed posts are
// otherwise kept for operator inspection. Returns how many were removed.
func (s *PostStore) Prune(now time.Time, failedRetention time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.posts[:0]
	for _, p := range s.posts {
		switch p.Status {
		case models.PostStatusPublished:
			continue
		case models.PostStatusFailed:
			if failedRetention > 0 && now.UnixMilli()-p.CreatedAt > failedRetention.Milliseconds() {
				continue
			}
		}
		kept = append(kept, p)
	}

	removed := len(s.posts) - len(kept)
	s.posts = kept
	if removed == 0 {
		return 0, nil
	}
	return removed, s.persistLocked()
}

// Len reports the current number of records.
func (s *PostStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}
