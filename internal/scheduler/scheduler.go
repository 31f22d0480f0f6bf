package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/msaleh83/pagepilot/internal/facebook"
	"github.com/msaleh83/pagepilot/internal/models"
	"github.com/msaleh83/pagepilot/internal/store"
)

// GraphClient is the slice of the Facebook client the scheduler drives.
type GraphClient interface {
	PageToken(ctx context.Context) (*facebook.PageCredential, error)
	UploadMedia(ctx context.Context, localPath string, isVideo bool, cred *facebook.PageCredential) (string, error)
	PublishFeed(ctx context.Context, message, link, attachmentID string, cred *facebook.PageCredential) (string, error)
}

// Notifier fans publication outcomes out to side channels. Implementations
// must never block for long and never report an error back.
type Notifier interface {
	Success(postID, pageName, message string)
	Failure(cause string)
}

// Scheduler walks the store on a fixed tick and drives every due pending
// post through credential resolution, media upload, feed publication and a
// terminal status transition. Cron fires every trigger on its own
// goroutine, so inFlight makes a tick that outlasts its period skip the
// next trigger instead of running alongside it.
type Scheduler struct {
	store           *store.PostStore
	graph           GraphClient
	notifier        Notifier
	uploadDir       string
	failedRetention time.Duration
	now             func() time.Time
	inFlight        sync.Mutex
}

func New(s *store.PostStore, graph GraphClient, notifier Notifier, uploadDir string, failedRetentionDays int) *Scheduler {
	return &Scheduler{
		store:           s,
		graph:           graph,
		notifier:        notifier,
		uploadDir:       uploadDir,
		failedRetention: time.Duration(failedRetentionDays) * 24 * time.Hour,
		now:             time.Now,
	}
}

// Tick scans the store once, in insertion order, and publishes every due
// pending post. Each post either reaches a terminal status and is persisted
// before the next one starts, or the tick halts on a persistence error so
// the in-memory and on-disk views cannot diverge. A tick still running when
// the next trigger fires makes that trigger a no-op; overlapping scans
// would publish the same pending post twice.
func (s *Scheduler) Tick() {
	if !s.inFlight.TryLock() {
		slog.Warn("previous tick still running, skipping")
		return
	}
	defer s.inFlight.Unlock()

	ctx := context.Background()
	now := s.now()

	published := false
	for _, post := range s.store.All() {
		if post.Status != models.PostStatusPending || post.ScheduleTime > now.UnixMilli() {
			continue
		}
		published = true
		slog.Info("publishing due post", "id", post.ID, "scheduled_for", time.UnixMilli(post.ScheduleTime))

		remoteID, pageName, err := s.publish(ctx, post)
		if err != nil {
			if persisted := s.fail(post, err); !persisted {
				slog.Error("halting tick, outcome could not be persisted", "id", post.ID)
				return
			}
			continue
		}
		err = s.store.Update(post.ID, func(p *models.ScheduledPost) {
			p.Status = models.PostStatusPublished
			p.PublishedAt = now.UnixMilli()
			p.RemotePostID = remoteID
		})
		if err != nil {
			slog.Error("halting tick, outcome could not be persisted", "id", post.ID, "error", err)
			sentry.CaptureException(err)
			return
		}
		slog.Info("post published", "id", post.ID, "remote_id", remoteID)
		s.notifier.Success(remoteID, pageName, post.Message)
	}

	if !published {
		slog.Debug("tick found no due posts")
	}
}

// publish runs the remote success path for a single post and returns the
// remote post ID alongside the page name for the notification. The local
// media file is deleted only after the feed post itself succeeded; a failed
// feed call must not orphan the attachment.
func (s *Scheduler) publish(ctx context.Context, post *models.ScheduledPost) (string, string, error) {
	cred, err := s.graph.PageToken(ctx)
	if err != nil {
		return "", "", fmt.Errorf("resolve page token: %w", err)
	}

	var attachmentID string
	mediaRef, isVideo := post.MediaPath()
	if mediaRef != "" {
		attachmentID, err = s.graph.UploadMedia(ctx, s.localMediaPath(mediaRef), isVideo, cred)
		if err != nil {
			return "", "", err
		}
	}

	remoteID, err := s.graph.PublishFeed(ctx, post.Message, post.Link, attachmentID, cred)
	if err != nil {
		return "", "", err
	}

	if mediaRef != "" {
		if err := os.Remove(s.localMediaPath(mediaRef)); err != nil {
			slog.Warn("could not delete local media", "path", mediaRef, "error", err)
		}
	}
	return remoteID, cred.PageName, nil
}

// fail records the terminal failure on the post. Reports whether the
// transition reached disk.
func (s *Scheduler) fail(post *models.ScheduledPost, cause error) bool {
	slog.Error("post publication failed", "id", post.ID, "error", cause)
	sentry.CaptureException(cause)

	err := s.store.Update(post.ID, func(p *models.ScheduledPost) {
		p.Status = models.PostStatusFailed
		p.Error = cause.Error()
	})
	if err != nil {
		slog.Error("could not persist failure outcome", "id", post.ID, "error", err)
		sentry.CaptureException(err)
		return false
	}
	s.notifier.Failure(cause.Error())
	return true
}

func (s *Scheduler) localMediaPath(mediaRef string) string {
	return filepath.Join(s.uploadDir, filepath.Base(mediaRef))
}

// PruneDaily removes published posts (and failed ones past the retention
// window when configured) from the store. Shares the in-flight guard with
// Tick so a prune never runs mid-scan.
func (s *Scheduler) PruneDaily() {
	if !s.inFlight.TryLock() {
		slog.Warn("tick in progress, skipping prune")
		return
	}
	defer s.inFlight.Unlock()

	removed, err := s.store.Prune(s.now(), s.failedRetention)
	if err != nil {
		slog.Error("prune failed", "error", err)
		sentry.CaptureException(err)
		return
	}
	slog.Info("pruned completed posts", "removed", removed, "remaining", s.store.Len())
}
