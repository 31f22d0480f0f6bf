package models

// ScheduledPost is a single entry in the scheduled-posts file. Times are
// epoch milliseconds to stay interchangeable with the persisted layout.
type ScheduledPost struct {
	ID           string `json:"id"`
	Message      string `json:"message"`
	Link         string `json:"link,omitempty"`
	Photo        string `json:"photo,omitempty"`
	Video        string `json:"video,omitempty"`
	ScheduleTime int64  `json:"schedule_time"`
	Status       string `json:"status"`
	CreatedAt    int64  `json:"created_at"`
	PublishedAt  int64  `json:"published_at,omitempty"`
	RemotePostID string `json:"post_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

const (
	PostStatusPending   = "pending"
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
)

// MediaPath returns the post's media reference and whether it is a video.
// At most one of Photo/Video is ever set.
func (p *ScheduledPost) MediaPath() (path string, isVideo bool) {
	if p.Video != "" {
		return p.Video, true
	}
	return p.Photo, false
}
