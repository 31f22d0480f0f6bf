package transfer

import "github.com/golang-jwt/jwt/v5"

type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type LoginRequest struct {
	Password string `json:"password"`
}

type ScheduleResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	PostID  string `json:"post_id,omitempty"`
}

type PublishResponse struct {
	Success bool   `json:"success"`
	PostID  string `json:"post_id,omitempty"`
	Link    string `json:"link,omitempty"`
	Error   string `json:"error,omitempty"`
}

type UploadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
	ID      string `json:"id,omitempty"`
	Backend string `json:"backend"`
}

type CleanupResponse struct {
	Success bool `json:"success"`
	Removed int  `json:"removed"`
}
