package config

import (
	"os"
	"strconv"
	"strings"
)

type S3 struct {
	Endpoint   string
	Region     string
	AccessKey  string
	SecretKey  string
	BucketName string
}

type Drive struct {
	CredentialsFile string
	FolderID        string
}

type Config struct {
	ListenAddr        string
	GraphBaseURL      string
	FBUserToken       string
	FBPageToken       string
	FBPageID          string
	PageNameKeywords  []string
	ScheduleOffsetHrs int
	DataFile          string
	UploadDir         string
	FailedRetention   int // days, 0 keeps failed posts forever
	StorageBackend    string
	S3                S3
	Drive             Drive
	TelegramBotToken  string
	TelegramChatID    int64
	EmailUser         string
	EmailPass         string
	SMTPHost          string
	SMTPPort          int
	RestartPassword   string
	RestartCommand    string
	SecretKey         string
	CookieName        string
	SentryDSN         string
	AppEnv            string
}

func LoadConfig() *Config {
	return &Config{
		ListenAddr:        getEnv("LISTEN_ADDR", ":5000"),
		GraphBaseURL:      getEnv("GRAPH_BASE_URL", "https://graph.facebook.com/v19.0"),
		FBUserToken:       getEnv("FB_USER_TOKEN", ""),
		FBPageToken:       getEnv("FB_PAGE_TOKEN", ""),
		FBPageID:          getEnv("FB_PAGE_ID", ""),
		PageNameKeywords:  splitList(getEnv("FB_PAGE_KEYWORDS", "it,solution")),
		ScheduleOffsetHrs: getEnvInt("SCHEDULE_UTC_OFFSET_HOURS", 2),
		DataFile:          getEnv("DATA_FILE", "data/scheduled-posts.json"),
		UploadDir:         getEnv("UPLOAD_DIR", "public/temp-uploads"),
		FailedRetention:   getEnvInt("FAILED_RETENTION_DAYS", 0),
		StorageBackend:    getEnv("STORAGE_BACKEND", "local"),
		S3: S3{
			Endpoint:   getEnv("S3_ENDPOINT", ""),
			Region:     getEnv("S3_REGION", "auto"),
			AccessKey:  getEnv("S3_ACCESS_KEY", ""),
			SecretKey:  getEnv("S3_SECRET_KEY", ""),
			BucketName: getEnv("S3_BUCKET_NAME", ""),
		},
		Drive: Drive{
			CredentialsFile: getEnv("GOOGLE_SERVICE_FILE", "google_service.json"),
			FolderID:        getEnv("DRIVE_FOLDER_ID", ""),
		},
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnvInt64("TELEGRAM_CHAT_ID", 0),
		EmailUser:        getEnv("EMAIL_USER", ""),
		EmailPass:        getEnv("EMAIL_PASS", ""),
		SMTPHost:         getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:         getEnvInt("SMTP_PORT", 587),
		RestartPassword:  getEnv("RESTART_PASSWORD", ""),
		RestartCommand:   getEnv("RESTART_COMMAND", ""),
		SecretKey:        getEnv("SECRET_KEY", ""),
		CookieName:       getEnv("COOKIE_NAME", "pagepilot_session"),
		SentryDSN:        getEnv("SENTRY_DSN", ""),
		AppEnv:           getEnv("APP_ENV", "production"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}
