package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	config "github.com/msaleh83/pagepilot/configs"
	"github.com/msaleh83/pagepilot/internal/api/handlers"
	"github.com/msaleh83/pagepilot/internal/api/middleware"
	"github.com/msaleh83/pagepilot/internal/dedup"
	"github.com/msaleh83/pagepilot/internal/facebook"
	"github.com/msaleh83/pagepilot/internal/health"
	"github.com/msaleh83/pagepilot/internal/notify"
	"github.com/msaleh83/pagepilot/internal/scheduler"
	"github.com/msaleh83/pagepilot/internal/storage"
	"github.com/msaleh83/pagepilot/internal/store"
	"github.com/msaleh83/pagepilot/internal/sysmon"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.AppEnv,
		})
		if err != nil {
			log.Printf("Sentry initialization failed: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	postStore, err := store.NewPostStore(cfg.DataFile)
	if err != nil {
		log.Fatalf("Failed to open post store: %v", err)
	}
	log.Printf("Loaded %d scheduled posts from %s", postStore.Len(), cfg.DataFile)

	graph := facebook.NewClient(*cfg)
	notifier := notify.New(*cfg)
	sched := scheduler.New(postStore, graph, notifier, cfg.UploadDir, cfg.FailedRetention)
	monitor := sysmon.NewMonitor()
	postCache := dedup.NewCache(dedup.DefaultTTL)
	backend := storage.Select(*cfg)
	checker := health.NewChecker(healthURL(cfg.ListenAddr), cfg.RestartCommand, notifier)

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))
	app.Use(middleware.NoCache())

	app.Static("/temp-uploads", cfg.UploadDir)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	api := app.Group("/api")

	post := handlers.NewPostHandler(*cfg, postStore)
	api.Post("/schedule-post", post.CreateScheduledPost)
	api.Get("/scheduled-posts", post.ListScheduledPosts)

	fb := handlers.NewFacebookHandler(*cfg, graph, postCache, notifier)
	api.Post("/facebook/post", fb.PostToFacebook)
	api.Post("/facebook/group-post", fb.PostToGroup)
	api.Get("/facebook/validate-token", fb.ValidateToken)
	api.Get("/facebook/page-info", fb.PageInfo)

	stats := handlers.NewStatsHandler(monitor)
	api.Get("/stats", stats.Stats)
	api.Get("/server-stats", stats.ServerStats)
	api.Get("/services", stats.Services)

	files := handlers.NewStorageHandler(*cfg, backend)
	api.Post("/upload", files.Upload)
	api.Get("/storage/quota", files.Quota)
	api.Post("/migrate-to-storage", files.Migrate)

	admin := handlers.NewAdminHandler(*cfg, postStore, checker, notifier)
	api.Post("/login", admin.Login)
	api.Post("/test-notification", admin.TestNotification)

	protected := api.Group("", authMiddleware.AdminAuth())
	protected.Post("/restart", admin.Restart)
	protected.Post("/restart-service", admin.RestartService)
	protected.Post("/cleanup", admin.Cleanup)

	c := cron.New()
	c.AddFunc("@every 1m0s", sched.Tick)
	c.AddFunc("@every 24h0m0s", sched.PruneDaily)
	c.AddFunc("@every 1h0m0s", func() { checker.Check(context.Background()) })
	c.Start()
	defer c.Stop()

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on %s", cfg.ListenAddr)

	gracefulShutdown(app)
}

func healthURL(listenAddr string) string {
	host := listenAddr
	if strings.HasPrefix(host, ":") {
		host = "127.0.0.1" + host
	}
	return fmt.Sprintf("http://%s/api/server-stats", host)
}

func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server stopped")
}
