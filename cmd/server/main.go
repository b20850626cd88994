package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pinpointlabs/pinpoint-backend/internal/config"
	"github.com/pinpointlabs/pinpoint-backend/internal/handlers"
	"github.com/pinpointlabs/pinpoint-backend/internal/logging"
	"github.com/pinpointlabs/pinpoint-backend/internal/middleware"
	"github.com/pinpointlabs/pinpoint-backend/internal/models"
	"github.com/pinpointlabs/pinpoint-backend/internal/notify"
	"github.com/pinpointlabs/pinpoint-backend/internal/routes"
	"github.com/pinpointlabs/pinpoint-backend/internal/store"
	"github.com/pinpointlabs/pinpoint-backend/internal/upload"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.SessionSecret == "" {
		slog.Error("SESSION_SECRET environment variable is required")
		os.Exit(1)
	}

	ctx := context.Background()

	// Backend selection is fixed at startup: Firestore when the credential
	// triple is present, otherwise the in-memory demo store.
	var st store.Store
	if cfg.IsFirestoreConfigured() {
		fs, err := store.NewFirestoreStore(ctx, cfg)
		if err != nil {
			slog.Error("firestore connection failed", "error", err)
			os.Exit(1)
		}
		st = fs
		slog.Info("firestore backend selected", "project", cfg.FirestoreProjectID)
	} else {
		st = store.NewMemoryStore()
		slog.Warn("no Firestore credentials configured, using in-memory demo store")
		seedDemoAdmin(ctx, st)
	}

	uploader, err := upload.New(ctx, cfg.StorageBucket)
	if err != nil {
		slog.Error("storage client failed", "error", err)
		os.Exit(1)
	}

	// Outbound sinks
	slackSink := notify.NewSlackSink(cfg.SlackWebhookURL, cfg.NotifyTimeout)
	webhookSink := notify.NewWebhookSink(cfg.WebhookURL, cfg.WebhookSecret, cfg.NotifyTimeout)
	dispatcher := notify.NewDispatcher(slackSink, webhookSink)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    handlers.MaxUploadBytes + 1<<20,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})
	app.Use(middleware.AccessGate(cfg))

	routes.Setup(app, routes.Handlers{
		Auth:          handlers.NewAuthHandler(st, cfg),
		Health:        handlers.NewHealthHandler(st),
		Projects:      handlers.NewProjectHandler(st),
		Feedbacks:     handlers.NewFeedbackHandler(st, dispatcher),
		Comments:      handlers.NewCommentHandler(st, dispatcher),
		Clients:       handlers.NewClientHandler(st),
		Users:         handlers.NewUserHandler(st),
		Notifications: handlers.NewNotificationHandler(st),
		Public:        handlers.NewPublicHandler(st, dispatcher),
		Upload:        handlers.NewUploadHandler(st, uploader),
		Integrations:  handlers.NewIntegrationHandler(st, slackSink, webhookSink),
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	if err := uploader.Close(); err != nil {
		slog.Error("storage close error", "error", err)
	}
	if err := st.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("server stopped")
}

// seedDemoAdmin makes the demo store usable without any prior setup. The
// credentials are logged so a local run can sign straight in.
func seedDemoAdmin(ctx context.Context, st store.Store) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pinpoint-demo"), bcrypt.DefaultCost)
	if err != nil {
		return
	}
	admin := &models.User{
		Email:        "admin@pinpoint.local",
		Name:         "Demo Admin",
		Role:         models.RoleAdmin,
		PasswordHash: string(hash),
	}
	if err := st.CreateUser(ctx, admin); err != nil {
		slog.Error("demo admin seed failed", "error", err)
		return
	}
	slog.Info("demo admin seeded", "email", admin.Email, "password", "pinpoint-demo")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
