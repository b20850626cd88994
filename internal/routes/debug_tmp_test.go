package routes_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pinpointlabs/pinpoint-backend/internal/config"
	"github.com/pinpointlabs/pinpoint-backend/internal/handlers"
	"github.com/pinpointlabs/pinpoint-backend/internal/middleware"
	"github.com/pinpointlabs/pinpoint-backend/internal/notify"
	"github.com/pinpointlabs/pinpoint-backend/internal/routes"
	"github.com/pinpointlabs/pinpoint-backend/internal/store"
	"github.com/pinpointlabs/pinpoint-backend/internal/upload"
)

func TestDebugPublicFeedback(t *testing.T) {
	cfg := &config.Config{SessionSecret: "test-secret", SessionExpiry: time.Hour, NotifyTimeout: time.Second}
	st := store.NewMemoryStore()
	uploader, _ := upload.New(context.Background(), "")
	dispatcher := notify.NewDispatcher()

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		err := c.Next()
		t.Logf("MW %s %s route=%q token=%q status=%d", c.Method(), c.Path(), c.Route().Path, c.Params("token"), c.Response().StatusCode())
		return err
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
		Integrations:  handlers.NewIntegrationHandler(st),
	})

	env := &testEnv{app: app, store: st}
	env.user = env.login(t, "tester@example.com", "Tester")

	id, token := env.createProject(t, "Public site")
	anon := &testEnv{app: env.app, store: env.store}
	r0 := anon.do(t, http.MethodGet, "/api/public/projects/"+token, nil)
	t.Logf("disabled GET status=%d", r0.StatusCode)
	env.do(t, http.MethodPatch, "/api/projects/"+id, fiber.Map{"publicAccessEnabled": true})
	resp := anon.do(t, http.MethodPost, "/api/public/projects/"+token+"/feedbacks",
		fiber.Map{"title": "button overlaps text"})
	raw, _ := io.ReadAll(resp.Body)
	t.Logf("POST status=%d body=%s", resp.StatusCode, raw)
	t.Fail()
}
