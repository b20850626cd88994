package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/pinpointlabs/pinpoint-backend/internal/handlers"
)

type Handlers struct {
	Auth          *handlers.AuthHandler
	Health        *handlers.HealthHandler
	Projects      *handlers.ProjectHandler
	Feedbacks     *handlers.FeedbackHandler
	Comments      *handlers.CommentHandler
	Clients       *handlers.ClientHandler
	Users         *handlers.UserHandler
	Notifications *handlers.NotificationHandler
	Public        *handlers.PublicHandler
	Upload        *handlers.UploadHandler
	Integrations  *handlers.IntegrationHandler
}

func Setup(app *fiber.App, h Handlers) {
	api := app.Group("/api")

	// General API rate limiter: 120 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               120,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)

	// Stricter limit on auth: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/login", h.Auth.Login)
	auth.Post("/logout", h.Auth.Logout)
	auth.Get("/me", h.Auth.Me)

	// Public review flow, authorized by the project public access token
	public := api.Group("/public")
	public.Get("/projects/:token", h.Public.GetProject)
	public.Get("/projects/:token/feedbacks", h.Public.ListFeedbacks)
	public.Post("/projects/:token/feedbacks", h.Public.CreateFeedback)
	public.Post("/projects/:token/feedbacks/:id/comments", h.Public.CreateComment)

	api.Get("/projects", h.Projects.List)
	api.Post("/projects", h.Projects.Create)
	api.Get("/projects/:id", h.Projects.Get)
	api.Patch("/projects/:id", h.Projects.Update)
	api.Delete("/projects/:id", h.Projects.Delete)

	api.Get("/feedbacks", h.Feedbacks.List)
	api.Post("/feedbacks", h.Feedbacks.Create)
	api.Get("/feedbacks/:id", h.Feedbacks.Get)
	api.Patch("/feedbacks/:id", h.Feedbacks.Update)
	api.Delete("/feedbacks/:id", h.Feedbacks.Delete)

	api.Get("/comments", h.Comments.List)
	api.Post("/comments", h.Comments.Create)
	api.Get("/comments/:id", h.Comments.Get)
	api.Patch("/comments/:id", h.Comments.Update)
	api.Delete("/comments/:id", h.Comments.Delete)

	api.Get("/clients", h.Clients.List)
	api.Post("/clients", h.Clients.Create)
	api.Get("/clients/:id", h.Clients.Get)
	api.Patch("/clients/:id", h.Clients.Update)
	api.Delete("/clients/:id", h.Clients.Delete)

	api.Get("/users", h.Users.List)
	api.Post("/users", h.Users.Create)
	api.Get("/users/:id", h.Users.Get)
	api.Patch("/users/:id", h.Users.Update)
	api.Delete("/users/:id", h.Users.Delete)

	api.Get("/notifications", h.Notifications.List)
	api.Post("/notifications", h.Notifications.Create)
	api.Post("/notifications/read-all", h.Notifications.MarkAllRead)
	api.Patch("/notifications/:id/read", h.Notifications.MarkRead)
	api.Delete("/notifications/:id", h.Notifications.Delete)

	api.Post("/upload", h.Upload.Upload)

	api.Get("/integrations/:sink", h.Integrations.Status)
	api.Post("/integrations/:sink", h.Integrations.TestSend)
}
