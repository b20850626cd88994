package middleware

import (
	"net/url"
	"strings"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"

	"github.com/pinpointlabs/pinpoint-backend/internal/config"
	"github.com/pinpointlabs/pinpoint-backend/internal/dto"
)

const SessionCookie = "session"

// publicPrefixes always pass the gate: the login flow, health, and the
// token-authorized public review endpoints.
var publicPrefixes = []string{
	"/login",
	"/review/",
	"/api/auth/login",
	"/api/health",
	"/api/public/",
}

// AccessGate is the binary authenticated-or-not gate in front of every
// non-public route. It validates the session cookie and stores the parsed
// token in c.Locals("user"). No role-based authorization happens here or in
// the handlers behind it; authenticated users are equally trusted.
func AccessGate(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{Key: []byte(cfg.SessionSecret)},
		TokenLookup: "cookie:" + SessionCookie,
		Filter: func(c *fiber.Ctx) bool {
			return isPublicPath(c.Path())
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if strings.HasPrefix(c.Path(), "/api/") {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
					Error: true, Message: "Unauthorized: sign in required",
				})
			}
			return c.Redirect("/login?callbackUrl=" + url.QueryEscape(c.OriginalURL()))
		},
	})
}

func isPublicPath(path string) bool {
	for _, prefix := range publicPrefixes {
		if path == strings.TrimSuffix(prefix, "/") || strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
