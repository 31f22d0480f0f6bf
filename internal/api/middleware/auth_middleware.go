package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"
	config "github.com/msaleh83/pagepilot/configs"
	"github.com/msaleh83/pagepilot/pkg/utils"
)

type AuthMiddleware struct {
	cfg config.Config
}

func NewAuthMiddleware(cfg config.Config) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg}
}

// AdminAuth protects the admin routes. A request passes with either a
// valid session cookie or the restart password supplied in the body or
// query, matching how the operator scripts call these endpoints.
func (m *AuthMiddleware) AdminAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		password := c.FormValue("password")
		if password == "" {
			password = c.Query("password")
		}
		if password != "" && m.cfg.RestartPassword != "" && password == m.cfg.RestartPassword {
			return c.Next()
		}

		tokenString := c.Cookies(m.cfg.CookieName)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing password or session cookie",
			})
		}

		if _, err := utils.ValidateToken(m.cfg.SecretKey, tokenString); err != nil {
			c.Cookie(&fiber.Cookie{
				Name:   m.cfg.CookieName,
				Value:  "",
				Path:   "/",
				MaxAge: -1, // Delete cookie
			})

			log.Printf("Token validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		return c.Next()
	}
}

// NoCache forces revalidation on every response. The dashboard polls the
// stats endpoints and stale caches made the graphs lie.
func NoCache() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "no-store, no-cache, must-revalidate")
		c.Set("Pragma", "no-cache")
		c.Set("Expires", "0")
		return c.Next()
	}
}
