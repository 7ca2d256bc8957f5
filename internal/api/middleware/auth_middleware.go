package middleware

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/service"
	"github.com/maheshrc27/crosspost/pkg/utils"
)

// AuthMiddleware resolves the caller from either an api_key query parameter
// or the session cookie and stashes the user id in locals as a string, which
// is what the handlers read back.
type AuthMiddleware struct {
	cfg config.Config
	s   service.ApiKeyService
}

func NewAuthMiddleware(cfg config.Config, s service.ApiKeyService) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg, s: s}
}

func (m *AuthMiddleware) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if apiKey := c.Query("api_key"); apiKey != "" {
			userID, err := m.s.GetUserID(c.Context(), apiKey)
			if err != nil {
				slog.Info("api key rejected", "error", err.Error())
				return unauthorized(c, "Invalid API key")
			}

			c.Locals("user_id", strconv.FormatInt(userID, 10))
			return c.Next()
		}

		token := c.Cookies(m.cfg.CookieName)
		if token == "" {
			return unauthorized(c, "Missing API key or session cookie")
		}

		claims, err := utils.ValidateToken(m.cfg.SecretKey, token)
		if err != nil {
			// The cookie is useless now; expire it so the browser stops
			// sending it.
			m.clearSessionCookie(c)
			slog.Info("session token rejected", "error", err.Error())
			return unauthorized(c, "Invalid or expired session")
		}

		c.Locals("user_id", claims.UserID)
		return c.Next()
	}
}

func (m *AuthMiddleware) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:   m.cfg.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": message,
	})
}
