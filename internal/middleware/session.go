package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/assessly/assessly-api/internal/apperr"
	"github.com/assessly/assessly-api/internal/repository"
	"github.com/assessly/assessly-api/internal/session"
	"github.com/assessly/assessly-api/internal/utils"
)

// SessionCookieName is the cookie carrying the opaque session identifier.
const SessionCookieName = "assessly_session"

// SessionProtected resolves the session cookie into an authenticated user
// and stores identity in request locals. Requests without a valid, unexpired
// session are rejected with 401 before reaching any handler.
func SessionProtected(sessions session.Store, users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookieName)
		if token == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		sess, err := sessions.Get(c.Context(), token)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindUnauthenticated {
				return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
			}
			return utils.SendError(c, fiber.StatusInternalServerError, "internal error")
		}

		user, err := users.GetByID(c.Context(), sess.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
			}
			return utils.SendError(c, fiber.StatusInternalServerError, "internal error")
		}

		c.Locals("user_id", user.ID)
		c.Locals("user_role", string(user.Role))
		c.Locals("session_token", sess.Token)

		return c.Next()
	}
}

// ClearSessionCookie expires the session cookie on the client.
func ClearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		MaxAge:   -1,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
