package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/assessly/assessly-api/internal/dto"
	"github.com/assessly/assessly-api/internal/middleware"
	"github.com/assessly/assessly-api/internal/service"
	"github.com/assessly/assessly-api/internal/utils"
)

// AuthHandler wires authentication HTTP routes.
type AuthHandler struct {
	service      service.AuthService
	secureCookie bool
	logger       zerolog.Logger
}

// NewAuthHandler constructs the handler. secureCookie should be true in
// production so the session cookie is only sent over TLS.
func NewAuthHandler(service service.AuthService, secureCookie bool, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service:      service,
		secureCookie: secureCookie,
		logger:       logger.With().Str("component", "auth_handler").Logger(),
	}
}

// RegisterPublic attaches the unauthenticated auth endpoints.
func (h *AuthHandler) RegisterPublic(router fiber.Router) {
	router.Post("/login", h.login)
}

// RegisterProtected attaches the session-protected auth endpoints.
func (h *AuthHandler) RegisterProtected(router fiber.Router) {
	router.Post("/logout", h.logout)
	router.Get("/me", h.me)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, sess, err := h.service.Login(c.Context(), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Expires:  sess.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return utils.SendJSON(c, fiber.StatusOK, dto.NewUserResponse(user))
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	token, _ := c.Locals("session_token").(string)
	if token != "" {
		if err := h.service.Logout(c.Context(), token); err != nil {
			return respondError(c, h.logger, err)
		}
	}

	middleware.ClearSessionCookie(c)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	user, err := h.service.Profile(c.Context(), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendJSON(c, fiber.StatusOK, dto.NewUserResponse(user))
}
