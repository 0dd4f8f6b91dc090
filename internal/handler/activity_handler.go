package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/assessly/assessly-api/internal/repository"
	"github.com/assessly/assessly-api/internal/service"
	"github.com/assessly/assessly-api/internal/utils"
)

// ActivityHandler exposes the audit trail to administrators.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches the activity feed endpoint to the router group.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("/activity", h.list)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	filter := repository.ActivityLogFilter{
		Action:     strings.TrimSpace(c.Query("action")),
		EntityType: strings.TrimSpace(c.Query("entity_type")),
	}

	if raw := strings.TrimSpace(c.Query("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
		}
		filter.Page = page
	}
	if raw := strings.TrimSpace(c.Query("page_size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
		}
		filter.PageSize = size
	}
	if raw := strings.TrimSpace(c.Query("actor_id")); raw != "" {
		actorID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid actor_id")
		}
		id := uint(actorID)
		filter.ActorID = &id
	}

	entries, total, err := h.service.List(c.Context(), filter)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendJSON(c, fiber.StatusOK, fiber.Map{
		"entries": entries,
		"total":   total,
	})
}
