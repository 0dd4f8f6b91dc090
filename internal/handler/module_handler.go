package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/assessly/assessly-api/internal/dto"
	"github.com/assessly/assessly-api/internal/service"
	"github.com/assessly/assessly-api/internal/utils"
)

// ModuleHandler wires module lifecycle and membership HTTP routes.
type ModuleHandler struct {
	service service.ModuleService
	logger  zerolog.Logger
}

// NewModuleHandler constructs the handler.
func NewModuleHandler(service service.ModuleService, logger zerolog.Logger) *ModuleHandler {
	return &ModuleHandler{
		service: service,
		logger:  logger.With().Str("component", "module_handler").Logger(),
	}
}

// Register attaches module endpoints to the router group. Role checks
// beyond authentication happen in the service layer so that students,
// instructors and admins can share the read endpoints.
func (h *ModuleHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Patch("/:id/ready", h.markReady)
	router.Patch("/:id/publish", h.publish)
	router.Patch("/:id/archive", h.archive)
	router.Delete("/:id", h.delete)
	router.Post("/:id/instructors", h.assignInstructor)
	router.Post("/:id/students", h.enrollStudent)
}

func (h *ModuleHandler) create(c *fiber.Ctx) error {
	var payload dto.ModuleCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	module, err := h.service.Create(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendJSON(c, fiber.StatusCreated, dto.NewModuleResponse(module))
}

func (h *ModuleHandler) list(c *fiber.Ctx) error {
	actor := actorFromContext(c)
	modules, err := h.service.List(c.Context(), actor)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	if actor.IsStudent() {
		return utils.SendJSON(c, fiber.StatusOK, dto.NewStudentModuleResponses(modules))
	}
	return utils.SendJSON(c, fiber.StatusOK, dto.NewModuleResponses(modules))
}

func (h *ModuleHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor := actorFromContext(c)
	module, err := h.service.Get(c.Context(), id, actor)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	if actor.IsStudent() {
		return utils.SendJSON(c, fiber.StatusOK, dto.NewStudentModuleResponse(module))
	}
	return utils.SendJSON(c, fiber.StatusOK, dto.NewModuleResponse(module))
}

func (h *ModuleHandler) markReady(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	module, err := h.service.MarkReady(c.Context(), id, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendJSON(c, fiber.StatusOK, dto.NewModuleResponse(module))
}

func (h *ModuleHandler) publish(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	module, err := h.service.Publish(c.Context(), id, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendJSON(c, fiber.StatusOK, dto.NewModuleResponse(module))
}

func (h *ModuleHandler) archive(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	module, err := h.service.Archive(c.Context(), id, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendJSON(c, fiber.StatusOK, dto.NewModuleResponse(module))
}

func (h *ModuleHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id, actorFromContext(c)); err != nil {
		return respondError(c, h.logger, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ModuleHandler) assignInstructor(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.MembershipRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.AssignInstructor(c.Context(), id, payload.UserID, actorFromContext(c)); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendJSON(c, fiber.StatusCreated, fiber.Map{"module_id": id, "user_id": payload.UserID})
}

func (h *ModuleHandler) enrollStudent(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.MembershipRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.EnrollStudent(c.Context(), id, payload.UserID, actorFromContext(c)); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendJSON(c, fiber.StatusCreated, fiber.Map{"module_id": id, "user_id": payload.UserID})
}
