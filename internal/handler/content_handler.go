package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/assessly/assessly-api/internal/dto"
	"github.com/assessly/assessly-api/internal/service"
	"github.com/assessly/assessly-api/internal/utils"
)

// ContentHandler wires question hierarchy HTTP routes.
type ContentHandler struct {
	service service.ContentService
	logger  zerolog.Logger
}

// NewContentHandler constructs the handler.
func NewContentHandler(service service.ContentService, logger zerolog.Logger) *ContentHandler {
	return &ContentHandler{
		service: service,
		logger:  logger.With().Str("component", "content_handler").Logger(),
	}
}

// Register attaches content endpoints to the router group.
func (h *ContentHandler) Register(router fiber.Router) {
	router.Get("/modules/:id/questions", h.listQuestions)
	router.Post("/questions", h.createQuestion)
	router.Patch("/questions/:id", h.updateQuestion)
	router.Delete("/questions/:id", h.deleteQuestion)
	router.Post("/parts", h.createPart)
	router.Post("/sub-questions", h.createSubQuestion)
	router.Post("/artefacts", h.createArtefact)
	router.Delete("/artefacts/:id", h.deleteArtefact)
}

func (h *ContentHandler) listQuestions(c *fiber.Ctx) error {
	moduleID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	questions, err := h.service.ListQuestions(c.Context(), moduleID, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendJSON(c, fiber.StatusOK, dto.NewQuestionResponses(questions))
}

func (h *ContentHandler) createQuestion(c *fiber.Ctx) error {
	var payload dto.QuestionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	question, err := h.service.CreateQuestion(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendJSON(c, fiber.StatusCreated, dto.NewQuestionResponse(question))
}

func (h *ContentHandler) updateQuestion(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.QuestionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	question, err := h.service.UpdateQuestion(c.Context(), id, payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendJSON(c, fiber.StatusOK, dto.NewQuestionResponse(question))
}

func (h *ContentHandler) deleteQuestion(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteQuestion(c.Context(), id, actorFromContext(c)); err != nil {
		return respondError(c, h.logger, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ContentHandler) createPart(c *fiber.Ctx) error {
	var payload dto.PartCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	part, err := h.service.CreatePart(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendJSON(c, fiber.StatusCreated, dto.NewPartResponse(part))
}

func (h *ContentHandler) createSubQuestion(c *fiber.Ctx) error {
	var payload dto.SubQuestionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	subQuestion, err := h.service.CreateSubQuestion(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendJSON(c, fiber.StatusCreated, dto.NewSubQuestionResponse(subQuestion))
}

func (h *ContentHandler) createArtefact(c *fiber.Ctx) error {
	var payload dto.ArtefactCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	artefact, err := h.service.CreateArtefact(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendJSON(c, fiber.StatusCreated, dto.NewArtefactResponse(artefact))
}

func (h *ContentHandler) deleteArtefact(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteArtefact(c.Context(), id, actorFromContext(c)); err != nil {
		return respondError(c, h.logger, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
