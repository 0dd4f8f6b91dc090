package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/assessly/assessly-api/internal/dto"
	"github.com/assessly/assessly-api/internal/service"
	"github.com/assessly/assessly-api/internal/utils"
)

// SubmissionHandler wires submission lifecycle and answer HTTP routes.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// RegisterStudent attaches the student-facing submission endpoints.
func (h *SubmissionHandler) RegisterStudent(router fiber.Router) {
	router.Post("/modules/:id/submissions", h.start)
	router.Post("/modules/:id/submissions/submit", h.submit)
	router.Post("/answers", h.saveAnswer)
	router.Get("/modules/:id/answers", h.ownAnswers)
}

// RegisterStaff attaches the grading-side submission endpoints.
func (h *SubmissionHandler) RegisterStaff(router fiber.Router) {
	router.Get("/modules/:id/submissions", h.listForModule)
	router.Get("/submissions/:id", h.getForGrading)
}

func (h *SubmissionHandler) start(c *fiber.Ctx) error {
	moduleID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Start(c.Context(), moduleID, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendJSON(c, fiber.StatusCreated, dto.NewSubmissionResponse(submission))
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	moduleID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Submit(c.Context(), moduleID, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendJSON(c, fiber.StatusOK, dto.NewSubmissionResponse(submission))
}

func (h *SubmissionHandler) saveAnswer(c *fiber.Ctx) error {
	var payload dto.AnswerUpsertRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	answer, err := h.service.SaveAnswer(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendJSON(c, fiber.StatusOK, dto.NewAnswerResponse(answer, false))
}

func (h *SubmissionHandler) ownAnswers(c *fiber.Ctx) error {
	moduleID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, answers, err := h.service.GetOwnAnswers(c.Context(), moduleID, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendJSON(c, fiber.StatusOK, dto.NewAnswersResponse(submission, answers))
}

func (h *SubmissionHandler) listForModule(c *fiber.Ctx) error {
	moduleID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submissions, err := h.service.ListForModule(c.Context(), moduleID, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendJSON(c, fiber.StatusOK, dto.NewSubmissionResponses(submissions))
}

func (h *SubmissionHandler) getForGrading(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, answers, err := h.service.GetForGrading(c.Context(), submissionID, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	response := dto.NewSubmissionResponse(submission)
	answersResponse := make([]dto.AnswerResponse, 0, len(answers))
	for _, answer := range answers {
		answersResponse = append(answersResponse, dto.NewAnswerResponse(answer, true))
	}

	return utils.SendJSON(c, fiber.StatusOK, fiber.Map{
		"submission": response,
		"answers":    answersResponse,
	})
}
