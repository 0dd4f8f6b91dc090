package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/assessly/assessly-api/internal/dto"
	"github.com/assessly/assessly-api/internal/service"
	"github.com/assessly/assessly-api/internal/utils"
)

// GradeHandler wires grading HTTP routes.
type GradeHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradeHandler constructs the handler.
func NewGradeHandler(service service.GradingService, logger zerolog.Logger) *GradeHandler {
	return &GradeHandler{
		service: service,
		logger:  logger.With().Str("component", "grade_handler").Logger(),
	}
}

// Register attaches grading endpoints to the router group.
func (h *GradeHandler) Register(router fiber.Router) {
	router.Post("/grades", h.recordGrade)
	router.Post("/submissions/:id/finalise", h.finalise)
}

func (h *GradeHandler) recordGrade(c *fiber.Ctx) error {
	var payload dto.GradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	grade, submission, err := h.service.RecordGrade(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendJSON(c, fiber.StatusOK, fiber.Map{
		"grade": fiber.Map{
			"id":            grade.ID,
			"answer_id":     grade.AnswerID,
			"marks_awarded": grade.MarksAwarded,
			"feedback":      grade.Feedback,
			"instructor_id": grade.InstructorID,
		},
		"submission_status": submission.Status,
	})
}

func (h *GradeHandler) finalise(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Finalise(c.Context(), submissionID, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendJSON(c, fiber.StatusOK, dto.NewSubmissionResponse(submission))
}
