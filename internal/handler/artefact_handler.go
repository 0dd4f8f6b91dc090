package handler

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/assessly/assessly-api/internal/service"
	"github.com/assessly/assessly-api/internal/utils"
)

// ArtefactHandler streams artefact downloads through the API.
type ArtefactHandler struct {
	service service.ArtefactService
	logger  zerolog.Logger
}

// NewArtefactHandler constructs the handler.
func NewArtefactHandler(service service.ArtefactService, logger zerolog.Logger) *ArtefactHandler {
	return &ArtefactHandler{
		service: service,
		logger:  logger.With().Str("component", "artefact_handler").Logger(),
	}
}

// Register attaches artefact endpoints to the router group.
func (h *ArtefactHandler) Register(router fiber.Router) {
	router.Get("/artefacts/:id/download", h.download)
}

func (h *ArtefactHandler) download(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	download, err := h.service.Download(c.Context(), id, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	c.Set(fiber.HeaderContentType, download.ContentType)
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%s", strconv.Quote(download.Artefact.Filename)))

	return c.SendStream(download.Body)
}
