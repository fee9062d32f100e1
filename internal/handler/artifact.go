package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/visionforge/api/internal/model"
	"github.com/visionforge/api/internal/service"
	"github.com/visionforge/api/pkg/response"
)

type ArtifactHandler struct {
	service *service.ArtifactService
}

func NewArtifactHandler(svc *service.ArtifactService) *ArtifactHandler {
	return &ArtifactHandler{service: svc}
}

// Download handles GET /artifacts/:id
// @Summary      Download a generated artifact
// @Description  Serves scene images, thumbnails, style references and narration WAV files
// @Tags         Artifacts
// @Produce      octet-stream
// @Param        id path string true "Artifact ID"
// @Success      200 {file} binary
// @Failure      404 {object} response.ErrorResponse
// @Router       /artifacts/{id} [get]
func (h *ArtifactHandler) Download(c *fiber.Ctx) error {
	meta, data, err := h.service.Load(c.Params("id"))
	if err != nil {
		return operationError(c, err)
	}

	c.Set(fiber.HeaderContentType, meta.MIMEType)
	c.Set(fiber.HeaderCacheControl, "private, max-age=3600")
	if c.QueryBool("download") {
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, meta.Filename))
	}
	return c.Send(data)
}

// Voices handles GET /api/voices
func Voices(c *fiber.Ctx) error {
	return response.OK(c, fiber.Map{"voices": model.VoiceCatalog})
}
