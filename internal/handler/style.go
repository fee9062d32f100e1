package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/visionforge/api/internal/client"
	"github.com/visionforge/api/internal/model"
	"github.com/visionforge/api/pkg/response"
)

const maxStyleImageSize = 20 * 1024 * 1024 // 20MB

type StyleHandler struct {
	productions *ProductionHandler
	validator   *validator.Validate
}

func NewStyleHandler(productions *ProductionHandler, v *validator.Validate) *StyleHandler {
	return &StyleHandler{productions: productions, validator: v}
}

// FromImage handles POST /api/productions/:id/style/image
// @Summary      Extract style from a reference image
// @Tags         Style
// @Accept       multipart/form-data
// @Produce      json
// @Param        id   path     string true "Production ID"
// @Param        file formData file   true "Reference image"
// @Success      202 {object} model.OperationResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/productions/{id}/style/image [post]
func (h *StyleHandler) FromImage(c *fiber.Ctx) error {
	s, err := h.productions.session(c)
	if err != nil {
		return operationError(c, err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "File is required", nil)
	}

	if file.Size > maxStyleImageSize {
		return response.ValidationError(c, "File size exceeds 20MB limit", map[string]interface{}{
			"maxSize":  maxStyleImageSize,
			"fileSize": file.Size,
		})
	}

	f, err := file.Open()
	if err != nil {
		return response.ServiceError(c, "Failed to open file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return response.ServiceError(c, "Failed to read file")
	}

	// Trust the declared type only when it names an image; otherwise sniff.
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return response.ValidationError(c, "Invalid file type. Only images are supported", map[string]interface{}{
			"contentType": contentType,
		})
	}

	op, err := h.productions.director.StartStyleFromImage(s, client.Image{Data: data, MIMEType: contentType})
	return h.productions.dispatch(c, "style-image", s, op, err)
}

// FromQuery handles POST /api/productions/:id/style/query
func (h *StyleHandler) FromQuery(c *fiber.Ctx) error {
	s, err := h.productions.session(c)
	if err != nil {
		return operationError(c, err)
	}
	var req model.StyleQueryRequest
	if ok, err := h.productions.parseOptional(c, &req); !ok {
		return err
	}
	op, err := h.productions.director.StartStyleFromQuery(s, req.Query)
	return h.productions.dispatch(c, "style-query", s, op, err)
}

// Clear handles DELETE /api/productions/:id/style
func (h *StyleHandler) Clear(c *fiber.Ctx) error {
	s, err := h.productions.session(c)
	if err != nil {
		return operationError(c, err)
	}
	return response.OK(c, h.productions.director.ClearStyle(s))
}
