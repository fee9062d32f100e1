package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/visionforge/api/internal/model"
	"github.com/visionforge/api/internal/store"
	"github.com/visionforge/api/pkg/response"
)

type SceneHandler struct {
	productions *ProductionHandler
	validator   *validator.Validate
}

func NewSceneHandler(productions *ProductionHandler, v *validator.Validate) *SceneHandler {
	return &SceneHandler{productions: productions, validator: v}
}

// List handles GET /api/productions/:id/scenes
func (h *SceneHandler) List(c *fiber.Ctx) error {
	s, err := h.productions.session(c)
	if err != nil {
		return operationError(c, err)
	}
	return response.OK(c, s.Snapshot().Scenes)
}

// SetPrompt handles PUT /api/productions/:id/scenes/:ordinal/prompt
// @Summary      Edit a scene prompt
// @Tags         Scenes
// @Accept       json
// @Produce      json
// @Param        id      path string true "Production ID"
// @Param        ordinal path int    true "Scene ordinal"
// @Param        request body model.TextRequest true "New prompt"
// @Success      200 {object} model.Production
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/productions/{id}/scenes/{ordinal}/prompt [put]
func (h *SceneHandler) SetPrompt(c *fiber.Ctx) error {
	s, ordinal, ok, err := h.scene(c)
	if !ok {
		return err
	}

	var req model.TextRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	p, err := s.UpdateScenePrompt(ordinal, req.Text)
	if err != nil {
		return operationError(c, err)
	}
	return response.OK(c, p)
}

// Enhance handles POST /api/productions/:id/scenes/:ordinal/enhance
func (h *SceneHandler) Enhance(c *fiber.Ctx) error {
	s, ordinal, ok, err := h.scene(c)
	if !ok {
		return err
	}
	op, err := h.productions.director.StartEnhanceScene(s, ordinal)
	return h.productions.dispatch(c, "enhance", s, op, err)
}

// Visualize handles POST /api/productions/:id/scenes/:ordinal/visualize
// @Summary      Render a scene image
// @Description  Generates the scene's image from its current prompt. Image and prompt work on one scene may overlap.
// @Tags         Scenes
// @Produce      json
// @Param        id      path  string true  "Production ID"
// @Param        ordinal path  int    true  "Scene ordinal"
// @Param        wait    query bool   false "Run synchronously"
// @Success      202 {object} model.OperationResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/productions/{id}/scenes/{ordinal}/visualize [post]
func (h *SceneHandler) Visualize(c *fiber.Ctx) error {
	s, ordinal, ok, err := h.scene(c)
	if !ok {
		return err
	}
	op, err := h.productions.director.StartVisualize(s, ordinal)
	return h.productions.dispatch(c, "visualize", s, op, err)
}

// scene resolves the session and ordinal. When ok is false the error
// response has already been written.
func (h *SceneHandler) scene(c *fiber.Ctx) (*store.Store, int, bool, error) {
	s, err := h.productions.session(c)
	if err != nil {
		return nil, 0, false, operationError(c, err)
	}
	ordinal, err := c.ParamsInt("ordinal")
	if err != nil {
		return nil, 0, false, response.ValidationError(c, "Invalid scene ordinal", nil)
	}
	return s, ordinal, true, nil
}
