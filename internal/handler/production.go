package handler

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/visionforge/api/internal/auth"
	"github.com/visionforge/api/internal/model"
	"github.com/visionforge/api/internal/service"
	"github.com/visionforge/api/internal/store"
	"github.com/visionforge/api/pkg/response"
)

type ProductionHandler struct {
	registry  *store.Registry
	director  *service.Director
	observer  store.Observer
	validator *validator.Validate
	jwtSecret string
	tokenTTL  time.Duration
	onFailure func(productionID, code, message string)
}

// NewProductionHandler wires session handling. observer is subscribed to every
// new production (the WebSocket hub in production).
func NewProductionHandler(registry *store.Registry, director *service.Director, observer store.Observer, v *validator.Validate, jwtSecret string, tokenTTL time.Duration) *ProductionHandler {
	return &ProductionHandler{
		registry:  registry,
		director:  director,
		observer:  observer,
		validator: v,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// OnFailure registers fn to hear about background operations that fail after
// the 202 has been sent.
func (h *ProductionHandler) OnFailure(fn func(productionID, code, message string)) {
	h.onFailure = fn
}

// Create handles POST /api/productions
// @Summary      Open a production session
// @Description  Creates an empty production and returns the bearer token scoped to it
// @Tags         Productions
// @Accept       json
// @Produce      json
// @Param        request body model.CreateProductionRequest false "Initial settings"
// @Success      201 {object} model.CreateProductionResponse
// @Failure      400 {object} response.ErrorResponse
// @Router       /api/productions [post]
func (h *ProductionHandler) Create(c *fiber.Ctx) error {
	var req model.CreateProductionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.ValidationError(c, "Invalid request body", nil)
		}
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	s := h.registry.Create()
	if h.observer != nil {
		s.Subscribe(h.observer)
	}
	if req.Script != "" {
		s.ReplaceScript(req.Script)
	}
	if req.AspectRatio != "" {
		s.SetAspectRatio(req.AspectRatio)
	}
	if req.Voice != "" {
		s.SetVoice(req.Voice)
	}

	token, err := auth.IssueSessionToken(s.ID(), h.jwtSecret, h.tokenTTL)
	if err != nil {
		h.registry.Delete(s.ID())
		return response.ServiceError(c, "Failed to issue session token")
	}

	return response.Created(c, model.CreateProductionResponse{
		ID:         s.ID(),
		Token:      token,
		Production: s.Snapshot(),
	})
}

// Get handles GET /api/productions/:id
// @Summary      Get production
// @Tags         Productions
// @Produce      json
// @Param        id path string true "Production ID"
// @Success      200 {object} model.Production
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/productions/{id} [get]
func (h *ProductionHandler) Get(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return operationError(c, err)
	}
	return response.OK(c, s.Snapshot())
}

// Delete handles DELETE /api/productions/:id
func (h *ProductionHandler) Delete(c *fiber.Ctx) error {
	if !h.registry.Delete(c.Params("id")) {
		return response.NotFound(c, "Production not found")
	}
	return response.NoContent(c)
}

// SetScript handles PUT /api/productions/:id/script
func (h *ProductionHandler) SetScript(c *fiber.Ctx) error {
	return h.setText(c, (*store.Store).ReplaceScript)
}

// SetStyleQuery handles PUT /api/productions/:id/style-query
func (h *ProductionHandler) SetStyleQuery(c *fiber.Ctx) error {
	return h.setText(c, (*store.Store).SetStyleQuery)
}

// SetRefineInstruction handles PUT /api/productions/:id/refine-instruction
func (h *ProductionHandler) SetRefineInstruction(c *fiber.Ctx) error {
	return h.setText(c, (*store.Store).SetRefineInstruction)
}

// SetThumbnailInstruction handles PUT /api/productions/:id/thumbnail-instruction
func (h *ProductionHandler) SetThumbnailInstruction(c *fiber.Ctx) error {
	return h.setText(c, (*store.Store).SetThumbnailInstruction)
}

// SetAspectRatio handles PUT /api/productions/:id/aspect-ratio
func (h *ProductionHandler) SetAspectRatio(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return operationError(c, err)
	}
	var req model.AspectRatioRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}
	return response.OK(c, s.SetAspectRatio(req.AspectRatio))
}

// SetVoice handles PUT /api/productions/:id/voice
func (h *ProductionHandler) SetVoice(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return operationError(c, err)
	}
	var req model.VoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}
	return response.OK(c, s.SetVoice(req.Voice))
}

// DismissError handles DELETE /api/productions/:id/error
func (h *ProductionHandler) DismissError(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return operationError(c, err)
	}
	return response.OK(c, s.DismissError())
}

// Segment handles POST /api/productions/:id/segment
// @Summary      Segment the script into scenes
// @Description  Rebuilds the storyboard from the current script and style. Add ?wait=true to block until it settles.
// @Tags         Orchestration
// @Produce      json
// @Param        id   path  string true  "Production ID"
// @Param        wait query bool   false "Run synchronously"
// @Success      202 {object} model.OperationResponse
// @Success      200 {object} model.OperationResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/productions/{id}/segment [post]
func (h *ProductionHandler) Segment(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return operationError(c, err)
	}
	op, err := h.director.StartSegment(s)
	return h.dispatch(c, "segment", s, op, err)
}

// Refine handles POST /api/productions/:id/refine
func (h *ProductionHandler) Refine(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return operationError(c, err)
	}
	var req model.RefineRequest
	if ok, err := h.parseOptional(c, &req); !ok {
		return err
	}
	op, err := h.director.StartRefine(s, req.Instruction)
	return h.dispatch(c, "refine", s, op, err)
}

// Narration handles POST /api/productions/:id/narration
func (h *ProductionHandler) Narration(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return operationError(c, err)
	}
	op, err := h.director.StartNarration(s)
	return h.dispatch(c, "narration", s, op, err)
}

// Thumbnail handles POST /api/productions/:id/thumbnail
func (h *ProductionHandler) Thumbnail(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return operationError(c, err)
	}
	var req model.ThumbnailRequest
	if ok, err := h.parseOptional(c, &req); !ok {
		return err
	}
	op, err := h.director.StartThumbnail(s, req.Instruction)
	return h.dispatch(c, "thumbnail", s, op, err)
}

// EnhanceAll handles POST /api/productions/:id/enhance-all
func (h *ProductionHandler) EnhanceAll(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return operationError(c, err)
	}
	op, err := h.director.StartEnhanceAll(s)
	return h.dispatch(c, "enhance-all", s, op, err)
}

// Storyboard handles GET /api/productions/:id/storyboard?format=json|yaml
func (h *ProductionHandler) Storyboard(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return operationError(c, err)
	}
	format := c.Query("format", service.FormatJSON)
	data, contentType, err := service.EncodeStoryboard(service.BuildStoryboard(s.Snapshot()), format)
	if err != nil {
		return response.ValidationError(c, err.Error(), nil)
	}
	if c.QueryBool("download") {
		c.Attachment("storyboard-" + s.ID() + "." + format)
	}
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}

func (h *ProductionHandler) session(c *fiber.Ctx) (*store.Store, error) {
	return h.registry.Get(c.Params("id"))
}

func (h *ProductionHandler) setText(c *fiber.Ctx, set func(*store.Store, string) model.Production) error {
	s, err := h.session(c)
	if err != nil {
		return operationError(c, err)
	}
	var req model.TextRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}
	return response.OK(c, set(s, req.Text))
}

// parseOptional parses and validates a body that may be empty. When ok is
// false the error response has already been written.
func (h *ProductionHandler) parseOptional(c *fiber.Ctx, req interface{}) (bool, error) {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return false, response.ValidationError(c, "Invalid request body", nil)
		}
	}
	if err := h.validator.Struct(req); err != nil {
		return false, response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}
	return true, nil
}

// dispatch runs a started operation. With ?wait=true it reports the settled
// state, otherwise it answers 202 and the result arrives over the WebSocket.
func (h *ProductionHandler) dispatch(c *fiber.Ctx, name string, s *store.Store, op service.Operation, err error) error {
	if err != nil {
		return operationError(c, err)
	}

	wait := c.QueryBool("wait")
	if !wait && h.onFailure != nil {
		run := op
		op = func(ctx context.Context) error {
			err := run(ctx)
			if err != nil {
				h.onFailure(s.ID(), response.CodeAIError, err.Error())
			}
			return err
		}
	}
	if err := h.director.Dispatch(c.UserContext(), wait, op); err != nil {
		if errors.Is(err, store.ErrStaleGeneration) {
			return response.Conflict(c, "Storyboard was rebuilt while the operation ran")
		}
		return response.Error(c, fiber.StatusBadGateway, response.CodeAIError, err.Error(), model.OperationResponse{
			Operation:  name,
			Error:      err.Error(),
			Production: s.Snapshot(),
		})
	}

	res := model.OperationResponse{
		Operation:  name,
		Accepted:   !wait,
		Production: s.Snapshot(),
	}
	if wait {
		return response.OK(c, res)
	}
	return response.Accepted(c, res)
}
