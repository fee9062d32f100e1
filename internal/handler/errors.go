package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/visionforge/api/internal/service"
	"github.com/visionforge/api/internal/store"
	"github.com/visionforge/api/pkg/response"
)

// operationError maps a precondition or lookup failure to its HTTP response
func operationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrEmptyScript),
		errors.Is(err, service.ErrEmptyInstruction),
		errors.Is(err, service.ErrEmptyQuery),
		errors.Is(err, service.ErrNoScenes):
		return response.ValidationError(c, err.Error(), nil)
	case errors.Is(err, service.ErrNoSceneImages):
		return response.ValidationError(c, service.MsgNoSceneImages, nil)
	case errors.Is(err, store.ErrBusy),
		errors.Is(err, store.ErrSceneBusy),
		errors.Is(err, store.ErrStaleGeneration):
		return response.Conflict(c, err.Error())
	case errors.Is(err, store.ErrSceneNotFound),
		errors.Is(err, store.ErrSessionNotFound),
		errors.Is(err, service.ErrArtifactNotFound):
		return response.NotFound(c, err.Error())
	default:
		return response.ServiceError(c, err.Error())
	}
}

func formatValidationErrors(err error) map[string]string {
	fields := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			fields[e.Field()] = e.Tag()
		}
	}
	return fields
}
