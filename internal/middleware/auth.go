package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/visionforge/api/internal/auth"
	"github.com/visionforge/api/pkg/response"
)

type AuthMiddleware struct {
	jwtSecret string
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{jwtSecret: jwtSecret}
}

// Authenticate validates the session token and checks it belongs to the
// production named by the :id route param. The token comes from the
// Authorization header or, for WebSocket upgrades, the token query param.
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			return response.Unauthorized(c, "Missing authorization header")
		}

		claims, err := auth.ValidateSessionToken(tokenString, m.jwtSecret)
		if err != nil {
			return response.Unauthorized(c, "Invalid or expired token")
		}

		if id := c.Params("id"); id != "" && id != claims.ProductionID {
			return response.Forbidden(c, "Token does not grant access to this production")
		}

		c.Locals("productionId", claims.ProductionID)
		c.Locals("claims", claims)

		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		token := c.Query("token")
		return token, token != ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// GetProductionID extracts the authenticated production ID from context
func GetProductionID(c *fiber.Ctx) string {
	if id, ok := c.Locals("productionId").(string); ok {
		return id
	}
	return ""
}
