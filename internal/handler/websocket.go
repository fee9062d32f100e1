package handler

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/visionforge/api/internal/store"
	ws "github.com/visionforge/api/internal/websocket"
)

// UpgradeGuard rejects plain HTTP requests on WebSocket routes
func UpgradeGuard(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Watch streams production snapshots, starting with the current one. The
// session is resolved in the handler because the upgraded connection has no
// access to the registry.
func Watch(registry *store.Registry, hub *ws.Hub) fiber.Handler {
	upgrade := websocket.New(func(c *websocket.Conn) {
		s, ok := c.Locals("session").(*store.Store)
		if !ok {
			return
		}
		hub.HandleConnection(c, s)
	})

	return func(c *fiber.Ctx) error {
		s, err := registry.Get(c.Params("id"))
		if err != nil {
			return operationError(c, err)
		}
		c.Locals("session", s)
		return upgrade(c)
	}
}
