package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/visionforge/api/internal/config"
	"github.com/visionforge/api/internal/middleware"
	"github.com/visionforge/api/internal/store"
	ws "github.com/visionforge/api/internal/websocket"
)

// Routes bundles what Register needs to mount the API
type Routes struct {
	Productions *ProductionHandler
	Scenes      *SceneHandler
	Styles      *StyleHandler
	Artifacts   *ArtifactHandler
	Registry    *store.Registry
	Hub         *ws.Hub
	Auth        *middleware.AuthMiddleware
	RateLimiter *middleware.RateLimiter
	Limits      config.RateLimitConfig
}

// Register mounts every API, artifact and WebSocket route on app
func Register(app fiber.Router, r Routes) {
	authed := r.Auth.Authenticate()
	text := r.RateLimiter.TextLimit(r.Limits.GeneratePerMin)
	render := r.RateLimiter.RenderLimit(r.Limits.RenderPerHour)

	api := app.Group("/api")
	api.Get("/voices", Voices)
	api.Post("/productions", r.Productions.Create)

	// Production routes; each carries the session token check
	p := api.Group("/productions/:id")
	p.Get("", authed, r.Productions.Get)
	p.Delete("", authed, r.Productions.Delete)
	p.Put("/script", authed, r.Productions.SetScript)
	p.Put("/aspect-ratio", authed, r.Productions.SetAspectRatio)
	p.Put("/voice", authed, r.Productions.SetVoice)
	p.Put("/refine-instruction", authed, r.Productions.SetRefineInstruction)
	p.Put("/style-query", authed, r.Productions.SetStyleQuery)
	p.Put("/thumbnail-instruction", authed, r.Productions.SetThumbnailInstruction)
	p.Delete("/error", authed, r.Productions.DismissError)
	p.Get("/storyboard", authed, r.Productions.Storyboard)

	p.Post("/segment", authed, text, r.Productions.Segment)
	p.Post("/refine", authed, text, r.Productions.Refine)
	p.Post("/enhance-all", authed, text, r.Productions.EnhanceAll)
	p.Post("/narration", authed, render, r.Productions.Narration)
	p.Post("/thumbnail", authed, render, r.Productions.Thumbnail)

	p.Post("/style/image", authed, text, r.Styles.FromImage)
	p.Post("/style/query", authed, text, r.Styles.FromQuery)
	p.Delete("/style", authed, r.Styles.Clear)

	p.Get("/scenes", authed, r.Scenes.List)
	p.Put("/scenes/:ordinal/prompt", authed, r.Scenes.SetPrompt)
	p.Post("/scenes/:ordinal/enhance", authed, text, r.Scenes.Enhance)
	p.Post("/scenes/:ordinal/visualize", authed, render, r.Scenes.Visualize)

	// Artifact IDs are unguessable; links work without the bearer token
	app.Get("/artifacts/:id", r.Artifacts.Download)

	app.Use("/ws", UpgradeGuard)
	app.Get("/ws/productions/:id", authed, Watch(r.Registry, r.Hub))
}
