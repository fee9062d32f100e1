package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/visionforge/api/internal/client"
	"github.com/visionforge/api/internal/config"
	"github.com/visionforge/api/internal/handler"
	"github.com/visionforge/api/internal/middleware"
	"github.com/visionforge/api/internal/service"
	"github.com/visionforge/api/internal/store"
	ws "github.com/visionforge/api/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection; without it rate limiting is disabled
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available, rate limiting disabled: %v", err)
		redisClient = nil
	}

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Initialize external clients
	geminiClient := client.NewGeminiClient(&cfg.Gemini)
	openaiClient := client.NewOpenAIClient(&cfg.OpenAI)
	mockClient := client.NewMockClient()
	artifactClient := selectClient(cfg, geminiClient, openaiClient, mockClient)

	// Initialize R2 client (optional - artifacts stay in memory without it)
	var storage client.StorageClient
	var r2Client *client.R2Client
	if cfg.R2.AccessKeyID != "" && cfg.R2.SecretAccessKey != "" {
		r2Client, err = client.NewR2Client(&cfg.R2)
		if err != nil {
			log.Printf("Warning: R2 client not initialized: %v", err)
		} else {
			storage = r2Client
		}
	} else {
		log.Println("Info: R2 storage not configured, serving artifacts from memory")
	}

	// Initialize services
	artifactService := service.NewArtifactService(storage, cfg.Server.PublicURL)
	director := service.NewDirector(artifactClient, artifactService, &cfg.Orchestration)

	registry := store.NewRegistry(time.Duration(cfg.Orchestration.SessionTTL) * time.Minute)
	registry.OnEvict(artifactService.DropSession)
	registry.OnEvict(hub.Disconnect)
	go registry.Run(ctx, time.Minute)

	// Initialize handlers
	productionHandler := handler.NewProductionHandler(
		registry, director, hub.BroadcastSnapshot, validate,
		cfg.JWT.Secret, time.Duration(cfg.JWT.Expiration)*time.Hour,
	)
	productionHandler.OnFailure(hub.BroadcastError)
	sceneHandler := handler.NewSceneHandler(productionHandler, validate)
	styleHandler := handler.NewStyleHandler(productionHandler, validate)
	artifactHandler := handler.NewArtifactHandler(artifactService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    50 * 1024 * 1024, // 50MB
	})

	// Global middleware
	app.Use(recover.New())
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${reqHeaders}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Base URL - timestamp
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"gemini":   geminiClient.IsConfigured(),
				"openai":   openaiClient.IsConfigured(),
				"provider": cfg.Provider.Text,
				"r2":       artifactService.Mirrored(),
				"redis":    redisClient != nil,
			},
			"bulkEnhancePolicy": director.Policy(),
			"sessions":          registry.Len(),
			"artifacts":         artifactService.Count(),
		})
	})

	handler.Register(app, handler.Routes{
		Productions: productionHandler,
		Scenes:      sceneHandler,
		Styles:      styleHandler,
		Artifacts:   artifactHandler,
		Registry:    registry,
		Hub:         hub,
		Auth:        authMiddleware,
		RateLimiter: rateLimiter,
		Limits:      cfg.RateLimit,
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		stop()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s (text provider: %s)", addr, cfg.Provider.Text)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// selectClient picks the text backend from config. Media synthesis needs
// Gemini; without a key it is served by the mock so the pipeline still runs.
func selectClient(cfg *config.Config, gemini *client.GeminiClient, openai *client.OpenAIClient, mock *client.MockClient) client.ArtifactClient {
	var media client.MediaModel = mock
	if gemini.IsConfigured() {
		media = gemini
	} else {
		log.Println("Info: Gemini not configured, using mock media generation")
	}

	switch strings.ToLower(cfg.Provider.Text) {
	case "openai":
		if openai.IsConfigured() {
			return client.Compose(openai, media)
		}
		log.Println("Warning: OpenAI selected but not configured, falling back")
	case "mock":
		return client.Compose(mock, media)
	}

	if gemini.IsConfigured() {
		return client.Compose(gemini, media)
	}
	log.Println("Info: no text provider configured, using mock")
	return client.Compose(mock, media)
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": err.Error(),
		},
	})
}
