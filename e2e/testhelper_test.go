package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/visionforge/api/internal/client"
	"github.com/visionforge/api/internal/config"
	"github.com/visionforge/api/internal/handler"
	"github.com/visionforge/api/internal/middleware"
	"github.com/visionforge/api/internal/service"
	"github.com/visionforge/api/internal/store"
	ws "github.com/visionforge/api/internal/websocket"
)

const testJWTSecret = "test-secret-for-e2e"

// testApp holds all components needed for testing
type testApp struct {
	app       *fiber.App
	registry  *store.Registry
	artifacts *service.ArtifactService
}

// setupApp creates a Fiber app identical to main.go but backed by the mock
// client, in-memory artifacts and no Redis (rate limiting disabled).
func setupApp(t *testing.T) *testApp {
	t.Helper()

	validate := validator.New()

	hub := ws.NewHub()
	go hub.Run()

	mock := client.NewMockClient()
	artifacts := service.NewArtifactService(nil, "")
	director := service.NewDirector(client.Compose(mock, mock), artifacts, &config.OrchestrationConfig{
		OperationTimeout:   10,
		BulkEnhancePolicy:  "all_or_nothing",
		EnhanceConcurrency: 4,
	})

	registry := store.NewRegistry(time.Hour)
	registry.OnEvict(artifacts.DropSession)
	registry.OnEvict(hub.Disconnect)

	productions := handler.NewProductionHandler(registry, director, hub.BroadcastSnapshot, validate, testJWTSecret, time.Hour)

	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024,
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	handler.Register(app, handler.Routes{
		Productions: productions,
		Scenes:      handler.NewSceneHandler(productions, validate),
		Styles:      handler.NewStyleHandler(productions, validate),
		Artifacts:   handler.NewArtifactHandler(artifacts),
		Registry:    registry,
		Hub:         hub,
		Auth:        middleware.NewAuthMiddleware(testJWTSecret),
		RateLimiter: middleware.NewRateLimiter(nil),
		Limits:      config.RateLimitConfig{GeneratePerMin: 10000, RenderPerHour: 10000},
	})

	return &testApp{app: app, registry: registry, artifacts: artifacts}
}

// createProduction opens a session and returns its ID and token.
func createProduction(t *testing.T, app *fiber.App, body string) (string, string) {
	t.Helper()
	resp, err := doRequest(app, http.MethodPost, "/api/productions", body, nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	result := parseJSON(t, resp)
	id, _ := result["id"].(string)
	token, _ := result["token"].(string)
	if id == "" || token == "" {
		t.Fatalf("create: missing id or token in %v", result)
	}
	return id, token
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs a request carrying the session token.
func doAuthRequest(t *testing.T, app *fiber.App, token, method, path, body string) *http.Response {
	t.Helper()
	resp, err := doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	return resp
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// production extracts the production object from an operation response.
func production(t *testing.T, result map[string]interface{}) map[string]interface{} {
	t.Helper()
	p, ok := result["production"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected 'production' in response: %v", result)
	}
	return p
}

func scenesOf(p map[string]interface{}) []interface{} {
	scenes, _ := p["scenes"].([]interface{})
	return scenes
}
