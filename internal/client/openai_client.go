package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/visionforge/api/internal/config"
	"github.com/visionforge/api/internal/model"
)

// GenerateSchema reflects a strict JSON schema for structured outputs
func GenerateSchema[T any]() interface{} {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

var openAISceneBreakdownSchema = GenerateSchema[SceneBreakdown]()

// OpenAIClient implements ScriptModel with OpenAI chat completions
type OpenAIClient struct {
	client openai.Client
	model  string
	apiKey string
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(cfg *config.OpenAIConfig) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		apiKey: cfg.APIKey,
	}
}

// Segment breaks a script into scenes with a strict JSON schema
func (c *OpenAIClient) Segment(ctx context.Context, script, style string) ([]model.SceneDraft, error) {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "scene_breakdown",
		Description: openai.String("Ordered storyboard scenes"),
		Schema:      openAISceneBreakdownSchema,
		Strict:      openai.Bool(true),
	}

	raw, err := c.complete(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(segmentSystemPrompt(style)),
			openai.UserMessage(script),
		},
		Model: openai.ChatModel(c.model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return parseSceneBreakdown(raw)
}

// Refine rewrites the script; an empty answer keeps the input
func (c *OpenAIClient) Refine(ctx context.Context, script, instruction string) (string, error) {
	raw, err := c.complete(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(refineSystemPrompt(instruction)),
			openai.UserMessage(refineUserPrompt(script, instruction)),
		},
		Model: openai.ChatModel(c.model),
	})
	if err != nil {
		return "", err
	}
	return orDefault(strings.TrimSpace(raw), script), nil
}

// EnhancePrompt rewrites a visual prompt; an empty answer keeps the input
func (c *OpenAIClient) EnhancePrompt(ctx context.Context, prompt, style string) (string, error) {
	raw, err := c.complete(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(enhanceSystemPrompt(style)),
			openai.UserMessage(enhanceUserPrompt(prompt)),
		},
		Model: openai.ChatModel(c.model),
	})
	if err != nil {
		return "", err
	}
	return orDefault(strings.TrimSpace(raw), prompt), nil
}

// StyleFromImage sends the reference image as a data URL
func (c *OpenAIClient) StyleFromImage(ctx context.Context, img Image) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", img.MIMEType, base64.StdEncoding.EncodeToString(img.Data))
	raw, err := c.complete(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(styleImageInstruction),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
			}),
		},
		Model: openai.ChatModel(c.model),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

func (c *OpenAIClient) StyleFromQuery(ctx context.Context, query string) (string, error) {
	raw, err := c.complete(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(styleQueryPrompt(query)),
		},
		Model: openai.ChatModel(c.model),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

func (c *OpenAIClient) complete(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	log.Printf("[OpenAI API] → chat completion %s", c.model)

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		log.Printf("[OpenAI API] ✗ chat completion %s: %v", c.model, err)
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	log.Printf("[OpenAI API] ← chat completion %s — %d tokens", c.model, completion.Usage.TotalTokens)
	return completion.Choices[0].Message.Content, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *OpenAIClient) IsConfigured() bool {
	return c.apiKey != ""
}
