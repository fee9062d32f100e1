package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/visionforge/api/internal/config"
	"github.com/visionforge/api/internal/model"
)

// GeminiClient implements ArtifactClient against the Gemini generateContent API
type GeminiClient struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	textModel   string
	imageModel  string
	speechModel string
}

// Part is one piece of content: text or inline bytes
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData carries base64 payloads; encoding/json handles the base64 for []byte
type InlineData struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// Content is a role-tagged list of parts
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// GenerationConfig holds the per-call output options
type GenerationConfig struct {
	ResponseMIMEType   string         `json:"responseMimeType,omitempty"`
	ResponseSchema     map[string]any `json:"responseSchema,omitempty"`
	ResponseModalities []string       `json:"responseModalities,omitempty"`
	SpeechConfig       *SpeechConfig  `json:"speechConfig,omitempty"`
	ImageConfig        *ImageConfig   `json:"imageConfig,omitempty"`
}

// SpeechConfig selects a prebuilt narration voice
type SpeechConfig struct {
	VoiceConfig struct {
		PrebuiltVoiceConfig struct {
			VoiceName string `json:"voiceName"`
		} `json:"prebuiltVoiceConfig"`
	} `json:"voiceConfig"`
}

// ImageConfig sets the output framing
type ImageConfig struct {
	AspectRatio string `json:"aspectRatio"`
}

// GenerateContentRequest represents the request body for generateContent
type GenerateContentRequest struct {
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Contents          []Content         `json:"contents"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

// GenerateContentResponse represents the response from generateContent
type GenerateContentResponse struct {
	Candidates []struct {
		Content      Content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Text concatenates the text parts of the first candidate
func (r *GenerateContentResponse) Text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// InlineData returns the first inline payload of the first candidate
func (r *GenerateContentResponse) InlineData() *InlineData {
	if len(r.Candidates) == 0 {
		return nil
	}
	for _, p := range r.Candidates[0].Content.Parts {
		if p.InlineData != nil && len(p.InlineData.Data) > 0 {
			return p.InlineData
		}
	}
	return nil
}

var sceneBreakdownSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"scenes": map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"scene_number":      map[string]any{"type": "INTEGER"},
					"duration_estimate": map[string]any{"type": "STRING"},
					"visual_hook":       map[string]any{"type": "STRING"},
					"viral_score":       map[string]any{"type": "INTEGER"},
					"rationale":         map[string]any{"type": "STRING"},
					"audio_mood":        map[string]any{"type": "STRING"},
					"sfx_cue":           map[string]any{"type": "STRING"},
					"prompt":            map[string]any{"type": "STRING"},
				},
				"required": []string{"scene_number", "duration_estimate", "visual_hook", "viral_score", "rationale", "audio_mood", "sfx_cue", "prompt"},
			},
		},
	},
	"required": []string{"scenes"},
}

// NewGeminiClient creates a new Gemini API client
func NewGeminiClient(cfg *config.GeminiConfig) *GeminiClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &GeminiClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		textModel:   cfg.TextModel,
		imageModel:  cfg.ImageModel,
		speechModel: cfg.SpeechModel,
	}
}

// Segment breaks a script into scenes using structured JSON output
func (c *GeminiClient) Segment(ctx context.Context, script, style string) ([]model.SceneDraft, error) {
	resp, err := c.generate(ctx, c.textModel, &GenerateContentRequest{
		SystemInstruction: systemText(segmentSystemPrompt(style)),
		Contents:          userParts(Part{Text: script}),
		GenerationConfig: &GenerationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   sceneBreakdownSchema,
		},
	})
	if err != nil {
		return nil, err
	}
	return parseSceneBreakdown(resp.Text())
}

// Refine rewrites the script; an empty answer keeps the input
func (c *GeminiClient) Refine(ctx context.Context, script, instruction string) (string, error) {
	resp, err := c.generate(ctx, c.textModel, &GenerateContentRequest{
		SystemInstruction: systemText(refineSystemPrompt(instruction)),
		Contents:          userParts(Part{Text: refineUserPrompt(script, instruction)}),
	})
	if err != nil {
		return "", err
	}
	return orDefault(strings.TrimSpace(resp.Text()), script), nil
}

// EnhancePrompt rewrites a visual prompt; an empty answer keeps the input
func (c *GeminiClient) EnhancePrompt(ctx context.Context, prompt, style string) (string, error) {
	resp, err := c.generate(ctx, c.textModel, &GenerateContentRequest{
		SystemInstruction: systemText(enhanceSystemPrompt(style)),
		Contents:          userParts(Part{Text: enhanceUserPrompt(prompt)}),
	})
	if err != nil {
		return "", err
	}
	return orDefault(strings.TrimSpace(resp.Text()), prompt), nil
}

// StyleFromImage describes the aesthetic of a reference image
func (c *GeminiClient) StyleFromImage(ctx context.Context, img Image) (string, error) {
	resp, err := c.generate(ctx, c.textModel, &GenerateContentRequest{
		Contents: userParts(
			Part{Text: styleImageInstruction},
			Part{InlineData: &InlineData{MIMEType: img.MIMEType, Data: img.Data}},
		),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

// StyleFromQuery describes the aesthetic named by a free-text query
func (c *GeminiClient) StyleFromQuery(ctx context.Context, query string) (string, error) {
	resp, err := c.generate(ctx, c.textModel, &GenerateContentRequest{
		Contents: userParts(Part{Text: styleQueryPrompt(query)}),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

// GenerateImage renders one scene
func (c *GeminiClient) GenerateImage(ctx context.Context, prompt string, ar model.AspectRatio) (*Image, error) {
	resp, err := c.generate(ctx, c.imageModel, &GenerateContentRequest{
		Contents: userParts(Part{Text: imagePrompt(prompt)}),
		GenerationConfig: &GenerationConfig{
			ImageConfig: &ImageConfig{AspectRatio: string(ar)},
		},
	})
	if err != nil {
		return nil, err
	}
	data := resp.InlineData()
	if data == nil {
		return nil, ErrNoImage
	}
	return &Image{Data: data.Data, MIMEType: orDefault(data.MIMEType, "image/png")}, nil
}

// GenerateThumbnail blends scene images into a single composition
func (c *GeminiClient) GenerateThumbnail(ctx context.Context, images []Image, instruction string, ar model.AspectRatio) (*Image, error) {
	parts := make([]Part, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, Part{InlineData: &InlineData{MIMEType: orDefault(img.MIMEType, "image/png"), Data: img.Data}})
	}
	parts = append(parts, Part{Text: thumbnailPrompt(len(images), instruction)})

	resp, err := c.generate(ctx, c.imageModel, &GenerateContentRequest{
		Contents: userParts(parts...),
		GenerationConfig: &GenerationConfig{
			ImageConfig: &ImageConfig{AspectRatio: string(ar)},
		},
	})
	if err != nil {
		return nil, err
	}
	data := resp.InlineData()
	if data == nil {
		return nil, ErrNoImage
	}
	return &Image{Data: data.Data, MIMEType: orDefault(data.MIMEType, "image/png")}, nil
}

// Narrate synthesizes speech for the full script
func (c *GeminiClient) Narrate(ctx context.Context, text string, voice model.Voice) (*PCMAudio, error) {
	speech := &SpeechConfig{}
	speech.VoiceConfig.PrebuiltVoiceConfig.VoiceName = string(voice)

	resp, err := c.generate(ctx, c.speechModel, &GenerateContentRequest{
		Contents: userParts(Part{Text: text}),
		GenerationConfig: &GenerationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig:       speech,
		},
	})
	if err != nil {
		return nil, err
	}
	data := resp.InlineData()
	if data == nil {
		return nil, ErrNoAudio
	}
	return &PCMAudio{Data: data.Data, SampleRate: sampleRateOf(data.MIMEType)}, nil
}

// generate posts one generateContent call and parses the response
func (c *GeminiClient) generate(ctx context.Context, modelName string, body *GenerateContentRequest) (*GenerateContentResponse, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, modelName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	log.Printf("[Gemini API] → POST %s", modelName)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[Gemini API] ✗ POST %s — request failed: %v", modelName, err)
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[Gemini API] ✗ POST %s — failed to read response: %v", modelName, err)
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// bodies carry base64 media, so only the size is logged
	log.Printf("[Gemini API] ← %d POST %s — %d bytes", resp.StatusCode, modelName, len(respBody))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 512))
	}

	var genResp GenerateContentResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(genResp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}
	return &genResp, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *GeminiClient) IsConfigured() bool {
	return c.apiKey != ""
}

func systemText(text string) *Content {
	return &Content{Parts: []Part{{Text: text}}}
}

func userParts(parts ...Part) []Content {
	return []Content{{Role: "user", Parts: parts}}
}

// parseSceneBreakdown decodes a segmentation answer; malformed or empty is an error
func parseSceneBreakdown(raw string) ([]model.SceneDraft, error) {
	var breakdown SceneBreakdown
	if err := json.Unmarshal([]byte(raw), &breakdown); err != nil {
		return nil, fmt.Errorf("failed to parse scene breakdown: %w", err)
	}
	if len(breakdown.Scenes) == 0 {
		return nil, ErrNoScenes
	}
	return breakdown.Scenes, nil
}

// sampleRateOf reads rate= from a mime type like audio/L16;codec=pcm;rate=24000
func sampleRateOf(mimeType string) int {
	_, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return DefaultSampleRate
	}
	rate, err := strconv.Atoi(params["rate"])
	if err != nil || rate <= 0 {
		return DefaultSampleRate
	}
	return rate
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
