package client

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"log"
	"strings"

	"github.com/visionforge/api/internal/model"
)

// MockClient is a deterministic ArtifactClient used for development when no
// provider key is configured.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

// Segment turns each sentence into one scene
func (m *MockClient) Segment(ctx context.Context, script, style string) ([]model.SceneDraft, error) {
	sentences := splitSentences(script)
	if len(sentences) == 0 {
		return nil, ErrNoScenes
	}
	log.Printf("[Mock] segmenting script into %d scene(s)", len(sentences))

	drafts := make([]model.SceneDraft, len(sentences))
	for i, s := range sentences {
		prompt := s
		if style != "" {
			prompt = fmt.Sprintf("%s, %s", s, style)
		}
		drafts[i] = model.SceneDraft{
			SceneNumber:      i + 1,
			DurationEstimate: fmt.Sprintf("%ds", 5+len(strings.Fields(s))%6),
			VisualHook:       "Slow push-in on " + s,
			ViralScore:       50 + int(hashOf(s)%50),
			Rationale:        "Direct illustration of the narration",
			AudioMood:        "Cinematic ambient",
			SfxCue:           "Low whoosh",
			Prompt:           prompt,
		}
	}
	return drafts, nil
}

func (m *MockClient) Refine(ctx context.Context, script, instruction string) (string, error) {
	return strings.TrimSpace(script), nil
}

func (m *MockClient) EnhancePrompt(ctx context.Context, prompt, style string) (string, error) {
	return fmt.Sprintf("%s, %s, volumetric lighting, 8k", prompt, orDefault(style, "cinematic photorealism")), nil
}

func (m *MockClient) StyleFromImage(ctx context.Context, img Image) (string, error) {
	return fmt.Sprintf("reference palette %08x, soft rim lighting, film grain", hashOf(string(img.Data))), nil
}

func (m *MockClient) StyleFromQuery(ctx context.Context, query string) (string, error) {
	return fmt.Sprintf("%s aesthetic, moody lighting, rich colors, digital painting", query), nil
}

func (m *MockClient) GenerateImage(ctx context.Context, prompt string, ar model.AspectRatio) (*Image, error) {
	return solidImage(hashOf(prompt), ar)
}

func (m *MockClient) GenerateThumbnail(ctx context.Context, images []Image, instruction string, ar model.AspectRatio) (*Image, error) {
	if len(images) == 0 {
		return nil, ErrNoImage
	}
	return solidImage(hashOf(instruction)^uint32(len(images)), ar)
}

// Narrate returns silence, 50ms per word
func (m *MockClient) Narrate(ctx context.Context, text string, voice model.Voice) (*PCMAudio, error) {
	words := len(strings.Fields(text))
	if words == 0 {
		return nil, ErrNoAudio
	}
	samples := words * DefaultSampleRate / 20
	return &PCMAudio{Data: make([]byte, samples*2), SampleRate: DefaultSampleRate}, nil
}

func (m *MockClient) IsConfigured() bool {
	return true
}

func splitSentences(text string) []string {
	var out []string
	var cur strings.Builder
	for _, r := range text {
		cur.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(cur.String()); s != "" && s != "." {
				out = append(out, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}

func hashOf(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func solidImage(seed uint32, ar model.AspectRatio) (*Image, error) {
	w, h := 64, 36
	switch ar {
	case model.AspectPortrait:
		w, h = 36, 64
	case model.AspectSquare:
		w, h = 48, 48
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	c := color.RGBA{R: uint8(seed), G: uint8(seed >> 8), B: uint8(seed >> 16), A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode mock image: %w", err)
	}
	return &Image{Data: buf.Bytes(), MIMEType: "image/png"}, nil
}
