package client

import (
	"context"
	"errors"

	"github.com/visionforge/api/internal/model"
)

var (
	ErrNoScenes = errors.New("provider returned no scenes")
	ErrNoImage  = errors.New("provider returned no image")
	ErrNoAudio  = errors.New("provider returned no audio")
)

// DefaultSampleRate is used when the speech provider does not report one.
const DefaultSampleRate = 24000

// Image is encoded image bytes as returned by a provider.
type Image struct {
	Data     []byte
	MIMEType string
}

// PCMAudio is raw 16-bit little-endian mono samples.
type PCMAudio struct {
	Data       []byte
	SampleRate int
}

// ScriptModel defines the text operations of the generative provider
type ScriptModel interface {
	Segment(ctx context.Context, script, style string) ([]model.SceneDraft, error)
	Refine(ctx context.Context, script, instruction string) (string, error)
	EnhancePrompt(ctx context.Context, prompt, style string) (string, error)
	StyleFromImage(ctx context.Context, img Image) (string, error)
	StyleFromQuery(ctx context.Context, query string) (string, error)
}

// MediaModel defines the synthesis operations of the generative provider
type MediaModel interface {
	GenerateImage(ctx context.Context, prompt string, ar model.AspectRatio) (*Image, error)
	GenerateThumbnail(ctx context.Context, images []Image, instruction string, ar model.AspectRatio) (*Image, error)
	Narrate(ctx context.Context, text string, voice model.Voice) (*PCMAudio, error)
}

// ArtifactClient is the full boundary to the generative provider.
type ArtifactClient interface {
	ScriptModel
	MediaModel
}

type composite struct {
	ScriptModel
	MediaModel
}

// Compose serves text operations from one backend and media from another.
func Compose(text ScriptModel, media MediaModel) ArtifactClient {
	return composite{ScriptModel: text, MediaModel: media}
}

// SceneBreakdown is the structured segmentation response.
type SceneBreakdown struct {
	Scenes []model.SceneDraft `json:"scenes" jsonschema_description:"Ordered scenes covering the whole script, 5-10 seconds each"`
}
