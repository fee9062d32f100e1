package service

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/visionforge/api/internal/model"
)

// Storyboard export formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// BuildStoryboard flattens a production into its exportable form.
func BuildStoryboard(p model.Production) model.Storyboard {
	sb := model.Storyboard{
		ID:          p.ID,
		Script:      p.Script,
		Style:       p.Style.Text,
		AspectRatio: p.AspectRatio,
		Voice:       p.Voice,
		Scenes:      make([]model.StoryboardScene, 0, len(p.Scenes)),
	}
	if p.Narration != nil {
		sb.NarrationURL = p.Narration.URL
	}
	if p.Thumbnail != nil {
		sb.ThumbnailURL = p.Thumbnail.URL
	}
	for _, sc := range p.Scenes {
		out := model.StoryboardScene{
			Ordinal:          sc.Ordinal,
			DurationEstimate: sc.DurationEstimate,
			VisualHook:       sc.VisualHook,
			ViralScore:       sc.ViralScore,
			Rationale:        sc.Rationale,
			AudioMood:        sc.AudioMood,
			SfxCue:           sc.SfxCue,
			Prompt:           sc.Prompt,
		}
		if sc.GeneratedImage != nil {
			out.ImageURL = sc.GeneratedImage.URL
		}
		sb.Scenes = append(sb.Scenes, out)
	}
	return sb
}

// EncodeStoryboard renders sb as JSON or YAML and returns the content type.
func EncodeStoryboard(sb model.Storyboard, format string) ([]byte, string, error) {
	switch format {
	case "", FormatJSON:
		data, err := json.MarshalIndent(sb, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode storyboard: %w", err)
		}
		return data, "application/json", nil
	case FormatYAML:
		data, err := yaml.Marshal(sb)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode storyboard: %w", err)
		}
		return data, "application/yaml", nil
	default:
		return nil, "", fmt.Errorf("unsupported storyboard format %q", format)
	}
}
