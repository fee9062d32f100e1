package model

import "time"

// Artifact references generated bytes held by the artifact service.
type Artifact struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	MIMEType  string    `json:"mimeType"`
	Filename  string    `json:"filename"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// SceneDraft is one scene as returned by segmentation, before any local state.
type SceneDraft struct {
	SceneNumber      int    `json:"scene_number" jsonschema_description:"1-based position of the scene in the script"`
	DurationEstimate string `json:"duration_estimate" jsonschema_description:"Estimated spoken duration, e.g. 6s"`
	VisualHook       string `json:"visual_hook" jsonschema_description:"Visual that grabs attention in the first 3 seconds"`
	ViralScore       int    `json:"viral_score" jsonschema_description:"Trend potential from 1 to 100"`
	Rationale        string `json:"rationale" jsonschema_description:"Why this scene works"`
	AudioMood        string `json:"audio_mood" jsonschema_description:"Music mood for the scene"`
	SfxCue           string `json:"sfx_cue" jsonschema_description:"Sound effect cue"`
	Prompt           string `json:"prompt" jsonschema_description:"Highly detailed prompt for an image model"`
}

// Scene is one narrated segment of the production.
type Scene struct {
	Ordinal          int       `json:"ordinal"`
	DurationEstimate string    `json:"durationEstimate"`
	VisualHook       string    `json:"visualHook"`
	ViralScore       int       `json:"viralScore"`
	Rationale        string    `json:"rationale"`
	AudioMood        string    `json:"audioMood"`
	SfxCue           string    `json:"sfxCue"`
	Prompt           string    `json:"prompt"`
	GeneratedImage   *Artifact `json:"generatedImage,omitempty"`
	Busy             BusyFlags `json:"busy"`
	Error            string    `json:"error,omitempty"`
}

// IsBusy reports whether the given operation is in flight for the scene.
func (s Scene) IsBusy(k BusyKind) bool { return s.Busy.Has(k) }

// StyleDescriptor is the authoritative aesthetic steering image synthesis.
type StyleDescriptor struct {
	Text           string      `json:"text"`
	Source         StyleSource `json:"source"`
	Query          string      `json:"query,omitempty"`
	ReferenceImage *Artifact   `json:"referenceImage,omitempty"`
}

// Production is the full in-memory state of one editing session.
type Production struct {
	ID                   string          `json:"id"`
	Generation           int             `json:"generation"`
	Status               Status          `json:"status"`
	Script               string          `json:"script"`
	Scenes               []Scene         `json:"scenes"`
	Style                StyleDescriptor `json:"style"`
	AspectRatio          AspectRatio     `json:"aspectRatio"`
	Voice                Voice           `json:"voice"`
	Narration            *Artifact       `json:"narration,omitempty"`
	Thumbnail            *Artifact       `json:"thumbnail,omitempty"`
	Activity             GlobalFlags     `json:"activity"`
	Error                string          `json:"error,omitempty"`
	RefineInstruction    string          `json:"refineInstruction"`
	StyleQuery           string          `json:"styleQuery"`
	ThumbnailInstruction string          `json:"thumbnailInstruction"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// NewProduction returns an empty production with the default settings.
func NewProduction(id string, now time.Time) Production {
	return Production{
		ID:                   id,
		Status:               StatusIdle,
		Scenes:               []Scene{},
		Style:                StyleDescriptor{Source: StyleSourceNone},
		AspectRatio:          AspectLandscape,
		Voice:                VoiceKore,
		ThumbnailInstruction: DefaultThumbnailInstruction,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// Clone returns a copy that shares no mutable memory with p.
func (p Production) Clone() Production {
	out := p
	out.Scenes = make([]Scene, len(p.Scenes))
	for i, s := range p.Scenes {
		out.Scenes[i] = s
		out.Scenes[i].GeneratedImage = cloneArtifact(s.GeneratedImage)
	}
	out.Narration = cloneArtifact(p.Narration)
	out.Thumbnail = cloneArtifact(p.Thumbnail)
	out.Style.ReferenceImage = cloneArtifact(p.Style.ReferenceImage)
	return out
}

// SceneIndex returns the slice index of the scene with the given ordinal, or -1.
func (p Production) SceneIndex(ordinal int) int {
	for i := range p.Scenes {
		if p.Scenes[i].Ordinal == ordinal {
			return i
		}
	}
	return -1
}

// ImagedScenes returns the scenes that hold a generated image, in order.
func (p Production) ImagedScenes() []Scene {
	var out []Scene
	for _, s := range p.Scenes {
		if s.GeneratedImage != nil {
			out = append(out, s)
		}
	}
	return out
}

func cloneArtifact(a *Artifact) *Artifact {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
