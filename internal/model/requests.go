package model

// CreateProductionRequest represents the optional body for opening a session
type CreateProductionRequest struct {
	Script      string      `json:"script" validate:"omitempty,max=20000"`
	AspectRatio AspectRatio `json:"aspectRatio" validate:"omitempty,oneof=9:16 16:9 1:1"`
	Voice       Voice       `json:"voice" validate:"omitempty,oneof=Kore Puck Fenrir Aoede Leda Zephyr"`
}

// CreateProductionResponse carries the session token used for every later call
type CreateProductionResponse struct {
	ID         string     `json:"id"`
	Token      string     `json:"token"`
	Production Production `json:"production"`
}

// TextRequest is the body of every free-text setter
type TextRequest struct {
	Text string `json:"text" validate:"max=20000"`
}

// AspectRatioRequest represents PUT .../aspect-ratio
type AspectRatioRequest struct {
	AspectRatio AspectRatio `json:"aspectRatio" validate:"required,oneof=9:16 16:9 1:1"`
}

// VoiceRequest represents PUT .../voice
type VoiceRequest struct {
	Voice Voice `json:"voice" validate:"required,oneof=Kore Puck Fenrir Aoede Leda Zephyr"`
}

// RefineRequest represents POST .../refine; an empty instruction uses the stored draft
type RefineRequest struct {
	Instruction string `json:"instruction" validate:"omitempty,max=2000"`
}

// StyleQueryRequest represents POST .../style/query; an empty query uses the stored draft
type StyleQueryRequest struct {
	Query string `json:"query" validate:"omitempty,max=500"`
}

// ThumbnailRequest represents POST .../thumbnail; an empty instruction uses the stored one
type ThumbnailRequest struct {
	Instruction string `json:"instruction" validate:"omitempty,max=2000"`
}

// OperationResponse is returned by every orchestration endpoint
type OperationResponse struct {
	Operation  string     `json:"operation"`
	Accepted   bool       `json:"accepted"`
	Error      string     `json:"error,omitempty"`
	Production Production `json:"production"`
}

// Storyboard is the exportable view of a production
type Storyboard struct {
	ID           string            `json:"id" yaml:"id"`
	Script       string            `json:"script" yaml:"script"`
	Style        string            `json:"style,omitempty" yaml:"style,omitempty"`
	AspectRatio  AspectRatio       `json:"aspectRatio" yaml:"aspect_ratio"`
	Voice        Voice             `json:"voice" yaml:"voice"`
	NarrationURL string            `json:"narrationUrl,omitempty" yaml:"narration_url,omitempty"`
	ThumbnailURL string            `json:"thumbnailUrl,omitempty" yaml:"thumbnail_url,omitempty"`
	Scenes       []StoryboardScene `json:"scenes" yaml:"scenes"`
}

// StoryboardScene is one exported scene
type StoryboardScene struct {
	Ordinal          int    `json:"ordinal" yaml:"ordinal"`
	DurationEstimate string `json:"durationEstimate" yaml:"duration_estimate"`
	VisualHook       string `json:"visualHook" yaml:"visual_hook"`
	ViralScore       int    `json:"viralScore" yaml:"viral_score"`
	Rationale        string `json:"rationale" yaml:"rationale"`
	AudioMood        string `json:"audioMood" yaml:"audio_mood"`
	SfxCue           string `json:"sfxCue" yaml:"sfx_cue"`
	Prompt           string `json:"prompt" yaml:"prompt"`
	ImageURL         string `json:"imageUrl,omitempty" yaml:"image_url,omitempty"`
}
