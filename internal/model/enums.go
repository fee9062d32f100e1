package model

// Aspect ratios
type AspectRatio string

const (
	AspectPortrait  AspectRatio = "9:16"
	AspectLandscape AspectRatio = "16:9"
	AspectSquare    AspectRatio = "1:1"
)

var ValidAspectRatios = []AspectRatio{AspectPortrait, AspectLandscape, AspectSquare}

// Narration voices
type Voice string

const (
	VoiceKore   Voice = "Kore"
	VoicePuck   Voice = "Puck"
	VoiceFenrir Voice = "Fenrir"
	VoiceAoede  Voice = "Aoede"
	VoiceLeda   Voice = "Leda"
	VoiceZephyr Voice = "Zephyr"
)

// VoiceOption describes a selectable narration voice
type VoiceOption struct {
	ID     Voice  `json:"id"`
	Name   string `json:"name"`
	Gender string `json:"gender"`
}

var VoiceCatalog = []VoiceOption{
	{ID: VoiceKore, Name: "Stoic Male (Deep)", Gender: "male"},
	{ID: VoicePuck, Name: "Enthusiastic Youth", Gender: "male"},
	{ID: VoiceFenrir, Name: "The Storyteller", Gender: "male"},
	{ID: VoiceAoede, Name: "Soothing Female", Gender: "female"},
	{ID: VoiceLeda, Name: "Professional News", Gender: "female"},
	{ID: VoiceZephyr, Name: "Friendly Agent", Gender: "male"},
}

// Production status
type Status string

const (
	StatusIdle      Status = "idle"
	StatusAnalyzing Status = "analyzing"
	StatusProducing Status = "producing"
	StatusError     Status = "error"
)

// Style sources
type StyleSource string

const (
	StyleSourceNone  StyleSource = "none"
	StyleSourceImage StyleSource = "image"
	StyleSourceQuery StyleSource = "query"
)

// Bulk enhancement policies
type BulkPolicy string

const (
	BulkAllOrNothing BulkPolicy = "all_or_nothing"
	BulkPartial      BulkPolicy = "partial"
)

// ParseBulkPolicy falls back to all-or-nothing for unknown values.
func ParseBulkPolicy(s string) BulkPolicy {
	if BulkPolicy(s) == BulkPartial {
		return BulkPartial
	}
	return BulkAllOrNothing
}

const DefaultThumbnailInstruction = "Create a highly engaging, viral-worthy thumbnail. Blend the most dramatic visuals from the production. Hyper-realistic, 8k, cinematic lighting."
