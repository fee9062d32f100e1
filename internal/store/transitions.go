// Package store holds the production state of an editing session.
//
// The transitions in this file are pure: each takes a Production value and
// returns the next one without touching the input. Store serializes them.
// Scene transitions panic on an ordinal that is not part of the production;
// callers at the transport boundary check membership first.
package store

import (
	"fmt"
	"sort"

	"github.com/visionforge/api/internal/model"
)

func mustSceneIndex(p model.Production, ordinal int) int {
	i := p.SceneIndex(ordinal)
	if i < 0 {
		panic(fmt.Sprintf("store: scene %d not in production %s (generation %d)", ordinal, p.ID, p.Generation))
	}
	return i
}

// withScene copies the scene slice and applies fn to one scene in the copy.
func withScene(p model.Production, ordinal int, fn func(*model.Scene)) model.Production {
	i := mustSceneIndex(p, ordinal)
	scenes := make([]model.Scene, len(p.Scenes))
	copy(scenes, p.Scenes)
	fn(&scenes[i])
	p.Scenes = scenes
	return p
}

func ReplaceScript(p model.Production, text string) model.Production {
	p.Script = text
	return p
}

// NormalizeDrafts turns a segmentation response into fresh scenes. Ordinals are
// kept when they are positive and unique, otherwise the list is renumbered 1..n.
func NormalizeDrafts(drafts []model.SceneDraft) []model.Scene {
	scenes := make([]model.Scene, len(drafts))
	seen := make(map[int]bool, len(drafts))
	renumber := false
	for _, d := range drafts {
		if d.SceneNumber <= 0 || seen[d.SceneNumber] {
			renumber = true
			break
		}
		seen[d.SceneNumber] = true
	}
	for i, d := range drafts {
		ordinal := d.SceneNumber
		if renumber {
			ordinal = i + 1
		}
		scenes[i] = model.Scene{
			Ordinal:          ordinal,
			DurationEstimate: d.DurationEstimate,
			VisualHook:       d.VisualHook,
			ViralScore:       clamp(d.ViralScore, 0, 100),
			Rationale:        d.Rationale,
			AudioMood:        d.AudioMood,
			SfxCue:           d.SfxCue,
			Prompt:           d.Prompt,
		}
	}
	sort.SliceStable(scenes, func(a, b int) bool { return scenes[a].Ordinal < scenes[b].Ordinal })
	return scenes
}

// ReplaceScenes installs a new storyboard wholesale and closes the segment operation.
func ReplaceScenes(p model.Production, drafts []model.SceneDraft) model.Production {
	p.Scenes = NormalizeDrafts(drafts)
	p.Generation++
	p.Status = model.StatusProducing
	p.Activity = p.Activity.With(model.OpSegment, false)
	return p
}

func UpdateScenePrompt(p model.Production, ordinal int, text string) model.Production {
	return withScene(p, ordinal, func(s *model.Scene) { s.Prompt = text })
}

func SetSceneBusy(p model.Production, ordinal int, kind model.BusyKind, on bool) model.Production {
	return withScene(p, ordinal, func(s *model.Scene) { s.Busy = s.Busy.With(kind, on) })
}

// BeginSceneOp raises one busy flag and clears the scene's previous error.
func BeginSceneOp(p model.Production, ordinal int, kind model.BusyKind) model.Production {
	return withScene(p, ordinal, func(s *model.Scene) {
		s.Busy = s.Busy.With(kind, true)
		s.Error = ""
	})
}

// SetSceneImage stores the image and lowers the image flag in one step.
func SetSceneImage(p model.Production, ordinal int, image model.Artifact) model.Production {
	return withScene(p, ordinal, func(s *model.Scene) {
		img := image
		s.GeneratedImage = &img
		s.Busy = s.Busy.With(model.BusyImage, false)
	})
}

// SetEnhancedPrompt stores the prompt and lowers the prompt flag in one step.
func SetEnhancedPrompt(p model.Production, ordinal int, prompt string) model.Production {
	return withScene(p, ordinal, func(s *model.Scene) {
		s.Prompt = prompt
		s.Busy = s.Busy.With(model.BusyPrompt, false)
	})
}

func SetSceneError(p model.Production, ordinal int, kind model.BusyKind, message string) model.Production {
	return withScene(p, ordinal, func(s *model.Scene) {
		s.Error = message
		s.Busy = s.Busy.With(kind, false)
	})
}

// SetSceneErrorMessage records a scene error and leaves the busy flags to
// whichever operation raised them.
func SetSceneErrorMessage(p model.Production, ordinal int, message string) model.Production {
	return withScene(p, ordinal, func(s *model.Scene) {
		s.Error = message
	})
}

// ReplaceAllPrompts applies a batch of prompts keyed by ordinal.
func ReplaceAllPrompts(p model.Production, prompts map[int]string) model.Production {
	scenes := make([]model.Scene, len(p.Scenes))
	copy(scenes, p.Scenes)
	for ordinal, text := range prompts {
		scenes[mustSceneIndex(p, ordinal)].Prompt = text
	}
	p.Scenes = scenes
	return p
}

// BeginGlobalOp raises a production-wide flag and clears the banner.
func BeginGlobalOp(p model.Production, op model.GlobalOp) model.Production {
	p.Activity = p.Activity.With(op, true)
	p.Error = ""
	if op == model.OpSegment {
		p.Status = model.StatusAnalyzing
	}
	return p
}

func EndGlobalOp(p model.Production, op model.GlobalOp) model.Production {
	p.Activity = p.Activity.With(op, false)
	return p
}

// SetGlobalError replaces the banner and lowers the operation flag.
func SetGlobalError(p model.Production, op model.GlobalOp, message string) model.Production {
	p.Error = message
	p.Activity = p.Activity.With(op, false)
	if op == model.OpSegment {
		p.Status = model.StatusError
	}
	return p
}

// RaiseError shows a banner without an operation having started.
func RaiseError(p model.Production, message string) model.Production {
	p.Error = message
	return p
}

func DismissError(p model.Production) model.Production {
	p.Error = ""
	return p
}

// CompleteRefine installs the revised script and clears the one-shot instruction.
func CompleteRefine(p model.Production, script string) model.Production {
	p.Script = script
	p.RefineInstruction = ""
	p.Activity = p.Activity.With(model.OpRefine, false)
	return p
}

func SetStyle(p model.Production, style model.StyleDescriptor) model.Production {
	p.Style = style
	p.Activity = p.Activity.With(model.OpStyle, false)
	return p
}

func ClearStyle(p model.Production) model.Production {
	p.Style = model.StyleDescriptor{Source: model.StyleSourceNone}
	return p
}

func SetNarration(p model.Production, audio model.Artifact) model.Production {
	a := audio
	p.Narration = &a
	p.Activity = p.Activity.With(model.OpNarrate, false)
	return p
}

func SetThumbnail(p model.Production, image model.Artifact) model.Production {
	img := image
	p.Thumbnail = &img
	p.Activity = p.Activity.With(model.OpThumbnail, false)
	return p
}

func SetAspectRatio(p model.Production, ar model.AspectRatio) model.Production {
	p.AspectRatio = ar
	return p
}

func SetVoice(p model.Production, v model.Voice) model.Production {
	p.Voice = v
	return p
}

func SetRefineInstruction(p model.Production, text string) model.Production {
	p.RefineInstruction = text
	return p
}

func SetStyleQuery(p model.Production, text string) model.Production {
	p.StyleQuery = text
	return p
}

func SetThumbnailInstruction(p model.Production, text string) model.Production {
	p.ThumbnailInstruction = text
	return p
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
