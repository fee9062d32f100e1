package store

import (
	"reflect"
	"testing"
	"time"

	"github.com/visionforge/api/internal/model"
)

func drafts(n int) []model.SceneDraft {
	out := make([]model.SceneDraft, n)
	for i := range out {
		out[i] = model.SceneDraft{
			SceneNumber:      i + 1,
			DurationEstimate: "6s",
			VisualHook:       "hook",
			ViralScore:       70,
			Prompt:           "prompt",
		}
	}
	return out
}

func seeded(n int) model.Production {
	p := model.NewProduction("p1", time.Unix(0, 0))
	return ReplaceScenes(p, drafts(n))
}

func TestSetSceneImage_ClearsFlagAndLeavesOthers(t *testing.T) {
	p := seeded(3)
	for _, o := range []int{1, 2, 3} {
		p = SetSceneBusy(p, o, model.BusyImage, true)
	}
	p = SetSceneBusy(p, 3, model.BusyPrompt, true)
	before := p.Clone()

	img := model.Artifact{ID: "img-2", URL: "/artifacts/img-2"}
	got := SetSceneImage(p, 2, img)

	s := got.Scenes[1]
	if s.GeneratedImage == nil || s.GeneratedImage.ID != "img-2" {
		t.Fatalf("scene 2 image = %+v, want img-2", s.GeneratedImage)
	}
	if s.IsBusy(model.BusyImage) {
		t.Error("scene 2 still image-busy after SetSceneImage")
	}
	if !reflect.DeepEqual(got.Scenes[0], before.Scenes[0]) || !reflect.DeepEqual(got.Scenes[2], before.Scenes[2]) {
		t.Error("other scenes changed")
	}
	if !reflect.DeepEqual(p, before) {
		t.Error("input production was mutated")
	}
}

func TestReplaceScenes_Wholesale(t *testing.T) {
	p := seeded(4)
	p = SetSceneImage(p, 4, model.Artifact{ID: "old"})

	next := []model.SceneDraft{
		{SceneNumber: 1, Prompt: "new one"},
		{SceneNumber: 2, Prompt: "new two"},
	}
	got := ReplaceScenes(p, next)

	if len(got.Scenes) != 2 {
		t.Fatalf("scenes = %d, want 2", len(got.Scenes))
	}
	for i, s := range got.Scenes {
		if s.Ordinal != i+1 || s.Prompt != next[i].Prompt {
			t.Errorf("scene[%d] = %d %q", i, s.Ordinal, s.Prompt)
		}
		if s.GeneratedImage != nil || s.Busy != 0 {
			t.Errorf("scene %d carried state over: %+v", s.Ordinal, s)
		}
	}
	if got.Generation != p.Generation+1 {
		t.Errorf("generation = %d, want %d", got.Generation, p.Generation+1)
	}
	if got.Status != model.StatusProducing {
		t.Errorf("status = %s, want producing", got.Status)
	}
}

func TestNormalizeDrafts_RenumbersDuplicates(t *testing.T) {
	scenes := NormalizeDrafts([]model.SceneDraft{
		{SceneNumber: 1, ViralScore: 150},
		{SceneNumber: 1, ViralScore: -4},
		{SceneNumber: 0},
	})
	for i, s := range scenes {
		if s.Ordinal != i+1 {
			t.Errorf("scene[%d].Ordinal = %d, want %d", i, s.Ordinal, i+1)
		}
	}
	if scenes[0].ViralScore != 100 || scenes[1].ViralScore != 0 {
		t.Errorf("scores not clamped: %d %d", scenes[0].ViralScore, scenes[1].ViralScore)
	}
}

func TestNormalizeDrafts_SortsByOrdinal(t *testing.T) {
	scenes := NormalizeDrafts([]model.SceneDraft{{SceneNumber: 3}, {SceneNumber: 1}, {SceneNumber: 2}})
	for i, s := range scenes {
		if s.Ordinal != i+1 {
			t.Errorf("scene[%d].Ordinal = %d", i, s.Ordinal)
		}
	}
}

func TestUpdateScenePrompt_Idempotent(t *testing.T) {
	p := seeded(2)
	once := UpdateScenePrompt(p, 2, "dusk over the harbor")
	twice := UpdateScenePrompt(once, 2, "dusk over the harbor")
	if !reflect.DeepEqual(once, twice) {
		t.Error("second identical update changed the production")
	}
	if once.Scenes[1].Busy != 0 {
		t.Error("prompt edit touched busy flags")
	}
}

func TestBusyFlags_Independent(t *testing.T) {
	p := seeded(1)
	p = SetSceneBusy(p, 1, model.BusyImage, true)
	p = SetSceneBusy(p, 1, model.BusyPrompt, true)
	p = SetSceneBusy(p, 1, model.BusyPrompt, false)
	if !p.Scenes[0].IsBusy(model.BusyImage) {
		t.Error("lowering prompt flag lowered image flag")
	}
	if p.Scenes[0].IsBusy(model.BusyPrompt) {
		t.Error("prompt flag still raised")
	}
}

func TestSetSceneError_ClearsOnlyItsFlag(t *testing.T) {
	p := seeded(1)
	p = SetSceneBusy(p, 1, model.BusyImage, true)
	p = SetSceneBusy(p, 1, model.BusyPrompt, true)
	p = SetSceneError(p, 1, model.BusyImage, "Image failed")

	s := p.Scenes[0]
	if s.Error != "Image failed" || s.IsBusy(model.BusyImage) || !s.IsBusy(model.BusyPrompt) {
		t.Errorf("unexpected scene state: %+v", s)
	}
}

func TestSetSceneErrorMessage_KeepsFlags(t *testing.T) {
	p := seeded(1)
	p = SetSceneBusy(p, 1, model.BusyPrompt, true)
	p = SetSceneErrorMessage(p, 1, "Prompt enhancement failed.")

	s := p.Scenes[0]
	if s.Error != "Prompt enhancement failed." || !s.IsBusy(model.BusyPrompt) {
		t.Errorf("unexpected scene state: %+v", s)
	}
}

func TestReplaceAllPrompts(t *testing.T) {
	p := seeded(3)
	got := ReplaceAllPrompts(p, map[int]string{1: "a", 3: "c"})
	if got.Scenes[0].Prompt != "a" || got.Scenes[1].Prompt != "prompt" || got.Scenes[2].Prompt != "c" {
		t.Errorf("prompts = %q %q %q", got.Scenes[0].Prompt, got.Scenes[1].Prompt, got.Scenes[2].Prompt)
	}
	if p.Scenes[0].Prompt != "prompt" {
		t.Error("input production was mutated")
	}
}

func TestUnknownOrdinalPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown ordinal")
		}
	}()
	SetSceneImage(seeded(2), 9, model.Artifact{})
}

func TestGlobalOps(t *testing.T) {
	p := seeded(1)
	p = RaiseError(p, "old banner")
	p = BeginGlobalOp(p, model.OpSegment)
	if p.Error != "" || p.Status != model.StatusAnalyzing || !p.Activity.Has(model.OpSegment) {
		t.Fatalf("begin segment: %+v", p)
	}
	p = SetGlobalError(p, model.OpSegment, "Production analysis failed.")
	if p.Activity.Has(model.OpSegment) || p.Status != model.StatusError || p.Error == "" {
		t.Errorf("fail segment: %+v", p)
	}

	p = BeginGlobalOp(p, model.OpRefine)
	p = SetRefineInstruction(p, "shorter")
	p = CompleteRefine(p, "new script")
	if p.Script != "new script" || p.RefineInstruction != "" || p.Activity.Has(model.OpRefine) {
		t.Errorf("refine: %+v", p)
	}
}

func TestClearStyle(t *testing.T) {
	p := SetStyle(seeded(0), model.StyleDescriptor{Text: "neon noir", Source: model.StyleSourceQuery})
	p = ClearStyle(p)
	if p.Style.Text != "" || p.Style.Source != model.StyleSourceNone {
		t.Errorf("style = %+v", p.Style)
	}
}
