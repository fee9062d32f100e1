package store

import (
	"errors"
	"sync"
	"time"

	"github.com/visionforge/api/internal/model"
)

var (
	ErrSceneNotFound   = errors.New("scene not found")
	ErrStaleGeneration = errors.New("storyboard was rebuilt")
	ErrBusy            = errors.New("operation already in progress")
	ErrSceneBusy       = errors.New("scene operation already in progress")
)

// Observer receives the snapshot produced by every committed transition.
// Observers run under the store lock and must not call back into the store.
type Observer func(model.Production)

// Store owns one Production and applies transitions to it one at a time.
type Store struct {
	id        string
	mu        sync.Mutex
	prod      model.Production
	observers map[int]Observer
	nextObs   int
	touched   time.Time
	now       func() time.Time
}

// New creates a store holding an empty production.
func New(id string) *Store {
	now := time.Now()
	return &Store{
		id:        id,
		prod:      model.NewProduction(id, now),
		observers: make(map[int]Observer),
		touched:   now,
		now:       time.Now,
	}
}

// ID returns the production (session) ID.
func (s *Store) ID() string {
	return s.id
}

// Snapshot returns a deep copy of the current production.
func (s *Store) Snapshot() model.Production {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prod.Clone()
}

// View calls fn with a snapshot while holding the lock, so no transition
// commits in between. fn must not call back into the store.
func (s *Store) View(fn func(model.Production)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.prod.Clone())
}

// Subscribe registers an observer and returns its cancel func.
func (s *Store) Subscribe(o Observer) func() {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = o
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// update runs fn against the current production. A non-nil error leaves the
// production untouched and nothing is published.
func (s *Store) update(fn func(model.Production) (model.Production, error)) (model.Production, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.prod)
	if err != nil {
		return s.prod.Clone(), err
	}
	now := s.now()
	next.UpdatedAt = now
	s.prod = next
	s.touched = now

	snap := s.prod.Clone()
	for _, o := range s.observers {
		o(snap.Clone())
	}
	return snap, nil
}

// apply is update for transitions that cannot fail.
func (s *Store) apply(fn func(model.Production) model.Production) model.Production {
	p, _ := s.update(func(p model.Production) (model.Production, error) { return fn(p), nil })
	return p
}

func (s *Store) ReplaceScript(text string) model.Production {
	return s.apply(func(p model.Production) model.Production { return ReplaceScript(p, text) })
}

func (s *Store) SetAspectRatio(ar model.AspectRatio) model.Production {
	return s.apply(func(p model.Production) model.Production { return SetAspectRatio(p, ar) })
}

func (s *Store) SetVoice(v model.Voice) model.Production {
	return s.apply(func(p model.Production) model.Production { return SetVoice(p, v) })
}

func (s *Store) SetRefineInstruction(text string) model.Production {
	return s.apply(func(p model.Production) model.Production { return SetRefineInstruction(p, text) })
}

func (s *Store) SetStyleQuery(text string) model.Production {
	return s.apply(func(p model.Production) model.Production { return SetStyleQuery(p, text) })
}

func (s *Store) SetThumbnailInstruction(text string) model.Production {
	return s.apply(func(p model.Production) model.Production { return SetThumbnailInstruction(p, text) })
}

func (s *Store) ClearStyle() model.Production {
	return s.apply(ClearStyle)
}

func (s *Store) DismissError() model.Production {
	return s.apply(DismissError)
}

func (s *Store) RaiseError(message string) model.Production {
	return s.apply(func(p model.Production) model.Production { return RaiseError(p, message) })
}

// UpdateScenePrompt edits a prompt directly; busy flags are left alone.
func (s *Store) UpdateScenePrompt(ordinal int, text string) (model.Production, error) {
	return s.update(func(p model.Production) (model.Production, error) {
		if p.SceneIndex(ordinal) < 0 {
			return p, ErrSceneNotFound
		}
		return UpdateScenePrompt(p, ordinal, text), nil
	})
}

// SetSceneBusy toggles exactly one flag on exactly one scene.
func (s *Store) SetSceneBusy(ordinal int, kind model.BusyKind, on bool) (model.Production, error) {
	return s.update(func(p model.Production) (model.Production, error) {
		if p.SceneIndex(ordinal) < 0 {
			return p, ErrSceneNotFound
		}
		return SetSceneBusy(p, ordinal, kind, on), nil
	})
}

// BeginGlobal raises op unless it is already running.
func (s *Store) BeginGlobal(op model.GlobalOp) (model.Production, error) {
	return s.update(func(p model.Production) (model.Production, error) {
		if p.Activity.Has(op) {
			return p, ErrBusy
		}
		return BeginGlobalOp(p, op), nil
	})
}

// EndGlobal lowers op without any other change.
func (s *Store) EndGlobal(op model.GlobalOp) model.Production {
	return s.apply(func(p model.Production) model.Production { return EndGlobalOp(p, op) })
}

// FailGlobal shows message in the banner and lowers op.
func (s *Store) FailGlobal(op model.GlobalOp, message string) model.Production {
	return s.apply(func(p model.Production) model.Production { return SetGlobalError(p, op, message) })
}

// BeginScene raises kind on one scene unless it is already raised, and returns
// the generation the operation belongs to.
func (s *Store) BeginScene(ordinal int, kind model.BusyKind) (int, model.Production, error) {
	var gen int
	p, err := s.update(func(p model.Production) (model.Production, error) {
		i := p.SceneIndex(ordinal)
		if i < 0 {
			return p, ErrSceneNotFound
		}
		if p.Scenes[i].IsBusy(kind) {
			return p, ErrSceneBusy
		}
		gen = p.Generation
		return BeginSceneOp(p, ordinal, kind), nil
	})
	return gen, p, err
}

// sceneUpdate guards a scene completion against a rebuilt storyboard.
func (s *Store) sceneUpdate(gen int, fn func(model.Production) model.Production) (model.Production, error) {
	return s.update(func(p model.Production) (model.Production, error) {
		if p.Generation != gen {
			return p, ErrStaleGeneration
		}
		return fn(p), nil
	})
}

func (s *Store) CompleteSceneImage(gen, ordinal int, image model.Artifact) (model.Production, error) {
	return s.sceneUpdate(gen, func(p model.Production) model.Production { return SetSceneImage(p, ordinal, image) })
}

func (s *Store) CompleteScenePrompt(gen, ordinal int, prompt string) (model.Production, error) {
	return s.sceneUpdate(gen, func(p model.Production) model.Production { return SetEnhancedPrompt(p, ordinal, prompt) })
}

func (s *Store) FailScene(gen, ordinal int, kind model.BusyKind, message string) (model.Production, error) {
	return s.sceneUpdate(gen, func(p model.Production) model.Production { return SetSceneError(p, ordinal, kind, message) })
}

// ReplaceScenes installs a segmentation result.
func (s *Store) ReplaceScenes(drafts []model.SceneDraft) model.Production {
	return s.apply(func(p model.Production) model.Production { return ReplaceScenes(p, drafts) })
}

// RebuildScenes installs a segmentation result and returns the images of the
// scenes it replaced.
func (s *Store) RebuildScenes(drafts []model.SceneDraft) (model.Production, []model.Artifact) {
	var replaced []model.Artifact
	p := s.apply(func(p model.Production) model.Production {
		for _, sc := range p.Scenes {
			if sc.GeneratedImage != nil {
				replaced = append(replaced, *sc.GeneratedImage)
			}
		}
		return ReplaceScenes(p, drafts)
	})
	return p, replaced
}

// CompleteBulkEnhance applies prompts and scene errors from one bulk run as a
// single transition and lowers the enhance-all flag. Scene flags belong to
// single-scene operations and are not touched.
func (s *Store) CompleteBulkEnhance(gen int, prompts map[int]string, failures map[int]string) (model.Production, error) {
	stale := false
	p, _ := s.update(func(p model.Production) (model.Production, error) {
		if p.Generation != gen {
			stale = true
			return EndGlobalOp(p, model.OpEnhanceAll), nil
		}
		p = ReplaceAllPrompts(p, prompts)
		for ordinal, msg := range failures {
			p = SetSceneErrorMessage(p, ordinal, msg)
		}
		return EndGlobalOp(p, model.OpEnhanceAll), nil
	})
	if stale {
		return p, ErrStaleGeneration
	}
	return p, nil
}

func (s *Store) CompleteRefine(script string) model.Production {
	return s.apply(func(p model.Production) model.Production { return CompleteRefine(p, script) })
}

func (s *Store) CompleteStyle(style model.StyleDescriptor) model.Production {
	return s.apply(func(p model.Production) model.Production { return SetStyle(p, style) })
}

func (s *Store) CompleteNarration(audio model.Artifact) model.Production {
	return s.apply(func(p model.Production) model.Production { return SetNarration(p, audio) })
}

func (s *Store) CompleteThumbnail(image model.Artifact) model.Production {
	return s.apply(func(p model.Production) model.Production { return SetThumbnail(p, image) })
}

// idleSince reports when the store last changed and whether anything is in flight.
func (s *Store) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inFlight := s.prod.Activity != 0
	for _, sc := range s.prod.Scenes {
		if sc.Busy != 0 {
			inFlight = true
			break
		}
	}
	return s.touched, inFlight
}

func (s *Store) touch() {
	s.mu.Lock()
	s.touched = s.now()
	s.mu.Unlock()
}
