package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/visionforge/api/internal/client"
	"github.com/visionforge/api/internal/config"
	"github.com/visionforge/api/internal/model"
	"github.com/visionforge/api/internal/store"
	"github.com/visionforge/api/internal/wav"
)

var (
	ErrEmptyScript      = errors.New("script is empty")
	ErrEmptyInstruction = errors.New("instruction is empty")
	ErrEmptyQuery       = errors.New("style query is empty")
	ErrNoScenes         = errors.New("production has no scenes")
	ErrNoSceneImages    = errors.New("no scene has a generated image")
)

// Banner and scene messages shown to the user.
const (
	MsgSegmentFailed     = "Production analysis failed."
	MsgRefineFailed      = "Script refinement failed."
	MsgEnhanceFailed     = "Prompt enhancement failed."
	MsgBulkEnhanceFailed = "Bulk enhancement failed."
	MsgImageFailed       = "Image failed"
	MsgNarrationFailed   = "Narration failed."
	MsgThumbnailFailed   = "Thumbnail generation failed."
	MsgNoSceneImages     = "Generate at least one scene image first."
	MsgStyleImageFailed  = "Could not extract style from image."
	MsgStyleQueryFailed  = "Failed to fetch style descriptors."
)

// Operation is an orchestration step whose flags are already raised. Running it
// performs the remote call and settles the production; flags clear on every path.
type Operation func(ctx context.Context) error

// Director runs the orchestration handlers against a session store.
type Director struct {
	client      client.ArtifactClient
	artifacts   *ArtifactService
	timeout     time.Duration
	policy      model.BulkPolicy
	concurrency int
	sampleRate  int
}

func NewDirector(c client.ArtifactClient, artifacts *ArtifactService, cfg *config.OrchestrationConfig) *Director {
	d := &Director{
		client:      c,
		artifacts:   artifacts,
		timeout:     time.Duration(cfg.OperationTimeout) * time.Second,
		policy:      model.ParseBulkPolicy(cfg.BulkEnhancePolicy),
		concurrency: cfg.EnhanceConcurrency,
		sampleRate:  cfg.SampleRate,
	}
	if d.timeout <= 0 {
		d.timeout = 180 * time.Second
	}
	if d.concurrency <= 0 {
		d.concurrency = 4
	}
	if d.sampleRate <= 0 {
		d.sampleRate = client.DefaultSampleRate
	}
	return d
}

// Policy returns the configured bulk-enhancement policy.
func (d *Director) Policy() model.BulkPolicy {
	return d.policy
}

// Dispatch runs op on the caller's goroutine when wait is set, otherwise in the
// background, detached from the request.
func (d *Director) Dispatch(ctx context.Context, wait bool, op Operation) error {
	if wait {
		return op(ctx)
	}
	bg := context.WithoutCancel(ctx)
	go func() {
		if err := op(bg); err != nil {
			log.Printf("[Director] background operation finished with error: %v", err)
		}
	}()
	return nil
}

func (d *Director) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.timeout)
}

// StartSegment begins rebuilding the storyboard from the current script.
// On failure the prior scenes stay as they were. On success their images are
// released.
func (d *Director) StartSegment(s *store.Store) (Operation, error) {
	snap := s.Snapshot()
	script := strings.TrimSpace(snap.Script)
	if script == "" {
		return nil, ErrEmptyScript
	}
	p, err := s.BeginGlobal(model.OpSegment)
	if err != nil {
		return nil, err
	}
	style := p.Style.Text

	return func(ctx context.Context) error {
		ctx, cancel := d.withTimeout(ctx)
		defer cancel()

		drafts, err := d.client.Segment(ctx, script, style)
		if err != nil {
			log.Printf("[Director] segment %s failed: %v", s.ID(), err)
			s.FailGlobal(model.OpSegment, MsgSegmentFailed)
			return fmt.Errorf("segment: %w", err)
		}
		p, replaced := s.RebuildScenes(drafts)
		for _, img := range replaced {
			d.artifacts.Release(img.ID)
		}
		log.Printf("[Director] segment %s produced %d scene(s), generation %d", s.ID(), len(p.Scenes), p.Generation)
		return nil
	}, nil
}

// StartRefine rewrites the script. An empty instruction falls back to the
// stored draft.
func (d *Director) StartRefine(s *store.Store, instruction string) (Operation, error) {
	snap := s.Snapshot()
	script := strings.TrimSpace(snap.Script)
	if script == "" {
		return nil, ErrEmptyScript
	}
	if strings.TrimSpace(instruction) == "" {
		instruction = snap.RefineInstruction
	}
	if strings.TrimSpace(instruction) == "" {
		return nil, ErrEmptyInstruction
	}
	if _, err := s.BeginGlobal(model.OpRefine); err != nil {
		return nil, err
	}

	return func(ctx context.Context) error {
		ctx, cancel := d.withTimeout(ctx)
		defer cancel()

		refined, err := d.client.Refine(ctx, script, instruction)
		if err != nil {
			log.Printf("[Director] refine %s failed: %v", s.ID(), err)
			s.FailGlobal(model.OpRefine, MsgRefineFailed)
			return fmt.Errorf("refine: %w", err)
		}
		s.CompleteRefine(refined)
		return nil
	}, nil
}

// StartEnhanceScene rewrites one scene's prompt. The prompt and style are read
// when the operation starts.
func (d *Director) StartEnhanceScene(s *store.Store, ordinal int) (Operation, error) {
	gen, p, err := s.BeginScene(ordinal, model.BusyPrompt)
	if err != nil {
		return nil, err
	}
	prompt := p.Scenes[p.SceneIndex(ordinal)].Prompt
	style := p.Style.Text

	return func(ctx context.Context) error {
		ctx, cancel := d.withTimeout(ctx)
		defer cancel()

		enhanced, err := d.client.EnhancePrompt(ctx, prompt, style)
		if err != nil {
			log.Printf("[Director] enhance scene %d of %s failed: %v", ordinal, s.ID(), err)
			if _, serr := s.FailScene(gen, ordinal, model.BusyPrompt, MsgEnhanceFailed); serr != nil {
				return serr
			}
			return fmt.Errorf("enhance scene %d: %w", ordinal, err)
		}
		_, err = s.CompleteScenePrompt(gen, ordinal, enhanced)
		return err
	}, nil
}

// StartEnhanceAll rewrites every prompt concurrently and commits the results
// as one batch according to the bulk policy.
func (d *Director) StartEnhanceAll(s *store.Store) (Operation, error) {
	if len(s.Snapshot().Scenes) == 0 {
		return nil, ErrNoScenes
	}
	p, err := s.BeginGlobal(model.OpEnhanceAll)
	if err != nil {
		return nil, err
	}
	gen := p.Generation
	scenes := p.Scenes
	style := p.Style.Text

	return func(ctx context.Context) error {
		ctx, cancel := d.withTimeout(ctx)
		defer cancel()

		results := make([]string, len(scenes))
		errs := make([]error, len(scenes))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(d.concurrency)
		for i, sc := range scenes {
			g.Go(func() error {
				out, err := d.client.EnhancePrompt(gctx, sc.Prompt, style)
				if err != nil {
					errs[i] = fmt.Errorf("scene %d: %w", sc.Ordinal, err)
					if d.policy == model.BulkAllOrNothing {
						return errs[i]
					}
					return nil
				}
				results[i] = out
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			log.Printf("[Director] enhance-all %s failed, batch discarded: %v", s.ID(), err)
			s.FailGlobal(model.OpEnhanceAll, MsgBulkEnhanceFailed)
			return fmt.Errorf("enhance all: %w", err)
		}

		prompts := make(map[int]string, len(scenes))
		failures := make(map[int]string)
		for i, sc := range scenes {
			if errs[i] != nil {
				failures[sc.Ordinal] = MsgEnhanceFailed
				continue
			}
			prompts[sc.Ordinal] = results[i]
		}
		if len(failures) > 0 {
			log.Printf("[Director] enhance-all %s: %d of %d scene(s) failed", s.ID(), len(failures), len(scenes))
		}
		_, err := s.CompleteBulkEnhance(gen, prompts, failures)
		return err
	}, nil
}

// StartVisualize renders one scene's image. It may run while the scene's
// prompt is being enhanced; it uses the prompt as it was at start.
func (d *Director) StartVisualize(s *store.Store, ordinal int) (Operation, error) {
	gen, p, err := s.BeginScene(ordinal, model.BusyImage)
	if err != nil {
		return nil, err
	}
	scene := p.Scenes[p.SceneIndex(ordinal)]
	ar := p.AspectRatio

	return func(ctx context.Context) error {
		ctx, cancel := d.withTimeout(ctx)
		defer cancel()

		img, err := d.client.GenerateImage(ctx, scene.Prompt, ar)
		if err == nil {
			var art model.Artifact
			art, err = d.artifacts.Save(ctx, s.ID(), fmt.Sprintf("scene-%d", ordinal), img.Data, img.MIMEType)
			if err == nil {
				if _, serr := s.CompleteSceneImage(gen, ordinal, art); serr != nil {
					d.artifacts.Release(art.ID)
					return serr
				}
				if scene.GeneratedImage != nil {
					d.artifacts.Release(scene.GeneratedImage.ID)
				}
				return nil
			}
		}

		log.Printf("[Director] visualize scene %d of %s failed: %v", ordinal, s.ID(), err)
		if _, serr := s.FailScene(gen, ordinal, model.BusyImage, MsgImageFailed); serr != nil {
			return serr
		}
		return fmt.Errorf("visualize scene %d: %w", ordinal, err)
	}, nil
}

// StartNarration synthesizes the full script and wraps the samples in a WAV container.
func (d *Director) StartNarration(s *store.Store) (Operation, error) {
	snap := s.Snapshot()
	script := strings.TrimSpace(snap.Script)
	if script == "" {
		return nil, ErrEmptyScript
	}
	p, err := s.BeginGlobal(model.OpNarrate)
	if err != nil {
		return nil, err
	}
	voice := p.Voice
	previous := p.Narration

	return func(ctx context.Context) error {
		ctx, cancel := d.withTimeout(ctx)
		defer cancel()

		audio, err := d.client.Narrate(ctx, script, voice)
		if err == nil {
			rate := audio.SampleRate
			if rate <= 0 {
				rate = d.sampleRate
			}
			var art model.Artifact
			art, err = d.artifacts.Save(ctx, s.ID(), "narration", wav.Encode(audio.Data, rate), "audio/wav")
			if err == nil {
				s.CompleteNarration(art)
				if previous != nil {
					d.artifacts.Release(previous.ID)
				}
				return nil
			}
		}

		log.Printf("[Director] narration %s failed: %v", s.ID(), err)
		s.FailGlobal(model.OpNarrate, MsgNarrationFailed)
		return fmt.Errorf("narration: %w", err)
	}, nil
}

// StartThumbnail blends every scene image into one composition. Without any
// scene image it fails locally and the provider is never called.
func (d *Director) StartThumbnail(s *store.Store, instruction string) (Operation, error) {
	if strings.TrimSpace(instruction) != "" {
		s.SetThumbnailInstruction(instruction)
	}
	snap := s.Snapshot()

	var images []client.Image
	for _, sc := range snap.ImagedScenes() {
		meta, data, err := d.artifacts.Load(sc.GeneratedImage.ID)
		if err != nil {
			continue
		}
		images = append(images, client.Image{Data: data, MIMEType: meta.MIMEType})
	}
	if len(images) == 0 {
		s.RaiseError(MsgNoSceneImages)
		return nil, ErrNoSceneImages
	}

	p, err := s.BeginGlobal(model.OpThumbnail)
	if err != nil {
		return nil, err
	}
	instruction = p.ThumbnailInstruction
	ar := p.AspectRatio
	previous := p.Thumbnail

	return func(ctx context.Context) error {
		ctx, cancel := d.withTimeout(ctx)
		defer cancel()

		img, err := d.client.GenerateThumbnail(ctx, images, instruction, ar)
		if err == nil {
			var art model.Artifact
			art, err = d.artifacts.Save(ctx, s.ID(), "thumbnail", img.Data, img.MIMEType)
			if err == nil {
				s.CompleteThumbnail(art)
				if previous != nil {
					d.artifacts.Release(previous.ID)
				}
				return nil
			}
		}

		log.Printf("[Director] thumbnail %s failed: %v", s.ID(), err)
		s.FailGlobal(model.OpThumbnail, MsgThumbnailFailed)
		return fmt.Errorf("thumbnail: %w", err)
	}, nil
}

// StartStyleFromImage derives the style descriptor from a reference image.
func (d *Director) StartStyleFromImage(s *store.Store, img client.Image) (Operation, error) {
	p, err := s.BeginGlobal(model.OpStyle)
	if err != nil {
		return nil, err
	}
	previous := p.Style.ReferenceImage

	return func(ctx context.Context) error {
		ctx, cancel := d.withTimeout(ctx)
		defer cancel()

		text, err := d.client.StyleFromImage(ctx, img)
		if err == nil {
			var ref model.Artifact
			ref, err = d.artifacts.Save(ctx, s.ID(), "style-reference", img.Data, img.MIMEType)
			if err == nil {
				s.CompleteStyle(model.StyleDescriptor{Text: text, Source: model.StyleSourceImage, ReferenceImage: &ref})
				if previous != nil {
					d.artifacts.Release(previous.ID)
				}
				return nil
			}
		}

		log.Printf("[Director] style from image %s failed: %v", s.ID(), err)
		s.FailGlobal(model.OpStyle, MsgStyleImageFailed)
		return fmt.Errorf("style from image: %w", err)
	}, nil
}

// StartStyleFromQuery derives the style descriptor from a free-text query. An
// empty query falls back to the stored draft.
func (d *Director) StartStyleFromQuery(s *store.Store, query string) (Operation, error) {
	if strings.TrimSpace(query) == "" {
		query = s.Snapshot().StyleQuery
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	p, err := s.BeginGlobal(model.OpStyle)
	if err != nil {
		return nil, err
	}
	previous := p.Style.ReferenceImage

	return func(ctx context.Context) error {
		ctx, cancel := d.withTimeout(ctx)
		defer cancel()

		text, err := d.client.StyleFromQuery(ctx, query)
		if err != nil {
			log.Printf("[Director] style from query %s failed: %v", s.ID(), err)
			s.FailGlobal(model.OpStyle, MsgStyleQueryFailed)
			return fmt.Errorf("style from query: %w", err)
		}
		s.CompleteStyle(model.StyleDescriptor{Text: text, Source: model.StyleSourceQuery, Query: query})
		if previous != nil {
			d.artifacts.Release(previous.ID)
		}
		return nil
	}, nil
}

// ClearStyle returns the production to the default aesthetic.
func (d *Director) ClearStyle(s *store.Store) model.Production {
	previous := s.Snapshot().Style.ReferenceImage
	p := s.ClearStyle()
	if previous != nil {
		d.artifacts.Release(previous.ID)
	}
	return p
}
