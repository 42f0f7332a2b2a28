// Package generator orchestrates panel generation: it segments the story,
// composes prompts, charges credits and writes the resulting panels into
// the store. The image provider is an opaque capability behind the
// Provider interface.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"

	"github.com/google/uuid"

	"comicforge-backend/internal/models"
	"comicforge-backend/internal/prompt"
	"comicforge-backend/internal/replicate"
	"comicforge-backend/internal/store"
	"comicforge-backend/internal/story"
)

// Credit costs per billed operation.
const (
	CostCreateProject   = 2 // story structuring at project creation
	CostPanel           = 3
	CostRegeneratePanel = 2
	CostExportPDF       = 2
)

// Panel count bounds derived from story length.
const (
	maxPanels     = 6
	basePanels    = 3
	charsPerPanel = 100
)

var (
	ErrProjectNotFound     = errors.New("project not found")
	ErrPanelNotFound       = errors.New("panel not found")
	ErrPanelBusy           = errors.New("panel regeneration already in progress")
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// CameraAngles and Emotions are the closed tag enumerations panels draw
// from at generation time.
var (
	CameraAngles = []string{"close-up", "medium shot", "wide shot", "over-the-shoulder", "dramatic angle", "birds-eye"}
	Emotions     = []string{"happy", "sad", "angry", "surprised", "thoughtful", "scared", "romantic", "neutral"}
)

// Provider turns a prompt into an image reference.
type Provider interface {
	Generate(ctx context.Context, prompt string, opts replicate.GenerateOptions) (string, error)
}

// Mirror copies a generated image to durable storage, returning the new
// reference. Optional: a nil Mirror leaves provider URLs in place.
type Mirror interface {
	MirrorPanels(ctx context.Context, projectID string, panels []models.Panel)
}

// Rand is the pluggable randomness source for camera angles, emotions and
// seeds. Seed it for deterministic generation in tests.
type Rand interface {
	Intn(n int) int
}

type Generator struct {
	store    *store.Store
	provider Provider
	mirror   Mirror
	rand     Rand
}

func New(s *store.Store, provider Provider, mirror Mirror, rnd Rand) *Generator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Generator{store: s, provider: provider, mirror: mirror, rand: rnd}
}

// PanelCount bounds the number of panels to a sane range derived from
// story length: min(6, len/100+3).
func PanelCount(storyText string) int {
	n := len(storyText)/charsPerPanel + basePanels
	if n > maxPanels {
		n = maxPanels
	}
	return n
}

// Result reports a batch generation outcome. Partial completion is a
// normal outcome, not an error: panels generated before credits ran out
// are kept.
type Result struct {
	Requested           int
	Generated           int
	InsufficientCredits bool
	Failures            []string
}

// GeneratePanels segments the project's story and generates one panel per
// chunk. Each panel is billed identically, placeholder scenes included.
// The loop stops early when a debit fails; a single provider failure is
// recorded and skipped without aborting the rest of the batch. The project
// ends in status editing either way.
func (g *Generator) GeneratePanels(ctx context.Context, projectID string) (*Result, error) {
	project, ok := g.store.GetProject(projectID)
	if !ok {
		return nil, ErrProjectNotFound
	}

	g.store.SetProjectStatus(projectID, models.StatusGenerating)

	count := PanelCount(project.Story)
	chunks := story.Segment(project.Story, count)
	res := &Result{Requested: count}

	var generated []models.Panel
	for i := 0; i < count; i++ {
		if !g.store.UseCredits(CostPanel) {
			res.InsufficientCredits = true
			break
		}

		scene := chunks[i]
		panelPrompt := prompt.Compose(project.Style, project.Tone, scene)
		seed := g.rand.Intn(1000000)

		imageURL, err := g.provider.Generate(ctx, panelPrompt, replicate.GenerateOptions{
			Mode: replicate.ModeTextToImage,
			Seed: seed,
		})
		if err != nil {
			log.Printf("generator: panel %d/%d failed: %v", i+1, count, err)
			res.Failures = append(res.Failures, fmt.Sprintf("panel %d: %v", i+1, err))
			continue
		}

		panel := models.Panel{
			ID:               uuid.New().String(),
			ImageURL:         imageURL,
			Prompt:           panelPrompt,
			SceneDescription: scene,
			CameraAngle:      CameraAngles[g.rand.Intn(len(CameraAngles))],
			Emotion:          Emotions[g.rand.Intn(len(Emotions))],
			Dialogue:         story.ExtractDialogue(scene),
			Seed:             seed,
		}
		g.store.AddPanel(projectID, panel)
		generated = append(generated, panel)
		res.Generated++
	}

	g.store.SetProjectStatus(projectID, models.StatusEditing)

	if g.mirror != nil && len(generated) > 0 {
		g.mirror.MirrorPanels(ctx, projectID, generated)
	}

	return res, nil
}

// RegeneratePanel re-runs generation for one panel, reusing its stored
// prompt (or editedPrompt when supplied) and keeping the panel busy-flagged
// for the duration. On provider failure the previous image and seed
// survive untouched.
func (g *Generator) RegeneratePanel(ctx context.Context, projectID, panelID, editedPrompt string) (models.Panel, error) {
	project, ok := g.store.GetProject(projectID)
	if !ok {
		return models.Panel{}, ErrProjectNotFound
	}

	var target *models.Panel
	for i := range project.Panels {
		if project.Panels[i].ID == panelID {
			target = &project.Panels[i]
			break
		}
	}
	if target == nil {
		return models.Panel{}, ErrPanelNotFound
	}
	if target.IsGenerating {
		return models.Panel{}, ErrPanelBusy
	}

	// Check-and-set under the store lock; a concurrent request between our
	// read above and here loses the race and is rejected before being
	// billed.
	if !g.store.BeginPanelGeneration(projectID, panelID) {
		return models.Panel{}, ErrPanelBusy
	}

	if !g.store.UseCredits(CostRegeneratePanel) {
		g.store.AbortPanelGeneration(projectID, panelID)
		return models.Panel{}, ErrInsufficientCredits
	}

	panelPrompt := target.Prompt
	if editedPrompt != "" {
		panelPrompt = editedPrompt
	}
	seed := g.rand.Intn(1000000)

	imageURL, err := g.provider.Generate(ctx, panelPrompt, replicate.GenerateOptions{
		Mode: replicate.ModeTextToImage,
		Seed: seed,
	})
	if err != nil {
		g.store.AbortPanelGeneration(projectID, panelID)
		return models.Panel{}, fmt.Errorf("regeneration failed: %w", err)
	}

	g.store.CompletePanelGeneration(projectID, panelID, imageURL, seed, editedPrompt)

	updated, ok := g.store.GetProject(projectID)
	if ok {
		for _, p := range updated.Panels {
			if p.ID == panelID {
				if g.mirror != nil {
					g.mirror.MirrorPanels(ctx, projectID, []models.Panel{p})
				}
				return p, nil
			}
		}
	}
	return models.Panel{}, ErrPanelNotFound
}
