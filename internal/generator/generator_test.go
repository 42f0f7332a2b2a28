package generator_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comicforge-backend/internal/generator"
	"comicforge-backend/internal/models"
	"comicforge-backend/internal/replicate"
	"comicforge-backend/internal/store"
)

// fakeProvider counts calls and can fail selectively.
type fakeProvider struct {
	calls   int
	prompts []string
	failOn  map[int]error // 1-based call index -> error
}

func (f *fakeProvider) Generate(_ context.Context, prompt string, _ replicate.GenerateOptions) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if err, ok := f.failOn[f.calls]; ok {
		return "", err
	}
	return fmt.Sprintf("https://images.test/panel-%d.webp", f.calls), nil
}

func newTestStore(t *testing.T, credits int) *store.Store {
	t.Helper()
	backend, err := store.NewFileBackend(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	s, err := store.New(backend, credits)
	require.NoError(t, err)
	return s
}

func seededRand() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func TestPanelCount_BoundedByStoryLength(t *testing.T) {
	assert.Equal(t, 3, generator.PanelCount(""))
	assert.Equal(t, 3, generator.PanelCount(strings.Repeat("x", 99)))
	assert.Equal(t, 4, generator.PanelCount(strings.Repeat("x", 100)))
	assert.Equal(t, 6, generator.PanelCount(strings.Repeat("x", 10000)))
}

func TestGeneratePanels_FullBatch(t *testing.T) {
	s := newTestStore(t, 100)
	provider := &fakeProvider{}
	g := generator.New(s, provider, nil, seededRand())

	p := s.CreateProject("T", `The hero woke up. "Run" he said. The city burned. He ran outside.`, "dramatic", "cinematic", "English")

	res, err := g.GeneratePanels(context.Background(), p.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Requested)
	assert.Equal(t, 3, res.Generated)
	assert.False(t, res.InsufficientCredits)
	assert.Equal(t, 100-3*generator.CostPanel, s.Credits())

	got, _ := s.GetProject(p.ID)
	assert.Equal(t, models.StatusEditing, got.Status)
	require.Len(t, got.Panels, 3)
	for _, panel := range got.Panels {
		assert.NotEmpty(t, panel.ID)
		assert.NotEmpty(t, panel.ImageURL)
		assert.Contains(t, panel.Prompt, "cinematic comic style")
		assert.Contains(t, generator.CameraAngles, panel.CameraAngle)
		assert.Contains(t, generator.Emotions, panel.Emotion)
		assert.False(t, panel.IsGenerating)
	}
	assert.Equal(t, []string{"Run"}, got.Panels[0].Dialogue)
}

func TestGeneratePanels_StopsEarlyWhenCreditsRunOut(t *testing.T) {
	s := newTestStore(t, 7) // enough for two panels, not three
	provider := &fakeProvider{}
	g := generator.New(s, provider, nil, seededRand())

	p := s.CreateProject("T", "A. B. C.", "funny", "western", "English")

	res, err := g.GeneratePanels(context.Background(), p.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Requested)
	assert.Equal(t, 2, res.Generated)
	assert.True(t, res.InsufficientCredits)
	assert.Equal(t, 1, s.Credits(), "no debit without a matching panel attempt")

	// Panels generated before the stop are kept.
	got, _ := s.GetProject(p.ID)
	assert.Len(t, got.Panels, 2)
	assert.Equal(t, models.StatusEditing, got.Status)
}

func TestGeneratePanels_ProviderFailureDoesNotAbortBatch(t *testing.T) {
	s := newTestStore(t, 100)
	provider := &fakeProvider{failOn: map[int]error{2: errors.New("upstream exploded")}}
	g := generator.New(s, provider, nil, seededRand())

	p := s.CreateProject("T", "A. B. C.", "funny", "western", "English")

	res, err := g.GeneratePanels(context.Background(), p.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Generated)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0], "panel 2")
	assert.Equal(t, 3, provider.calls, "remaining panels still attempted")

	got, _ := s.GetProject(p.ID)
	assert.Len(t, got.Panels, 2)
}

func TestGeneratePanels_PlaceholderScenesAreBilledAndGenerated(t *testing.T) {
	s := newTestStore(t, 100)
	provider := &fakeProvider{}
	g := generator.New(s, provider, nil, seededRand())

	p := s.CreateProject("T", "One sentence.", "funny", "western", "English")

	res, err := g.GeneratePanels(context.Background(), p.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Generated)
	assert.Equal(t, 100-3*generator.CostPanel, s.Credits())

	got, _ := s.GetProject(p.ID)
	assert.Equal(t, "Scene 2", got.Panels[1].SceneDescription)
	assert.Equal(t, "Scene 3", got.Panels[2].SceneDescription)
	assert.Contains(t, got.Panels[1].Prompt, "Scene 2")
}

func TestGeneratePanels_UnknownProject(t *testing.T) {
	s := newTestStore(t, 100)
	g := generator.New(s, &fakeProvider{}, nil, seededRand())

	_, err := g.GeneratePanels(context.Background(), "ghost")
	assert.ErrorIs(t, err, generator.ErrProjectNotFound)
}

func TestRegeneratePanel_SwapsImageAndSeed(t *testing.T) {
	s := newTestStore(t, 100)
	provider := &fakeProvider{}
	g := generator.New(s, provider, nil, seededRand())

	p := s.CreateProject("T", "S.", "funny", "western", "English")
	s.AddPanel(p.ID, models.Panel{ID: "p1", ImageURL: "old", Seed: 7, Prompt: "stored prompt"})

	panel, err := g.RegeneratePanel(context.Background(), p.ID, "p1", "")
	require.NoError(t, err)

	assert.NotEqual(t, "old", panel.ImageURL)
	assert.Equal(t, "stored prompt", panel.Prompt)
	assert.False(t, panel.IsGenerating)
	assert.Equal(t, "stored prompt", provider.prompts[0])
	assert.Equal(t, 100-generator.CostRegeneratePanel, s.Credits())
}

func TestRegeneratePanel_EditedPromptPersisted(t *testing.T) {
	s := newTestStore(t, 100)
	provider := &fakeProvider{}
	g := generator.New(s, provider, nil, seededRand())

	p := s.CreateProject("T", "S.", "funny", "western", "English")
	s.AddPanel(p.ID, models.Panel{ID: "p1", Prompt: "stored prompt"})

	panel, err := g.RegeneratePanel(context.Background(), p.ID, "p1", "edited prompt")
	require.NoError(t, err)

	assert.Equal(t, "edited prompt", panel.Prompt)
	assert.Equal(t, "edited prompt", provider.prompts[0])
}

func TestRegeneratePanel_BusyPanelRejected(t *testing.T) {
	s := newTestStore(t, 100)
	g := generator.New(s, &fakeProvider{}, nil, seededRand())

	p := s.CreateProject("T", "S.", "funny", "western", "English")
	s.AddPanel(p.ID, models.Panel{ID: "p1"})
	require.True(t, s.BeginPanelGeneration(p.ID, "p1"))

	_, err := g.RegeneratePanel(context.Background(), p.ID, "p1", "")
	assert.ErrorIs(t, err, generator.ErrPanelBusy)
	assert.Equal(t, 100, s.Credits(), "busy rejection must not be billed")
}

func TestRegeneratePanel_InsufficientCreditsLeavesPanelUntouched(t *testing.T) {
	s := newTestStore(t, 1)
	g := generator.New(s, &fakeProvider{}, nil, seededRand())

	p := s.CreateProject("T", "S.", "funny", "western", "English")
	s.AddPanel(p.ID, models.Panel{ID: "p1", ImageURL: "old"})

	_, err := g.RegeneratePanel(context.Background(), p.ID, "p1", "")
	assert.ErrorIs(t, err, generator.ErrInsufficientCredits)

	got, _ := s.GetProject(p.ID)
	assert.Equal(t, "old", got.Panels[0].ImageURL)
	assert.False(t, got.Panels[0].IsGenerating)
	assert.Equal(t, 1, s.Credits())
}

func TestRegeneratePanel_ProviderFailurePreservesPreviousImage(t *testing.T) {
	s := newTestStore(t, 100)
	provider := &fakeProvider{failOn: map[int]error{1: errors.New("boom")}}
	g := generator.New(s, provider, nil, seededRand())

	p := s.CreateProject("T", "S.", "funny", "western", "English")
	s.AddPanel(p.ID, models.Panel{ID: "p1", ImageURL: "old", Seed: 7})

	_, err := g.RegeneratePanel(context.Background(), p.ID, "p1", "")
	require.Error(t, err)

	got, _ := s.GetProject(p.ID)
	assert.Equal(t, "old", got.Panels[0].ImageURL)
	assert.Equal(t, 7, got.Panels[0].Seed)
	assert.False(t, got.Panels[0].IsGenerating, "busy flag must be cleared after failure")
}

func TestRegeneratePanel_UnknownPanel(t *testing.T) {
	s := newTestStore(t, 100)
	g := generator.New(s, &fakeProvider{}, nil, seededRand())

	p := s.CreateProject("T", "S.", "funny", "western", "English")

	_, err := g.RegeneratePanel(context.Background(), p.ID, "ghost", "")
	assert.ErrorIs(t, err, generator.ErrPanelNotFound)
}

func TestGeneratePanels_DeterministicWithSeededRand(t *testing.T) {
	run := func() []models.Panel {
		s := newTestStore(t, 100)
		g := generator.New(s, &fakeProvider{}, nil, rand.New(rand.NewSource(42)))
		p := s.CreateProject("T", "A. B. C.", "funny", "western", "English")
		_, err := g.GeneratePanels(context.Background(), p.ID)
		require.NoError(t, err)
		got, _ := s.GetProject(p.ID)
		return got.Panels
	}

	first := run()
	second := run()
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].CameraAngle, second[i].CameraAngle)
		assert.Equal(t, first[i].Emotion, second[i].Emotion)
		assert.Equal(t, first[i].Seed, second[i].Seed)
	}
}
