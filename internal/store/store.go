// Package store owns all Project, Panel and Character records plus the
// credit ledger. Callers hold ids only and go through Store methods for
// every mutation; each method applies its whole patch under one lock, so
// readers never observe a half-applied record.
package store

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"comicforge-backend/internal/models"
)

// StorageKey is the fixed namespace key the state blob is persisted under,
// regardless of backend.
const StorageKey = "comicforge-storage"

// State is the persisted blob layout. The JSON shape is part of the
// external contract: UI re-hydration reads it as-is.
type State struct {
	Credits          int              `json:"credits"`
	Projects         []models.Project `json:"projects"`
	CurrentProjectID string           `json:"currentProjectId"`
}

type Store struct {
	mu      sync.Mutex
	state   State
	backend Backend
}

// New loads persisted state from backend, or initializes a fresh state
// with startingCredits when none exists. Panels left mid-generation by a
// previous process have their transient isGenerating flag cleared: there
// is no request outstanding for them anymore.
func New(backend Backend, startingCredits int) (*Store, error) {
	s := &Store{backend: backend}

	data, err := backend.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load store state: %w", err)
	}
	if len(data) == 0 {
		s.state = State{Credits: startingCredits, Projects: []models.Project{}}
		return s, nil
	}

	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("failed to decode store state: %w", err)
	}
	if s.state.Projects == nil {
		s.state.Projects = []models.Project{}
	}
	for pi := range s.state.Projects {
		for i := range s.state.Projects[pi].Panels {
			s.state.Projects[pi].Panels[i].IsGenerating = false
		}
	}
	return s, nil
}

// persist writes the whole state blob. Persistence is best-effort: the
// in-memory state is authoritative for the running process, and a write
// failure is logged rather than surfaced to the mutating caller.
func (s *Store) persist() {
	data, err := json.Marshal(&s.state)
	if err != nil {
		log.Printf("store: failed to marshal state: %v", err)
		return
	}
	if err := s.backend.Save(data); err != nil {
		log.Printf("store: failed to persist state: %v", err)
	}
}

// Snapshot returns the current state serialized as it would be persisted.
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(&s.state)
}

// --- Credit ledger ---

func (s *Store) Credits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Credits
}

func (s *Store) AddCredits(amount int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Credits += amount
	s.persist()
	return s.state.Credits
}

// UseCredits checks and debits in one indivisible step. It returns false
// and changes nothing when the balance is short.
func (s *Store) UseCredits(amount int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Credits < amount {
		return false
	}
	s.state.Credits -= amount
	s.persist()
	return true
}

// --- Projects ---

// CreateProject assigns a fresh id, initializes empty panel and character
// lists with status draft, and makes the new project current.
func (s *Store) CreateProject(title, story, tone, style, language string) models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := models.Project{
		ID:         uuid.New().String(),
		Title:      title,
		Story:      story,
		Tone:       tone,
		Style:      style,
		Language:   language,
		Characters: []models.Character{},
		Panels:     []models.Panel{},
		Status:     models.StatusDraft,
		CreatedAt:  time.Now().UTC(),
	}
	s.state.Projects = append(s.state.Projects, p)
	s.state.CurrentProjectID = p.ID
	s.persist()
	return cloneProject(p)
}

// UpdateProject merges the non-nil fields of patch into the project.
// An unknown id is a no-op; callers are expected to hold valid ids.
func (s *Store) UpdateProject(id string, patch models.UpdateProjectRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findProject(id)
	if p == nil {
		return
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Story != nil {
		p.Story = *patch.Story
	}
	if patch.Tone != nil {
		p.Tone = *patch.Tone
	}
	if patch.Style != nil {
		p.Style = *patch.Style
	}
	if patch.Language != nil {
		p.Language = *patch.Language
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	s.persist()
}

func (s *Store) SetProjectStatus(id, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.findProject(id); p != nil {
		p.Status = status
		s.persist()
	}
}

// DeleteProject removes the project and clears the current pointer when it
// pointed there.
func (s *Store) DeleteProject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Projects {
		if s.state.Projects[i].ID == id {
			s.state.Projects = append(s.state.Projects[:i], s.state.Projects[i+1:]...)
			if s.state.CurrentProjectID == id {
				s.state.CurrentProjectID = ""
			}
			s.persist()
			return
		}
	}
}

func (s *Store) GetProject(id string) (models.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.findProject(id); p != nil {
		return cloneProject(*p), true
	}
	return models.Project{}, false
}

func (s *Store) ListProjects() []models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Project, len(s.state.Projects))
	for i, p := range s.state.Projects {
		out[i] = cloneProject(p)
	}
	return out
}

// SetCurrentProject sets the current pointer; an empty id clears it.
func (s *Store) SetCurrentProject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CurrentProjectID = id
	s.persist()
}

func (s *Store) CurrentProject() (models.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.CurrentProjectID == "" {
		return models.Project{}, false
	}
	if p := s.findProject(s.state.CurrentProjectID); p != nil {
		return cloneProject(*p), true
	}
	return models.Project{}, false
}

// --- Panels ---

func (s *Store) AddPanel(projectID string, panel models.Panel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findProject(projectID)
	if p == nil {
		return
	}
	p.Panels = append(p.Panels, clonePanel(panel))
	s.persist()
}

// UpdatePanel merges the non-nil fields of patch into the panel. Unknown
// project or panel ids are no-ops.
func (s *Store) UpdatePanel(projectID, panelID string, patch models.UpdatePanelRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	panel := s.findPanel(projectID, panelID)
	if panel == nil {
		return
	}
	if patch.Prompt != nil {
		panel.Prompt = *patch.Prompt
	}
	if patch.SceneDescription != nil {
		panel.SceneDescription = *patch.SceneDescription
	}
	if patch.CameraAngle != nil {
		panel.CameraAngle = *patch.CameraAngle
	}
	if patch.Emotion != nil {
		panel.Emotion = *patch.Emotion
	}
	if patch.Dialogue != nil {
		panel.Dialogue = append([]string(nil), (*patch.Dialogue)...)
	}
	s.persist()
}

func (s *Store) DeletePanel(projectID, panelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findProject(projectID)
	if p == nil {
		return
	}
	for i := range p.Panels {
		if p.Panels[i].ID == panelID {
			p.Panels = append(p.Panels[:i], p.Panels[i+1:]...)
			s.persist()
			return
		}
	}
}

// ReorderPanels re-sequences the project's panels to the supplied id
// order. Panels whose id is missing from panelIDs are dropped, so callers
// must pass the complete id set.
func (s *Store) ReorderPanels(projectID string, panelIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findProject(projectID)
	if p == nil {
		return
	}
	byID := make(map[string]models.Panel, len(p.Panels))
	for _, panel := range p.Panels {
		byID[panel.ID] = panel
	}
	reordered := make([]models.Panel, 0, len(panelIDs))
	for _, id := range panelIDs {
		if panel, ok := byID[id]; ok {
			reordered = append(reordered, panel)
		}
	}
	p.Panels = reordered
	s.persist()
}

// BeginPanelGeneration atomically checks and sets the panel's busy flag.
// It returns false when the panel is unknown or a regeneration is already
// outstanding, so no two requests for the same panel can ever be in
// flight together.
func (s *Store) BeginPanelGeneration(projectID, panelID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	panel := s.findPanel(projectID, panelID)
	if panel == nil || panel.IsGenerating {
		return false
	}
	panel.IsGenerating = true
	s.persist()
	return true
}

// CompletePanelGeneration records a successful regeneration: new image and
// seed land together with the busy flag clearing. A non-empty prompt also
// replaces the stored prompt.
func (s *Store) CompletePanelGeneration(projectID, panelID, imageURL string, seed int, prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	panel := s.findPanel(projectID, panelID)
	if panel == nil {
		return
	}
	panel.ImageURL = imageURL
	panel.Seed = seed
	if prompt != "" {
		panel.Prompt = prompt
	}
	panel.IsGenerating = false
	s.persist()
}

// AbortPanelGeneration clears the busy flag after a provider failure,
// leaving the previous image and seed intact.
func (s *Store) AbortPanelGeneration(projectID, panelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	panel := s.findPanel(projectID, panelID)
	if panel == nil {
		return
	}
	panel.IsGenerating = false
	s.persist()
}

// SetPanelImageURL rewrites a panel's image reference, used when a
// provider URL is mirrored to durable storage.
func (s *Store) SetPanelImageURL(projectID, panelID, imageURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	panel := s.findPanel(projectID, panelID)
	if panel == nil {
		return
	}
	panel.ImageURL = imageURL
	s.persist()
}

// --- Characters ---

func (s *Store) AddCharacter(projectID string, character models.Character) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findProject(projectID)
	if p == nil {
		return
	}
	character.ReferenceImages = capImages(character.ReferenceImages)
	p.Characters = append(p.Characters, character)
	s.persist()
}

func (s *Store) UpdateCharacter(projectID, characterID string, patch models.UpdateCharacterRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findProject(projectID)
	if p == nil {
		return
	}
	for i := range p.Characters {
		if p.Characters[i].ID != characterID {
			continue
		}
		c := &p.Characters[i]
		if patch.Name != nil {
			c.Name = *patch.Name
		}
		if patch.Token != nil {
			c.Token = *patch.Token
		}
		if patch.ReferenceImages != nil {
			c.ReferenceImages = capImages(append([]string(nil), (*patch.ReferenceImages)...))
		}
		if patch.Trained != nil {
			c.Trained = *patch.Trained
		}
		s.persist()
		return
	}
}

// --- internals ---

// findProject returns a pointer into state; callers must hold s.mu.
func (s *Store) findProject(id string) *models.Project {
	for i := range s.state.Projects {
		if s.state.Projects[i].ID == id {
			return &s.state.Projects[i]
		}
	}
	return nil
}

func (s *Store) findPanel(projectID, panelID string) *models.Panel {
	p := s.findProject(projectID)
	if p == nil {
		return nil
	}
	for i := range p.Panels {
		if p.Panels[i].ID == panelID {
			return &p.Panels[i]
		}
	}
	return nil
}

func capImages(images []string) []string {
	if len(images) > models.MaxReferenceImages {
		return images[:models.MaxReferenceImages]
	}
	return images
}

func cloneProject(p models.Project) models.Project {
	out := p
	out.Characters = make([]models.Character, len(p.Characters))
	for i, c := range p.Characters {
		c.ReferenceImages = append([]string(nil), c.ReferenceImages...)
		out.Characters[i] = c
	}
	out.Panels = make([]models.Panel, len(p.Panels))
	for i, panel := range p.Panels {
		out.Panels[i] = clonePanel(panel)
	}
	return out
}

func clonePanel(p models.Panel) models.Panel {
	p.Dialogue = append([]string(nil), p.Dialogue...)
	return p
}
