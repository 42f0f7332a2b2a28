package models

import "time"

// Project lifecycle statuses. The lifecycle is advisory: handlers may set
// any status via PATCH, the generator only moves draft -> generating -> editing.
const (
	StatusDraft      = "draft"
	StatusGenerating = "generating"
	StatusEditing    = "editing"
	StatusComplete   = "complete"
)

type Project struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Story      string      `json:"story"`
	Tone       string      `json:"tone"`
	Style      string      `json:"style"`
	Language   string      `json:"language"`
	Characters []Character `json:"characters"`
	Panels     []Panel     `json:"panels"`
	Status     string      `json:"status"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// Panel is one illustrated comic frame. While IsGenerating is true,
// ImageURL and Seed still hold the previous successful generation.
type Panel struct {
	ID               string   `json:"id"`
	ImageURL         string   `json:"imageUrl"`
	Prompt           string   `json:"prompt"`
	SceneDescription string   `json:"sceneDescription"`
	CameraAngle      string   `json:"cameraAngle"`
	Emotion          string   `json:"emotion"`
	Dialogue         []string `json:"dialogue"`
	Seed             int      `json:"seed"`
	IsGenerating     bool     `json:"isGenerating"`
}

// Character carries reference material for face-consistency features.
type Character struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Token           string   `json:"token"`
	ReferenceImages []string `json:"referenceImages"`
	Trained         bool     `json:"trained"`
}

// MaxReferenceImages is the soft cap on reference images per character.
const MaxReferenceImages = 15
