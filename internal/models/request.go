package models

type CreateProjectRequest struct {
	Title    string `json:"title"`
	Story    string `json:"story" binding:"required"`
	Tone     string `json:"tone" example:"funny"`
	Style    string `json:"style" example:"western"`
	Language string `json:"language" example:"English"`
}

// UpdateProjectRequest is a partial patch; nil fields are left untouched.
type UpdateProjectRequest struct {
	Title    *string `json:"title,omitempty"`
	Story    *string `json:"story,omitempty"`
	Tone     *string `json:"tone,omitempty"`
	Style    *string `json:"style,omitempty"`
	Language *string `json:"language,omitempty"`
	Status   *string `json:"status,omitempty"`
}

// UpdatePanelRequest is a partial patch; nil fields are left untouched.
type UpdatePanelRequest struct {
	Prompt           *string   `json:"prompt,omitempty"`
	SceneDescription *string   `json:"sceneDescription,omitempty"`
	CameraAngle      *string   `json:"cameraAngle,omitempty"`
	Emotion          *string   `json:"emotion,omitempty"`
	Dialogue         *[]string `json:"dialogue,omitempty"`
}

type ReorderPanelsRequest struct {
	// PanelIDs must contain the complete set of panel ids in the desired
	// order; ids omitted here are dropped from the project.
	PanelIDs []string `json:"panel_ids" binding:"required"`
}

type RegeneratePanelRequest struct {
	// Prompt optionally replaces the panel's stored prompt for this
	// regeneration (and is persisted on success).
	Prompt string `json:"prompt,omitempty"`
}

type CreateCharacterRequest struct {
	Name  string `json:"name" binding:"required"`
	Token string `json:"token"`
}

type UpdateCharacterRequest struct {
	Name            *string   `json:"name,omitempty"`
	Token           *string   `json:"token,omitempty"`
	ReferenceImages *[]string `json:"referenceImages,omitempty"`
	Trained         *bool     `json:"trained,omitempty"`
}

type AddCreditsRequest struct {
	Amount int `json:"amount" binding:"required,gt=0"`
}

// GenerateImageRequest is the direct one-shot generation request.
type GenerateImageRequest struct {
	Prompt         string `json:"prompt" binding:"required"`
	Style          string `json:"style"`
	Tone           string `json:"tone"`
	AspectRatio    string `json:"aspectRatio,omitempty" example:"2:3"`
	Seed           int    `json:"seed,omitempty"`
	ReferenceImage string `json:"referenceImage,omitempty"`
	Mode           string `json:"mode,omitempty" example:"text-to-image"`
}
