package models

import "time"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type ProjectListResponse struct {
	Projects []ProjectSummary `json:"projects"`
}

type ProjectSummary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	PanelCount int       `json:"panel_count"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreditsResponse struct {
	Credits int `json:"credits"`
}

// GenerateResponse reports the outcome of a batch panel generation.
// Partial completion is a normal outcome: Generated may be smaller than
// Requested when credits run out, and Failures lists per-panel provider
// errors that did not abort the batch.
type GenerateResponse struct {
	ProjectID           string   `json:"project_id"`
	Status              string   `json:"status"`
	Requested           int      `json:"requested"`
	Generated           int      `json:"generated"`
	CreditsRemaining    int      `json:"credits_remaining"`
	InsufficientCredits bool     `json:"insufficient_credits,omitempty"`
	Failures            []string `json:"failures,omitempty"`
}

type GenerateImageResponse struct {
	ImageURL string `json:"imageUrl"`
	Prompt   string `json:"prompt"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
