package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"comicforge-backend/internal/generator"
	"comicforge-backend/internal/models"
	"comicforge-backend/internal/store"
)

// ImageCleaner removes a deleted project's mirrored images from durable
// storage. Optional: nil when mirroring is disabled.
type ImageCleaner interface {
	DeleteProjectImages(projectID string) error
}

type ProjectsHandler struct {
	store   *store.Store
	cleaner ImageCleaner
}

func NewProjectsHandler(s *store.Store, cleaner ImageCleaner) *ProjectsHandler {
	return &ProjectsHandler{store: s, cleaner: cleaner}
}

// CreateProject godoc
// @Summary     Create a comic project
// @Description Creates a project from story text and debits the story structuring fee
// @Tags        projects
// @Accept      json
// @Produce     json
// @Param       request body models.CreateProjectRequest true "project fields"
// @Success     200 {object} models.Project
// @Failure     400 {object} models.ErrorResponse
// @Failure     402 {object} models.ErrorResponse
// @Router      /projects [post]
func (h *ProjectsHandler) CreateProject(c *gin.Context) {
	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	if !h.store.UseCredits(generator.CostCreateProject) {
		c.JSON(http.StatusPaymentRequired, models.ErrorResponse{
			Error:   "insufficient credits",
			Message: "story structuring requires 2 credits",
		})
		return
	}

	if req.Title == "" {
		req.Title = "Untitled Comic"
	}
	if req.Language == "" {
		req.Language = "English"
	}

	project := h.store.CreateProject(req.Title, req.Story, req.Tone, req.Style, req.Language)
	c.JSON(http.StatusOK, project)
}

// ListProjects godoc
// @Summary List projects
// @Tags    projects
// @Produce json
// @Success 200 {object} models.ProjectListResponse
// @Router  /projects [get]
func (h *ProjectsHandler) ListProjects(c *gin.Context) {
	projects := h.store.ListProjects()

	summaries := make([]models.ProjectSummary, len(projects))
	for i, p := range projects {
		summaries[i] = models.ProjectSummary{
			ID:         p.ID,
			Title:      p.Title,
			Status:     p.Status,
			PanelCount: len(p.Panels),
			CreatedAt:  p.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, models.ProjectListResponse{Projects: summaries})
}

// GetProject godoc
// @Summary Get a project with its panels and characters
// @Tags    projects
// @Produce json
// @Param   project_id path string true "project id"
// @Success 200 {object} models.Project
// @Failure 404 {object} models.ErrorResponse
// @Router  /projects/{project_id} [get]
func (h *ProjectsHandler) GetProject(c *gin.Context) {
	project, ok := h.store.GetProject(c.Param("project_id"))
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
		return
	}
	c.JSON(http.StatusOK, project)
}

// UpdateProject godoc
// @Summary Patch project fields
// @Tags    projects
// @Accept  json
// @Produce json
// @Param   project_id path string true "project id"
// @Param   request body models.UpdateProjectRequest true "fields to update"
// @Success 200 {object} models.Project
// @Failure 404 {object} models.ErrorResponse
// @Router  /projects/{project_id} [patch]
func (h *ProjectsHandler) UpdateProject(c *gin.Context) {
	projectID := c.Param("project_id")
	if _, ok := h.store.GetProject(projectID); !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
		return
	}

	var req models.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	h.store.UpdateProject(projectID, req)

	project, _ := h.store.GetProject(projectID)
	c.JSON(http.StatusOK, project)
}

// DeleteProject godoc
// @Summary Delete a project
// @Tags    projects
// @Produce json
// @Param   project_id path string true "project id"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Router  /projects/{project_id} [delete]
func (h *ProjectsHandler) DeleteProject(c *gin.Context) {
	projectID := c.Param("project_id")
	if _, ok := h.store.GetProject(projectID); !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
		return
	}

	h.store.DeleteProject(projectID)

	// Mirrored images are cleaned up best-effort; a storage failure must
	// not resurrect the project.
	if h.cleaner != nil {
		if err := h.cleaner.DeleteProjectImages(projectID); err != nil {
			log.Printf("failed to delete mirrored images for project %s: %v", projectID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "project deleted successfully"})
}

// SetCurrentProject godoc
// @Summary Mark a project as the current editing session
// @Tags    projects
// @Produce json
// @Param   project_id path string true "project id"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Router  /projects/{project_id}/current [put]
func (h *ProjectsHandler) SetCurrentProject(c *gin.Context) {
	projectID := c.Param("project_id")
	if _, ok := h.store.GetProject(projectID); !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
		return
	}

	h.store.SetCurrentProject(projectID)
	c.JSON(http.StatusOK, gin.H{"current_project_id": projectID})
}

// GetCurrentProject godoc
// @Summary Get the current project, if any
// @Tags    projects
// @Produce json
// @Success 200 {object} models.Project
// @Failure 404 {object} models.ErrorResponse
// @Router  /current-project [get]
func (h *ProjectsHandler) GetCurrentProject(c *gin.Context) {
	project, ok := h.store.CurrentProject()
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "no current project"})
		return
	}
	c.JSON(http.StatusOK, project)
}
