package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"comicforge-backend/internal/models"
	"comicforge-backend/internal/store"
)

type PanelsHandler struct {
	store *store.Store
}

func NewPanelsHandler(s *store.Store) *PanelsHandler {
	return &PanelsHandler{store: s}
}

// UpdatePanel godoc
// @Summary     Patch panel fields
// @Description Edits prompt, dialogue or tags on a panel without regenerating it
// @Tags        panels
// @Accept      json
// @Produce     json
// @Param       project_id path string true "project id"
// @Param       panel_id path string true "panel id"
// @Param       request body models.UpdatePanelRequest true "fields to update"
// @Success     200 {object} models.Panel
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/panels/{panel_id} [patch]
func (h *PanelsHandler) UpdatePanel(c *gin.Context) {
	projectID := c.Param("project_id")
	panelID := c.Param("panel_id")

	var req models.UpdatePanelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	project, ok := h.store.GetProject(projectID)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
		return
	}
	if !hasPanel(project, panelID) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "panel not found"})
		return
	}

	h.store.UpdatePanel(projectID, panelID, req)

	project, _ = h.store.GetProject(projectID)
	for _, p := range project.Panels {
		if p.ID == panelID {
			c.JSON(http.StatusOK, p)
			return
		}
	}
	c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "panel not found"})
}

// DeletePanel godoc
// @Summary Delete a panel
// @Tags    panels
// @Produce json
// @Param   project_id path string true "project id"
// @Param   panel_id path string true "panel id"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Router  /projects/{project_id}/panels/{panel_id} [delete]
func (h *PanelsHandler) DeletePanel(c *gin.Context) {
	projectID := c.Param("project_id")
	panelID := c.Param("panel_id")

	project, ok := h.store.GetProject(projectID)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
		return
	}
	if !hasPanel(project, panelID) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "panel not found"})
		return
	}

	h.store.DeletePanel(projectID, panelID)
	c.JSON(http.StatusOK, gin.H{"message": "panel deleted successfully"})
}

// ReorderPanels godoc
// @Summary     Reorder a project's panels
// @Description Re-sequences panels to the supplied id order; ids omitted from the list are dropped
// @Tags        panels
// @Accept      json
// @Produce     json
// @Param       project_id path string true "project id"
// @Param       request body models.ReorderPanelsRequest true "complete panel id order"
// @Success     200 {object} models.Project
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/panels/order [put]
func (h *PanelsHandler) ReorderPanels(c *gin.Context) {
	projectID := c.Param("project_id")

	var req models.ReorderPanelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	if _, ok := h.store.GetProject(projectID); !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
		return
	}

	h.store.ReorderPanels(projectID, req.PanelIDs)

	project, _ := h.store.GetProject(projectID)
	c.JSON(http.StatusOK, project)
}

func hasPanel(project models.Project, panelID string) bool {
	for _, p := range project.Panels {
		if p.ID == panelID {
			return true
		}
	}
	return false
}
