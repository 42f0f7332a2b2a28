package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"comicforge-backend/internal/generator"
	"comicforge-backend/internal/models"
	"comicforge-backend/internal/store"
)

type GenerateHandler struct {
	store     *store.Store
	generator *generator.Generator
}

func NewGenerateHandler(s *store.Store, g *generator.Generator) *GenerateHandler {
	return &GenerateHandler{store: s, generator: g}
}

// GeneratePanels godoc
// @Summary     Generate panels for a project
// @Description Segments the story and generates one panel per scene, 3 credits each. Stops early when credits run out; panels generated so far are kept.
// @Tags        generation
// @Produce     json
// @Param       project_id path string true "project id"
// @Success     200 {object} models.GenerateResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /projects/{project_id}/generate [post]
func (h *GenerateHandler) GeneratePanels(c *gin.Context) {
	projectID := c.Param("project_id")

	result, err := h.generator.GeneratePanels(c.Request.Context(), projectID)
	if err != nil {
		if errors.Is(err, generator.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
			return
		}
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "panel generation failed",
			Message: err.Error(),
		})
		return
	}

	project, _ := h.store.GetProject(projectID)
	c.JSON(http.StatusOK, models.GenerateResponse{
		ProjectID:           projectID,
		Status:              project.Status,
		Requested:           result.Requested,
		Generated:           result.Generated,
		CreditsRemaining:    h.store.Credits(),
		InsufficientCredits: result.InsufficientCredits,
		Failures:            result.Failures,
	})
}

// RegeneratePanel godoc
// @Summary     Regenerate one panel
// @Description Re-runs generation with the stored or edited prompt for 2 credits. Rejected while a regeneration for the same panel is outstanding.
// @Tags        generation
// @Accept      json
// @Produce     json
// @Param       project_id path string true "project id"
// @Param       panel_id path string true "panel id"
// @Param       request body models.RegeneratePanelRequest false "optional edited prompt"
// @Success     200 {object} models.Panel
// @Failure     402 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /projects/{project_id}/panels/{panel_id}/regenerate [post]
func (h *GenerateHandler) RegeneratePanel(c *gin.Context) {
	projectID := c.Param("project_id")
	panelID := c.Param("panel_id")

	// Body is optional; only reject malformed JSON.
	var req models.RegeneratePanelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
			return
		}
	}

	panel, err := h.generator.RegeneratePanel(c.Request.Context(), projectID, panelID, req.Prompt)
	if err != nil {
		switch {
		case errors.Is(err, generator.ErrProjectNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
		case errors.Is(err, generator.ErrPanelNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "panel not found"})
		case errors.Is(err, generator.ErrPanelBusy):
			c.JSON(http.StatusConflict, models.ErrorResponse{Error: "panel busy", Message: "a regeneration for this panel is already in progress"})
		case errors.Is(err, generator.ErrInsufficientCredits):
			c.JSON(http.StatusPaymentRequired, models.ErrorResponse{Error: "insufficient credits", Message: "panel regeneration requires 2 credits"})
		default:
			c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: "panel regeneration failed", Message: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, panel)
}
