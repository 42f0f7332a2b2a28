package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"comicforge-backend/internal/export"
	"comicforge-backend/internal/generator"
	"comicforge-backend/internal/models"
	"comicforge-backend/internal/store"
)

type ExportHandler struct {
	store *store.Store
}

func NewExportHandler(s *store.Store) *ExportHandler {
	return &ExportHandler{store: s}
}

// ExportPDF godoc
// @Summary     Export a project as PDF
// @Description Renders a title page plus two panels per page and debits the export fee
// @Tags        export
// @Produce     application/pdf
// @Param       project_id path string true "project id"
// @Success     200 {file} binary
// @Failure     402 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/export [post]
func (h *ExportHandler) ExportPDF(c *gin.Context) {
	project, ok := h.store.GetProject(c.Param("project_id"))
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
		return
	}

	if !h.store.UseCredits(generator.CostExportPDF) {
		c.JSON(http.StatusPaymentRequired, models.ErrorResponse{
			Error:   "insufficient credits",
			Message: "PDF export requires 2 credits",
		})
		return
	}

	data, err := export.RenderPDF(project)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to render pdf",
			Message: err.Error(),
		})
		return
	}

	title := project.Title
	if title == "" {
		title = "comic"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, title))
	c.Data(http.StatusOK, "application/pdf", data)
}
