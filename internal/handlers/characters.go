package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"comicforge-backend/internal/models"
	"comicforge-backend/internal/store"
)

type CharactersHandler struct {
	store *store.Store
}

func NewCharactersHandler(s *store.Store) *CharactersHandler {
	return &CharactersHandler{store: s}
}

// CreateCharacter godoc
// @Summary Add a character to a project
// @Tags    characters
// @Accept  json
// @Produce json
// @Param   project_id path string true "project id"
// @Param   request body models.CreateCharacterRequest true "character fields"
// @Success 200 {object} models.Character
// @Failure 404 {object} models.ErrorResponse
// @Router  /projects/{project_id}/characters [post]
func (h *CharactersHandler) CreateCharacter(c *gin.Context) {
	projectID := c.Param("project_id")

	var req models.CreateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	if _, ok := h.store.GetProject(projectID); !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
		return
	}

	token := req.Token
	if token == "" {
		token = "@" + req.Name
	}
	character := models.Character{
		ID:              uuid.New().String(),
		Name:            req.Name,
		Token:           token,
		ReferenceImages: []string{},
	}
	h.store.AddCharacter(projectID, character)

	c.JSON(http.StatusOK, character)
}

// UpdateCharacter godoc
// @Summary     Patch character fields
// @Description Reference image lists longer than 15 entries are truncated
// @Tags        characters
// @Accept      json
// @Produce     json
// @Param       project_id path string true "project id"
// @Param       character_id path string true "character id"
// @Param       request body models.UpdateCharacterRequest true "fields to update"
// @Success     200 {object} models.Character
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/characters/{character_id} [patch]
func (h *CharactersHandler) UpdateCharacter(c *gin.Context) {
	projectID := c.Param("project_id")
	characterID := c.Param("character_id")

	var req models.UpdateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	project, ok := h.store.GetProject(projectID)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
		return
	}
	found := false
	for _, ch := range project.Characters {
		if ch.ID == characterID {
			found = true
			break
		}
	}
	if !found {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "character not found"})
		return
	}

	h.store.UpdateCharacter(projectID, characterID, req)

	project, _ = h.store.GetProject(projectID)
	for _, ch := range project.Characters {
		if ch.ID == characterID {
			c.JSON(http.StatusOK, ch)
			return
		}
	}
	c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "character not found"})
}
