package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"comicforge-backend/internal/models"
	"comicforge-backend/internal/store"
)

type CreditsHandler struct {
	store *store.Store
}

func NewCreditsHandler(s *store.Store) *CreditsHandler {
	return &CreditsHandler{store: s}
}

// GetCredits godoc
// @Summary Current credit balance
// @Tags    credits
// @Produce json
// @Success 200 {object} models.CreditsResponse
// @Router  /credits [get]
func (h *CreditsHandler) GetCredits(c *gin.Context) {
	c.JSON(http.StatusOK, models.CreditsResponse{Credits: h.store.Credits()})
}

// AddCredits godoc
// @Summary Add credits to the balance
// @Tags    credits
// @Accept  json
// @Produce json
// @Param   request body models.AddCreditsRequest true "amount to add"
// @Success 200 {object} models.CreditsResponse
// @Failure 400 {object} models.ErrorResponse
// @Router  /credits [post]
func (h *CreditsHandler) AddCredits(c *gin.Context) {
	var req models.AddCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	balance := h.store.AddCredits(req.Amount)
	c.JSON(http.StatusOK, models.CreditsResponse{Credits: balance})
}
