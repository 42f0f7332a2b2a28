package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"comicforge-backend/internal/models"
	"comicforge-backend/internal/prompt"
	"comicforge-backend/internal/replicate"
)

// ImagesHandler exposes one-shot image generation outside any project,
// useful for previews and reference-image experiments.
type ImagesHandler struct {
	replicateClient *replicate.Client
}

func NewImagesHandler(replicateClient *replicate.Client) *ImagesHandler {
	return &ImagesHandler{replicateClient: replicateClient}
}

// GenerateImage godoc
// @Summary     Generate a single image
// @Description Composes a comic prompt from style, tone and scene text, then runs text-to-image or image-to-image generation
// @Tags        generation
// @Accept      json
// @Produce     json
// @Param       request body models.GenerateImageRequest true "generation request"
// @Success     200 {object} models.GenerateImageResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /generate [post]
func (h *ImagesHandler) GenerateImage(c *gin.Context) {
	var req models.GenerateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	fullPrompt := prompt.Compose(req.Style, req.Tone, req.Prompt)

	imageURL, err := h.replicateClient.Generate(c.Request.Context(), fullPrompt, replicate.GenerateOptions{
		AspectRatio:    req.AspectRatio,
		Seed:           req.Seed,
		ReferenceImage: req.ReferenceImage,
		Mode:           req.Mode,
	})
	if err != nil {
		if errors.Is(err, replicate.ErrNoImage) {
			c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: "no image generated"})
			return
		}
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "generation failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.GenerateImageResponse{
		ImageURL: imageURL,
		Prompt:   fullPrompt,
	})
}
