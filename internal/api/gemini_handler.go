package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// TextGenerator forwards a prompt to the generation service and returns its
// cleaned text output.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type GeminiHandler struct {
	generator TextGenerator
}

func NewGeminiHandler(generator TextGenerator) *GeminiHandler {
	return &GeminiHandler{generator: generator}
}

type GenerateRequest struct {
	Prompt *string `json:"prompt"`
}

// Generate godoc
// @Summary Forward a prompt to the generation service
// @Description Returns the model's raw text output, expected to be JSON.
// @Tags Gemini
// @Accept json
// @Produce json
// @Param prompt body GenerateRequest true "Prompt"
// @Success 200 {string} string "Raw model output"
// @Failure 400 {object} gin.H "Missing or invalid prompt"
// @Failure 500 {object} gin.H "Generation service failure"
// @Router /api/gemini [post]
func (h *GeminiHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Prompt == nil || *req.Prompt == "" {
		abortWithError(c, http.StatusBadRequest, "Prompt is missing or invalid")
		return
	}

	text, err := h.generator.Generate(c.Request.Context(), *req.Prompt)
	if err != nil {
		log.WithError(err).Warn("generation passthrough failed")
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(text))
}
