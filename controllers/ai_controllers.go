package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xbirks/alergenu-sub000/services"
	"github.com/xbirks/alergenu-sub000/utils"
)

type AIController struct {
	AI *services.AIService
}

func NewAIController(ai *services.AIService) *AIController {
	return &AIController{AI: ai}
}

// AnalyzeMenuPhoto takes a multipart "photo" field and imports the dishes it
// finds as pending review items.
func (ac *AIController) AnalyzeMenuPhoto(c *gin.Context) {
	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("photo file is required"))
		return
	}
	defer file.Close()

	if header.Size > maxImageSize {
		utils.RespondError(c, http.StatusRequestEntityTooLarge, errors.New("photo is too large"))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	result, err := ac.AI.AnalyzeMenuPhoto(c.Request.Context(), restaurantID(c), header.Filename,
		services.InlineImage{MimeType: mimeType, Data: data})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu photo analyzed", result)
}

func (ac *AIController) DetectAllergens(c *gin.Context) {
	var body struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	detected, err := ac.AI.DetectAllergens(c.Request.Context(), body.Name, body.Description)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Allergens detected", gin.H{"allergens": detected})
}

func (ac *AIController) Translate(c *gin.Context) {
	var body struct {
		Texts []string `json:"texts" binding:"required"`
		From  string   `json:"from"`
		To    string   `json:"to"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if body.From == "" {
		body.From = "es"
	}
	if body.To == "" {
		body.To = "en"
	}

	translations, err := ac.AI.Translate(c.Request.Context(), body.Texts, body.From, body.To)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Texts translated", gin.H{"translations": translations})
}
