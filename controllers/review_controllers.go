package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xbirks/alergenu-sub000/services"
	"github.com/xbirks/alergenu-sub000/utils"
)

// ReviewController drives the bulk review screen for AI-imported dishes.
// Every response carries the remaining pending list plus done/redirect.
type ReviewController struct {
	Review *services.ReviewService
}

func NewReviewController(review *services.ReviewService) *ReviewController {
	return &ReviewController{Review: review}
}

func (rc *ReviewController) ListPending(c *gin.Context) {
	state, err := rc.Review.ListPending(restaurantID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Pending dishes", state)
}

func (rc *ReviewController) Validate(c *gin.Context) {
	state, err := rc.Review.Validate(restaurantID(c), c.Param("menu_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dish validated", state)
}

func (rc *ReviewController) ValidateAll(c *gin.Context) {
	state, err := rc.Review.ValidateAll(restaurantID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All dishes validated", state)
}

func (rc *ReviewController) Delete(c *gin.Context) {
	state, err := rc.Review.Delete(restaurantID(c), c.Param("menu_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dish deleted", state)
}

// UpdateField saves one field as soon as the input loses focus.
func (rc *ReviewController) UpdateField(c *gin.Context) {
	var body struct {
		Field string          `json:"field" binding:"required"`
		Value json.RawMessage `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	state, err := rc.Review.UpdateField(restaurantID(c), c.Param("menu_id"), body.Field, body.Value)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Field saved", state)
}
