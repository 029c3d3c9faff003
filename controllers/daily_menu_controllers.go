package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xbirks/alergenu-sub000/services"
	"github.com/xbirks/alergenu-sub000/utils"
)

type DailyMenuController struct {
	DailyMenus *services.DailyMenuService
}

func NewDailyMenuController(dailyMenus *services.DailyMenuService) *DailyMenuController {
	return &DailyMenuController{DailyMenus: dailyMenus}
}

func (dc *DailyMenuController) GetDailyMenu(c *gin.Context) {
	menu, err := dc.DailyMenus.Get(restaurantID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Daily menu", menu)
}

func (dc *DailyMenuController) PutDailyMenu(c *gin.Context) {
	var body services.DailyMenuInput
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	menu, err := dc.DailyMenus.Put(restaurantID(c), body)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Daily menu saved", menu)
}

func (dc *DailyMenuController) Publish(c *gin.Context) {
	dc.setPublished(c, true)
}

func (dc *DailyMenuController) Unpublish(c *gin.Context) {
	dc.setPublished(c, false)
}

func (dc *DailyMenuController) setPublished(c *gin.Context, published bool) {
	menu, err := dc.DailyMenus.SetPublished(restaurantID(c), published)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Daily menu updated", menu)
}
