package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xbirks/alergenu-sub000/services"
	"github.com/xbirks/alergenu-sub000/utils"
)

const maxImageSize = 8 << 20

type MenuController struct {
	Items *services.MenuItemService
}

func NewMenuController(items *services.MenuItemService) *MenuController {
	return &MenuController{Items: items}
}

// GetAllMenus lists live dishes, optionally filtered by ?category_id=.
func (mc *MenuController) GetAllMenus(c *gin.Context) {
	items, err := mc.Items.List(restaurantID(c), c.Query("category_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All menus", items)
}

func (mc *MenuController) GetMenuByID(c *gin.Context) {
	item, err := mc.Items.Get(restaurantID(c), c.Param("menu_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu detail", item)
}

func (mc *MenuController) CreateMenu(c *gin.Context) {
	var body services.MenuItemInput
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	item, err := mc.Items.Create(restaurantID(c), userID(c), body)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu created", item)
}

func (mc *MenuController) UpdateMenu(c *gin.Context) {
	var body services.MenuItemInput
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	item, err := mc.Items.Update(restaurantID(c), userID(c), c.Param("menu_id"), body)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu updated", item)
}

func (mc *MenuController) DeleteMenu(c *gin.Context) {
	if err := mc.Items.Delete(restaurantID(c), c.Param("menu_id")); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu deleted", nil)
}

func (mc *MenuController) ToggleAvailability(c *gin.Context) {
	item, err := mc.Items.ToggleAvailability(restaurantID(c), c.Param("menu_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Availability updated", item)
}

// UploadImage expects a multipart "image" field.
func (mc *MenuController) UploadImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("image file is required"))
		return
	}
	defer file.Close()

	if header.Size > maxImageSize {
		utils.RespondError(c, http.StatusRequestEntityTooLarge, errors.New("image is too large"))
		return
	}

	item, err := mc.Items.UploadImage(c.Request.Context(), restaurantID(c), c.Param("menu_id"),
		header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Image uploaded", item)
}

func (mc *MenuController) GetHistory(c *gin.Context) {
	history, err := mc.Items.History(restaurantID(c), c.Param("menu_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu history", history)
}
