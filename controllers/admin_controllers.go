package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xbirks/alergenu-sub000/services"
	"github.com/xbirks/alergenu-sub000/utils"
)

type AdminController struct {
	Admin *services.AdminService
}

func NewAdminController(admin *services.AdminService) *AdminController {
	return &AdminController{Admin: admin}
}

// GetRestaurants lists every tenant with its derived subscription status.
func (ac *AdminController) GetRestaurants(c *gin.Context) {
	restaurants, err := ac.Admin.Restaurants()
	if err != nil {
		utils.ErrorLogger.Printf("Error loading restaurants: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All restaurants", restaurants)
}

// GetDashboardStats always answers 200. A failed load shows zeroed cards.
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", ac.Admin.Stats())
}
