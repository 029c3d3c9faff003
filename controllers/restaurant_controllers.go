package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xbirks/alergenu-sub000/services"
	"github.com/xbirks/alergenu-sub000/utils"
)

type RestaurantController struct {
	Restaurants *services.RestaurantService
	Billing     *services.BillingService
}

func NewRestaurantController(restaurants *services.RestaurantService, billing *services.BillingService) *RestaurantController {
	return &RestaurantController{Restaurants: restaurants, Billing: billing}
}

func (rc *RestaurantController) GetRestaurant(c *gin.Context) {
	restaurant, err := rc.Restaurants.Get(restaurantID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Restaurant detail", restaurant)
}

func (rc *RestaurantController) UpdateRestaurant(c *gin.Context) {
	var body services.RestaurantUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	restaurant, err := rc.Restaurants.Update(restaurantID(c), body)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Restaurant updated", restaurant)
}

// GetBilling returns the derived subscription state and which billing
// actions the dashboard should offer.
func (rc *RestaurantController) GetBilling(c *gin.Context) {
	overview, err := rc.Billing.Overview(restaurantID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Billing overview", overview)
}
