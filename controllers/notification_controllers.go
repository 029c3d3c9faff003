package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xbirks/alergenu-sub000/services"
	"github.com/xbirks/alergenu-sub000/utils"
)

type NotificationController struct {
	Notifications *services.NotificationService
}

func NewNotificationController(notifications *services.NotificationService) *NotificationController {
	return &NotificationController{Notifications: notifications}
}

// GetAllNotifications returns the delivery log, newest first.
func (nc *NotificationController) GetAllNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	notifs, err := nc.Notifications.Recent(limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All notifications", notifs)
}

// CreateNotification forwards a message to the configured webhook.
func (nc *NotificationController) CreateNotification(c *gin.Context) {
	var body struct {
		Title   string `json:"title"`
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if !nc.Notifications.Enabled() {
		respondServiceError(c, services.ErrNotifyDisabled)
		return
	}
	if body.Title == "" {
		body.Title = "Alergenu"
	}
	if err := nc.Notifications.Send(c.Request.Context(), body.Title, body.Message); err != nil {
		respondServiceError(c, fmt.Errorf("%w: %v", services.ErrUpstream, err))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification sent", nil)
}
