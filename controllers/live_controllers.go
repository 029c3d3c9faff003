package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/xbirks/alergenu-sub000/live"
	"github.com/xbirks/alergenu-sub000/middlewares"
	"github.com/xbirks/alergenu-sub000/models"
	"github.com/xbirks/alergenu-sub000/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // token auth happens before the upgrade
	},
}

type LiveController struct {
	Hub *live.Hub
}

func NewLiveController(hub *live.Hub) *LiveController {
	return &LiveController{Hub: hub}
}

// LiveHandler subscribes an owner to their restaurant snapshots, or an admin
// to tenant-wide events.
func (lc *LiveController) LiveHandler(c *gin.Context) {
	channel := c.GetString(middlewares.CtxRestaurantID)
	if c.GetString(middlewares.CtxRole) == models.RoleAdmin {
		channel = live.AdminChannel
	}
	if channel == "" {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("Websocket upgrade failed: %v", err)
		return
	}

	lc.Hub.Register(ws, channel)
	defer lc.Hub.Unregister(ws)

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
}
