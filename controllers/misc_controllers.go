package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"github.com/xbirks/alergenu-sub000/utils"
)

const qrSize = 256

type MiscController struct {
	PublicBaseURL string
}

func NewMiscController(publicBaseURL string) *MiscController {
	return &MiscController{PublicBaseURL: publicBaseURL}
}

func (mc *MiscController) ClientIP(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Client IP", gin.H{"ip": c.ClientIP()})
}

// QRCode renders the PNG printed on tables. It points at /m/:id so the scan
// is counted before the redirect.
func (mc *MiscController) QRCode(c *gin.Context) {
	png, err := qrcode.Encode(mc.PublicBaseURL+"/m/"+restaurantID(c), qrcode.Medium, qrSize)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "image/png", png)
}
