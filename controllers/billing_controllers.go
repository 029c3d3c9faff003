package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xbirks/alergenu-sub000/services"
	"github.com/xbirks/alergenu-sub000/utils"
)

const maxWebhookSize = 64 << 10

type BillingController struct {
	Billing *services.BillingService
}

func NewBillingController(billing *services.BillingService) *BillingController {
	return &BillingController{Billing: billing}
}

func (bc *BillingController) CreateCheckoutSession(c *gin.Context) {
	var body struct {
		Plan string `json:"plan" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	url, err := bc.Billing.Checkout(c.Request.Context(), restaurantID(c), body.Plan)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Checkout session created", gin.H{"url": url})
}

func (bc *BillingController) CreatePortalSession(c *gin.Context) {
	url, err := bc.Billing.Portal(c.Request.Context(), restaurantID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Portal session created", gin.H{"url": url})
}

// HandleWebhook needs the untouched body for the signature check.
func (bc *BillingController) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookSize))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("failed to read webhook body"))
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if err := bc.Billing.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		utils.ErrorLogger.Printf("Stripe webhook rejected: %v", err)
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Webhook processed", nil)
}
