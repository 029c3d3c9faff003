package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xbirks/alergenu-sub000/middlewares"
	"github.com/xbirks/alergenu-sub000/services"
	"github.com/xbirks/alergenu-sub000/utils"
)

// statusFor maps service errors onto HTTP status codes. Anything unknown is
// a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidPlan),
		errors.Is(err, services.ErrTermsNotAccepted),
		errors.Is(err, services.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrSlugTaken),
		errors.Is(err, services.ErrCategoryNotEmpty),
		errors.Is(err, services.ErrNoCustomer):
		return http.StatusConflict
	case errors.Is(err, services.ErrBillingDisabled),
		errors.Is(err, services.ErrAIDisabled),
		errors.Is(err, services.ErrNotifyDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondServiceError(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		utils.ErrorLogger.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	utils.RespondError(c, code, err)
}

func restaurantID(c *gin.Context) string {
	return c.GetString(middlewares.CtxRestaurantID)
}

func userID(c *gin.Context) string {
	return c.GetString(middlewares.CtxUserID)
}
