package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xbirks/alergenu-sub000/models"
	"github.com/xbirks/alergenu-sub000/utils"
)

// Context keys set by the auth middlewares.
const (
	CtxUserID       = "user_id"
	CtxRole         = "role"
	CtxRestaurantID = "restaurant_id"
	CtxToken        = "token"
)

func setClaims(c *gin.Context, token string, claims *utils.CustomClaims) {
	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxRole, claims.Role)
	c.Set(CtxRestaurantID, claims.RestaurantID)
	c.Set(CtxToken, token)
}

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Authorization header missing"))
			c.Abort()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Authorization header must use the Bearer scheme"))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ParseToken(tokenString)
		if err != nil || claims == nil {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Invalid or expired token"))
			c.Abort()
			return
		}

		setClaims(c, tokenString, claims)
		c.Next()
	}
}

// RequireRestaurant lets through owners whose token carries a restaurant.
func RequireRestaurant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(CtxRole) != models.RoleOwner || c.GetString(CtxRestaurantID) == "" {
			utils.RespondError(c, http.StatusForbidden, errors.New("restaurant owner access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}
