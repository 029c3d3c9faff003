package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xbirks/alergenu-sub000/models"
	"github.com/xbirks/alergenu-sub000/utils"
)

func protectedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	ok := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":       c.GetString(CtxUserID),
			"restaurant_id": c.GetString(CtxRestaurantID),
		})
	}
	r.GET("/dashboard", AuthMiddleware(), RequireRestaurant(), ok)
	r.GET("/admin", AuthMiddleware(), RequireRole(models.RoleAdmin), ok)
	r.GET("/ws", WebSocketAuthMiddleware(), ok)
	return r
}

func call(r *gin.Engine, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := protectedRouter()
	owner, err := utils.GenerateToken("user-1", models.RoleOwner, "rest-1")
	require.NoError(t, err)
	admin, err := utils.GenerateToken("admin-1", models.RoleAdmin, "")
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, call(r, "/dashboard", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "/dashboard", "Token "+owner).Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "/dashboard", "Bearer not-a-jwt").Code)

	w := call(r, "/dashboard", "Bearer "+owner)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"restaurant_id":"rest-1"`)

	assert.Equal(t, http.StatusForbidden, call(r, "/dashboard", "Bearer "+admin).Code)
	assert.Equal(t, http.StatusForbidden, call(r, "/admin", "Bearer "+owner).Code)
	assert.Equal(t, http.StatusOK, call(r, "/admin", "Bearer "+admin).Code)

	assert.Equal(t, http.StatusUnauthorized, call(r, "/ws", "").Code)
	assert.Equal(t, http.StatusOK, call(r, "/ws?token="+owner, "").Code)
}

func TestAuthMiddleware_RevokedToken(t *testing.T) {
	r := protectedRouter()
	token, err := utils.GenerateToken("user-2", models.RoleOwner, "rest-2")
	require.NoError(t, err)

	utils.BlacklistToken(token, time.Now().Add(time.Hour))
	assert.Equal(t, http.StatusUnauthorized, call(r, "/dashboard", "Bearer "+token).Code)
}
