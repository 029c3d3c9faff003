package controllers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xbirks/alergenu-sub000/controllers"
	"github.com/xbirks/alergenu-sub000/middlewares"
	"github.com/xbirks/alergenu-sub000/models"
	"github.com/xbirks/alergenu-sub000/services"
)

func TestRegisterLoginLogout(t *testing.T) {
	db := setupTestDB(t)
	ctrl := controllers.NewUserController(services.NewAuthService(db, testConfig(t), nil, nil, nil))

	router := gin.New()
	router.POST("/register", ctrl.Register)
	router.POST("/login", ctrl.Login)
	authed := router.Group("", middlewares.AuthMiddleware())
	authed.POST("/logout", ctrl.Logout)
	authed.GET("/me", ctrl.Me)

	register := map[string]interface{}{
		"name":            "Lucía",
		"email":           "lucia@example.com",
		"password":        "supersecret",
		"restaurant_name": "La Taberna",
		"plan":            "gratuito",
		"accept_terms":    true,
	}
	w := doJSON(t, router, "POST", "/register", register)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var result services.RegisterResult
	decode(t, w, &result)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "la-taberna", result.Restaurant.Slug)
	assert.Equal(t, models.StatusTrialing, result.Restaurant.SubscriptionStatus)

	var acceptance models.LegalAcceptance
	require.NoError(t, db.First(&acceptance, "restaurant_id = ?", result.Restaurant.ID).Error)
	assert.NotEmpty(t, acceptance.IP)

	w = doJSON(t, router, "POST", "/register", register)
	assert.Equal(t, http.StatusConflict, w.Code)

	register["email"] = "otra@example.com"
	register["accept_terms"] = false
	w = doJSON(t, router, "POST", "/register", register)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, "POST", "/login", map[string]string{"email": "lucia@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, "POST", "/login", map[string]string{"email": "lucia@example.com", "password": "supersecret"})
	require.Equal(t, http.StatusOK, w.Code)
	var login services.LoginResult
	decode(t, w, &login)
	require.NotEmpty(t, login.Token)

	withToken := func(method, path string) int {
		req, _ := http.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+login.Token)
		return httptestRecorder(router, req).Code
	}
	assert.Equal(t, http.StatusOK, withToken("GET", "/me"))
	assert.Equal(t, http.StatusOK, withToken("POST", "/logout"))
	assert.Equal(t, http.StatusUnauthorized, withToken("GET", "/me"))
}
