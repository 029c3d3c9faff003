package router

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xbirks/alergenu-sub000/config"
	"github.com/xbirks/alergenu-sub000/controllers"
	"github.com/xbirks/alergenu-sub000/live"
	"github.com/xbirks/alergenu-sub000/middlewares"
	"github.com/xbirks/alergenu-sub000/models"
	"github.com/xbirks/alergenu-sub000/services"
	"github.com/xbirks/alergenu-sub000/storage"
	"github.com/xbirks/alergenu-sub000/utils"
	"gorm.io/gorm"
)

// Deps are the external integrations. Leave a field nil when it is not
// configured; the matching endpoints then answer 503.
type Deps struct {
	Config    *config.Config
	Gateway   services.BillingGateway
	Generator services.Generator
	Notifier  services.Notifier
	Store     storage.ImageStore
	Hub       *live.Hub
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

func SetupRouter(db *gorm.DB, deps Deps) *gin.Engine {
	cfg := deps.Config
	hub := deps.Hub
	if hub == nil {
		hub = live.NewHub()
	}
	store := deps.Store
	if store == nil {
		store = storage.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL+"/uploads")
	}

	notifications := services.NewNotificationService(db, deps.Notifier)
	billing := services.NewBillingService(db, deps.Gateway, cfg.Plans, cfg.PublicBaseURL, hub, notifications)
	review := services.NewReviewService(db, hub)
	admin := services.NewAdminService(db)

	userController := controllers.NewUserController(services.NewAuthService(db, cfg, billing, notifications, hub))
	restaurantController := controllers.NewRestaurantController(services.NewRestaurantService(db, hub), billing)
	categoryController := controllers.NewMenuCategoryController(services.NewCategoryService(db, hub))
	menuController := controllers.NewMenuController(services.NewMenuItemService(db, hub, store))
	dailyMenuController := controllers.NewDailyMenuController(services.NewDailyMenuService(db, hub))
	reviewController := controllers.NewReviewController(review)
	aiController := controllers.NewAIController(services.NewAIService(db, deps.Generator, store, review))
	billingController := controllers.NewBillingController(billing)
	publicMenuController := controllers.NewPublicMenuController(services.NewPublicMenuService(db, cfg.Location))
	adminController := controllers.NewAdminController(admin)
	reportController := controllers.NewReportController(services.NewReportService(db, admin, cfg.Location))
	notificationController := controllers.NewNotificationController(notifications)
	miscController := controllers.NewMiscController(cfg.PublicBaseURL)
	liveController := controllers.NewLiveController(hub)

	r := gin.New()
	// without trusted proxies gin ignores X-Forwarded-For entirely
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		utils.ErrorLogger.Errorf("Invalid TRUSTED_PROXIES: %v", err)
		r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))

	// only images are served from the upload directory
	r.Use(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/uploads/") {
			ext := strings.ToLower(filepath.Ext(c.Request.URL.Path))
			allowed := false
			for _, e := range imageExtensions {
				if ext == e {
					allowed = true
					break
				}
			}
			if !allowed {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
		}
		c.Next()
	})
	r.Static("/uploads", cfg.UploadDir)

	strictLimiter := middlewares.NewStrictRateLimiter()
	publicLimiter := middlewares.NewRateLimiter(60, time.Second).RateLimit()

	// Public menu
	r.GET("/menu/:slug", publicLimiter, publicMenuController.GetMenu)
	r.POST("/menu/:slug/allergen-save", publicLimiter, publicMenuController.SaveAllergens)
	r.GET("/m/:id", publicLimiter, publicMenuController.RedirectQR)

	// Live snapshots
	r.GET("/ws", middlewares.WebSocketAuthMiddleware(), liveController.LiveHandler)

	api := r.Group("/api")
	{
		api.GET("/ip", miscController.ClientIP)
		api.GET("/menu/:id", publicLimiter, publicMenuController.GetLocalizedMenu)
		api.POST("/register", strictLimiter, userController.Register)
		api.POST("/login", strictLimiter, userController.Login)
		api.POST("/stripe/webhook", middlewares.LimitBody(1<<20), billingController.HandleWebhook)

		authorized := api.Group("")
		authorized.Use(middlewares.AuthMiddleware())
		{
			authorized.POST("/logout", userController.Logout)
			authorized.GET("/me", userController.Me)

			owner := authorized.Group("")
			owner.Use(middlewares.RequireRestaurant())
			owner.POST("/checkout-session", billingController.CreateCheckoutSession)
			owner.POST("/portal-session", billingController.CreatePortalSession)

			authorized.POST("/notify", middlewares.RequireRole(models.RoleAdmin), notificationController.CreateNotification)
		}
	}

	dashboard := r.Group("/dashboard")
	dashboard.Use(middlewares.AuthMiddleware(), middlewares.RequireRestaurant())
	{
		dashboard.GET("/restaurant", restaurantController.GetRestaurant)
		dashboard.PUT("/restaurant", restaurantController.UpdateRestaurant)
		dashboard.GET("/billing", restaurantController.GetBilling)
		dashboard.GET("/qr.png", miscController.QRCode)
		dashboard.GET("/allergen-report.pdf", middlewares.ReportLoggerMiddleware(), reportController.AllergenMatrix)

		categories := dashboard.Group("/categories")
		{
			categories.GET("", categoryController.GetAllCategories)
			categories.POST("", categoryController.CreateCategory)
			categories.POST("/reorder", categoryController.ReorderCategories)
			categories.GET("/:cat_id", categoryController.GetCategoryByID)
			categories.PUT("/:cat_id", categoryController.UpdateCategory)
			categories.DELETE("/:cat_id", categoryController.DeleteCategory)
		}

		items := dashboard.Group("/items")
		{
			items.GET("", menuController.GetAllMenus)
			items.POST("", menuController.CreateMenu)
			items.GET("/:menu_id", menuController.GetMenuByID)
			items.PUT("/:menu_id", menuController.UpdateMenu)
			items.DELETE("/:menu_id", menuController.DeleteMenu)
			items.PATCH("/:menu_id/availability", menuController.ToggleAvailability)
			items.POST("/:menu_id/image", middlewares.LimitBody(maxUploadBody), menuController.UploadImage)
			items.GET("/:menu_id/history", menuController.GetHistory)
			items.GET("/:menu_id/report.pdf", middlewares.ReportLoggerMiddleware(), reportController.DishHistory)
		}

		daily := dashboard.Group("/daily-menu")
		{
			daily.GET("", dailyMenuController.GetDailyMenu)
			daily.PUT("", dailyMenuController.PutDailyMenu)
			daily.POST("/publish", dailyMenuController.Publish)
			daily.POST("/unpublish", dailyMenuController.Unpublish)
		}

		reviewGroup := dashboard.Group("/review")
		{
			reviewGroup.GET("", reviewController.ListPending)
			reviewGroup.POST("/validate-all", reviewController.ValidateAll)
			reviewGroup.POST("/:menu_id/validate", reviewController.Validate)
			reviewGroup.PATCH("/:menu_id", reviewController.UpdateField)
			reviewGroup.DELETE("/:menu_id", reviewController.Delete)
		}

		ai := dashboard.Group("/ai")
		{
			ai.POST("/menu-photo", middlewares.LimitBody(maxUploadBody), aiController.AnalyzeMenuPhoto)
			ai.POST("/allergens", aiController.DetectAllergens)
			ai.POST("/translate", aiController.Translate)
		}
	}

	adminGroup := r.Group("/admin")
	adminGroup.Use(middlewares.AuthMiddleware(), middlewares.RequireRole(models.RoleAdmin))
	{
		adminGroup.GET("/restaurants", adminController.GetRestaurants)
		adminGroup.GET("/stats", adminController.GetDashboardStats)
		adminGroup.GET("/report.pdf", middlewares.ReportLoggerMiddleware(), reportController.Tenants)
		adminGroup.GET("/notifications", notificationController.GetAllNotifications)
	}

	return r
}

const maxUploadBody = 10 << 20
