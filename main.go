package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/xbirks/alergenu-sub000/config"
	"github.com/xbirks/alergenu-sub000/database"
	"github.com/xbirks/alergenu-sub000/live"
	"github.com/xbirks/alergenu-sub000/router"
	"github.com/xbirks/alergenu-sub000/services"
	"github.com/xbirks/alergenu-sub000/storage"
	"github.com/xbirks/alergenu-sub000/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}
	utils.SetJWTSecret(cfg.JWTSecret)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	if err := database.SeedAdmin(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		utils.ErrorLogger.Printf("Error seeding admin user: %v", err)
	}

	ctx := context.Background()
	deps := router.Deps{Config: cfg, Hub: live.NewHub()}

	if notifier := buildNotifier(cfg); notifier != nil {
		deps.Notifier = notifier
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to init image storage: %v", err)
	}
	deps.Store = store

	if cfg.StripeSecretKey != "" {
		deps.Gateway = services.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	} else {
		utils.InfoLogger.Println("Stripe not configured, billing endpoints disabled")
	}

	if cfg.GeminiAPIKey != "" {
		deps.Generator = services.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	} else {
		utils.InfoLogger.Println("Gemini not configured, AI endpoints disabled")
	}

	monitor := services.NewTrialMonitor(db, services.NewNotificationService(db, deps.Notifier), deps.Hub)
	monitor.Start()
	defer monitor.Stop()

	r := router.SetupRouter(db, deps)

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := r.Run(":" + cfg.Port); err != nil {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.InfoLogger.Println("Shutting down")
}

// buildNotifier returns nil when no channel is configured. The result is a
// plain interface value so a nil never hides inside a typed pointer.
func buildNotifier(cfg *config.Config) services.Notifier {
	var channels services.MultiNotifier
	if cfg.DiscordWebhookURL != "" {
		channels = append(channels, services.NewDiscordNotifier(cfg.DiscordWebhookURL))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		tg, err := services.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			utils.ErrorLogger.Printf("Telegram notifier disabled: %v", err)
		} else {
			channels = append(channels, tg)
		}
	}

	switch len(channels) {
	case 0:
		return nil
	case 1:
		return channels[0]
	default:
		return channels
	}
}
