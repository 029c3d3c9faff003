package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// R2Config holds the S3-compatible object storage settings. Storage falls back
// to the local upload directory when Endpoint or Bucket is empty.
type R2Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
}

func (r R2Config) Enabled() bool {
	return r.Endpoint != "" && r.Bucket != ""
}

type Config struct {
	Port          string
	GinMode       string
	DBDriver      string
	DBDSN         string
	JWTSecret     string
	PublicBaseURL string
	Location      *time.Location

	StripeSecretKey     string
	StripeWebhookSecret string

	GeminiAPIKey string
	GeminiModel  string

	DiscordWebhookURL string
	TelegramBotToken  string
	TelegramChatID    int64

	R2        R2Config
	UploadDir string

	CORSOrigins []string
	// TrustedProxies lists the peers whose X-Forwarded-For is honored. Empty
	// means the client IP is always the TCP peer.
	TrustedProxies []string
	TrialDays      int
	TermsVersion   string
	AdminEmail     string
	AdminPassword  string

	Plans *PlanCatalog
}

// Load reads the process environment. Call godotenv.Load before it when a
// .env file should be honoured.
func Load() (*Config, error) {
	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Europe/Madrid"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	trialDays, err := strconv.Atoi(getEnv("TRIAL_DAYS", "90"))
	if err != nil || trialDays <= 0 {
		return nil, fmt.Errorf("invalid TRIAL_DAYS %q", os.Getenv("TRIAL_DAYS"))
	}

	var chatID int64
	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		chatID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
	}

	plans, err := LoadPlans()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		GinMode:             os.Getenv("GIN_MODE"),
		DBDriver:            getEnv("DB_DRIVER", "sqlite"),
		DBDSN:               getEnv("DB_DSN", "alergenu.db"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		PublicBaseURL:       strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		Location:            loc,
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		DiscordWebhookURL:   os.Getenv("DISCORD_WEBHOOK_URL"),
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:      chatID,
		R2: R2Config{
			Endpoint:      os.Getenv("R2_ENDPOINT"),
			AccessKey:     os.Getenv("R2_ACCESS_KEY"),
			SecretKey:     os.Getenv("R2_SECRET_KEY"),
			Bucket:        os.Getenv("R2_BUCKET_NAME"),
			PublicBaseURL: strings.TrimRight(os.Getenv("R2_PUBLIC_BASE_URL"), "/"),
		},
		UploadDir:      getEnv("UPLOAD_DIR", "public/uploads"),
		CORSOrigins:    splitList(os.Getenv("CORS_ORIGINS")),
		TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),
		TrialDays:      trialDays,
		TermsVersion:   getEnv("TERMS_VERSION", "2024-01"),
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		Plans:          plans,
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
