package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xbirks/alergenu-sub000/models"
	"github.com/xbirks/alergenu-sub000/utils"
	"gorm.io/gorm"
)

// Notifier sends a short message to the admin channels.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// Channel names stored in the delivery log.
const (
	ChannelDiscord  = "discord"
	ChannelTelegram = "telegram"
	ChannelDefault  = "admin"
)

// channelNamer is implemented by notifiers that know which channel they
// deliver to.
type channelNamer interface {
	Channel() string
}

func channelOf(n Notifier) string {
	if named, ok := n.(channelNamer); ok && named.Channel() != "" {
		return named.Channel()
	}
	return ChannelDefault
}

// DiscordNotifier posts to a Discord incoming webhook.
type DiscordNotifier struct {
	WebhookURL string
	HTTPClient *http.Client
}

func NewDiscordNotifier(webhookURL string) *DiscordNotifier {
	return &DiscordNotifier{
		WebhookURL: webhookURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *DiscordNotifier) Channel() string { return ChannelDiscord }

func (d *DiscordNotifier) Notify(ctx context.Context, title, message string) error {
	content := message
	if title != "" {
		content = fmt.Sprintf("**%s**\n%s", title, message)
	}
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: discord: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: discord returned %d: %s", ErrUpstream, resp.StatusCode, raw)
	}
	return nil
}

// TelegramNotifier writes to one chat through a bot.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &TelegramNotifier{api: api, chatID: chatID}, nil
}

// NewTelegramNotifierWithAPI wraps an existing bot client.
func NewTelegramNotifierWithAPI(api *tgbotapi.BotAPI, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{api: api, chatID: chatID}
}

func (t *TelegramNotifier) Channel() string { return ChannelTelegram }

func (t *TelegramNotifier) Notify(ctx context.Context, title, message string) error {
	text := message
	if title != "" {
		text = title + "\n" + message
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("%w: telegram: %v", ErrUpstream, err)
	}
	return nil
}

// MultiNotifier fans a message out to every channel and joins the errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, title, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, title, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotificationService sends through a Notifier and keeps a delivery log.
type NotificationService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewNotificationService(db *gorm.DB, notifier Notifier) *NotificationService {
	return &NotificationService{db: db, notifier: notifier}
}

func (s *NotificationService) Enabled() bool {
	return s.notifier != nil
}

// Send delivers the message and records one log row per channel. The
// delivery errors are joined and returned so callers that care can surface
// them.
func (s *NotificationService) Send(ctx context.Context, title, message string) error {
	if s.notifier == nil {
		return nil
	}

	targets := []Notifier{s.notifier}
	if multi, ok := s.notifier.(MultiNotifier); ok {
		targets = multi
	}

	var errs []error
	for _, n := range targets {
		if err := s.deliver(ctx, n, title, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *NotificationService) deliver(ctx context.Context, n Notifier, title, message string) error {
	sendErr := n.Notify(ctx, title, message)

	entry := models.Notification{Channel: channelOf(n), Title: title, Message: message}
	if sendErr != nil {
		entry.Error = sendErr.Error()
		utils.ErrorLogger.Printf("Notification %q via %s failed: %v", title, entry.Channel, sendErr)
	}
	if err := s.db.Create(&entry).Error; err != nil {
		utils.ErrorLogger.Printf("Error saving notification log: %v", err)
	}
	return sendErr
}

// Recent returns the latest deliveries, newest first.
func (s *NotificationService) Recent(limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var list []models.Notification
	err := s.db.Order("created_at DESC").Limit(limit).Find(&list).Error
	return list, err
}
