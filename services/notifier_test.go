package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xbirks/alergenu-sub000/models"
)

func TestDiscordNotifier(t *testing.T) {
	var content string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		content = body["content"]
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewDiscordNotifier(srv.URL)
	require.NoError(t, n.Notify(context.Background(), "Nuevo restaurante", "Casa Pepe"))
	assert.Equal(t, "**Nuevo restaurante**\nCasa Pepe", content)
}

func TestDiscordNotifier_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewDiscordNotifier(srv.URL).Notify(context.Background(), "", "hola")
	assert.True(t, errors.Is(err, ErrUpstream))
}

func TestTelegramNotifier(t *testing.T) {
	var text, chatID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"alergenu","username":"alergenu_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			r.ParseForm()
			text = r.FormValue("text")
			chatID = r.FormValue("chat_id")
			w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))
		default:
			w.Write([]byte(`{"ok":false,"description":"not found"}`))
		}
	}))
	defer srv.Close()

	api, err := tgbotapi.NewBotAPIWithClient("token", srv.URL+"/bot%s/%s", srv.Client())
	require.NoError(t, err)

	n := NewTelegramNotifierWithAPI(api, 42)
	require.NoError(t, n.Notify(context.Background(), "Pago fallido", "Casa Pepe"))
	assert.Equal(t, "Pago fallido\nCasa Pepe", text)
	assert.Equal(t, "42", chatID)
}

func TestMultiNotifier_JoinsErrors(t *testing.T) {
	ok := &fakeNotifier{}
	failing := &fakeNotifier{err: errBoom}

	err := MultiNotifier{ok, failing}.Notify(context.Background(), "t", "m")
	assert.True(t, errors.Is(err, errBoom))
	assert.Len(t, ok.messages, 1)
	assert.Len(t, failing.messages, 1)
}

func TestNotificationService_LogsDeliveries(t *testing.T) {
	db := setupTestDB(t)
	notifier := &fakeNotifier{}
	svc := NewNotificationService(db, notifier)

	require.NoError(t, svc.Send(context.Background(), "Hola", "primer mensaje"))
	notifier.err = errBoom
	assert.Error(t, svc.Send(context.Background(), "Hola", "segundo mensaje"))

	list, err := svc.Recent(10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ChannelDefault, list[0].Channel)

	var failed models.Notification
	require.NoError(t, db.Where("message = ?", "segundo mensaje").First(&failed).Error)
	assert.Contains(t, failed.Error, "boom")

	disabled := NewNotificationService(db, nil)
	assert.False(t, disabled.Enabled())
	assert.NoError(t, disabled.Send(context.Background(), "x", "y"))
}

func TestNotificationService_LogsEachChannel(t *testing.T) {
	db := setupTestDB(t)
	discord := &fakeNotifier{channel: ChannelDiscord}
	telegram := &fakeNotifier{channel: ChannelTelegram, err: errBoom}
	svc := NewNotificationService(db, MultiNotifier{discord, telegram})

	err := svc.Send(context.Background(), "Pago fallido", "Casa Pepe")
	assert.True(t, errors.Is(err, errBoom))

	var rows []models.Notification
	require.NoError(t, db.Order("channel ASC").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, ChannelDiscord, rows[0].Channel)
	assert.Empty(t, rows[0].Error)
	assert.Equal(t, ChannelTelegram, rows[1].Channel)
	assert.Contains(t, rows[1].Error, "boom")
}

func TestNotifierChannels(t *testing.T) {
	assert.Equal(t, ChannelDiscord, channelOf(NewDiscordNotifier("http://discord.test")))
	assert.Equal(t, ChannelTelegram, channelOf(NewTelegramNotifierWithAPI(nil, 1)))
	assert.Equal(t, ChannelDefault, channelOf(&fakeNotifier{}))
}
