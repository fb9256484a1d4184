package telegram

import (
	"net/http"

	"github.com/goccy/go-json"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"investopal/internal/config"
	"investopal/internal/dashboard"
	"investopal/internal/logging"
	"investopal/internal/storage"
)

type Bot struct {
	api    *tgbotapi.BotAPI
	h      *Handlers
	logger *logging.Logger
}

func NewBot(cfg *config.Config, dash *dashboard.Dashboard, store *storage.Store, explainer Explainer, logger *logging.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, err
	}

	// set webhook
	webhook, err := tgbotapi.NewWebhook(cfg.WebhookPublicURL)
	if err != nil {
		return nil, err
	}
	if _, err := api.Request(webhook); err != nil {
		return nil, err
	}
	logger.Info().Str("url", cfg.WebhookPublicURL).Str("bot", api.Self.UserName).Msg("telegram: webhook set")

	h := NewHandlers(api, dash, store, explainer, cfg, logger)
	return &Bot{api: api, h: h, logger: h.logger}, nil
}

// WebhookHandler is registered at /telegram/webhook.
func (b *Bot) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}
	if update.Message == nil {
		b.logger.Debug().Int("update_id", update.UpdateID).Msg("webhook: non-message update received")
		w.WriteHeader(http.StatusOK)
		return
	}
	if update.Message.Chat != nil {
		b.logger.Debug().Int64("chat_id", update.Message.Chat.ID).Str("text", update.Message.Text).Msg("webhook: message")
	}
	go b.h.HandleMessage(update.Message)
	w.WriteHeader(http.StatusOK)
}
