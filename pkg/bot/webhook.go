package bot

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/weekstatus/weekstatus/internal/rest"
)

const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// UpdateCounter counts received updates by kind.
type UpdateCounter interface {
	UpdateReceived(kind string)
}

type WebhookHandler struct {
	bot     *Bot
	secret  string
	metrics UpdateCounter
}

func NewWebhookHandler(bot *Bot, secret string, metrics UpdateCounter) *WebhookHandler {
	return &WebhookHandler{bot: bot, secret: secret, metrics: metrics}
}

// ServeHTTP acknowledges the update at once and processes it in the background, so a slow handler
// never makes Telegram retry the delivery.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(secretHeader)), []byte(h.secret)) != 1 {
		log.Warnf("Webhook call with invalid secret token from %s", r.RemoteAddr)
		rest.WriteError(w, http.StatusUnauthorized, "invalid secret token", "")
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Errorf("Failed to parse incoming update: %v", err)
		rest.WriteError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	kind := updateKind(update)
	if h.metrics != nil {
		h.metrics.UpdateReceived(kind)
	}
	requestId := uuid.NewString()
	logger := log.WithFields(log.Fields{"request_id": requestId, "update_id": update.UpdateID, "kind": kind})
	logger.Debug("Update received")

	h.bot.Go("update "+requestId, func() {
		if err := h.bot.HandleUpdate(context.Background(), update); err != nil {
			logger.Errorf("Error in update handler: %v", err)
		}
	})

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func updateKind(update tgbotapi.Update) string {
	switch {
	case update.Message != nil:
		return "message"
	case update.CallbackQuery != nil:
		return "callback_query"
	}
	return "other"
}
