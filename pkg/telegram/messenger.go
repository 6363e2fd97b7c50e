package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
	"github.com/weekstatus/weekstatus/internal/kv"
)

const botInfoKey = "botInfo"

const botInfoRetryDelay = time.Minute

// FallbackUsername is used in deep links when the bot could not identify itself.
const FallbackUsername = "this_bot"

type BotInfo struct {
	Id       int64  `json:"id"`
	Username string `json:"username"`
}

// Keyboard is an inline keyboard; nil sends none.
type Keyboard = *tgbotapi.InlineKeyboardMarkup

type Messenger interface {
	SendMessage(ctx context.Context, chatId int64, text string, keyboard Keyboard) (int, error)
	EditMessage(ctx context.Context, chatId int64, messageId int, text string, keyboard Keyboard) error
	AnswerCallback(ctx context.Context, callbackId string, text string) error
	SendDocument(ctx context.Context, chatId int64, fileName string, content []byte, caption string, keyboard Keyboard) error
	CopyMessage(ctx context.Context, toChatId, fromChatId int64, messageId int) (int, error)
	ForwardMessage(ctx context.Context, toChatId, fromChatId int64, messageId int) (int, error)
	BotInfo(ctx context.Context) BotInfo
	SetWebhook(ctx context.Context, url, secret string) error
}

type MessengerImpl struct {
	api   *tgbotapi.BotAPI
	cache kv.Store

	mu       sync.Mutex
	botInfo  *BotInfo
	fallback *BotInfo
	retryAt  time.Time
	now      func() time.Time
}

// NewBotAPI builds the client without the getMe round trip that tgbotapi.NewBotAPI does. endpoint
// follows tgbotapi.APIEndpoint, e.g. "https://api.telegram.org/bot%s/%s".
func NewBotAPI(token string, client *http.Client, endpoint string) *tgbotapi.BotAPI {
	if client == nil {
		client = &http.Client{}
	}
	api := &tgbotapi.BotAPI{
		Token:  token,
		Client: client,
		Buffer: 100,
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	api.SetAPIEndpoint(endpoint)
	return api
}

func NewMessenger(api *tgbotapi.BotAPI, cache kv.Store) *MessengerImpl {
	return &MessengerImpl{api: api, cache: cache, now: time.Now}
}

func (m *MessengerImpl) SendMessage(ctx context.Context, chatId int64, text string, keyboard Keyboard) (int, error) {
	msg := tgbotapi.NewMessage(chatId, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	sent, err := m.api.Send(msg)
	if err != nil {
		log.Errorf("Telegram sendMessage to %d failed: %v", chatId, err)
		return 0, fmt.Errorf("send message to %d: %w", chatId, err)
	}
	return sent.MessageID, nil
}

// EditMessage treats "message is not modified" as success.
func (m *MessengerImpl) EditMessage(ctx context.Context, chatId int64, messageId int, text string, keyboard Keyboard) error {
	edit := tgbotapi.NewEditMessageText(chatId, messageId, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.ReplyMarkup = keyboard
	if _, err := m.api.Request(edit); err != nil {
		if isNotModified(err) {
			return nil
		}
		log.Errorf("Telegram editMessageText %d/%d failed: %v", chatId, messageId, err)
		return fmt.Errorf("edit message %d in %d: %w", messageId, chatId, err)
	}
	return nil
}

func (m *MessengerImpl) AnswerCallback(ctx context.Context, callbackId string, text string) error {
	if _, err := m.api.Request(tgbotapi.NewCallback(callbackId, truncate(text, 200))); err != nil {
		log.Errorf("Telegram answerCallbackQuery failed: %v", err)
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

func (m *MessengerImpl) SendDocument(ctx context.Context, chatId int64, fileName string, content []byte, caption string, keyboard Keyboard) error {
	doc := tgbotapi.NewDocument(chatId, tgbotapi.FileBytes{Name: fileName, Bytes: content})
	doc.Caption = caption
	doc.ParseMode = tgbotapi.ModeMarkdown
	if keyboard != nil {
		doc.ReplyMarkup = *keyboard
	}
	if _, err := m.api.Send(doc); err != nil {
		log.Errorf("Telegram sendDocument to %d failed: %v", chatId, err)
		return fmt.Errorf("send document to %d: %w", chatId, err)
	}
	return nil
}

func (m *MessengerImpl) CopyMessage(ctx context.Context, toChatId, fromChatId int64, messageId int) (int, error) {
	id, err := m.api.CopyMessage(tgbotapi.NewCopyMessage(toChatId, fromChatId, messageId))
	if err != nil {
		return 0, fmt.Errorf("copy message to %d: %w", toChatId, err)
	}
	return id.MessageID, nil
}

func (m *MessengerImpl) ForwardMessage(ctx context.Context, toChatId, fromChatId int64, messageId int) (int, error) {
	forward := tgbotapi.NewForward(toChatId, fromChatId, messageId)
	forward.DisableNotification = true
	sent, err := m.api.Send(forward)
	if err != nil {
		return 0, fmt.Errorf("forward message to %d: %w", toChatId, err)
	}
	return sent.MessageID, nil
}

// BotInfo asks getMe until it succeeds once. When Telegram is unreachable the last cached identity
// is used, and without one the username is FallbackUsername; that answer is kept for
// botInfoRetryDelay before getMe is tried again.
func (m *MessengerImpl) BotInfo(ctx context.Context) BotInfo {
	m.mu.Lock()
	if m.botInfo != nil {
		defer m.mu.Unlock()
		return *m.botInfo
	}
	if m.fallback != nil && m.now().Before(m.retryAt) {
		defer m.mu.Unlock()
		return *m.fallback
	}
	m.mu.Unlock()

	me, err := m.api.GetMe()
	if err == nil {
		info := BotInfo{Id: me.ID, Username: me.UserName}
		m.mu.Lock()
		m.botInfo = &info
		m.fallback = nil
		m.mu.Unlock()
		if err := m.cache.Set(ctx, botInfoKey, info, 0); err != nil {
			log.Warnf("Failed to cache bot info: %v", err)
		}
		return info
	}
	log.Errorf("getMe failed: %v", err)

	fallback := BotInfo{Username: FallbackUsername}
	var cached BotInfo
	found, cacheErr := m.cache.Get(ctx, botInfoKey, &cached)
	if cacheErr != nil {
		log.Warnf("Failed to read cached bot info: %v", cacheErr)
	}
	if found && cached.Username != "" {
		fallback = cached
	}

	m.mu.Lock()
	m.fallback = &fallback
	m.retryAt = m.now().Add(botInfoRetryDelay)
	m.mu.Unlock()
	return fallback
}

// SetWebhook registers url with Telegram. tgbotapi's WebhookConfig has no secret_token field,
// so the request is built by hand.
func (m *MessengerImpl) SetWebhook(ctx context.Context, url, secret string) error {
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", secret)
	resp, err := m.api.MakeRequest("setWebhook", params)
	if err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("set webhook: %s", resp.Description)
	}
	log.Infof("Webhook set to %s", url)
	return nil
}

func isNotModified(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return strings.Contains(apiErr.Message, "message is not modified")
	}
	return false
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
