package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weekstatus/weekstatus/internal/kv"
)

const token = "123:abc"

type call struct {
	method string
	form   map[string]string
}

type fakeTelegram struct {
	mu        sync.Mutex
	calls     []call
	responses map[string]string
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		_ = r.ParseMultipartForm(1 << 20)
	} else {
		_ = r.ParseForm()
	}
	form := map[string]string{}
	for k, v := range r.Form {
		form[k] = v[0]
	}
	if r.MultipartForm != nil {
		for k := range r.MultipartForm.File {
			form[k] = r.MultipartForm.File[k][0].Filename
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, call{method: method, form: form})
	body, ok := f.responses[method]
	f.mu.Unlock()
	if !ok {
		body = `{"ok":false,"error_code":404,"description":"Not Found"}`
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprint(w, body)
}

func (f *fakeTelegram) last(method string) (call, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].method == method {
			return f.calls[i], true
		}
	}
	return call{}, false
}

func (f *fakeTelegram) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.method == method {
			n++
		}
	}
	return n
}

func setupMessenger(t *testing.T, responses map[string]string) (*MessengerImpl, *fakeTelegram, *kv.MemoryStore) {
	fake := &fakeTelegram{responses: responses}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	cache := kv.NewMemoryStore()
	api := NewBotAPI(token, server.Client(), server.URL+"/bot%s/%s")
	return NewMessenger(api, cache), fake, cache
}

func TestMessengerImpl_SendMessage(t *testing.T) {
	messenger, fake, _ := setupMessenger(t, map[string]string{
		"sendMessage": `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":5,"type":"private"}}}`,
	})
	keyboard := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("menu", "menu:main")))

	id, err := messenger.SendMessage(context.Background(), 5, "*hello*", &keyboard)

	require.NoError(t, err)
	assert.Equal(t, 7, id)
	c, ok := fake.last("sendMessage")
	require.True(t, ok)
	assert.Equal(t, "5", c.form["chat_id"])
	assert.Equal(t, "*hello*", c.form["text"])
	assert.Equal(t, tgbotapi.ModeMarkdown, c.form["parse_mode"])
	assert.Contains(t, c.form["reply_markup"], "menu:main")
}

func TestMessengerImpl_SendMessageFailure(t *testing.T) {
	messenger, _, _ := setupMessenger(t, map[string]string{
		"sendMessage": `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`,
	})

	_, err := messenger.SendMessage(context.Background(), 5, "hi", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
}

func TestMessengerImpl_EditMessageIgnoresNotModified(t *testing.T) {
	messenger, fake, _ := setupMessenger(t, map[string]string{
		"editMessageText": `{"ok":false,"error_code":400,"description":"Bad Request: message is not modified"}`,
	})

	err := messenger.EditMessage(context.Background(), 5, 9, "same", nil)

	require.NoError(t, err)
	c, _ := fake.last("editMessageText")
	assert.Equal(t, "9", c.form["message_id"])
}

func TestMessengerImpl_RelayAndDocument(t *testing.T) {
	messenger, fake, _ := setupMessenger(t, map[string]string{
		"copyMessage":    `{"ok":true,"result":{"message_id":12}}`,
		"forwardMessage": `{"ok":true,"result":{"message_id":13,"date":0,"chat":{"id":6,"type":"group"}}}`,
		"sendDocument":   `{"ok":true,"result":{"message_id":14,"date":0,"chat":{"id":5,"type":"private"}}}`,
	})
	ctx := context.Background()

	copied, err := messenger.CopyMessage(ctx, 6, 1000, 3)
	require.NoError(t, err)
	assert.Equal(t, 12, copied)

	forwarded, err := messenger.ForwardMessage(ctx, 6, 1000, 3)
	require.NoError(t, err)
	assert.Equal(t, 13, forwarded)
	c, _ := fake.last("forwardMessage")
	assert.Equal(t, "1000", c.form["from_chat_id"])
	assert.Equal(t, "true", c.form["disable_notification"])

	require.NoError(t, messenger.SendDocument(ctx, 5, "schedule_5.csv", []byte("a,b"), "برنامه", nil))
	c, _ = fake.last("sendDocument")
	assert.Equal(t, "schedule_5.csv", c.form["document"])
	assert.Equal(t, "برنامه", c.form["caption"])
}

func TestMessengerImpl_BotInfo(t *testing.T) {
	t.Run("should ask getMe once and cache the result", func(t *testing.T) {
		messenger, fake, cache := setupMessenger(t, map[string]string{
			"getMe": `{"ok":true,"result":{"id":99,"is_bot":true,"first_name":"Week","username":"week_status_bot"}}`,
		})
		ctx := context.Background()

		assert.Equal(t, BotInfo{Id: 99, Username: "week_status_bot"}, messenger.BotInfo(ctx))
		assert.Equal(t, BotInfo{Id: 99, Username: "week_status_bot"}, messenger.BotInfo(ctx))
		assert.Equal(t, 1, fake.count("getMe"))

		var cached BotInfo
		found, err := cache.Get(ctx, botInfoKey, &cached)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, int64(99), cached.Id)
	})

	t.Run("should fall back to the cached value", func(t *testing.T) {
		messenger, _, cache := setupMessenger(t, map[string]string{})
		ctx := context.Background()
		require.NoError(t, cache.Set(ctx, botInfoKey, BotInfo{Id: 5, Username: "cached_bot"}, 0))

		assert.Equal(t, "cached_bot", messenger.BotInfo(ctx).Username)
	})

	t.Run("should fall back to the placeholder username", func(t *testing.T) {
		messenger, _, _ := setupMessenger(t, map[string]string{})

		assert.Equal(t, FallbackUsername, messenger.BotInfo(context.Background()).Username)
	})

	t.Run("should wait before asking getMe again after a failure", func(t *testing.T) {
		messenger, fake, _ := setupMessenger(t, map[string]string{})
		now := time.Date(2025, time.February, 8, 9, 0, 0, 0, time.UTC)
		messenger.now = func() time.Time { return now }
		ctx := context.Background()

		messenger.BotInfo(ctx)
		messenger.BotInfo(ctx)
		messenger.BotInfo(ctx)
		assert.Equal(t, 1, fake.count("getMe"))

		now = now.Add(botInfoRetryDelay)
		fake.mu.Lock()
		fake.responses["getMe"] = `{"ok":true,"result":{"id":99,"is_bot":true,"first_name":"Week","username":"week_status_bot"}}`
		fake.mu.Unlock()

		assert.Equal(t, "week_status_bot", messenger.BotInfo(ctx).Username)
		assert.Equal(t, "week_status_bot", messenger.BotInfo(ctx).Username)
		assert.Equal(t, 2, fake.count("getMe"))
	})
}

func TestMessengerImpl_SetWebhook(t *testing.T) {
	messenger, fake, _ := setupMessenger(t, map[string]string{
		"setWebhook": `{"ok":true,"result":true,"description":"Webhook was set"}`,
	})

	err := messenger.SetWebhook(context.Background(), "https://example.org/webhook", "s3cret")

	require.NoError(t, err)
	c, _ := fake.last("setWebhook")
	assert.Equal(t, "https://example.org/webhook", c.form["url"])
	assert.Equal(t, "s3cret", c.form["secret_token"])
}
