package bot

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type updateCounterStub struct {
	mu    sync.Mutex
	kinds []string
}

func (c *updateCounterStub) UpdateReceived(kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kinds = append(c.kinds, kind)
}

const startUpdate = `{
	"update_id": 1,
	"message": {
		"message_id": 10,
		"date": 0,
		"from": {"id": 7, "is_bot": false, "first_name": "Sara", "username": "sara"},
		"chat": {"id": 7, "type": "private"},
		"text": "/start"
	}
}`

func TestWebhookHandler(t *testing.T) {
	t.Run("should acknowledge and process the update", func(t *testing.T) {
		f := setup(t)
		counter := &updateCounterStub{}
		handler := NewWebhookHandler(f.bot, "s3cret", counter)
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(startUpdate))
		req.Header.Set(secretHeader, "s3cret")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		f.bot.Wait()

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"message"}, counter.kinds)
		sent, ok := f.messenger.LastSent(7)
		require.True(t, ok)
		assert.Contains(t, sent.Text, "سلام Sara")
	})

	t.Run("should reject a wrong secret", func(t *testing.T) {
		f := setup(t)
		handler := NewWebhookHandler(f.bot, "s3cret", nil)
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(startUpdate))
		req.Header.Set(secretHeader, "guess")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		f.bot.Wait()

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		_, ok := f.messenger.LastSent(7)
		assert.False(t, ok)
	})

	t.Run("should answer 400 to malformed json", func(t *testing.T) {
		f := setup(t)
		handler := NewWebhookHandler(f.bot, "", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{not json")))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("should survive a panicking handler", func(t *testing.T) {
		f := setup(t)
		f.bot.messenger = nil
		handler := NewWebhookHandler(f.bot, "", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(startUpdate)))
		f.bot.Wait()

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
