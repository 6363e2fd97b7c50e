package telegram

import (
	"context"
	"sync"
)

type SentMessage struct {
	ChatId    int64
	MessageId int
	Text      string
	Keyboard  Keyboard
}

type SentDocument struct {
	ChatId   int64
	FileName string
	Content  []byte
	Caption  string
}

type Relayed struct {
	Method     string
	ToChatId   int64
	FromChatId int64
	MessageId  int
}

// MessengerStub records every call. Chats listed in FailFor reject copies and forwards.
type MessengerStub struct {
	mu        sync.Mutex
	nextId    int
	Sent      []SentMessage
	Edited    []SentMessage
	Answers   []string
	Documents []SentDocument
	Relayed   []Relayed
	FailFor   map[int64]error
	Info      BotInfo
	Webhook   string
}

func NewMessengerStub() *MessengerStub {
	return &MessengerStub{nextId: 100, FailFor: make(map[int64]error), Info: BotInfo{Id: 1, Username: "week_status_bot"}}
}

func (m *MessengerStub) SendMessage(ctx context.Context, chatId int64, text string, keyboard Keyboard) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailFor[chatId]; err != nil {
		return 0, err
	}
	m.nextId++
	m.Sent = append(m.Sent, SentMessage{ChatId: chatId, MessageId: m.nextId, Text: text, Keyboard: keyboard})
	return m.nextId, nil
}

func (m *MessengerStub) EditMessage(ctx context.Context, chatId int64, messageId int, text string, keyboard Keyboard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Edited = append(m.Edited, SentMessage{ChatId: chatId, MessageId: messageId, Text: text, Keyboard: keyboard})
	return nil
}

func (m *MessengerStub) AnswerCallback(ctx context.Context, callbackId string, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Answers = append(m.Answers, text)
	return nil
}

func (m *MessengerStub) SendDocument(ctx context.Context, chatId int64, fileName string, content []byte, caption string, keyboard Keyboard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Documents = append(m.Documents, SentDocument{ChatId: chatId, FileName: fileName, Content: content, Caption: caption})
	return nil
}

func (m *MessengerStub) CopyMessage(ctx context.Context, toChatId, fromChatId int64, messageId int) (int, error) {
	return m.relay("copy", toChatId, fromChatId, messageId)
}

func (m *MessengerStub) ForwardMessage(ctx context.Context, toChatId, fromChatId int64, messageId int) (int, error) {
	return m.relay("forward", toChatId, fromChatId, messageId)
}

func (m *MessengerStub) relay(method string, toChatId, fromChatId int64, messageId int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailFor[toChatId]; err != nil {
		return 0, err
	}
	m.nextId++
	m.Relayed = append(m.Relayed, Relayed{Method: method, ToChatId: toChatId, FromChatId: fromChatId, MessageId: messageId})
	return m.nextId, nil
}

func (m *MessengerStub) BotInfo(ctx context.Context) BotInfo {
	return m.Info
}

func (m *MessengerStub) SetWebhook(ctx context.Context, url, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Webhook = url
	return nil
}

// LastSent returns the most recent message sent to chatId.
func (m *MessengerStub) LastSent(chatId int64) (SentMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Sent) - 1; i >= 0; i-- {
		if m.Sent[i].ChatId == chatId {
			return m.Sent[i], true
		}
	}
	return SentMessage{}, false
}

func (m *MessengerStub) SentTo(chatId int64) []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []SentMessage
	for _, s := range m.Sent {
		if s.ChatId == chatId {
			out = append(out, s)
		}
	}
	return out
}

func (m *MessengerStub) Snapshot() (sent, edited []SentMessage, relayed []Relayed) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.Sent...), append([]SentMessage(nil), m.Edited...), append([]Relayed(nil), m.Relayed...)
}
