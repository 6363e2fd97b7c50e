package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
	"github.com/weekstatus/weekstatus/internal/event_bus"
	"github.com/weekstatus/weekstatus/internal/utils"
	"github.com/weekstatus/weekstatus/pkg/broadcast"
	"github.com/weekstatus/weekstatus/pkg/chat"
	"github.com/weekstatus/weekstatus/pkg/export"
	"github.com/weekstatus/weekstatus/pkg/schedule"
	"github.com/weekstatus/weekstatus/pkg/telegram"
	"github.com/weekstatus/weekstatus/pkg/week_parity"
)

type Bot struct {
	messenger  telegram.Messenger
	chats      chat.Service
	schedules  schedule.Service
	broadcasts broadcast.Service
	renderers  map[export.Format]export.Renderer
	states     *StateStore
	bus        *event_bus.EventBus
	clock      utils.Clock
	reference  week_parity.Reference
	adminId    int64

	wg sync.WaitGroup
}

type Options struct {
	Messenger  telegram.Messenger
	Chats      chat.Service
	Schedules  schedule.Service
	Broadcasts broadcast.Service
	Renderers  map[export.Format]export.Renderer
	States     *StateStore
	Bus        *event_bus.EventBus
	Clock      utils.Clock
	Reference  week_parity.Reference
	AdminId    int64
}

func NewBot(opts Options) *Bot {
	return &Bot{
		messenger:  opts.Messenger,
		chats:      opts.Chats,
		schedules:  opts.Schedules,
		broadcasts: opts.Broadcasts,
		renderers:  opts.Renderers,
		states:     opts.States,
		bus:        opts.Bus,
		clock:      opts.Clock,
		reference:  opts.Reference,
		adminId:    opts.AdminId,
	}
}

// HandleUpdate processes one webhook update. Errors are logged and answered with a generic message;
// they are returned only for logging by the caller.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.Message != nil:
		return b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		return b.handleCallback(ctx, update.CallbackQuery)
	}
	return nil
}

// Go runs fn in the background with panics recovered. Wait blocks until all of them finished.
func (b *Bot) Go(name string, fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("panic in %s: %v\n%s", name, r, debug.Stack())
			}
		}()
		fn()
	}()
}

func (b *Bot) Wait() {
	b.wg.Wait()
}

func (b *Bot) isAdmin(userId int64) bool {
	return b.adminId != 0 && userId == b.adminId
}

func (b *Bot) logUsage(ctx context.Context, user *tgbotapi.User, c *tgbotapi.Chat, command string) {
	if user == nil || c == nil {
		return
	}
	b.bus.PublishAsync(event_bus.NewEvent(ctx, event_bus.CommandUsedType, event_bus.CommandUsed{
		UserId:    user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Username:  user.UserName,
		Command:   command,
		ChatType:  c.Type,
		ChatId:    c.ID,
		ChatTitle: c.Title,
	}))
}

func (b *Bot) register(ctx context.Context, user *tgbotapi.User, c *tgbotapi.Chat) {
	if c == nil {
		return
	}
	if c.Type == "private" {
		if err := b.chats.RegisterUser(ctx, user, c); err != nil {
			log.Errorf("Failed to register user %d: %v", user.ID, err)
		}
		return
	}
	if err := b.chats.RegisterGroup(ctx, c); err != nil {
		log.Errorf("Failed to register group %d: %v", c.ID, err)
	}
}

// reply edits the callback's message, or sends a new one when there is none to edit.
func (b *Bot) reply(ctx context.Context, chatId int64, editId int, text string, keyboard telegram.Keyboard) error {
	if editId != 0 {
		return b.messenger.EditMessage(ctx, chatId, editId, text, keyboard)
	}
	_, err := b.messenger.SendMessage(ctx, chatId, text, keyboard)
	return err
}

func (b *Bot) send(ctx context.Context, chatId int64, text string, keyboard telegram.Keyboard) error {
	_, err := b.messenger.SendMessage(ctx, chatId, text, keyboard)
	return err
}

// parseCommand returns the lowercased command and the bot it is addressed to, if any.
func parseCommand(text string) (command string, addressee string) {
	token := strings.Fields(text)[0]
	command, addressee, _ = strings.Cut(token, "@")
	return strings.ToLower(command), strings.ToLower(addressee)
}

func userLabel(u *tgbotapi.User) string {
	if u == nil {
		return "unknown"
	}
	if u.UserName != "" {
		return u.UserName
	}
	return fmt.Sprint(u.ID)
}
