package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
	"github.com/weekstatus/weekstatus/pkg/broadcast"
)

var cancelBroadcastRow = row(button("❌ لغو", "broadcast:cancel"))

func (b *Bot) handleBroadcastCallback(ctx context.Context, cb callback) error {
	adminId := cb.query.From.ID
	switch cb.action {
	case "menu":
		return b.messenger.EditMessage(ctx, cb.chatId, cb.message,
			"📢 *منوی ارسال پیام همگانی*\n\nلطفا یکی از گزینه‌های زیر را انتخاب کنید:", keyboard(
				row(button("➕ ایجاد پیام جدید", "broadcast:start")),
				row(button("↩️ بازگشت به پنل ادمین", "admin:panel")),
			))
	case "start":
		if err := b.states.Set(ctx, adminId, State{Name: BroadcastStarted}); err != nil {
			return err
		}
		return b.messenger.EditMessage(ctx, cb.chatId, cb.message,
			"⚙️ *مرحله ۱: نوع ارسال*\n\nمی‌خواهید پیام شما چگونه ارسال شود؟", keyboard(
				row(button("✨ ارسال به عنوان کپی (از طرف ربات)", "broadcast:setMethod:copy")),
				row(button("↪️ فوروارد از طرف شما", "broadcast:setMethod:forward")),
				cancelBroadcastRow,
			))
	case "cancel":
		if err := b.states.Clear(ctx, adminId); err != nil {
			log.Errorf("Failed to clear state: %v", err)
		}
		return b.messenger.EditMessage(ctx, cb.chatId, cb.message, "عملیات ارسال همگانی لغو شد.",
			keyboard(row(button("↩️ بازگشت به پنل ادمین", "admin:panel"))))
	case "setMethod":
		state, ok := b.expectState(ctx, adminId, BroadcastStarted)
		if !ok {
			return nil
		}
		method, err := broadcast.ParseMethod(cb.param(0))
		if err != nil {
			return b.invalidSelection(ctx, cb)
		}
		state.Name = BroadcastMethodSelected
		state.Method = method
		if err := b.states.Set(ctx, adminId, state); err != nil {
			return err
		}
		return b.messenger.EditMessage(ctx, cb.chatId, cb.message,
			"🎯 *مرحله ۲: انتخاب گیرندگان*\n\nپیام به کدام گروه از مخاطبین ارسال شود؟", keyboard(
				row(button("👤 فقط کاربران", "broadcast:setTarget:"+string(broadcast.AllUsers))),
				row(button("👥 فقط گروه‌ها", "broadcast:setTarget:"+string(broadcast.AllGroups))),
				row(button("👤+👥 کاربران و گروه‌ها", "broadcast:setTarget:"+string(broadcast.AllBoth))),
				cancelBroadcastRow,
			))
	case "setTarget":
		state, ok := b.expectState(ctx, adminId, BroadcastMethodSelected)
		if !ok {
			return nil
		}
		target, err := broadcast.ParseTarget(cb.param(0))
		if err != nil {
			return b.invalidSelection(ctx, cb)
		}
		state.Name = BroadcastAwaitingContent
		state.Target = target
		if err := b.states.Set(ctx, adminId, state); err != nil {
			return err
		}
		text := fmt.Sprintf("✅ *مرحله ۳: ارسال محتوا*\n\nشما در حال ارسال پیام به صورت *%s* به *%s* هستید.\n\n"+
			"اکنون، لطفا پیامی که می‌خواهید ارسال شود را بفرستید (متن، عکس، ویدیو، فایل و...).",
			state.Method.Label(), target.Description())
		return b.messenger.EditMessage(ctx, cb.chatId, cb.message, text, keyboard(cancelBroadcastRow))
	case "confirm_send":
		state, ok := b.expectState(ctx, adminId, BroadcastAwaitingConfirmation)
		if !ok {
			return nil
		}
		if err := b.states.Clear(ctx, adminId); err != nil {
			log.Errorf("Failed to clear state: %v", err)
		}
		if err := b.messenger.EditMessage(ctx, cb.chatId, cb.message, "✅ تایید شد! فرایند ارسال در پس‌زمینه آغاز می‌شود...", nil); err != nil {
			log.Warnf("Failed to confirm broadcast: %v", err)
		}
		req := broadcast.Request{
			AdminId:          adminId,
			Method:           state.Method,
			Target:           state.Target,
			ContentChatId:    state.ContentChatId,
			ContentMessageId: state.ContentMessageId,
		}
		b.Go("broadcast", func() {
			if _, err := b.broadcasts.Execute(context.WithoutCancel(ctx), req); err != nil {
				log.Errorf("Broadcast failed: %v", err)
			}
		})
		return nil
	}
	return nil
}

// expectState loads the admin's state and reports whether it is at step name. A stale button
// press is ignored.
func (b *Bot) expectState(ctx context.Context, userId int64, name StateName) (State, bool) {
	state, found, err := b.states.Get(ctx, userId)
	if err != nil {
		log.Errorf("Failed to load state: %v", err)
		return State{}, false
	}
	if !found || state.Name != name {
		log.Debugf("Ignoring broadcast step, user %d is not at %s", userId, name)
		return State{}, false
	}
	return state, true
}

func (b *Bot) handleBroadcastContent(ctx context.Context, message *tgbotapi.Message, state State) error {
	state.Name = BroadcastAwaitingConfirmation
	state.ContentMessageId = message.MessageID
	state.ContentChatId = message.Chat.ID
	if err := b.states.Set(ctx, message.From.ID, state); err != nil {
		return err
	}

	text := fmt.Sprintf("🔍 *پیش‌نمایش و تایید نهایی*\n\nشما در حال ارسال پیام بالا به صورت *%s* به *%s* هستید.\n\n*آیا برای ارسال نهایی تایید می‌کنید؟*",
		state.Method.Label(), state.Target.Description())
	return b.send(ctx, message.From.ID, text, keyboard(
		row(button("✅ تایید و ارسال", "broadcast:confirm_send")),
		cancelBroadcastRow,
	))
}
