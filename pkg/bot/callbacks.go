package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
	"github.com/weekstatus/weekstatus/pkg/chat"
	"github.com/weekstatus/weekstatus/pkg/export"
	"github.com/weekstatus/weekstatus/pkg/schedule"
	"github.com/weekstatus/weekstatus/pkg/week_parity"
)

// callback is a parsed "main:action:param..." button payload.
type callback struct {
	query   *tgbotapi.CallbackQuery
	main    string
	action  string
	params  []string
	chatId  int64
	message int
}

func (c callback) param(i int) string {
	if i < len(c.params) {
		return c.params[i]
	}
	return ""
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	user := query.From
	if query.Message == nil || query.Message.Chat == nil || user == nil {
		return b.messenger.AnswerCallback(ctx, query.ID, "")
	}
	if query.Message.Chat.IsPrivate() {
		b.register(ctx, user, query.Message.Chat)
	}

	log.Infof("Callback from %s: %s", userLabel(user), query.Data)
	parts := strings.Split(query.Data, ":")
	cb := callback{
		query:   query,
		main:    parts[0],
		chatId:  query.Message.Chat.ID,
		message: query.Message.MessageID,
	}
	if len(parts) > 1 {
		cb.action = parts[1]
		cb.params = parts[2:]
	}
	usage := "callback:" + cb.main
	if cb.action != "" {
		usage += ":" + cb.action
	}

	// the callback message was sent by the bot, so From is taken from the query
	origin := *query.Message
	origin.From = user

	switch cb.main {
	case "menu":
		b.answer(ctx, query, "")
		switch cb.action {
		case "help":
			return b.helpCommand(ctx, &origin, cb.message, usage)
		case "week_status":
			return b.weekCommand(ctx, &origin, cb.message, usage)
		case "schedule":
			return b.scheduleCommand(ctx, &origin, cb.message, usage)
		}
		return nil
	case "schedule":
		b.logUsage(ctx, user, query.Message.Chat, usage)
		err := b.handleScheduleCallback(ctx, cb)
		b.answer(ctx, query, "")
		return err
	case "export", "pdf":
		b.logUsage(ctx, user, query.Message.Chat, usage)
		b.answer(ctx, query, "⏳ در حال آماده‌سازی فایل...")
		format := export.Pdf
		if cb.main == "export" {
			format = export.ParseFormat(cb.action)
		}
		return b.sendExport(ctx, user, cb.chatId, format)
	case "admin":
		b.answer(ctx, query, "")
		if cb.action == "panel" {
			return b.adminCommand(ctx, user, query.Message.Chat, cb.message, usage)
		}
		return nil
	case "broadcast":
		if !b.isAdmin(user.ID) {
			b.answer(ctx, query, "⛔️ این بخش مخصوص ادمین است.")
			return nil
		}
		b.logUsage(ctx, user, query.Message.Chat, usage)
		b.answer(ctx, query, "")
		return b.handleBroadcastCallback(ctx, cb)
	case "cancel_action":
		b.answer(ctx, query, "")
		if err := b.states.Clear(ctx, user.ID); err != nil {
			log.Errorf("Failed to clear state: %v", err)
		}
		return b.messenger.EditMessage(ctx, cb.chatId, cb.message, "عملیات لغو شد.", nil)
	}
	log.Warnf("Unhandled callback query: %s", query.Data)
	b.answer(ctx, query, "")
	return nil
}

func (b *Bot) answer(ctx context.Context, query *tgbotapi.CallbackQuery, text string) {
	if err := b.messenger.AnswerCallback(ctx, query.ID, text); err != nil {
		log.Warnf("Failed to answer callback: %v", err)
	}
}

func (b *Bot) handleScheduleCallback(ctx context.Context, cb callback) error {
	userId := cb.query.From.ID
	switch cb.action {
	case "view":
		s, err := b.schedules.Get(ctx, userId)
		if err != nil {
			log.Errorf("Failed to load schedule of user %d: %v", userId, err)
			return b.messenger.EditMessage(ctx, cb.chatId, cb.message, genericError, nil)
		}
		return b.messenger.EditMessage(ctx, cb.chatId, cb.message, formatSchedule(s),
			keyboard(row(button("↩️ بازگشت", "menu:schedule"))))
	case "set":
		return b.handleSetCallback(ctx, cb)
	case "delete":
		return b.handleDeleteCallback(ctx, cb)
	}
	return nil
}

func (b *Bot) handleSetCallback(ctx context.Context, cb callback) error {
	switch cb.param(0) {
	case "select_week":
		return b.messenger.EditMessage(ctx, cb.chatId, cb.message, "برنامه کدام هفته را می‌خواهید تنظیم کنید؟", keyboard(
			weekButtons("schedule:set:select_day"),
			row(button("↩️ بازگشت", "menu:schedule")),
		))
	case "select_day":
		parity, err := week_parity.ParseParity(cb.param(1))
		if err != nil {
			return b.invalidSelection(ctx, cb)
		}
		rows := dayRows("schedule:set:ask_details:" + string(parity))
		rows = append(rows, row(button("↩️ بازگشت", "schedule:set:select_week")))
		return b.messenger.EditMessage(ctx, cb.chatId, cb.message, fmt.Sprintf("کدام روز از هفته *%s*؟", parity.Label()), keyboard(rows...))
	case "ask_details":
		parity, day, err := parseWeekAndDay(cb.param(1), cb.param(2))
		if err != nil {
			return b.invalidSelection(ctx, cb)
		}
		if err := b.states.Set(ctx, cb.query.From.ID, State{Name: AwaitingLessonDetails, WeekType: parity, Day: day}); err != nil {
			log.Errorf("Failed to store state: %v", err)
			return b.messenger.EditMessage(ctx, cb.chatId, cb.message, genericError, nil)
		}
		text := fmt.Sprintf("➕ *افزودن درس به %s (هفته %s)*\n\n%s", day.Label(), parity.Label(), lessonFormatHelp)
		return b.messenger.EditMessage(ctx, cb.chatId, cb.message, text, keyboard(row(button("❌ لغو", "cancel_action"))))
	}
	return nil
}

func (b *Bot) handleDeleteCallback(ctx context.Context, cb callback) error {
	userId := cb.query.From.ID
	switch cb.param(0) {
	case "main":
		return b.messenger.EditMessage(ctx, cb.chatId, cb.message, "کدام بخش از برنامه را می‌خواهید حذف کنید؟", keyboard(
			row(button("🗑️ حذف یک درس خاص", "schedule:delete:select_week:lesson")),
			row(button("🗑️ حذف کل یک روز", "schedule:delete:select_week:day")),
			row(button("🗑️ حذف کل یک هفته", "schedule:delete:select_week:week")),
			row(button("↩️ بازگشت", "menu:schedule")),
		))
	case "select_week":
		scope := cb.param(1)
		var label, prefix string
		switch scope {
		case "lesson":
			label, prefix = "درس", "schedule:delete:select_day:lesson"
		case "day":
			label, prefix = "روز", "schedule:delete:select_day:day"
		case "week":
			label, prefix = "هفته", "schedule:delete:confirm_week"
		default:
			return b.invalidSelection(ctx, cb)
		}
		return b.messenger.EditMessage(ctx, cb.chatId, cb.message, fmt.Sprintf("حذف *%s* از کدام هفته؟", label), keyboard(
			weekButtons(prefix),
			row(button("↩️ بازگشت", "schedule:delete:main")),
		))
	case "select_day":
		scope := cb.param(1)
		parity, err := week_parity.ParseParity(cb.param(2))
		if err != nil || (scope != "lesson" && scope != "day") {
			return b.invalidSelection(ctx, cb)
		}
		target := "schedule:delete:lessons:"
		if scope == "day" {
			target = "schedule:delete:day:"
		}
		rows := dayRows(target + string(parity))
		rows = append(rows, row(button("↩️ بازگشت", "schedule:delete:select_week:"+scope)))
		return b.messenger.EditMessage(ctx, cb.chatId, cb.message, fmt.Sprintf("کدام روز از هفته *%s*؟", parity.Label()), keyboard(rows...))
	case "lessons":
		parity, day, err := parseWeekAndDay(cb.param(1), cb.param(2))
		if err != nil {
			return b.invalidSelection(ctx, cb)
		}
		lessons, err := b.schedules.LessonsFor(ctx, userId, parity, day)
		if err != nil {
			log.Errorf("Failed to load lessons of user %d: %v", userId, err)
			return b.messenger.EditMessage(ctx, cb.chatId, cb.message, genericError, nil)
		}
		back := row(button("↩️ بازگشت", "schedule:delete:select_day:lesson:"+string(parity)))
		if len(lessons) == 0 {
			return b.messenger.EditMessage(ctx, cb.chatId, cb.message,
				fmt.Sprintf("در %s هفته *%s* درسی ثبت نشده است.", day.Label(), parity.Label()), keyboard(back))
		}
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(lessons)+1)
		for i, l := range lessons {
			data := fmt.Sprintf("schedule:delete:lesson:%s:%s:%d", parity, day, i)
			rows = append(rows, row(button(fmt.Sprintf("🗑️ %s (%s-%s)", l.Name, l.StartTime, l.EndTime), data)))
		}
		rows = append(rows, back)
		return b.messenger.EditMessage(ctx, cb.chatId, cb.message,
			fmt.Sprintf("کدام درس از %s (هفته %s) حذف شود؟", day.Label(), parity.Label()), keyboard(rows...))
	case "lesson":
		parity, day, err := parseWeekAndDay(cb.param(1), cb.param(2))
		index, convErr := strconv.Atoi(cb.param(3))
		if err != nil || convErr != nil {
			return b.invalidSelection(ctx, cb)
		}
		deleted, err := b.schedules.DeleteLesson(ctx, userId, parity, day, index)
		if err != nil {
			log.Errorf("Failed to delete lesson of user %d: %v", userId, err)
			return b.messenger.EditMessage(ctx, cb.chatId, cb.message, genericError, nil)
		}
		text := "✅ درس با موفقیت حذف شد."
		if !deleted {
			text = "⚠️ این درس پیدا نشد. ممکن است قبلاً حذف شده باشد."
		}
		return b.messenger.EditMessage(ctx, cb.chatId, cb.message, text, keyboard(
			row(button("↩️ بازگشت", fmt.Sprintf("schedule:delete:lessons:%s:%s", parity, day))),
		))
	case "day":
		parity, day, err := parseWeekAndDay(cb.param(1), cb.param(2))
		if err != nil {
			return b.invalidSelection(ctx, cb)
		}
		deleted, err := b.schedules.DeleteDay(ctx, userId, parity, day)
		if err != nil {
			log.Errorf("Failed to delete day of user %d: %v", userId, err)
			return b.messenger.EditMessage(ctx, cb.chatId, cb.message, genericError, nil)
		}
		text := fmt.Sprintf("✅ برنامه %s هفته *%s* حذف شد.", day.Label(), parity.Label())
		if !deleted {
			text = fmt.Sprintf("در %s هفته *%s* درسی ثبت نشده است.", day.Label(), parity.Label())
		}
		return b.messenger.EditMessage(ctx, cb.chatId, cb.message, text, keyboard(row(button("↩️ بازگشت", "schedule:delete:main"))))
	case "confirm_week":
		parity, err := week_parity.ParseParity(cb.param(1))
		if err != nil {
			return b.invalidSelection(ctx, cb)
		}
		return b.messenger.EditMessage(ctx, cb.chatId, cb.message,
			fmt.Sprintf("❓ آیا از حذف *تمام برنامه* هفته *%s* مطمئن هستید؟", parity.Label()), keyboard(
				row(button("✅ بله، حذف کن", "schedule:delete:execute_week:"+string(parity))),
				row(button("❌ نه، بازگشت", "schedule:delete:main")),
			))
	case "execute_week":
		parity, err := week_parity.ParseParity(cb.param(1))
		if err != nil {
			return b.invalidSelection(ctx, cb)
		}
		if err := b.schedules.DeleteWeek(ctx, userId, parity); err != nil {
			log.Errorf("Failed to delete week of user %d: %v", userId, err)
			return b.messenger.EditMessage(ctx, cb.chatId, cb.message, genericError, nil)
		}
		return b.messenger.EditMessage(ctx, cb.chatId, cb.message,
			fmt.Sprintf("✅ برنامه هفته *%s* با موفقیت حذف شد.", parity.Label()),
			keyboard(row(button("↩️ بازگشت", "schedule:delete:main"))))
	}
	return nil
}

func (b *Bot) invalidSelection(ctx context.Context, cb callback) error {
	log.Warnf("Invalid callback data: %s", cb.query.Data)
	return b.messenger.EditMessage(ctx, cb.chatId, cb.message, "⚠️ انتخاب نامعتبر است.",
		keyboard(row(button("↩️ بازگشت", "menu:schedule"))))
}

func parseWeekAndDay(week, day string) (week_parity.Parity, schedule.DayKey, error) {
	parity, err := week_parity.ParseParity(week)
	if err != nil {
		return "", "", err
	}
	d, err := schedule.ParseDayKey(day)
	if err != nil {
		return "", "", err
	}
	return parity, d, nil
}

func exportOwner(user *tgbotapi.User) export.Owner {
	return export.Owner{UserId: user.ID, FullName: chat.FullName(user), Username: user.UserName}
}
