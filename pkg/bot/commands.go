package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
	"github.com/weekstatus/weekstatus/pkg/export"
	"github.com/weekstatus/weekstatus/pkg/schedule"
	"github.com/weekstatus/weekstatus/pkg/week_parity"
)

const genericError = "⚠️ خطایی رخ داد. لطفاً دوباره تلاش کنید."

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	user := message.From
	if user == nil || user.IsBot || message.Chat == nil {
		return nil
	}
	b.register(ctx, user, message.Chat)

	state, found, err := b.states.Get(ctx, user.ID)
	if err != nil {
		log.Errorf("Failed to load state: %v", err)
	}
	if found {
		switch {
		case state.Name == BroadcastAwaitingContent && b.isAdmin(user.ID):
			return b.handleBroadcastContent(ctx, message, state)
		case state.Name == AwaitingLessonDetails:
			return b.handleLessonDetails(ctx, message, state)
		}
	}

	text := strings.TrimSpace(message.Text)
	if !strings.HasPrefix(text, "/") {
		return nil
	}
	command, addressee := parseCommand(text)
	private := message.Chat.IsPrivate()
	if !private && addressee != "" && addressee != strings.ToLower(b.messenger.BotInfo(ctx).Username) {
		log.Debugf("Ignoring %s addressed to @%s", command, addressee)
		return nil
	}

	switch command {
	case "/start":
		return b.startCommand(ctx, message)
	case "/help":
		return b.helpCommand(ctx, message, 0, "/help")
	case "/week":
		return b.weekCommand(ctx, message, 0, "/week")
	case "/schedule":
		return b.scheduleCommand(ctx, message, 0, "/schedule")
	case "/pdf", "/export":
		if !private {
			return nil
		}
		b.logUsage(ctx, user, message.Chat, command)
		format := export.Pdf
		if command == "/export" {
			format = export.Csv
		}
		return b.sendExport(ctx, user, message.Chat.ID, format)
	case "/admin":
		return b.adminCommand(ctx, user, message.Chat, 0, "/admin")
	}
	if private {
		return b.send(ctx, message.Chat.ID, fmt.Sprintf("❓ دستور `%s` را متوجه نشدم.", escape(command)), nil)
	}
	return nil
}

func (b *Bot) handleLessonDetails(ctx context.Context, message *tgbotapi.Message, state State) error {
	userId := message.From.ID
	if err := b.states.Clear(ctx, userId); err != nil {
		log.Errorf("Failed to clear state: %v", err)
	}

	lesson, err := schedule.ParseLessonDetails(message.Text)
	if err != nil {
		log.Debugf("Invalid lesson details from user %d: %v", userId, err)
		return b.send(ctx, message.Chat.ID, "⚠️ فرمت وارد شده نامعتبر است.\n\n"+lessonFormatHelp,
			keyboard(row(button("➕ تلاش دوباره", fmt.Sprintf("schedule:set:ask_details:%s:%s", state.WeekType, state.Day)))))
	}
	if err := b.schedules.AddLesson(ctx, userId, state.WeekType, state.Day, lesson); err != nil {
		if errors.Is(err, schedule.ErrInvalidDay) {
			return b.send(ctx, message.Chat.ID, "⚠️ روز انتخاب شده نامعتبر است.", nil)
		}
		log.Errorf("Failed to save lesson for user %d: %v", userId, err)
		return b.send(ctx, message.Chat.ID, "⚠️ خطا در ذخیره درس.", nil)
	}
	text := fmt.Sprintf("✅ درس *%s* با موفقیت به %s (هفته %s) اضافه شد!", escape(lesson.Name), state.Day.Label(), state.WeekType.Label())
	return b.send(ctx, message.Chat.ID, text, keyboard(
		row(button("➕ افزودن درس دیگر", fmt.Sprintf("schedule:set:ask_details:%s:%s", state.WeekType, state.Day))),
		row(button("📅 مشاهده برنامه کامل", "schedule:view:full")),
	))
}

func (b *Bot) startCommand(ctx context.Context, message *tgbotapi.Message) error {
	b.logUsage(ctx, message.From, message.Chat, "/start")
	if message.Chat.IsPrivate() {
		text := fmt.Sprintf("سلام %s! 👋\n\nبه ربات مدیریت برنامه هفتگی خوش آمدید.\n\n👇 از دکمه‌های زیر برای شروع استفاده کنید:", escape(message.From.FirstName))
		return b.send(ctx, message.Chat.ID, text, mainMenu(false))
	}
	username := escape(b.messenger.BotInfo(ctx).Username)
	text := fmt.Sprintf("سلام! 👋 من ربات وضعیت هفته هستم.\nبرای دیدن وضعیت از /week استفاده کنید. برای مدیریت برنامه شخصی، لطفاً در چت خصوصی با من (@%s) صحبت کنید.", username)
	return b.send(ctx, message.Chat.ID, text, nil)
}

// helpCommand edits editId when triggered from a button, otherwise sends a new message.
func (b *Bot) helpCommand(ctx context.Context, message *tgbotapi.Message, editId int, usage string) error {
	b.logUsage(ctx, message.From, message.Chat, usage)
	admin := b.isAdmin(message.From.ID) && message.Chat.IsPrivate()

	var text strings.Builder
	text.WriteString("*راهنمای ربات برنامه هفتگی* 🔰\n\n")
	text.WriteString("*/week*: نمایش زوج/فرد بودن هفته و برنامه امروز شما.\n")
	text.WriteString("*/schedule*: مدیریت کامل برنامه هفتگی (افزودن، حذف، مشاهده).\n")
	text.WriteString("*/pdf*: دریافت فایل PDF برنامه شما.\n")
	text.WriteString("*/export*: دریافت برنامه به صورت فایل CSV.\n")
	text.WriteString("*/help*: نمایش همین راهنما.")
	if admin {
		text.WriteString("\n\n*دستورات ادمین:*\n*/admin*: نمایش پنل مدیریت و آمار.")
	}
	return b.reply(ctx, message.Chat.ID, editId, text.String(), mainMenu(admin))
}

func (b *Bot) weekCommand(ctx context.Context, message *tgbotapi.Message, editId int, usage string) error {
	b.logUsage(ctx, message.From, message.Chat, usage)

	now := b.clock.Now()
	current := week_parity.CurrentParity(now, b.reference)
	text := weekStatusHeader(now, current)
	markup := keyboard(row(button("🔄 بروزرسانی", "menu:week_status")))

	if message.Chat.IsPrivate() {
		var lessons []schedule.Lesson
		if day, ok := schedule.DayOf(now); ok {
			var err error
			lessons, err = b.schedules.LessonsFor(ctx, message.From.ID, current, day)
			if err != nil {
				log.Errorf("Failed to load lessons of user %d: %v", message.From.ID, err)
				text += "⚠️ خطا در دریافت برنامه امروز."
				return b.reply(ctx, message.Chat.ID, editId, text, markup)
			}
		}
		text += todayLessons(now, current, lessons)
		markup = keyboard(
			row(button("🔄 بروزرسانی", "menu:week_status")),
			row(button("📅 مشاهده کامل", "schedule:view:full"), button("⚙️ تنظیم برنامه", "menu:schedule")),
			row(button("↩️ بازگشت به منو", "menu:help")),
		)
	}
	return b.reply(ctx, message.Chat.ID, editId, text, markup)
}

func (b *Bot) scheduleCommand(ctx context.Context, message *tgbotapi.Message, editId int, usage string) error {
	b.logUsage(ctx, message.From, message.Chat, usage)
	if !message.Chat.IsPrivate() {
		username := escape(b.messenger.BotInfo(ctx).Username)
		return b.send(ctx, message.Chat.ID, fmt.Sprintf("⚠️ مدیریت برنامه فقط در چت خصوصی با من (@%s) امکان‌پذیر است.", username), nil)
	}
	text := "📅 *مدیریت برنامه هفتگی*\n\nاز دکمه‌های زیر برای مدیریت برنامه خود استفاده کنید:"
	return b.reply(ctx, message.Chat.ID, editId, text, keyboard(
		row(button("➕ افزودن درس", "schedule:set:select_week"), button("🗑️ حذف درس", "schedule:delete:main")),
		row(button("📅 مشاهده برنامه کامل", "schedule:view:full")),
		row(button("📤 دریافت PDF برنامه", "pdf:export"), button("📄 دریافت CSV", "export:csv")),
		row(button("↩️ بازگشت به منوی اصلی", "menu:help")),
	))
}

func (b *Bot) adminCommand(ctx context.Context, user *tgbotapi.User, c *tgbotapi.Chat, editId int, usage string) error {
	if !b.isAdmin(user.ID) || !c.IsPrivate() {
		return b.send(ctx, c.ID, "⛔️ این دستور مخصوص ادمین است.", nil)
	}
	b.logUsage(ctx, user, c, usage)

	users, groups := "N/A", "N/A"
	if stats, err := b.chats.Stats(ctx); err != nil {
		log.Errorf("Failed to load chat stats: %v", err)
	} else {
		users, groups = fmt.Sprint(stats.Users), fmt.Sprint(stats.Groups)
	}
	text := fmt.Sprintf("👑 *پنل مدیریت*\n\n👤 کاربران شناخته شده: *%s*\n👥 گروه‌های شناخته شده: *%s*\n\nاز طریق دکمه زیر می‌توانید پیام همگانی ارسال کنید.", users, groups)
	return b.reply(ctx, c.ID, editId, text, keyboard(
		row(button("📢 ارسال پیام همگانی (Broadcast)", "broadcast:menu")),
		row(button("↩️ بازگشت به منوی اصلی", "menu:help")),
	))
}

func (b *Bot) sendExport(ctx context.Context, user *tgbotapi.User, chatId int64, format export.Format) error {
	renderer, ok := b.renderers[format]
	if !ok {
		log.Errorf("No renderer for export format %s", format)
		return b.send(ctx, chatId, genericError, nil)
	}
	s, err := b.schedules.Get(ctx, user.ID)
	if err != nil {
		log.Errorf("Failed to load schedule of user %d for export: %v", user.ID, err)
		return b.send(ctx, chatId, genericError, nil)
	}
	if s.IsEmpty() {
		return b.send(ctx, chatId, "شما هنوز هیچ برنامه‌ای تنظیم نکرده‌اید.", keyboard(row(button("⚙️ تنظیم برنامه", "menu:schedule"))))
	}
	owner := exportOwner(user)
	doc, err := renderer.Render(owner, s)
	if err != nil {
		log.Errorf("Failed to render schedule of user %d: %v", user.ID, err)
		return b.send(ctx, chatId, "⚠️ متاسفانه در تولید فایل خطایی رخ داد. لطفاً دوباره تلاش کنید.", nil)
	}
	caption := "📅 برنامه هفتگی شما - " + escape(owner.FullName)
	return b.messenger.SendDocument(ctx, chatId, doc.FileName, doc.Content, caption,
		keyboard(row(button("↩️ بازگشت به منو", "menu:schedule"))))
}
