package bot

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/weekstatus/weekstatus/pkg/jalali"
	"github.com/weekstatus/weekstatus/pkg/schedule"
	"github.com/weekstatus/weekstatus/pkg/telegram"
	"github.com/weekstatus/weekstatus/pkg/week_parity"
)

const lessonFormatHelp = "اطلاعات درس را در یک پیام با فرمت زیر ارسال کنید:\n" +
	"`نام درس - ساعت شروع - ساعت پایان - محل برگزاری`\n\n" +
	"*مثال:*\n`ریاضی مهندسی - 08:00 - 10:00 - کلاس ۱۰۱`"

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escape protects user-provided text inside Markdown messages.
func escape(s string) string {
	return markdownEscaper.Replace(s)
}

func button(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func row(buttons ...tgbotapi.InlineKeyboardButton) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(buttons...)
}

func keyboard(rows ...[]tgbotapi.InlineKeyboardButton) telegram.Keyboard {
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

func parityEmoji(p week_parity.Parity) string {
	if p == week_parity.Even {
		return "🟢"
	}
	return "🟣"
}

func mainMenu(withAdmin bool) telegram.Keyboard {
	rows := [][]tgbotapi.InlineKeyboardButton{
		row(button("🔄 وضعیت هفته و برنامه امروز", "menu:week_status")),
		row(button("📅 مشاهده برنامه کامل", "schedule:view:full")),
		row(button("⚙️ تنظیم/ویرایش برنامه", "menu:schedule")),
		row(button("📤 دریافت PDF برنامه", "pdf:export")),
	}
	if withAdmin {
		rows = append(rows, row(button("👑 پنل مدیریت", "admin:panel")))
	} else {
		rows = append(rows, row(button("ℹ️ راهنما", "menu:help")))
	}
	return keyboard(rows...)
}

// persianDateLine renders e.g. "📅 امروز شنبه 20 بهمن سال 1403 است".
func persianDateLine(now time.Time) string {
	d := jalali.FromGregorian(now)
	return fmt.Sprintf("📅 امروز %s %d %s سال %d است", schedule.WeekdayLabel(now), d.Day, jalali.MonthName(d.Month), d.Year)
}

func weekStatusHeader(now time.Time, current week_parity.Parity) string {
	next := current.Opposite()
	var b strings.Builder
	b.WriteString(persianDateLine(now))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s هفته فعلی: *%s*\n", parityEmoji(current), current.Label())
	fmt.Fprintf(&b, "%s هفته بعدی: *%s*\n\n", parityEmoji(next), next.Label())
	return b.String()
}

func todayLessons(now time.Time, current week_parity.Parity, lessons []schedule.Lesson) string {
	label := schedule.WeekdayLabel(now)
	if _, teaching := schedule.DayOf(now); !teaching {
		return fmt.Sprintf("🥳 امروز %s است! آخر هفته خوبی داشته باشید.", label)
	}
	if len(lessons) == 0 {
		return fmt.Sprintf("🗓️ شما برای امروز (%s) در هفته *%s* برنامه‌ای ندارید.", label, current.Label())
	}
	var b strings.Builder
	fmt.Fprintf(&b, "*برنامه امروز (%s):*\n", label)
	for _, l := range lessons {
		fmt.Fprintf(&b, "• *%s* (%s - %s) در *%s*\n", escape(l.Name), l.StartTime, l.EndTime, escape(l.Location))
	}
	return b.String()
}

func formatWeek(parity week_parity.Parity, week schedule.Week) (string, bool) {
	var b strings.Builder
	fmt.Fprintf(&b, "*--- هفته %s %s ---*\n", parity.Label(), parityEmoji(parity))
	hasContent := false
	for _, day := range schedule.Days {
		lessons := week[day]
		if len(lessons) == 0 {
			continue
		}
		hasContent = true
		total := 0
		fmt.Fprintf(&b, "\n*%s:*\n", day.Label())
		for _, l := range lessons {
			total += l.Minutes()
			fmt.Fprintf(&b, " • *%s* (%s-%s) در *%s*\n", escape(l.Name), l.StartTime, l.EndTime, escape(l.Location))
		}
		fmt.Fprintf(&b, " ⏱️ مجموع: %s\n", schedule.FormatDuration(total))
	}
	if !hasContent {
		b.WriteString("_برنامه‌ای برای این هفته تنظیم نشده است._\n")
	}
	return b.String() + "\n", hasContent
}

func formatSchedule(s schedule.UserSchedule) string {
	odd, hasOdd := formatWeek(week_parity.Odd, s.Odd)
	even, hasEven := formatWeek(week_parity.Even, s.Even)
	if !hasOdd && !hasEven {
		return "شما هنوز هیچ برنامه‌ای تنظیم نکرده‌اید."
	}
	return "*برنامه کامل هفتگی شما* 📅\n\n" + odd + even
}

func weekButtons(prefix string) []tgbotapi.InlineKeyboardButton {
	return row(
		button("هفته فرد 🟣", prefix+":"+string(week_parity.Odd)),
		button("هفته زوج 🟢", prefix+":"+string(week_parity.Even)),
	)
}

// dayRows lays the five teaching days out as 3+2 buttons.
func dayRows(prefix string) [][]tgbotapi.InlineKeyboardButton {
	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(schedule.Days))
	for _, day := range schedule.Days {
		buttons = append(buttons, button(day.Label(), prefix+":"+string(day)))
	}
	return [][]tgbotapi.InlineKeyboardButton{row(buttons[:3]...), row(buttons[3:]...)}
}
