package chat

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	maxFieldLength  = 255
	defaultUserName = "کاربر تلگرام"
)

// Kind selects which registry a broadcast reads its recipients from.
type Kind string

const (
	Users  Kind = "users"
	Groups Kind = "groups"
)

type User struct {
	UserId     int64
	ChatId     int64
	FullName   string
	Username   string
	LastSeenAt time.Time
}

type Group struct {
	GroupId    int64
	Name       string
	LastSeenAt time.Time
}

type Stats struct {
	Users  int
	Groups int
}

func IsGroupChat(c *tgbotapi.Chat) bool {
	return c != nil && (c.Type == "group" || c.Type == "supergroup")
}

func FullName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return defaultUserName
	}
	return name
}

func userFromTelegram(u *tgbotapi.User, c *tgbotapi.Chat, seenAt time.Time) User {
	return User{
		UserId:     u.ID,
		ChatId:     c.ID,
		FullName:   truncate(FullName(u), maxFieldLength),
		Username:   truncate(u.UserName, maxFieldLength),
		LastSeenAt: seenAt,
	}
}

func groupFromTelegram(c *tgbotapi.Chat, seenAt time.Time) Group {
	name := c.Title
	if name == "" {
		name = fmt.Sprintf("گروه %d", c.ID)
	}
	return Group{GroupId: c.ID, Name: truncate(name, maxFieldLength), LastSeenAt: seenAt}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
