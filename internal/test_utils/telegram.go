package test_utils

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const AdminId int64 = 1000

func TelegramUser(id int64, firstName, username string) *tgbotapi.User {
	return &tgbotapi.User{ID: id, FirstName: firstName, UserName: username}
}

func PrivateChat(id int64) *tgbotapi.Chat {
	return &tgbotapi.Chat{ID: id, Type: "private"}
}

func GroupChat(id int64, title string) *tgbotapi.Chat {
	return &tgbotapi.Chat{ID: id, Type: "supergroup", Title: title}
}

// TextMessage builds an incoming message as Telegram delivers it over the webhook.
func TextMessage(messageId int, from *tgbotapi.User, chat *tgbotapi.Chat, text string) *tgbotapi.Message {
	return &tgbotapi.Message{MessageID: messageId, From: from, Chat: chat, Text: text}
}

func CallbackQuery(id string, from *tgbotapi.User, message *tgbotapi.Message, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{ID: id, From: from, Message: message, Data: data}
}
