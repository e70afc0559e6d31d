package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"website/internal/model"
)

const (
	cmdPages = "pages"
	cmdPage  = "page"

	cbDeleteConfirm = "delete_confirm"
	cbDelete        = "delete"
)

// pageListKeyboard offers details and delete buttons for each listed page.
func pageListKeyboard(pages []model.Page) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(pages))
	for _, p := range pages {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("#%d details", p.ID), fmt.Sprintf("%s:%d", cmdPage, p.ID)),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("Delete #%d", p.ID), fmt.Sprintf("%s:%d", cbDeleteConfirm, p.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) confirmRemove(ctx context.Context, chatID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /remove <id>")
		return
	}
	p, ok := b.getPage(ctx, chatID, id)
	if !ok {
		return
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Delete #%d %q and all its content? This cannot be undone.", id, p.Title))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Yes, delete", fmt.Sprintf("%s:%d", cbDelete, id)),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", "noop:0"),
		),
	)
	b.send(msg)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID

	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Send(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	action, idStr, ok := strings.Cut(cb.Data, ":")
	if !ok {
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return
	}

	b.log.Info("callback",
		"action", action,
		"id", id,
		"chat_id", chatID,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	switch action {
	case cmdPage:
		b.handlePage(ctx, chatID, idStr)
	case cbDeleteConfirm:
		b.confirmRemove(ctx, chatID, idStr)
	case cbDelete:
		b.handleRemove(ctx, chatID, idStr)
	}
}
