// Package bot implements the Telegram admin console of the website.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"website/internal/config"
	"website/internal/page"
	"website/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Importer runs the news import once.
type Importer interface {
	Import(ctx context.Context) (int, error)
}

// Bot is the Telegram bot that lets admins manage pages and news.
type Bot struct {
	api      telegramAPI
	store    storage.Storage
	reg      *page.Registry
	cfg      *config.Config
	importer Importer
	log      *slog.Logger
	now      func() time.Time
	loc      *time.Location
}

// New creates a Bot with the given Telegram token, storage, page registry
// and config. importer may be nil when no news feed is configured.
func New(token string, store storage.Storage, reg *page.Registry, cfg *config.Config, importer Importer, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:      api,
		store:    store,
		reg:      reg,
		cfg:      cfg,
		importer: importer,
		log:      log,
		now:      time.Now,
		loc:      time.Local,
	}, nil
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if cb := update.CallbackQuery; cb != nil {
		if cb.From == nil || cb.Message == nil || !b.cfg.IsUserAllowed(cb.From.ID) {
			return
		}
		b.handleCallback(ctx, cb)
		return
	}
	msg := update.Message
	if msg == nil || !msg.IsCommand() || msg.From == nil {
		return
	}
	if !b.cfg.IsUserAllowed(msg.From.ID) {
		b.log.Warn("denied command", "user_id", msg.From.ID, "username", msg.From.UserName)
		b.reply(msg.Chat.ID, "Access denied.")
		return
	}
	b.handleCommand(ctx, msg)
}

// SendMessage sends a plain text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	b.send(msg)
}

// sendHTML sends text in HTML parse mode with an optional reply markup.
func (b *Bot) sendHTML(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	msg.DisableWebPagePreview = true
	b.send(msg)
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", msg.ChatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case cmdPages:
		b.handlePages(ctx, chatID)
	case cmdPage:
		b.handlePage(ctx, chatID, args)
	case "add":
		b.handleAdd(ctx, chatID, args)
	case "rename":
		b.handleRename(ctx, chatID, args)
	case "from":
		b.handleFrom(ctx, chatID, args)
	case "until":
		b.handleUntil(ctx, chatID, args)
	case "parent":
		b.handleParent(ctx, chatID, args)
	case "hide":
		b.handleVisibility(ctx, chatID, args, false)
	case "show":
		b.handleVisibility(ctx, chatID, args, true)
	case "remove":
		b.confirmRemove(ctx, chatID, args)
	case "block":
		b.handleBlock(ctx, chatID, args)
	case "rmblock":
		b.handleRmBlock(ctx, chatID, args)
	case "snip":
		b.handleSnip(ctx, chatID, args)
	case "snips":
		b.handleSnips(ctx, chatID)
	case "import":
		b.handleImport(ctx, chatID)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
