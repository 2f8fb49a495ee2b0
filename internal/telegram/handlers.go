package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/suspectuso/otc-escrow/internal/dispatch"
	"github.com/suspectuso/otc-escrow/internal/i18n"
)

// Handler turns an inbound event into the results to deliver
type Handler interface {
	Handle(ctx context.Context, ev dispatch.Event) []dispatch.Result
}

// Scheduler removes delivered messages after a delay
type Scheduler interface {
	DeleteAfter(chatID int64, messageID int, d time.Duration)
}

// Bot wraps the telegram bot: it converts updates into dispatch events and
// renders the results back into messages
type Bot struct {
	bot       *bot.Bot
	handler   Handler
	scheduler Scheduler
	log       *slog.Logger
}

// New creates the bot. Updates are ignored until Attach is called. The
// webhook secret is checked by the HTTP server in front of WebhookHandler.
func New(token string, log *slog.Logger) (*Bot, error) {
	b := &Bot{log: log}

	opts := []bot.Option{
		bot.WithDefaultHandler(b.defaultHandler),
		bot.WithCallbackQueryDataHandler("", bot.MatchTypePrefix, b.callbackHandler),
	}

	tgBot, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	b.bot = tgBot

	return b, nil
}

// Attach wires the event handler and the temp message scheduler
func (b *Bot) Attach(h Handler, s Scheduler) {
	b.handler = h
	b.scheduler = s
}

// Start runs long polling until ctx is cancelled
func (b *Bot) Start(ctx context.Context) {
	if _, err := b.bot.DeleteWebhook(ctx, &bot.DeleteWebhookParams{}); err != nil {
		b.log.Warn("delete webhook before polling", "error", err)
	}
	b.bot.Start(ctx)
}

// StartWebhook registers url with Telegram and processes updates delivered
// through WebhookHandler until ctx is cancelled
func (b *Bot) StartWebhook(ctx context.Context, url, secret string) error {
	_, err := b.bot.SetWebhook(ctx, &bot.SetWebhookParams{
		URL:         url,
		SecretToken: secret,
	})
	if err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}

	b.log.Info("webhook registered", "url", url)
	b.bot.StartWebhook(ctx)
	return nil
}

// WebhookHandler returns the HTTP handler that accepts webhook updates
func (b *Bot) WebhookHandler() http.Handler {
	return b.bot.WebhookHandler()
}

// --- Handlers ---

func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.Text == "" {
		return
	}

	ev := messageEvent(update.Message)
	b.dispatch(ctx, ev, nil)
}

func (b *Bot) callbackHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	if cb == nil {
		return
	}

	// answer right away to stop the loading spinner
	if _, err := tgBot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cb.ID,
	}); err != nil {
		b.log.Debug("answer callback", "error", err)
	}

	b.dispatch(ctx, callbackEvent(cb), cb.Message.Message)
}

func (b *Bot) dispatch(ctx context.Context, ev dispatch.Event, pressed *models.Message) {
	if b.handler == nil {
		return
	}

	for _, r := range b.handler.Handle(ctx, ev) {
		chatID := r.ChatID
		if chatID == 0 {
			chatID = ev.ChatID
		}

		text := i18n.T(r.Lang, r.Key, r.Vars)
		keyboard := renderKeyboard(r.Lang, r.Keyboard)

		if r.Kind == dispatch.Edit && pressed != nil && pressed.Chat.ID == chatID {
			if b.editMessage(ctx, pressed, text, keyboard) {
				continue
			}
		}

		msgID, err := b.sendMessage(ctx, chatID, text, keyboard)
		if err != nil {
			b.log.Error("send message", "chat_id", chatID, "key", r.Key, "error", err)
			continue
		}
		if r.TTL > 0 && b.scheduler != nil {
			b.scheduler.DeleteAfter(chatID, msgID, r.TTL)
		}
	}
}

// --- Helpers ---

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) (int, error) {
	disablePreview := true
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
		LinkPreviewOptions: &models.LinkPreviewOptions{
			IsDisabled: &disablePreview,
		},
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	msg, err := b.bot.SendMessage(ctx, params)
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

// editMessage reports whether the message was replaced in place
func (b *Bot) editMessage(ctx context.Context, msg *models.Message, text string, keyboard *models.InlineKeyboardMarkup) bool {
	params := &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.bot.EditMessageText(ctx, params)
	if err != nil {
		if strings.Contains(err.Error(), "message is not modified") {
			return true
		}
		b.log.Debug("edit message, sending instead", "error", err)
		return false
	}
	return true
}

// Send delivers a notification and returns its message ID
func (b *Bot) Send(ctx context.Context, chatID int64, text string) (int, error) {
	return b.sendMessage(ctx, chatID, text, nil)
}

// Delete removes a message
func (b *Bot) Delete(ctx context.Context, chatID int64, messageID int) error {
	_, err := b.bot.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	})
	return err
}
