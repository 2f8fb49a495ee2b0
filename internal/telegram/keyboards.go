package telegram

import (
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/suspectuso/otc-escrow/internal/dispatch"
	"github.com/suspectuso/otc-escrow/internal/i18n"
)

// renderKeyboard localises a dispatch keyboard into inline markup
func renderKeyboard(lang string, kb dispatch.Keyboard) *models.InlineKeyboardMarkup {
	if len(kb) == 0 {
		return nil
	}

	rows := make([][]models.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]models.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := btn.Label
			if btn.Key != "" {
				label = i18n.T(lang, btn.Key, nil)
			}

			b := models.InlineKeyboardButton{Text: label}
			if btn.URL != "" {
				b.URL = btn.URL
			} else {
				b.CallbackData = btn.Callback
			}
			buttons = append(buttons, b)
		}
		rows = append(rows, buttons)
	}

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// messageEvent converts a text message into a command or a free text event
func messageEvent(msg *models.Message) dispatch.Event {
	ev := dispatch.Event{
		Kind:      dispatch.KindText,
		CallerID:  msg.From.ID,
		ChatID:    msg.Chat.ID,
		ChatType:  string(msg.Chat.Type),
		ChatTitle: msg.Chat.Title,
		Username:  msg.From.Username,
		FirstName: msg.From.FirstName,
		LastName:  msg.From.LastName,
		Text:      strings.TrimSpace(msg.Text),
	}

	if name, args, ok := parseCommand(ev.Text); ok {
		ev.Kind = dispatch.KindCommand
		ev.Name = name
		ev.Args = args
		ev.Text = ""
	}
	return ev
}

// callbackEvent converts an inline button press
func callbackEvent(cb *models.CallbackQuery) dispatch.Event {
	ev := dispatch.Event{
		Kind:      dispatch.KindButton,
		CallerID:  cb.From.ID,
		ChatID:    cb.From.ID,
		Username:  cb.From.Username,
		FirstName: cb.From.FirstName,
		LastName:  cb.From.LastName,
		Name:      cb.Data,
	}

	if msg := cb.Message.Message; msg != nil {
		ev.ChatID = msg.Chat.ID
		ev.ChatType = string(msg.Chat.Type)
		ev.ChatTitle = msg.Chat.Title
	}
	return ev
}

// parseCommand splits "/name@bot arg1 arg2" into its name and arguments
func parseCommand(text string) (string, []string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}

	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return "", nil, false
	}

	name, _, _ := strings.Cut(fields[0], "@")
	if name == "" {
		return "", nil, false
	}
	return strings.ToLower(name), fields[1:], true
}
