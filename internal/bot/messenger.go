// Package bot adapts the wizard and scheduler to Telegram.
package bot

import (
	"context"

	"github.com/m3rciful/postbot/core/telegram/helpers"
	"github.com/m3rciful/postbot/core/telegram/keyboard"
	"github.com/m3rciful/postbot/internal/wizard"

	tele "gopkg.in/telebot.v4"
)

// Messenger sends wizard replies through the shared dispatcher.
type Messenger struct {
	api helpers.Sender
}

// NewMessenger wraps api, usually the running *tele.Bot.
func NewMessenger(api helpers.Sender) *Messenger {
	return &Messenger{api: api}
}

// SendText implements wizard.Messenger.
func (m *Messenger) SendText(ctx context.Context, chatID int64, text string, kb wizard.Keyboard) error {
	return helpers.SendTo(ctx, m.api, chatID, text, Markup(kb))
}

// Markup converts a wizard keyboard into an inline markup; nil for an empty keyboard.
func Markup(kb wizard.Keyboard) *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, len(kb))
	for i, row := range kb {
		rows[i] = make([]keyboard.InlineBtn, len(row))
		for j, b := range row {
			rows[i][j] = keyboard.InlineBtn{Text: b.Label, Data: b.Data}
		}
	}
	return keyboard.InlineButtonsRows(rows...)
}
