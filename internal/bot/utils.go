package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/gratefultolord/qabul_bot/internal/registration"
)

func NormalizeText(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ToLower(text)

	return text
}

// Keyboard renders the reply's input hint: a contact button, a one-time choice keyboard,
// or removal of any previous keyboard.
func Keyboard(reply registration.Reply) interface{} {
	if reply.RequestContact {
		keyboard := tgbotapi.NewOneTimeReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButtonContact(registration.ContactButton),
			),
		)
		keyboard.ResizeKeyboard = true
		return keyboard
	}

	if len(reply.Options) > 0 {
		rows := make([][]tgbotapi.KeyboardButton, 0, len(reply.Options))
		for _, options := range reply.Options {
			row := make([]tgbotapi.KeyboardButton, 0, len(options))
			for _, option := range options {
				row = append(row, tgbotapi.NewKeyboardButton(option))
			}
			rows = append(rows, row)
		}

		keyboard := tgbotapi.NewOneTimeReplyKeyboard(rows...)
		keyboard.ResizeKeyboard = true
		return keyboard
	}

	return tgbotapi.NewRemoveKeyboard(true)
}

// MaskPhone hides all but the last four digits for logging.
func MaskPhone(phone string) string {
	runes := []rune(phone)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}

	return strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-4:])
}
