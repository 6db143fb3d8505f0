package adminbot

import (
	"fmt"
	"html"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/gratefultolord/qabul_bot/internal/registration"
)

type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier forwards every committed registration to the admin chats.
type Notifier struct {
	sender  Sender
	chatIDs []int64
}

// New returns nil when there are no admin chats.
func New(sender Sender, chatIDs []int64) *Notifier {
	if len(chatIDs) == 0 {
		return nil
	}

	return &Notifier{
		sender:  sender,
		chatIDs: chatIDs,
	}
}

func (n *Notifier) NotifyRegistration(rec registration.Record, from *tgbotapi.User) {
	if n == nil {
		return
	}

	text := Summary(rec, from)
	for _, chatID := range n.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := n.sender.Send(msg); err != nil {
			log.Printf("Notifier.NotifyRegistration: cannot notify admin %d: %v", chatID, err)
		}
	}
}

func Summary(rec registration.Record, from *tgbotapi.User) string {
	var b strings.Builder

	b.WriteString("<b>Yangi ariza</b>\n")
	fmt.Fprintf(&b, "F.I.O: %s\n", html.EscapeString(rec.FullName))
	fmt.Fprintf(&b, "Telefon: %s\n", html.EscapeString(rec.Phone))
	fmt.Fprintf(&b, "Viloyat: %s\n", html.EscapeString(rec.Region))
	fmt.Fprintf(&b, "Yo'nalish: %s\n", html.EscapeString(rec.Direction))
	fmt.Fprintf(&b, "Filial: %s\n", html.EscapeString(rec.Branch))
	fmt.Fprintf(&b, "Vaqt: %s", rec.SubmittedAt.Format(registration.TimestampLayout))

	if from != nil {
		if from.UserName != "" {
			fmt.Fprintf(&b, "\nTelegram: @%s (%d)", html.EscapeString(from.UserName), from.ID)
		} else {
			fmt.Fprintf(&b, "\nTelegram: %d", from.ID)
		}
	}

	return b.String()
}
