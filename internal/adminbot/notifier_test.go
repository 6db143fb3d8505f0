package adminbot

import (
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/gratefultolord/qabul_bot/internal/registration"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		s.sent = append(s.sent, msg)
	}
	return tgbotapi.Message{}, s.err
}

var testRecord = registration.Record{
	FullName:    "Aziz <Aliyev>",
	Phone:       "+998901234567",
	Region:      "Toshkent shahar",
	Direction:   "Pediatriya",
	Branch:      "Andijon",
	SubmittedAt: time.Date(2025, 7, 1, 14, 30, 0, 0, time.UTC),
}

func TestNotifierSendsToEveryAdmin(t *testing.T) {
	sender := &fakeSender{}
	n := New(sender, []int64{10, 20})

	n.NotifyRegistration(testRecord, &tgbotapi.User{ID: 5, UserName: "aziz"})

	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(sender.sent))
	}
	if sender.sent[0].ChatID != 10 || sender.sent[1].ChatID != 20 {
		t.Fatalf("unexpected chats %d, %d", sender.sent[0].ChatID, sender.sent[1].ChatID)
	}
	if sender.sent[0].ParseMode != tgbotapi.ModeHTML {
		t.Fatalf("expected HTML parse mode, got %q", sender.sent[0].ParseMode)
	}
}

func TestNotifierKeepsGoingOnSendError(t *testing.T) {
	sender := &fakeSender{err: errors.New("chat not found")}
	n := New(sender, []int64{10, 20})

	n.NotifyRegistration(testRecord, nil)

	if len(sender.sent) != 2 {
		t.Fatalf("expected both admins attempted, got %d", len(sender.sent))
	}
}

func TestNewWithoutAdminsIsNil(t *testing.T) {
	n := New(&fakeSender{}, nil)
	if n != nil {
		t.Fatal("expected nil notifier")
	}
	n.NotifyRegistration(testRecord, nil)
}

func TestSummary(t *testing.T) {
	text := Summary(testRecord, &tgbotapi.User{ID: 5, UserName: "aziz"})

	for _, want := range []string{
		"F.I.O: Aziz &lt;Aliyev&gt;",
		"Telefon: +998901234567",
		"Viloyat: Toshkent shahar",
		"Yo'nalish: Pediatriya",
		"Filial: Andijon",
		"Vaqt: 2025-07-01 14:30:00",
		"Telegram: @aziz (5)",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("summary missing %q:\n%s", want, text)
		}
	}

	if got := Summary(testRecord, &tgbotapi.User{ID: 5}); !strings.HasSuffix(got, "Telegram: 5") {
		t.Fatalf("unexpected summary without username:\n%s", got)
	}
}
