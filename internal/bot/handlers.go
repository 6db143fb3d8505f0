package bot

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/gratefultolord/qabul_bot/internal/ratelimit"
	"github.com/gratefultolord/qabul_bot/internal/registration"
)

const (
	StartButton  = "Ro'yxatdan o'tish"
	CancelButton = "Bekor qilish"

	MessageUnknownCommand = "Ro'yxatdan o'tish uchun /start, bekor qilish uchun /cancel buyrug'ini yuboring."
)

type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Notifier interface {
	NotifyRegistration(rec registration.Record, from *tgbotapi.User)
}

type Options struct {
	Notifier      Notifier
	Limiter       *ratelimit.ChatLimiter
	SinkTimeout   time.Duration
	OnRateLimited func()
}

type BotService struct {
	botAPI        *tgbotapi.BotAPI
	sender        Sender
	machine       *registration.Machine
	notifier      Notifier
	limiter       *ratelimit.ChatLimiter
	sinkTimeout   time.Duration
	onRateLimited func()
}

func New(botAPI *tgbotapi.BotAPI, machine *registration.Machine, opts Options) *BotService {
	b := newService(botAPI, machine, opts)
	b.botAPI = botAPI
	return b
}

func newService(sender Sender, machine *registration.Machine, opts Options) *BotService {
	onRateLimited := opts.OnRateLimited
	if onRateLimited == nil {
		onRateLimited = func() {}
	}

	return &BotService{
		sender:        sender,
		machine:       machine,
		notifier:      opts.Notifier,
		limiter:       opts.Limiter,
		sinkTimeout:   opts.SinkTimeout,
		onRateLimited: onRateLimited,
	}
}

// Start long-polls Telegram until ctx is cancelled. Updates are handled one at a time,
// which keeps messages from the same chat in order.
func (b *BotService) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.botAPI.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.botAPI.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

func (b *BotService) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.Chat == nil {
		return
	}

	message := update.Message
	chatID := message.Chat.ID

	if !b.limiter.Allow(chatID, time.Now()) {
		log.Printf("HandleUpdate: chat %d is rate limited", chatID)
		b.onRateLimited()
		return
	}

	text := NormalizeText(message.Text)

	switch {
	case message.IsCommand() && message.Command() == "start", text == NormalizeText(StartButton):
		b.handleStart(ctx, chatID)
	case message.IsCommand() && message.Command() == "cancel", text == NormalizeText(CancelButton):
		b.handleCancel(ctx, chatID)
	case message.IsCommand():
		b.send(chatID, registration.Reply{Text: MessageUnknownCommand})
	default:
		b.handleMessage(ctx, chatID, message)
	}
}

func (b *BotService) handleStart(ctx context.Context, chatID int64) {
	log.Printf("handleStart for chatID %d", chatID)

	reply, err := b.machine.Start(ctx, sessionID(chatID))
	if err != nil {
		log.Printf("handleStart: chat %d: %v", chatID, err)
	}
	b.send(chatID, reply)
}

func (b *BotService) handleCancel(ctx context.Context, chatID int64) {
	reply, _ := b.machine.Cancel(ctx, sessionID(chatID))
	b.send(chatID, reply)
}

func (b *BotService) handleMessage(ctx context.Context, chatID int64, message *tgbotapi.Message) {
	in := registration.Input{Text: message.Text}
	if message.From != nil {
		in.SenderID = message.From.ID
	}
	if message.Contact != nil {
		in.Contact = &registration.Contact{
			PhoneNumber: message.Contact.PhoneNumber,
			FirstName:   message.Contact.FirstName,
			LastName:    message.Contact.LastName,
			UserID:      message.Contact.UserID,
		}
	}

	if b.sinkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.sinkTimeout)
		defer cancel()
	}

	reply, err := b.machine.Advance(ctx, sessionID(chatID), in)
	switch {
	case err == nil:
	case errors.Is(err, registration.ErrValidation), errors.Is(err, registration.ErrNoActiveSession):
	default:
		log.Printf("handleMessage: chat %d: %v", chatID, err)
	}

	b.send(chatID, reply)

	if reply.Record != nil {
		log.Printf("handleMessage: chat %d registered, phone %s", chatID, MaskPhone(reply.Record.Phone))
		if b.notifier != nil {
			b.notifier.NotifyRegistration(*reply.Record, message.From)
		}
	}
}

func (b *BotService) send(chatID int64, reply registration.Reply) {
	if reply.Text == "" {
		return
	}

	msg := tgbotapi.NewMessage(chatID, reply.Text)
	msg.ReplyMarkup = Keyboard(reply)

	if _, err := b.sender.Send(msg); err != nil {
		log.Printf("send: chat %d: %v", chatID, err)
	}
}

func sessionID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
