package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"orderbot/pkg/bus"
	"orderbot/pkg/channel"
	"orderbot/pkg/config"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

const channelName = "telegram"
const messagePreviewLimit = 240

// Adapter turns Telegram group messages into inbound order messages.
//
// Telegram does not expose phone numbers, so the sender phone comes from the
// configured senders map or from a contact the sender shared with the bot.
type Adapter struct {
	cfg       config.TelegramConfig
	allowFrom map[string]struct{}
	log       *slog.Logger

	mu     sync.RWMutex
	phones map[string]string
}

// NewAdapter validates Telegram configuration and constructs an adapter instance.
func NewAdapter(cfg config.TelegramConfig, log *slog.Logger) (*Adapter, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("channels.telegram.token is required")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Adapter{
		cfg:       cfg,
		allowFrom: allowFromSet(cfg.AllowFrom),
		log:       log.With("component", "channel.telegram"),
		phones:    senderPhones(cfg.Senders),
	}, nil
}

// Name returns the channel identifier used in bus metadata and logs.
func (a *Adapter) Name() string {
	return channelName
}

// Run starts Telegram long polling and forwards messages through the shared channel handler.
func (a *Adapter) Run(ctx context.Context, handler channel.Handler) error {
	if handler == nil {
		return errors.New("handler is required")
	}

	bot, err := telego.NewBot(strings.TrimSpace(a.cfg.Token))
	if err != nil {
		return fmt.Errorf("initialize telegram bot: %w", err)
	}

	updates, err := bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("start long polling: %w", err)
	}

	a.log.Info("Telegram channel started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				if err := ctx.Err(); err != nil {
					return nil
				}
				return errors.New("telegram updates channel closed")
			}

			message := update.Message
			if message == nil {
				continue
			}

			inbound, ok := a.inbound(message)
			if !ok {
				continue
			}
			a.log.Info("Received message", "chat_id", inbound.ChatID, "sender_id", inbound.SenderID, "content", previewText(inbound.Content))

			outbound, err := handler(ctx, inbound)
			if err != nil {
				a.log.Error("Failed to process inbound message", "message_id", message.MessageID, "error", err)
			}

			responseText := strings.TrimSpace(outbound.Content)
			if responseText == "" {
				continue
			}
			a.log.Info("Sending message", "chat_id", inbound.ChatID, "content", previewText(responseText))

			reply := tu.Message(tu.ID(message.Chat.ID), responseText).
				WithReplyParameters(&telego.ReplyParameters{MessageID: message.MessageID})
			if _, err := bot.SendMessage(ctx, reply); err != nil {
				a.log.Error("Failed to send telegram message", "error", err)
			}
		}
	}
}

// inbound converts a Telegram message into an inbound order message. Shared
// contacts are remembered as the sender's phone and produce no message.
func (a *Adapter) inbound(message *telego.Message) (bus.InboundMessage, bool) {
	if message.From == nil {
		a.log.Debug("Ignoring message without sender")
		return bus.InboundMessage{}, false
	}

	senderID := strconv.FormatInt(message.From.ID, 10)
	if !a.senderAllowed(senderID) {
		a.log.Debug("Ignoring message from unauthorized sender", "sender_id", senderID)
		return bus.InboundMessage{}, false
	}

	if contact := message.Contact; contact != nil {
		if contact.UserID == message.From.ID {
			a.rememberPhone(senderID, contact.PhoneNumber)
			a.log.Info("Learned sender phone from shared contact", "sender_id", senderID)
		}
		return bus.InboundMessage{}, false
	}

	content := strings.TrimSpace(message.Text)
	if content == "" {
		content = strings.TrimSpace(message.Caption)
	}
	if content == "" {
		return bus.InboundMessage{}, false
	}

	metadata := map[string]string{
		bus.MetaSenderPhone: a.phoneFor(senderID),
		bus.MetaSenderName:  displayName(message.From),
		bus.MetaMessageID:   strconv.Itoa(message.MessageID),
	}
	if title := strings.TrimSpace(message.Chat.Title); title != "" {
		metadata[bus.MetaGroupName] = title
	}
	if message.Date > 0 {
		metadata[bus.MetaTimestamp] = time.Unix(message.Date, 0).UTC().Format(time.RFC3339)
	}

	return bus.InboundMessage{
		Channel:  channelName,
		SenderID: senderID,
		ChatID:   strconv.FormatInt(message.Chat.ID, 10),
		Content:  content,
		Metadata: metadata,
	}, true
}

// senderAllowed checks whether a sender is permitted by allow_from config.
//
// When no allow list is configured, all senders are accepted; order-level
// authorization happens on the sender phone.
func (a *Adapter) senderAllowed(senderID string) bool {
	if len(a.allowFrom) == 0 {
		return true
	}

	_, ok := a.allowFrom[strings.TrimSpace(senderID)]
	return ok
}

func (a *Adapter) phoneFor(senderID string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.phones[senderID]
}

func (a *Adapter) rememberPhone(senderID string, phone string) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.phones == nil {
		a.phones = make(map[string]string)
	}
	a.phones[senderID] = phone
}

func displayName(user *telego.User) string {
	name := strings.TrimSpace(strings.TrimSpace(user.FirstName) + " " + strings.TrimSpace(user.LastName))
	if name == "" {
		name = strings.TrimSpace(user.Username)
	}

	return name
}

// senderPhones copies the configured user id to phone mapping.
func senderPhones(senders map[string]string) map[string]string {
	phones := make(map[string]string, len(senders))
	for id, phone := range senders {
		id = strings.TrimSpace(id)
		phone = strings.TrimSpace(phone)
		if id == "" || phone == "" {
			continue
		}
		phones[id] = phone
	}

	return phones
}

// allowFromSet normalizes allow_from values into a lookup set.
func allowFromSet(allowFrom []string) map[string]struct{} {
	if len(allowFrom) == 0 {
		return nil
	}

	allowed := make(map[string]struct{}, len(allowFrom))
	for _, value := range allowFrom {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		allowed[trimmed] = struct{}{}
	}

	if len(allowed) == 0 {
		return nil
	}

	return allowed
}

// previewText returns a bounded log-safe preview of message text.
func previewText(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= messagePreviewLimit {
		return trimmed
	}

	return trimmed[:messagePreviewLimit] + "..."
}
