// Package line receives order messages through a LINE Messaging API webhook.
package line

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"orderbot/pkg/bus"
	"orderbot/pkg/channel"
	"orderbot/pkg/config"
)

const (
	channelName = "line"
	defaultPath = "/line/webhook"
)

// messenger is the subset of the Messaging API the adapter calls.
type messenger interface {
	ReplyMessage(*messaging_api.ReplyMessageRequest) (*messaging_api.ReplyMessageResponse, error)
	GetProfile(userID string) (*messaging_api.UserProfileResponse, error)
	GetGroupSummary(groupID string) (*messaging_api.GroupSummaryResponse, error)
}

// Adapter serves the LINE webhook and replies through the Messaging API.
//
// LINE does not expose phone numbers either, so the sender phone comes from
// the configured senders map.
type Adapter struct {
	cfg       config.LineConfig
	allowFrom map[string]struct{}
	phones    map[string]string
	log       *slog.Logger
	client    messenger

	mu     sync.Mutex
	groups map[string]string
}

func NewAdapter(cfg config.LineConfig, log *slog.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.ChannelSecret) == "" {
		return nil, errors.New("channels.line.channel_secret is required")
	}
	if strings.TrimSpace(cfg.ChannelToken) == "" {
		return nil, errors.New("channels.line.channel_token is required")
	}
	if strings.TrimSpace(cfg.Listen) == "" {
		return nil, errors.New("channels.line.listen is required")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Adapter{
		cfg:       cfg,
		allowFrom: idSet(cfg.AllowFrom),
		phones:    senderPhones(cfg.Senders),
		log:       log.With("component", "channel.line"),
		groups:    make(map[string]string),
	}, nil
}

func (a *Adapter) Name() string {
	return channelName
}

// Run serves the webhook until ctx ends.
func (a *Adapter) Run(ctx context.Context, handler channel.Handler) error {
	if handler == nil {
		return errors.New("handler is required")
	}

	if a.client == nil {
		client, err := messaging_api.NewMessagingApiAPI(strings.TrimSpace(a.cfg.ChannelToken))
		if err != nil {
			return fmt.Errorf("initialize line client: %w", err)
		}
		a.client = client
	}

	mux := http.NewServeMux()
	mux.Handle(a.path(), a.webhookHandler(ctx, handler))

	server := &http.Server{
		Addr:              strings.TrimSpace(a.cfg.Listen),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	a.log.Info("LINE channel started", "address", server.Addr, "path", a.path())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve line webhook: %w", err)
	}

	return nil
}

func (a *Adapter) path() string {
	path := strings.TrimSpace(a.cfg.Path)
	if path == "" {
		return defaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return path
}

func (a *Adapter) webhookHandler(ctx context.Context, handler channel.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		callback, err := webhook.ParseRequest(strings.TrimSpace(a.cfg.ChannelSecret), r)
		if err != nil {
			if errors.Is(err, webhook.ErrInvalidSignature) {
				a.log.Warn("Rejected webhook with invalid signature")
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			a.log.Error("Failed to parse webhook", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		for _, event := range callback.Events {
			message, ok := event.(webhook.MessageEvent)
			if !ok {
				continue
			}
			a.handleEvent(ctx, handler, message)
		}

		w.WriteHeader(http.StatusOK)
	})
}

func (a *Adapter) handleEvent(ctx context.Context, handler channel.Handler, event webhook.MessageEvent) {
	inbound, ok := a.inbound(event)
	if !ok {
		return
	}
	a.log.Info("Received message", "chat_id", inbound.ChatID, "sender_id", inbound.SenderID)

	outbound, err := handler(ctx, inbound)
	if err != nil {
		a.log.Error("Failed to process inbound message", "message_id", inbound.Metadata[bus.MetaMessageID], "error", err)
	}

	text := strings.TrimSpace(outbound.Content)
	if text == "" || event.ReplyToken == "" {
		return
	}

	_, err = a.client.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: event.ReplyToken,
		Messages:   []messaging_api.MessageInterface{messaging_api.TextMessage{Text: text}},
	})
	if err != nil {
		a.log.Error("Failed to send line reply", "error", err)
	}
}

// inbound converts a LINE text message event into an inbound order message.
func (a *Adapter) inbound(event webhook.MessageEvent) (bus.InboundMessage, bool) {
	text, ok := event.Message.(webhook.TextMessageContent)
	if !ok {
		return bus.InboundMessage{}, false
	}

	var senderID, chatID, groupID string
	switch source := event.Source.(type) {
	case webhook.UserSource:
		senderID, chatID = source.UserId, source.UserId
	case webhook.GroupSource:
		senderID, chatID, groupID = source.UserId, source.GroupId, source.GroupId
	case webhook.RoomSource:
		senderID, chatID = source.UserId, source.RoomId
	}
	if senderID == "" {
		a.log.Debug("Ignoring message without sender")
		return bus.InboundMessage{}, false
	}
	if !a.senderAllowed(senderID) {
		a.log.Debug("Ignoring message from unauthorized sender", "sender_id", senderID)
		return bus.InboundMessage{}, false
	}

	content := strings.TrimSpace(text.Text)
	if content == "" {
		return bus.InboundMessage{}, false
	}

	metadata := map[string]string{
		bus.MetaSenderPhone: a.phones[senderID],
		bus.MetaSenderName:  a.displayName(senderID),
		bus.MetaMessageID:   text.Id,
	}
	if groupID != "" {
		if name := a.groupName(groupID); name != "" {
			metadata[bus.MetaGroupName] = name
		}
	}
	if event.Timestamp > 0 {
		metadata[bus.MetaTimestamp] = time.UnixMilli(event.Timestamp).UTC().Format(time.RFC3339)
	}

	return bus.InboundMessage{
		Channel:  channelName,
		SenderID: senderID,
		ChatID:   chatID,
		Content:  content,
		Metadata: metadata,
	}, true
}

func (a *Adapter) senderAllowed(senderID string) bool {
	if len(a.allowFrom) == 0 {
		return true
	}

	_, ok := a.allowFrom[strings.TrimSpace(senderID)]
	return ok
}

func (a *Adapter) displayName(userID string) string {
	if a.client == nil {
		return ""
	}

	profile, err := a.client.GetProfile(userID)
	if err != nil {
		a.log.Debug("Profile lookup failed", "sender_id", userID, "error", err)
		return ""
	}

	return strings.TrimSpace(profile.DisplayName)
}

// groupName looks a group up once and caches the answer, misses included.
func (a *Adapter) groupName(groupID string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if name, ok := a.groups[groupID]; ok {
		return name
	}
	if a.client == nil {
		return ""
	}

	var name string
	summary, err := a.client.GetGroupSummary(groupID)
	if err != nil {
		a.log.Debug("Group summary lookup failed", "group_id", groupID, "error", err)
	} else {
		name = strings.TrimSpace(summary.GroupName)
	}
	a.groups[groupID] = name

	return name
}

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

func idSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			set[value] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}

	return set
}
