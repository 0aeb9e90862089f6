package bus

import (
	"strings"

	"orderbot/pkg/order"
)

// Inbound metadata keys set by channel adapters.
const (
	MetaSenderPhone = "sender_phone"
	MetaSenderName  = "sender_name"
	MetaGroupName   = "group_name"
	MetaMessageID   = "message_id"
	MetaTimestamp   = "timestamp"
)

type InboundMessage struct {
	Channel  string            `json:"channel"`
	SenderID string            `json:"sender_id"`
	ChatID   string            `json:"chat_id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// MessageContext describes the sender of msg for order extraction.
func (msg InboundMessage) MessageContext() order.MessageContext {
	meta := func(key string) string {
		return strings.TrimSpace(msg.Metadata[key])
	}

	return order.MessageContext{
		SenderPhone:       meta(MetaSenderPhone),
		SenderDisplayName: meta(MetaSenderName),
		GroupName:         meta(MetaGroupName),
		MessageID:         meta(MetaMessageID),
		Timestamp:         meta(MetaTimestamp),
	}
}

type OutboundMessage struct {
	Channel  string            `json:"channel"`
	ChatID   string            `json:"chat_id"`
	Content  string            `json:"content"`
	Error    string            `json:"error,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
