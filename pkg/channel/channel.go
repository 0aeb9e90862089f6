// Package channel defines how chat transports feed messages to the gateway.
package channel

import (
	"context"

	"orderbot/pkg/bus"
)

// Handler processes one inbound chat message. An outbound message with empty
// content means nothing is sent back.
type Handler func(context.Context, bus.InboundMessage) (bus.OutboundMessage, error)

// Adapter bridges one external transport (for example Telegram) into the gateway.
type Adapter interface {
	Name() string
	Run(context.Context, Handler) error
}
