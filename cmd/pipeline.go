package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"orderbot/pkg/bus"
	"orderbot/pkg/config"
	"orderbot/pkg/customer"
	"orderbot/pkg/gateway"
	"orderbot/pkg/journal"
	"orderbot/pkg/orderbot"
	"orderbot/pkg/phone"
	"orderbot/pkg/publish"
	"orderbot/pkg/sheet"
)

// newExtractor builds the order extractor from the orders config. Extra
// allow-list entries are appended to the configured ones.
func newExtractor(cfg *config.Config, customers *customer.Store, log *slog.Logger, extraAllow ...string) *orderbot.Extractor {
	entries := append(append([]string(nil), cfg.Orders.AllowFrom...), extraAllow...)

	opts := []orderbot.Option{
		orderbot.WithLogger(log),
		orderbot.WithPlaceholderName(cfg.Orders.DefaultCustomerName),
	}
	if customers != nil {
		opts = append(opts, orderbot.WithLookup(customers))
	}

	return orderbot.New(phone.NewAllowlist(entries), opts...)
}

// openJournal opens the order journal and replays it into customers so
// repeat buyers are recognized across restarts.
func openJournal(cfg config.JournalConfig, customers *customer.Store, log *slog.Logger) (*journal.Journal, error) {
	for _, header := range cfg.Headers {
		if !sheet.Known(header) {
			log.Warn("Journal header has no matching order field", "header", header)
		}
	}

	j, err := journal.Open(cfg.Dir, cfg.Headers)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	replayed := 0
	err = j.Replay(func(entry journal.Entry) error {
		customers.Remember(&entry.Order)
		replayed++
		return nil
	})
	if err != nil {
		_ = j.Close()
		return nil, fmt.Errorf("replay journal: %w", err)
	}
	log.Info("Journal replayed", "path", j.Path(), "entries", replayed)

	return j, nil
}

// enabledSinks opens every configured order sink. The returned function
// closes them.
func enabledSinks(ctx context.Context, cfg *config.Config, customers *customer.Store, log *slog.Logger) ([]gateway.Sink, func(), error) {
	sinks := make([]gateway.Sink, 0, 2)
	closers := make([]func() error, 0, 2)
	closeAll := func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				log.Warn("Failed to close order sink", "error", err)
			}
		}
	}

	if cfg.Sinks.Journal.Enabled {
		j, err := openJournal(cfg.Sinks.Journal, customers, log)
		if err != nil {
			return nil, func() {}, err
		}
		sinks = append(sinks, j)
		closers = append(closers, j.Close)
	}

	if cfg.Sinks.AMQP.Enabled {
		publisher, err := publish.Dial(ctx, publish.Config{
			URL:        cfg.Sinks.AMQP.URL,
			Exchange:   cfg.Sinks.AMQP.Exchange,
			RoutingKey: cfg.Sinks.AMQP.RoutingKey,
		}, log)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("connect amqp sink: %w", err)
		}
		sinks = append(sinks, publisher)
		closers = append(closers, publisher.Close)
	}

	return sinks, closeAll, nil
}

// logEvents writes order lifecycle events to log until events closes.
func logEvents(events <-chan bus.Event, log *slog.Logger) {
	for event := range events {
		logEvent(log, event)
	}
}

func logEvent(log *slog.Logger, event bus.Event) {
	attrs := []any{"type", event.Type, "channel", event.Channel, "chat_id", event.ChatID, "message_id", event.MessageID}
	for key, value := range event.Payload {
		attrs = append(attrs, key, value)
	}

	switch event.Type {
	case bus.EventOrderDeliveryFailed:
		log.Error("Order event", append(attrs, "error", event.Error)...)
	case bus.EventOrderExtracted, bus.EventOrderRejected:
		log.Info("Order event", attrs...)
	default:
		log.Debug("Order event", attrs...)
	}
}
