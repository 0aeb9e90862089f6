// Package publish announces extracted orders on a RabbitMQ topic exchange.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"orderbot/pkg/order"
)

const (
	EventOrderExtracted = "order.extracted.v1"

	DefaultExchange = "orders"
	producer        = "orderbot"

	dialAttempts = 3
	dialDelay    = 500 * time.Millisecond
	maxDialDelay = 10 * time.Second
)

type Meta struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	CorrelationID *string   `json:"correlation_id,omitempty"`
	Producer      string    `json:"producer"`
	Time          time.Time `json:"time"`
}

type Payload struct {
	Order   order.ExtractedOrder `json:"order"`
	Message order.MessageContext `json:"message"`
}

type Envelope struct {
	Meta Meta    `json:"meta"`
	Data Payload `json:"data"`
}

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
}

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange string, key string, mandatory bool, immediate bool, msg amqp091.Publishing) error
	Close() error
}

type Publisher struct {
	conn        io.Closer
	openChannel func() (amqpChannel, error)
	exchange    string
	routingKey  string
	log         *slog.Logger
	now         func() time.Time
}

// Dial connects to the broker, retrying with backoff, and declares the
// durable topic exchange orders are published to.
func Dial(ctx context.Context, cfg Config, log *slog.Logger) (*Publisher, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "publish.amqp")

	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errors.New("amqp url is required")
	}

	conn, err := dialWithRetry(ctx, url, log)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	defer ch.Close()

	exchange := exchangeName(cfg.Exchange)
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", exchange, err)
	}

	open := func() (amqpChannel, error) {
		ch, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		return ch, nil
	}

	return newPublisher(conn, open, cfg, log), nil
}

func newPublisher(conn io.Closer, open func() (amqpChannel, error), cfg Config, log *slog.Logger) *Publisher {
	routingKey := strings.TrimSpace(cfg.RoutingKey)
	if routingKey == "" {
		routingKey = EventOrderExtracted
	}

	return &Publisher{
		conn:        conn,
		openChannel: open,
		exchange:    exchangeName(cfg.Exchange),
		routingKey:  routingKey,
		log:         log,
		now:         time.Now,
	}
}

func (p *Publisher) Name() string {
	return "amqp"
}

// Write publishes o as a persistent JSON envelope.
func (p *Publisher) Write(ctx context.Context, o *order.ExtractedOrder, msg order.MessageContext) error {
	if o == nil {
		return errors.New("order must not be nil")
	}

	envelope := p.envelope(o, msg)
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	ch, err := p.openChannel()
	if err != nil {
		return fmt.Errorf("open amqp channel: %w", err)
	}
	defer ch.Close()

	correlationID := envelope.Meta.ID
	if envelope.Meta.CorrelationID != nil {
		correlationID = *envelope.Meta.CorrelationID
	}

	err = ch.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		MessageId:     envelope.Meta.ID,
		CorrelationId: correlationID,
		Type:          envelope.Meta.Type,
		Timestamp:     envelope.Meta.Time,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", p.routingKey, err)
	}

	p.log.Info("published", slog.String("key", p.routingKey), slog.String("exchange", p.exchange), slog.String("id", envelope.Meta.ID))
	return nil
}

func (p *Publisher) envelope(o *order.ExtractedOrder, msg order.MessageContext) Envelope {
	meta := Meta{
		ID:       uuid.NewString(),
		Type:     EventOrderExtracted,
		Producer: producer,
		Time:     p.now().UTC(),
	}
	if id := strings.TrimSpace(msg.MessageID); id != "" {
		meta.CorrelationID = &id
	}

	return Envelope{Meta: meta, Data: Payload{Order: *o, Message: msg}}
}

func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}

	return p.conn.Close()
}

func exchangeName(exchange string) string {
	if exchange = strings.TrimSpace(exchange); exchange != "" {
		return exchange
	}

	return DefaultExchange
}

// dialWithRetry connects with exponential backoff and gives up early when ctx
// is cancelled.
func dialWithRetry(ctx context.Context, url string, log *slog.Logger) (*amqp091.Connection, error) {
	var lastErr error

	for attempt := 1; attempt <= dialAttempts; attempt++ {
		conn, err := amqp091.Dial(url)
		if err == nil {
			if attempt > 1 {
				log.Info("rabbit connected", slog.Int("attempt", attempt))
			}
			return conn, nil
		}
		lastErr = err

		if attempt == dialAttempts {
			break
		}

		sleep := min(dialDelay<<(attempt-1), maxDialDelay)
		log.Warn("rabbit dial failed", slog.Int("attempt", attempt), slog.Duration("sleep", sleep), slog.Any("error", err))

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("dial cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("connect to rabbitmq after %d attempts: %w", dialAttempts, lastErr)
}
