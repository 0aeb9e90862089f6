// Package gateway runs the channel adapters and hands every inbound message
// to the order extractor and the configured order sinks.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"orderbot/pkg/bus"
	"orderbot/pkg/channel"
	"orderbot/pkg/config"
	"orderbot/pkg/customer"
	"orderbot/pkg/order"
	"orderbot/pkg/orderbot"
)

const (
	defaultHealthHost = "127.0.0.1"
	defaultHealthPort = 18790
)

const (
	rejectUnauthorized = "unauthorized"
	rejectIncomplete   = "incomplete"
)

// Sink receives every extracted order.
type Sink interface {
	Name() string
	Write(ctx context.Context, o *order.ExtractedOrder, msg order.MessageContext) error
}

// Pipeline is what the gateway does with an inbound message.
type Pipeline struct {
	Extractor *orderbot.Extractor
	Customers *customer.Store
	Sinks     []Sink
	Events    *bus.Bus
}

type Service struct {
	cfg      *config.Config
	log      *slog.Logger
	pipeline Pipeline
	locks    *customerLocks
	channels []channel.Adapter

	mu            sync.RWMutex
	startedAt     time.Time
	channelStates map[string]channelState
	sinkStates    map[string]sinkState
	counts        orderCounts
}

type channelState struct {
	Running bool   `json:"running"`
	Error   string `json:"error,omitempty"`
}

type sinkState struct {
	LastOKAt string `json:"last_ok_at,omitempty"`
	Error    string `json:"error,omitempty"`
}

type orderCounts struct {
	Received       int64 `json:"received"`
	Extracted      int64 `json:"extracted"`
	Rejected       int64 `json:"rejected"`
	DeliveryFailed int64 `json:"delivery_failed"`
}

type statusResponse struct {
	Status        string                  `json:"status"`
	UptimeSeconds int64                   `json:"uptime_seconds"`
	Channels      map[string]channelState `json:"channels"`
	Sinks         map[string]sinkState    `json:"sinks"`
	Orders        orderCounts             `json:"orders"`
}

func NewService(cfg *config.Config, pipeline Pipeline, adapters []channel.Adapter, log *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if pipeline.Extractor == nil {
		return nil, errors.New("order extractor is required")
	}
	if len(adapters) == 0 {
		return nil, errors.New("at least one channel adapter is required")
	}
	if log == nil {
		log = slog.Default()
	}
	if pipeline.Events == nil {
		pipeline.Events = bus.New()
	}

	channelStates := make(map[string]channelState, len(adapters))
	for _, adapter := range adapters {
		channelStates[adapter.Name()] = channelState{}
	}

	sinkStates := make(map[string]sinkState, len(pipeline.Sinks))
	for _, sink := range pipeline.Sinks {
		sinkStates[sink.Name()] = sinkState{}
	}

	return &Service{
		cfg:           cfg,
		log:           log.With("component", "gateway.service"),
		pipeline:      pipeline,
		locks:         newCustomerLocks(),
		channels:      adapters,
		channelStates: channelStates,
		sinkStates:    sinkStates,
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	events, unsubscribe := s.pipeline.Events.Subscribe(ctx, 0)
	defer unsubscribe()
	go s.countEvents(events)

	serverErrors := make(chan error, 1)
	go s.runHealthServer(ctx, serverErrors)

	errCh := make(chan error, len(s.channels))
	for _, adapter := range s.channels {
		s.setChannelState(adapter.Name(), channelState{Running: true})

		go func() {
			err := adapter.Run(ctx, s.handleInbound)
			s.setChannelState(adapter.Name(), channelState{Running: false, Error: errorString(err)})
			if err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("run %s channel: %w", adapter.Name(), err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverErrors:
		return err
	case err := <-errCh:
		return err
	}
}

// handleInbound extracts an order from one chat message and delivers it to
// every sink. Messages that yield no order are dropped without a reply.
func (s *Service) handleInbound(ctx context.Context, inbound bus.InboundMessage) (bus.OutboundMessage, error) {
	msg := inbound.MessageContext()
	s.publish(ctx, bus.EventOrderReceived, inbound, nil, nil)

	extracted := s.pipeline.Extractor.Extract(inbound.Content, msg)
	if extracted == nil {
		reason := rejectIncomplete
		if !s.pipeline.Extractor.Authorized(msg.SenderPhone) {
			reason = rejectUnauthorized
		}
		s.log.Debug("No order extracted", "channel", inbound.Channel, "message_id", msg.MessageID, "reason", reason)
		s.publish(ctx, bus.EventOrderRejected, inbound, map[string]string{"reason": reason}, nil)
		return s.outbound(inbound, ""), nil
	}

	unlock := s.locks.lock(extracted.PhoneNumber)
	defer unlock()

	s.pipeline.Extractor.ResolveRepeat(ctx, extracted)
	deliveryErr := s.deliver(ctx, extracted, msg)
	if s.pipeline.Customers != nil {
		s.pipeline.Customers.Remember(extracted)
	}

	payload := eventPayload(extracted)
	s.publish(ctx, bus.EventOrderExtracted, inbound, payload, nil)
	s.log.Info("Order extracted",
		"channel", inbound.Channel,
		"message_id", msg.MessageID,
		"format", extracted.Format,
		"customer", extracted.CustomerName,
		"phone", extracted.PhoneNumber,
		"repeat", extracted.IsRepeatCustomer,
	)

	if deliveryErr != nil {
		s.publish(ctx, bus.EventOrderDeliveryFailed, inbound, payload, deliveryErr)
		outbound := s.outbound(inbound, "")
		outbound.Error = deliveryErr.Error()
		return outbound, fmt.Errorf("deliver order: %w", deliveryErr)
	}

	content := ""
	if s.cfg.Orders.Reply {
		content = Confirmation(extracted)
	}

	return s.outbound(inbound, content), nil
}

// deliver writes the order to every sink. A failing sink never stops the
// others; all failures are joined into the returned error.
func (s *Service) deliver(ctx context.Context, extracted *order.ExtractedOrder, msg order.MessageContext) error {
	var errs []error
	for _, sink := range s.pipeline.Sinks {
		err := sink.Write(ctx, extracted, msg)
		s.setSinkResult(sink.Name(), err)
		if err != nil {
			s.log.Error("Failed to deliver order", "sink", sink.Name(), "message_id", msg.MessageID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}

	return errors.Join(errs...)
}

func (s *Service) outbound(inbound bus.InboundMessage, content string) bus.OutboundMessage {
	return bus.OutboundMessage{
		Channel: inbound.Channel,
		ChatID:  inbound.ChatID,
		Content: content,
	}
}

func (s *Service) publish(ctx context.Context, eventType bus.EventType, inbound bus.InboundMessage, payload map[string]string, err error) {
	s.pipeline.Events.Publish(ctx, bus.Event{
		Type:      eventType,
		Channel:   inbound.Channel,
		ChatID:    inbound.ChatID,
		MessageID: inbound.Metadata[bus.MetaMessageID],
		Payload:   payload,
		Error:     errorString(err),
	})
}

func eventPayload(extracted *order.ExtractedOrder) map[string]string {
	return map[string]string{
		"customer": extracted.CustomerName,
		"phone":    extracted.PhoneNumber,
		"total":    extracted.TotalPaid.StringFixed(2),
		"code":     extracted.ProductCode,
		"format":   string(extracted.Format),
		"repeat":   strconv.FormatBool(extracted.IsRepeatCustomer),
	}
}

func (s *Service) countEvents(events <-chan bus.Event) {
	for event := range events {
		s.mu.Lock()
		switch event.Type {
		case bus.EventOrderReceived:
			s.counts.Received++
		case bus.EventOrderExtracted:
			s.counts.Extracted++
		case bus.EventOrderRejected:
			s.counts.Rejected++
		case bus.EventOrderDeliveryFailed:
			s.counts.DeliveryFailed++
		}
		s.mu.Unlock()
	}
}

func (s *Service) runHealthServer(ctx context.Context, errCh chan<- error) {
	host := strings.TrimSpace(s.cfg.Gateway.Host)
	if host == "" {
		host = defaultHealthHost
	}

	port := s.cfg.Gateway.Port
	if port <= 0 {
		port = defaultHealthPort
	}

	addr := host + ":" + strconv.Itoa(port)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info("Gateway status server started", "address", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errCh <- fmt.Errorf("start status server: %w", err)
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondStatus(w, http.StatusOK, "ok")
}

func (s *Service) handleReady(w http.ResponseWriter, _ *http.Request) {
	statusCode := http.StatusOK
	status := "ready"
	if !s.isReady() {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	s.respondStatus(w, statusCode, status)
}

func (s *Service) respondStatus(w http.ResponseWriter, statusCode int, status string) {
	payload := s.currentStatus(status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to write status response", "error", err)
	}
}

func (s *Service) currentStatus(status string) statusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := int64(0)
	if !s.startedAt.IsZero() {
		uptime = int64(time.Since(s.startedAt).Seconds())
	}

	channels := make(map[string]channelState, len(s.channelStates))
	for name, state := range s.channelStates {
		channels[name] = state
	}

	sinks := make(map[string]sinkState, len(s.sinkStates))
	for name, state := range s.sinkStates {
		sinks[name] = state
	}

	return statusResponse{
		Status:        status,
		UptimeSeconds: uptime,
		Channels:      channels,
		Sinks:         sinks,
		Orders:        s.counts,
	}
}

// isReady requires a running channel and no sink whose last write failed.
func (s *Service) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	anyRunning := false
	for _, state := range s.channelStates {
		if state.Running {
			anyRunning = true
			break
		}
	}
	if !anyRunning {
		return false
	}

	for _, state := range s.sinkStates {
		if state.Error != "" {
			return false
		}
	}

	return true
}

func (s *Service) setChannelState(name string, state channelState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelStates[name] = state
}

func (s *Service) setSinkResult(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.sinkStates[name]
	if err != nil {
		state.Error = err.Error()
	} else {
		state.Error = ""
		state.LastOKAt = time.Now().UTC().Format(time.RFC3339)
	}
	s.sinkStates[name] = state
}

func errorString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
