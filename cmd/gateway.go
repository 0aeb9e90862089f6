package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"orderbot/pkg/bus"
	"orderbot/pkg/channel"
	"orderbot/pkg/channel/line"
	"orderbot/pkg/channel/telegram"
	"orderbot/pkg/config"
	"orderbot/pkg/customer"
	"orderbot/pkg/gateway"
	"orderbot/pkg/logger"

	"github.com/spf13/cobra"
)

const (
	telegramChannelName = "telegram"
	lineChannelName     = "line"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Run channel gateway mode",
	Long:  "Listens on the enabled chat channels, extracts orders from incoming messages and delivers them to the configured sinks.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		appLogger, err := logger.Setup(cfg.Logging)
		if err != nil {
			fmt.Printf("failed to initialize logger: %v\n", err)
			return
		}
		log := appLogger.With("component", "cmd.gateway")

		if len(cfg.Orders.AllowFrom) == 0 {
			log.Warn("orders.allow_from is empty; every message will be rejected")
		}

		adapters, err := enabledAdapters(cfg, log)
		if err != nil {
			log.Error("Gateway configuration invalid", "error", err)
			return
		}

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		customers := customer.NewStore()
		sinks, closeSinks, err := enabledSinks(runCtx, cfg, customers, log)
		if err != nil {
			log.Error("Failed to open order sinks", "error", err)
			return
		}
		defer closeSinks()

		events := bus.New()
		defer events.Close()
		eventStream, unsubscribe := events.Subscribe(runCtx, 0)
		defer unsubscribe()
		go logEvents(eventStream, log)

		svc, err := gateway.NewService(cfg, gateway.Pipeline{
			Extractor: newExtractor(cfg, customers, log),
			Customers: customers,
			Sinks:     sinks,
			Events:    events,
		}, adapters, log)
		if err != nil {
			log.Error("Failed to initialize gateway service", "error", err)
			return
		}

		log.Info("Gateway started", "channels", enabledChannelNames(adapters), "sinks", sinkNames(sinks), "allow_from", len(cfg.Orders.AllowFrom))
		if err := svc.Run(runCtx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error("Gateway runtime failed", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(gatewayCmd)
}

func enabledAdapters(cfg *config.Config, log *slog.Logger) ([]channel.Adapter, error) {
	adapters := make([]channel.Adapter, 0, 2)

	if cfg.Channels.Telegram.Enabled {
		adapter, err := telegram.NewAdapter(cfg.Channels.Telegram, log)
		if err != nil {
			return nil, fmt.Errorf("configure %s channel: %w", telegramChannelName, err)
		}
		adapters = append(adapters, adapter)
	}

	if cfg.Channels.Line.Enabled {
		adapter, err := line.NewAdapter(cfg.Channels.Line, log)
		if err != nil {
			return nil, fmt.Errorf("configure %s channel: %w", lineChannelName, err)
		}
		adapters = append(adapters, adapter)
	}

	if len(adapters) == 0 {
		return nil, errors.New("no channels are enabled")
	}

	return adapters, nil
}

func enabledChannelNames(adapters []channel.Adapter) string {
	names := make([]string, 0, len(adapters))
	for _, adapter := range adapters {
		names = append(names, adapter.Name())
	}

	return strings.Join(names, ",")
}

func sinkNames(sinks []gateway.Sink) string {
	names := make([]string, 0, len(sinks))
	for _, sink := range sinks {
		names = append(names, sink.Name())
	}

	return strings.Join(names, ",")
}
