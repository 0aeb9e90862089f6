package cmd

import (
	"context"
	"testing"

	channelpkg "orderbot/pkg/channel"
	"orderbot/pkg/config"
	"orderbot/pkg/gateway"
)

type testAdapter struct{ name string }

func (a testAdapter) Name() string { return a.name }

func (a testAdapter) Run(_ context.Context, _ channelpkg.Handler) error { return nil }

func TestEnabledAdaptersRequiresAtLeastOneChannel(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	if _, err := enabledAdapters(cfg, nil); err == nil {
		t.Fatal("expected error when no channels are enabled")
	}
}

func TestEnabledAdaptersRequiresTelegramToken(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Channels: config.ChannelsConfig{Telegram: config.TelegramConfig{Enabled: true}}}
	if _, err := enabledAdapters(cfg, nil); err == nil {
		t.Fatal("expected error for telegram without a token")
	}
}

func TestEnabledAdaptersBuildsLine(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Channels: config.ChannelsConfig{Line: config.LineConfig{
		Enabled:       true,
		ChannelSecret: "secret",
		ChannelToken:  "token",
		Listen:        "127.0.0.1:0",
	}}}
	adapters, err := enabledAdapters(cfg, nil)
	if err != nil {
		t.Fatalf("enabledAdapters error: %v", err)
	}
	if got := enabledChannelNames(adapters); got != "line" {
		t.Fatalf("enabledChannelNames = %q, want %q", got, "line")
	}

	cfg.Channels.Line.ChannelSecret = ""
	if _, err := enabledAdapters(cfg, nil); err == nil {
		t.Fatal("expected error for line without a channel secret")
	}
}

func TestEnabledChannelNames(t *testing.T) {
	t.Parallel()

	adapters := []channelpkg.Adapter{testAdapter{name: "telegram"}, testAdapter{name: "slack"}}
	if got := enabledChannelNames(adapters); got != "telegram,slack" {
		t.Fatalf("enabledChannelNames = %q, want %q", got, "telegram,slack")
	}
}

func TestSinkNames(t *testing.T) {
	t.Parallel()

	if got := sinkNames(nil); got != "" {
		t.Fatalf("sinkNames(nil) = %q, want empty", got)
	}

	sinks := []gateway.Sink{namedSink("journal"), namedSink("amqp")}
	if got := sinkNames(sinks); got != "journal,amqp" {
		t.Fatalf("sinkNames = %q, want %q", got, "journal,amqp")
	}
}
