package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"orderbot/pkg/config"
)

func TestLoggerJSONEntryShape(t *testing.T) {
	unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json", Level: "info"}, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	log.With("component", "orderbot.extractor").Info("Order extracted", "channel", "telegram", "message_id", "42", "repeat", true)

	line := strings.TrimSpace(out.String())
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry LogEntry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("unmarshal log entry: %v", err)
	}

	if entry.Level != "info" {
		t.Fatalf("level = %q, want %q", entry.Level, "info")
	}
	if entry.Message != "Order extracted" {
		t.Fatalf("message = %q, want %q", entry.Message, "Order extracted")
	}
	if entry.Component != "orderbot.extractor" {
		t.Fatalf("component = %q, want %q", entry.Component, "orderbot.extractor")
	}
	if entry.Timestamp == "" {
		t.Fatal("expected timestamp")
	}
	if entry.Channel != "telegram" || entry.MessageID != "42" {
		t.Fatalf("channel, message_id = %q, %q", entry.Channel, entry.MessageID)
	}
	if _, ok := entry.Fields["message_id"]; ok {
		t.Fatal("message_id should not be repeated in fields")
	}
	if got := entry.Fields["repeat"]; got != true {
		t.Fatalf("fields.repeat = %v, want true", got)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json", Level: "error"}, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	log.Info("Sender not authorized")
	if got := strings.TrimSpace(out.String()); got != "" {
		t.Fatalf("expected no output for info, got %q", got)
	}

	log.Error("Sink delivery failed")
	if got := strings.TrimSpace(out.String()); got == "" {
		t.Fatal("expected output for error")
	}
}

func TestLoggerEnvironmentOverrides(t *testing.T) {
	t.Setenv("ORDERBOT_LOG_LEVEL", "debug")
	t.Setenv("ORDERBOT_LOG_FORMAT", "text")
	defer unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json", Level: "error"}, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	log.Debug("Debug enabled", "component", "test")
	line := strings.TrimSpace(out.String())
	if line == "" {
		t.Fatal("expected debug output with env override")
	}
	if strings.HasPrefix(line, "{") {
		t.Fatalf("expected text format override, got %q", line)
	}
}

func TestLoggerDefaultsToTextFormat(t *testing.T) {
	unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{}, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	log.Info("Default format")
	line := strings.TrimSpace(out.String())
	if line == "" {
		t.Fatal("expected log output")
	}
	if strings.HasPrefix(line, "{") {
		t.Fatalf("expected text format by default, got %q", line)
	}
}

func TestLoggerGroupsAndSource(t *testing.T) {
	unsetLoggingEnv(t)
	t.Setenv("ORDERBOT_LOG_ADD_SOURCE", "yes")

	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json"}, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	log.WithGroup("order").Info("Order recorded", "phone", "60194419638", "message_id", "7")

	var entry LogEntry
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &entry); err != nil {
		t.Fatalf("unmarshal log entry: %v", err)
	}
	if got := entry.Fields["order.phone"]; got != "60194419638" {
		t.Fatalf("fields[order.phone] = %v", got)
	}
	if got := entry.Fields["order.message_id"]; got != "7" || entry.MessageID != "" {
		t.Fatalf("grouped message_id = %v, lifted %q", got, entry.MessageID)
	}
	if !strings.Contains(entry.Caller, "logger_test.go:") {
		t.Fatalf("caller = %q, want logger_test.go", entry.Caller)
	}
}

func TestLoggerRejectsUnknownFormat(t *testing.T) {
	unsetLoggingEnv(t)

	if _, err := newWithWriter(config.LoggingConfig{Format: "xml"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func unsetLoggingEnv(t *testing.T) {
	t.Helper()
	_ = os.Unsetenv("ORDERBOT_LOG_LEVEL")
	_ = os.Unsetenv("ORDERBOT_LOG_FORMAT")
	_ = os.Unsetenv("ORDERBOT_LOG_ADD_SOURCE")
}
