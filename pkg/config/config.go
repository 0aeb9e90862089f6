package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	envConfigPath        = "ORDERBOT_CONFIG"
	envTelegramBotToken  = "TELEGRAM_BOT_TOKEN"
	envTelegramAllowFrom = "TELEGRAM_ALLOW_FROM"
	envOrderAllowFrom    = "ORDERBOT_ALLOW_FROM"
	envAMQPURL           = "ORDERBOT_AMQP_URL"
	envLineSecret        = "LINE_CHANNEL_SECRET"
	envLineToken         = "LINE_CHANNEL_TOKEN"

	defaultGatewayHost = "127.0.0.1"
	defaultGatewayPort = 18790
)

// ErrNotFound is returned when no config file exists in the searched
// locations.
var ErrNotFound = errors.New("config.json not found")

// Config is the root runtime configuration loaded from config.json.
type Config struct {
	Orders   OrdersConfig   `json:"orders"`
	Channels ChannelsConfig `json:"channels"`
	Sinks    SinksConfig    `json:"sinks"`
	Gateway  GatewayConfig  `json:"gateway"`
	Logging  LoggingConfig  `json:"logging,omitempty"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
}

// OrdersConfig controls who may submit orders and how they are answered.
type OrdersConfig struct {
	// AllowFrom lists the phone numbers allowed to submit orders. An empty
	// list authorizes nobody.
	AllowFrom           []string `json:"allow_from"`
	DefaultCustomerName string   `json:"default_customer_name,omitempty"`
	// Reply sends a confirmation back to the chat for every recorded order.
	Reply bool `json:"reply"`
}

// ChannelsConfig stores transport adapter settings.
type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	Line     LineConfig     `json:"line"`
}

// TelegramConfig configures Telegram channel integration.
type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allow_from"`
	// Senders maps Telegram user ids onto the phone numbers they order from,
	// since the Bot API does not expose a sender's phone number.
	Senders map[string]string `json:"senders,omitempty"`
}

// LineConfig configures the LINE Messaging API webhook channel.
type LineConfig struct {
	Enabled       bool   `json:"enabled"`
	ChannelSecret string `json:"channel_secret"`
	ChannelToken  string `json:"channel_token"`
	// Listen is the webhook bind address, for example ":8787".
	Listen    string   `json:"listen"`
	Path      string   `json:"path,omitempty"`
	AllowFrom []string `json:"allow_from"`
	// Senders maps LINE user ids onto phone numbers.
	Senders map[string]string `json:"senders,omitempty"`
}

// SinksConfig selects where extracted orders are delivered.
type SinksConfig struct {
	Journal JournalConfig `json:"journal"`
	AMQP    AMQPConfig    `json:"amqp"`
}

// JournalConfig configures the JSON Lines order journal.
type JournalConfig struct {
	Enabled bool     `json:"enabled"`
	Dir     string   `json:"dir,omitempty"`
	Headers []string `json:"headers,omitempty"`
}

// AMQPConfig configures the RabbitMQ order publisher.
type AMQPConfig struct {
	Enabled    bool   `json:"enabled"`
	URL        string `json:"url"`
	Exchange   string `json:"exchange,omitempty"`
	RoutingKey string `json:"routing_key,omitempty"`
}

// GatewayConfig configures HTTP gateway bind settings.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{
		Gateway: GatewayConfig{Host: defaultGatewayHost, Port: defaultGatewayPort},
	}
	applyEnvOverrides(cfg)

	return cfg
}

// LoadConfig resolves config.json, unmarshals it, and applies environment overrides.
func LoadConfig() (*Config, error) {
	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides injects selected env-driven settings on top of file config.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if token := strings.TrimSpace(os.Getenv(envTelegramBotToken)); token != "" {
		cfg.Channels.Telegram.Token = token
	}

	if rawAllowFrom := strings.TrimSpace(os.Getenv(envTelegramAllowFrom)); rawAllowFrom != "" {
		cfg.Channels.Telegram.AllowFrom = parseCSV(rawAllowFrom)
	}

	if rawAllowFrom := strings.TrimSpace(os.Getenv(envOrderAllowFrom)); rawAllowFrom != "" {
		cfg.Orders.AllowFrom = parseCSV(rawAllowFrom)
	}

	if url := strings.TrimSpace(os.Getenv(envAMQPURL)); url != "" {
		cfg.Sinks.AMQP.URL = url
	}

	if secret := strings.TrimSpace(os.Getenv(envLineSecret)); secret != "" {
		cfg.Channels.Line.ChannelSecret = secret
	}

	if token := strings.TrimSpace(os.Getenv(envLineToken)); token != "" {
		cfg.Channels.Line.ChannelToken = token
	}
}

// parseCSV splits comma-separated values and returns a trimmed compact slice.
func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}

	return slices.Clip(clean)
}

// findConfigPath resolves the active config file location.
//
// Precedence is ORDERBOT_CONFIG first, then cwd-local fallback paths.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv(envConfigPath)); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("%s does not point to a file: %s", envConfigPath, value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config", "config.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w (checked %s and %s)", ErrNotFound, candidates[0], candidates[1])
}
