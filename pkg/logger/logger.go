// Package logger builds the process slog.Logger: charmbracelet/log text for
// terminals, one JSON object per line for collectors.
package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	charmLog "github.com/charmbracelet/log"

	"orderbot/pkg/config"
)

const (
	envFormat    = "ORDERBOT_LOG_FORMAT"
	envLevel     = "ORDERBOT_LOG_LEVEL"
	envAddSource = "ORDERBOT_LOG_ADD_SOURCE"
)

// LogEntry is the JSON shape of one log line. The component, channel and
// message id attributes are lifted out of the fields so order logs can be
// filtered and joined on them.
type LogEntry struct {
	Level     string         `json:"level"`
	Timestamp string         `json:"timestamp"`
	Component string         `json:"component,omitempty"`
	Channel   string         `json:"channel,omitempty"`
	MessageID string         `json:"message_id,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
	Caller    string         `json:"caller,omitempty"`
}

// settings is LoggingConfig after environment overrides and defaults.
type settings struct {
	json      bool
	level     slog.Level
	addSource bool
}

// New builds a logger writing to stderr.
func New(cfg config.LoggingConfig) (*slog.Logger, error) {
	return newWithWriter(cfg, os.Stderr)
}

// Setup builds the process logger and installs it as the slog default, so
// packages that fall back to slog.Default pick it up.
func Setup(cfg config.LoggingConfig) (*slog.Logger, error) {
	log, err := New(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)

	return log, nil
}

func newWithWriter(cfg config.LoggingConfig, writer io.Writer) (*slog.Logger, error) {
	s, err := resolve(cfg)
	if err != nil {
		return nil, err
	}

	if !s.json {
		return slog.New(charmLog.NewWithOptions(writer, charmLog.Options{
			Level:           charmLevel(s.level),
			ReportTimestamp: true,
			ReportCaller:    s.addSource,
			Formatter:       charmLog.TextFormatter,
		})), nil
	}

	return slog.New(&entryHandler{
		level:     s.level,
		addSource: s.addSource,
		writer:    writer,
		mu:        &sync.Mutex{},
	}), nil
}

func resolve(cfg config.LoggingConfig) (settings, error) {
	var s settings

	switch format := override(cfg.Format, envFormat, "text"); format {
	case "json":
		s.json = true
	case "text":
	default:
		return settings{}, fmt.Errorf("unsupported log format %q", format)
	}

	switch level := override(cfg.Level, envLevel, "info"); level {
	case "debug":
		s.level = slog.LevelDebug
	case "info":
		s.level = slog.LevelInfo
	case "warn", "warning":
		s.level = slog.LevelWarn
	case "error":
		s.level = slog.LevelError
	default:
		return settings{}, fmt.Errorf("unsupported log level %q", level)
	}

	s.addSource = cfg.AddSource
	if value := strings.TrimSpace(os.Getenv(envAddSource)); value != "" {
		switch strings.ToLower(value) {
		case "1", "true", "yes", "on":
			s.addSource = true
		default:
			s.addSource = false
		}
	}

	return s, nil
}

// override returns the lowercased env value when set, else the configured
// value, else fallback.
func override(configured string, env string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(env))
	if value == "" {
		value = strings.TrimSpace(configured)
	}
	if value == "" {
		return fallback
	}

	return strings.ToLower(value)
}

func charmLevel(level slog.Level) charmLog.Level {
	switch {
	case level <= slog.LevelDebug:
		return charmLog.DebugLevel
	case level <= slog.LevelInfo:
		return charmLog.InfoLevel
	case level <= slog.LevelWarn:
		return charmLog.WarnLevel
	default:
		return charmLog.ErrorLevel
	}
}

type entryHandler struct {
	level     slog.Level
	addSource bool
	writer    io.Writer
	attrs     []slog.Attr
	groups    []string
	mu        *sync.Mutex
}

func (h *entryHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *entryHandler) Handle(_ context.Context, record slog.Record) error {
	at := record.Time
	if at.IsZero() {
		at = time.Now()
	}

	entry := LogEntry{
		Level:     strings.ToLower(record.Level.String()),
		Timestamp: at.UTC().Format(time.RFC3339Nano),
		Message:   record.Message,
	}

	fields := make(map[string]any)
	add := func(attr slog.Attr) bool {
		entry.add(fields, h.groups, attr)
		return true
	}
	for _, attr := range h.attrs {
		add(attr)
	}
	record.Attrs(add)

	if len(fields) > 0 {
		entry.Fields = fields
	}
	if h.addSource && record.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{record.PC}).Next()
		if frame.File != "" {
			entry.Caller = fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
		}
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.writer.Write(append(line, '\n'))
	return err
}

// add files attr under its group-qualified key, or into one of the lifted
// entry fields when it is an ungrouped string.
func (e *LogEntry) add(fields map[string]any, groups []string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}

	if len(groups) == 0 && attr.Value.Kind() == slog.KindString {
		switch attr.Key {
		case "component":
			e.Component = attr.Value.String()
			return
		case "channel":
			e.Channel = attr.Value.String()
			return
		case "message_id":
			e.MessageID = attr.Value.String()
			return
		}
	}

	key := attr.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + attr.Key
	}
	fields[key] = plain(attr.Value)
}

// plain converts a slog value into something encoding/json renders
// readably.
func plain(value slog.Value) any {
	switch value.Kind() {
	case slog.KindDuration:
		return value.Duration().String()
	case slog.KindTime:
		return value.Time().UTC().Format(time.RFC3339Nano)
	case slog.KindGroup:
		group := value.Group()
		result := make(map[string]any, len(group))
		for _, item := range group {
			result[item.Key] = plain(item.Value.Resolve())
		}
		return result
	default:
		return value.Any()
	}
}

func (h *entryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *entryHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.groups = append(append([]string{}, h.groups...), name)
	return &next
}
