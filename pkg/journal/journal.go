// Package journal appends extracted orders to a JSON Lines file, one entry
// per order, with the sheet row it would produce.
package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"orderbot/pkg/order"
	"orderbot/pkg/sheet"
)

const (
	defaultDirName  = ".orderbot/journal"
	defaultFileName = "orders.jsonl"

	maxEntryBytes = 1 << 20
)

type Entry struct {
	ID         string               `json:"id"`
	RecordedAt time.Time            `json:"recorded_at"`
	Message    order.MessageContext `json:"message"`
	Order      order.ExtractedOrder `json:"order"`
	Row        map[string]string    `json:"row,omitempty"`
}

type Journal struct {
	path    string
	headers []string
	now     func() time.Time

	mu     sync.Mutex
	file   *os.File
	closed bool
}

// Open resolves dir (empty means ~/.orderbot/journal), creates it when
// missing and opens the journal file for appending.
func Open(dir string, headers []string) (*Journal, error) {
	root, err := ResolveRoot(dir)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(root, defaultFileName)
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, normalizeIOError(err, "open journal")
	}

	if len(headers) == 0 {
		headers = sheet.DefaultHeaders
	}

	return &Journal{
		path:    path,
		headers: append([]string(nil), headers...),
		now:     time.Now,
		file:    file,
	}, nil
}

// ResolveRoot normalizes the journal directory and creates it when missing.
func ResolveRoot(dir string) (string, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		trimmed = filepath.Join(homeDir, defaultDirName)
	}

	expanded, err := expandHome(trimmed)
	if err != nil {
		return "", err
	}

	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return "", NewError(ErrorInvalidPath, "journal path could not be resolved")
	}

	cleanPath := filepath.Clean(absPath)
	if err := os.MkdirAll(cleanPath, 0o755); err != nil {
		return "", normalizeIOError(err, "create journal directory")
	}

	return cleanPath, nil
}

func (j *Journal) Name() string {
	return "journal"
}

func (j *Journal) Path() string {
	return j.path
}

// Write appends one entry for o.
func (j *Journal) Write(ctx context.Context, o *order.ExtractedOrder, msg order.MessageContext) error {
	if o == nil {
		return NewError(ErrorIO, "order must not be nil")
	}
	if err := ctx.Err(); err != nil {
		return NewError(ErrorIO, err.Error())
	}

	entry := Entry{
		ID:         uuid.NewString(),
		RecordedAt: j.now().UTC(),
		Message:    msg,
		Order:      *o,
		Row:        sheet.Record(j.headers, o),
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}
	if len(line) >= maxEntryBytes {
		return NewError(ErrorIO, fmt.Sprintf("entry exceeds %d bytes", maxEntryBytes))
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return NewError(ErrorClosed, "journal is closed")
	}
	if _, err := j.file.Write(append(line, '\n')); err != nil {
		return normalizeIOError(err, "append entry")
	}

	return nil
}

// Replay reads every entry in the journal, oldest first.
func (j *Journal) Replay(fn func(Entry) error) error {
	return Replay(j.path, fn)
}

// Replay reads every entry of the journal file at path. A missing file holds
// no entries.
func Replay(path string, fn func(Entry) error) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return normalizeIOError(err, "open journal")
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEntryBytes)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return NewError(ErrorCorruptEntry, fmt.Sprintf("line %d: %v", lineNumber, err))
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return normalizeIOError(err, "read journal")
	}

	return nil
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true

	if err := j.file.Close(); err != nil {
		return normalizeIOError(err, "close journal")
	}

	return nil
}

func expandHome(path string) (string, error) {
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return home, nil
	}

	prefix := "~" + string(filepath.Separator)
	if strings.HasPrefix(path, prefix) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, prefix)), nil
	}

	return path, nil
}
