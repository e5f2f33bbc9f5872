// Package syncq stores player commands issued while the API was unreachable,
// for replay on the next sync. Idempotency keys are assigned at enqueue time
// so a replay that partially succeeds is safe to repeat.
package syncq

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Command is one queued API write, replayed verbatim by `fbk sync`.
type Command struct {
	Method         string         `json:"method"`
	Path           string         `json:"path"`
	Body           map[string]any `json:"body,omitempty"`
	IdempotencyKey string         `json:"idempotency_key"`
	QueuedAt       time.Time      `json:"queued_at"`
}

func queuePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	dir := filepath.Join(home, ".fbk")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	return filepath.Join(dir, "queue.json"), nil
}

// Load returns the queued commands, oldest first. A missing or empty queue
// file is an empty queue, not an error.
func Load() ([]Command, error) {
	path, err := queuePath()
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Command{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sync queue: %w", err)
	}
	if len(raw) == 0 {
		return []Command{}, nil
	}
	var commands []Command
	if err := json.Unmarshal(raw, &commands); err != nil {
		return nil, fmt.Errorf("parse sync queue: %w", err)
	}
	return commands, nil
}

// Save replaces the queue file with the given commands. Saving nil or an
// empty slice clears the queue.
func Save(commands []Command) error {
	path, err := queuePath()
	if err != nil {
		return err
	}
	if commands == nil {
		commands = []Command{}
	}
	raw, err := json.MarshalIndent(commands, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

// Push appends one command to the queue, stamping its enqueue time.
func Push(cmd Command) error {
	commands, err := Load()
	if err != nil {
		return err
	}
	if cmd.QueuedAt.IsZero() {
		cmd.QueuedAt = time.Now().UTC()
	}
	return Save(append(commands, cmd))
}
