// Package storage persists the processed-link history between runs. Both
// backends follow the availability-over-durability contract: a missing or
// unreadable history loads as empty and a failed save is logged, never
// surfaced, so a run always proceeds.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/cancaonovachor/nova-internal-tools/internal/ports"
)

// FileStore keeps the history as a human-inspectable JSON array on disk,
// written whole on each save.
type FileStore struct {
	path   string
	logger *slog.Logger
}

var _ ports.HistoryStore = (*FileStore)(nil)

// NewFileStore wires the history file path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Load reads the JSON array. A missing file is a normal first run.
func (s *FileStore) Load(ctx context.Context) []string {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.warn("history unreadable, starting empty", "path", s.path, "error", err)
		}
		return []string{}
	}

	var history []string
	if err := json.Unmarshal(raw, &history); err != nil {
		s.warn("history corrupted, starting empty", "path", s.path, "error", err)
		return []string{}
	}

	return history
}

// Save writes the most recent maxItems identifiers back to disk.
func (s *FileStore) Save(ctx context.Context, history []string, maxItems int) {
	data, err := json.MarshalIndent(tail(history, maxItems), "", "  ")
	if err != nil {
		s.warn("history marshal failed", "error", err)
		return
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		s.warn("history save failed", "path", s.path, "error", err)
	}
}

func (s *FileStore) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

// tail keeps the newest maxItems entries, dropping the oldest. A non-positive
// maxItems keeps everything.
func tail(history []string, maxItems int) []string {
	if maxItems <= 0 || len(history) <= maxItems {
		return history
	}
	return history[len(history)-maxItems:]
}
