// Package snapshot serializes run output documents to disk and locates
// the most recent one for serving.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gmodebadze/eventscout/internal/config"
	"github.com/gmodebadze/eventscout/internal/domain"
)

const (
	fileTimestampLayout = "20060102150405"
	fileMode            = 0o644
	dirMode             = 0o755
)

// Writer writes snapshot documents as pretty-printed JSON files named
// <prefix>-<yyyymmddhhmmss>.json.
type Writer struct {
	dir    string
	prefix string
}

// NewWriter creates a snapshot writer.
func NewWriter(cfg config.OutputConfig) *Writer {
	return &Writer{dir: cfg.Dir, prefix: cfg.FilenamePrefix}
}

// Write persists the snapshot and returns the file path.
func (w *Writer) Write(snap domain.Snapshot) (string, error) {
	if err := os.MkdirAll(w.dir, dirMode); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	name := fmt.Sprintf("%s-%s.json", w.prefix, snap.ScrapedAt.Format(fileTimestampLayout))
	path := filepath.Join(w.dir, name)

	if err = os.WriteFile(path, data, fileMode); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// Latest returns the newest snapshot file for the prefix, loading and
// decoding it. Returns os.ErrNotExist when no snapshot has been written.
func Latest(cfg config.OutputConfig) (*domain.Snapshot, string, error) {
	pattern := filepath.Join(cfg.Dir, cfg.FilenamePrefix+"-*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, "", fmt.Errorf("glob snapshots: %w", err)
	}
	if len(matches) == 0 {
		return nil, "", fmt.Errorf("no snapshot matching %s: %w", pattern, os.ErrNotExist)
	}

	// Timestamped names sort chronologically.
	sort.Strings(matches)
	path := matches[len(matches)-1]

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err = json.Unmarshal(data, &snap); err != nil {
		return nil, "", fmt.Errorf("decode snapshot %s: %w", filepath.Base(path), err)
	}
	return &snap, path, nil
}
