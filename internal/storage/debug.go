package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/IshaanNene/talkscout/internal/types"
)

// Diagnostic dump file names. Each dump overwrites the previous one.
const (
	FailedJSONFile     = "failed_json.json"
	TranscriptPageFile = "transcript_page.html"
)

// DebugDumper persists raw content that failed to parse. An empty directory
// disables dumping.
type DebugDumper struct {
	dir    string
	logger *slog.Logger
}

// NewDebugDumper creates a dumper rooted at dir.
func NewDebugDumper(dir string, logger *slog.Logger) *DebugDumper {
	return &DebugDumper{
		dir:    dir,
		logger: logger.With("component", "debug_dumper"),
	}
}

// DumpBlock saves a structured-data block that could not be decoded.
func (d *DebugDumper) DumpBlock(raw string) (string, error) {
	return d.dump(FailedJSONFile, raw)
}

// DumpPage saves a page on which no structured-data block was found.
func (d *DebugDumper) DumpPage(html string) (string, error) {
	return d.dump(TranscriptPageFile, html)
}

func (d *DebugDumper) dump(name, content string) (string, error) {
	if d.dir == "" {
		return "", nil
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", &types.StorageError{Backend: "debug", Err: fmt.Errorf("create dir: %w", err)}
	}

	path := filepath.Join(d.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", &types.StorageError{Backend: "debug", Err: err}
	}

	d.logger.Info("debug dump written", "path", path, "size", len(content))
	return path, nil
}
