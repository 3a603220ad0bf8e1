package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/IshaanNene/talkscout/internal/types"
)

// Transcript file prefixes for the top and bottom sets.
const (
	PrefixHigh = "high"
	PrefixLow  = "low"
)

// TranscriptFileName returns "<prefix>_view_<NNN>.txt" for a 1-based rank.
func TranscriptFileName(prefix string, rank int) string {
	return fmt.Sprintf("%s_view_%03d.txt", prefix, rank)
}

// TranscriptWriter stores transcripts as one UTF-8 text file per talk.
type TranscriptWriter struct {
	dir    string
	logger *slog.Logger
}

// NewTranscriptWriter creates a writer rooted at dir. The directory is created
// on first write.
func NewTranscriptWriter(dir string, logger *slog.Logger) *TranscriptWriter {
	return &TranscriptWriter{
		dir:    dir,
		logger: logger.With("component", "transcript_writer"),
	}
}

// Write stores text and returns the file path.
func (w *TranscriptWriter) Write(prefix string, rank int, text string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", &types.StorageError{Backend: "transcripts", Err: fmt.Errorf("create dir: %w", err)}
	}

	path := filepath.Join(w.dir, TranscriptFileName(prefix, rank))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", &types.StorageError{Backend: "transcripts", Err: err}
	}

	w.logger.Info("transcript saved", "path", path, "length", len(text))
	return path, nil
}
