package storage

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/IshaanNene/talkscout/internal/config"
	"github.com/IshaanNene/talkscout/internal/types"
)

// Exporter is the interface for all ranked-record backends.
type Exporter interface {
	// Store persists a batch of ranked records.
	Store(records []types.Ranked) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the backend identifier.
	Name() string
}

// Columns is the tabular export layout.
var Columns = []string{"rank", "label", "title", "presenter", "duration", "views", "year", "url"}

// Record is the serialized form of a ranked item. The transcript is exported
// separately as text files.
type Record struct {
	Rank      int    `json:"rank"      bson:"rank"`
	Label     string `json:"label"     bson:"label"`
	Title     string `json:"title"     bson:"title"`
	Presenter string `json:"presenter" bson:"presenter"`
	Duration  string `json:"duration"  bson:"duration"`
	Views     int64  `json:"views"     bson:"views"`
	Year      string `json:"year"      bson:"year"`
	URL       string `json:"url"       bson:"url"`
}

// NewRecord flattens a ranked item.
func NewRecord(r types.Ranked) Record {
	return Record{
		Rank:      r.Rank,
		Label:     r.Label,
		Title:     r.Item.Title,
		Presenter: r.Item.Presenter,
		Duration:  r.Item.Duration,
		Views:     r.Item.Views,
		Year:      r.Item.Year,
		URL:       r.Item.URL,
	}
}

// NewExporter builds the exporter for cfg.Type, which may list several
// backends separated by commas ("csv,mongodb").
func NewExporter(cfg config.StorageConfig, logger *slog.Logger) (Exporter, error) {
	kinds := strings.Split(cfg.Type, ",")
	if len(kinds) == 1 {
		return newBackend(strings.TrimSpace(kinds[0]), cfg, logger)
	}

	backends := make([]Exporter, 0, len(kinds))
	for _, kind := range kinds {
		b, err := newBackend(strings.TrimSpace(kind), cfg, logger)
		if err != nil {
			for _, opened := range backends {
				_ = opened.Close()
			}
			return nil, err
		}
		backends = append(backends, b)
	}
	return NewMultiExporter(backends, logger), nil
}

func newBackend(kind string, cfg config.StorageConfig, logger *slog.Logger) (Exporter, error) {
	switch kind {
	case "json":
		return NewJSONStorage(filepath.Join(cfg.OutputPath, "ranked_talks.json"), logger)
	case "jsonl":
		return NewJSONLStorage(filepath.Join(cfg.OutputPath, "ranked_talks.jsonl"), logger)
	case "csv":
		return NewCSVStorage(filepath.Join(cfg.OutputPath, "ranked_talks.csv"), logger)
	case "mongodb":
		return NewMongoStorage(cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", kind)
	}
}

// --- Multi-Exporter Fan-Out ---

// MultiExporter writes records to multiple backends.
type MultiExporter struct {
	backends []Exporter
	logger   *slog.Logger
}

// NewMultiExporter creates an exporter that fans out to multiple backends.
func NewMultiExporter(backends []Exporter, logger *slog.Logger) *MultiExporter {
	return &MultiExporter{
		backends: backends,
		logger:   logger.With("component", "multi_exporter"),
	}
}

func (s *MultiExporter) Name() string {
	names := make([]string, len(s.backends))
	for i, b := range s.backends {
		names[i] = b.Name()
	}
	return strings.Join(names, ",")
}

func (s *MultiExporter) Store(records []types.Ranked) error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Store(records); err != nil {
			s.logger.Error("backend store failed", "backend", backend.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *MultiExporter) Close() error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
