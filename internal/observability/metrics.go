package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Metrics tracks the counters of a discovery run.
type Metrics struct {
	// Listing metrics
	PaginationClicks atomic.Int64
	ItemsDiscovered  atomic.Int64
	ItemsUnique      atomic.Int64
	ItemsInDuration  atomic.Int64

	// Detail metrics
	DetailLoads     atomic.Int64
	ItemsEnriched   atomic.Int64
	EnrichFailures  atomic.Int64
	ItemsInYear     atomic.Int64
	ItemsRanked     atomic.Int64
	TranscriptsSeen atomic.Int64
	TranscriptsLost atomic.Int64

	// Output metrics
	RecordsStored   atomic.Int64
	TranscriptFiles atomic.Int64
	DebugDumps      atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

type metricLine struct {
	name  string
	help  string
	kind  string
	value int64
}

func (m *Metrics) lines() []metricLine {
	return []metricLine{
		{"talkscout_pagination_clicks_total", "Load-more clicks that were dispatched", "counter", m.PaginationClicks.Load()},
		{"talkscout_items_discovered_total", "Cards extracted from the listing", "counter", m.ItemsDiscovered.Load()},
		{"talkscout_items_unique", "Items left after deduplication", "gauge", m.ItemsUnique.Load()},
		{"talkscout_items_in_duration", "Items left after the duration filter", "gauge", m.ItemsInDuration.Load()},
		{"talkscout_detail_loads_total", "Detail pages requested", "counter", m.DetailLoads.Load()},
		{"talkscout_items_enriched_total", "Items with metrics applied", "counter", m.ItemsEnriched.Load()},
		{"talkscout_enrich_failures_total", "Detail pages that could not be loaded for metrics", "counter", m.EnrichFailures.Load()},
		{"talkscout_items_in_year", "Items left after the year filter", "gauge", m.ItemsInYear.Load()},
		{"talkscout_items_ranked", "Items in the top and bottom sets", "gauge", m.ItemsRanked.Load()},
		{"talkscout_transcripts_found_total", "Transcripts extracted with text", "counter", m.TranscriptsSeen.Load()},
		{"talkscout_transcripts_missing_total", "Transcript lookups with no text", "counter", m.TranscriptsLost.Load()},
		{"talkscout_records_stored_total", "Ranked records handed to the exporter", "counter", m.RecordsStored.Load()},
		{"talkscout_transcript_files_total", "Transcript files written", "counter", m.TranscriptFiles.Load()},
		{"talkscout_debug_dumps_total", "Diagnostic dumps written", "counter", m.DebugDumps.Load()},
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	for _, metric := range m.lines() {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", metric.name, metric.kind)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server. It shuts down when ctx is done.
func (m *Metrics) StartServer(ctx context.Context, port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.logger.Info("metrics server starting", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return nil
}

// Snapshot returns all metrics as a map keyed by metric name.
func (m *Metrics) Snapshot() map[string]int64 {
	out := make(map[string]int64)
	for _, metric := range m.lines() {
		out[metric.name] = metric.value
	}
	return out
}
