package observability

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

func TestServeHTTP(t *testing.T) {
	m := NewMetrics(testLogger)
	m.ItemsDiscovered.Add(42)
	m.TranscriptsSeen.Add(3)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"talkscout_items_discovered_total 42\n",
		"talkscout_transcripts_found_total 3\n",
		"# TYPE talkscout_items_unique gauge\n",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in output:\n%s", want, body)
		}
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("unexpected content type %q", ct)
	}
}

func TestSnapshot(t *testing.T) {
	m := NewMetrics(testLogger)
	m.ItemsEnriched.Add(5)

	snap := m.Snapshot()
	if snap["talkscout_items_enriched_total"] != 5 {
		t.Errorf("unexpected snapshot %v", snap)
	}
	if len(snap) != len(m.lines()) {
		t.Errorf("snapshot should cover every metric")
	}
}
