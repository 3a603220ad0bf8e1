package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/IshaanNene/talkscout/internal/types"
)

const fullCard = `<a class="relative" href="/talks/jane_doe_why_sleep_matters">
  <div class="relative">
    <img alt="Why sleep matters (alt)" src="x.jpg">
    <div class="absolute bottom-2 right-2 rounded">
      <span class="text-white font-semibold">12:30</span>
    </div>
  </div>
  <p class="text-textTertiary-onLight label1 uppercase font-semibold">Jane Doe</p>
  <span class="text-textPrimary-onLight font-bold subheader2">Why sleep matters</span>
</a>`

const fallbackCard = `<a class="relative" href="https://www.ted.com/talks/john_roe_on_trust/">
  <img alt="On trust" src="y.jpg">
  <p class="text-textTertiary-onLight label1">John Roe</p>
  <meta itemprop="duration" content="PT15M5S">
</a>`

const bareCard = `<a class="relative" href="/talks/nobody#comments">
  <div class="absolute bottom-2 right-2"><span class="font-semibold">LIVE</span></div>
</a>`

func newTestExtractor(t *testing.T) *CardExtractor {
	t.Helper()
	e, err := NewCardExtractor("https://www.ted.com/talks?sort=newest")
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}
	return e
}

func TestCardExtractorPrimaryStrategies(t *testing.T) {
	item, results, err := newTestExtractor(t).Extract(fullCard)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	want := types.Item{
		URL:       "https://www.ted.com/talks/jane_doe_why_sleep_matters",
		Title:     "Why sleep matters",
		Presenter: "Jane Doe",
		Duration:  "12:30",
	}
	if diff := cmp.Diff(want, item); diff != "" {
		t.Errorf("item mismatch (-want +got):\n%s", diff)
	}

	for _, r := range results {
		if !r.Found {
			t.Errorf("field %s should be found", r.Field)
		}
	}
	if !strings.HasPrefix(results[2].Strategy, "xpath:") {
		t.Errorf("duration should come from the xpath strategy, got %s", results[2].Strategy)
	}
}

func TestCardExtractorFallbackStrategies(t *testing.T) {
	item, results, err := newTestExtractor(t).Extract(fallbackCard)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if item.URL != "https://www.ted.com/talks/john_roe_on_trust" {
		t.Errorf("expected canonical URL without trailing slash, got %q", item.URL)
	}
	if item.Title != "On trust" {
		t.Errorf("expected title from img alt, got %q", item.Title)
	}
	if item.Presenter != "John Roe" {
		t.Errorf("expected presenter from non-uppercase label, got %q", item.Presenter)
	}
	if item.Duration != "15:05" {
		t.Errorf("expected duration from ISO microdata, got %q", item.Duration)
	}
	if results[0].Strategy != "css:img[alt]@alt" {
		t.Errorf("unexpected title strategy %q", results[0].Strategy)
	}
}

func TestCardExtractorDefaults(t *testing.T) {
	item, results, err := newTestExtractor(t).Extract(bareCard)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if item.URL != "https://www.ted.com/talks/nobody" {
		t.Errorf("fragment should be dropped, got %q", item.URL)
	}
	if item.Title != types.DefaultTitle || item.Presenter != types.DefaultPresenter {
		t.Errorf("expected placeholders, got %q / %q", item.Title, item.Presenter)
	}
	// "LIVE" is not a clock value and must be discarded.
	if item.Duration != types.DefaultDuration {
		t.Errorf("expected duration placeholder, got %q", item.Duration)
	}
	for _, r := range results {
		if r.Found {
			t.Errorf("field %s should not be found", r.Field)
		}
	}
}

func TestCardExtractorDropsCardsWithoutLink(t *testing.T) {
	e := newTestExtractor(t)
	for _, card := range []string{
		`<a class="relative"><span>No href</span></a>`,
		`<a class="relative" href="javascript:void(0)">JS</a>`,
		`<div><span>not a link</span></div>`,
	} {
		_, _, err := e.Extract(card)
		if !errors.Is(err, types.ErrNoLink) {
			t.Errorf("card %q: expected ErrNoLink, got %v", card, err)
		}
	}
}

func TestFieldFirstSuccessWins(t *testing.T) {
	card, err := ParseCard(`<div><b>first</b><i>second</i></div>`)
	if err != nil {
		t.Fatal(err)
	}
	f := Field{
		Name: "x",
		Strategies: []Strategy{
			CSSText{Selector: "u"},
			CSSText{Selector: "i"},
			CSSText{Selector: "b"},
		},
		Default: "none",
	}
	got := f.Extract(card)
	if got.Value != "second" || got.Strategy != "css:i" {
		t.Errorf("expected second strategy to win, got %+v", got)
	}
}

func TestCanonicalizeURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"HTTPS://WWW.TED.COM/talks/a/", "https://www.ted.com/talks/a"},
		{"https://www.ted.com:443/talks/a#x", "https://www.ted.com/talks/a"},
		{"https://www.ted.com/talks/a?b=2&a=1", "https://www.ted.com/talks/a?a=1&b=2"},
		{"https://www.ted.com", "https://www.ted.com/"},
	}
	for _, tt := range tests {
		if got := CanonicalizeURL(tt.input); got != tt.expected {
			t.Errorf("CanonicalizeURL(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

// --- Duration ---

func TestDurationMinutes(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"12:30", 12.5},
		{"5", 5},
		{"5 min", 5},
		{"18 minutes", 18},
		{" 9:00 ", 9},
		{"bogus", 0},
		{"", 0},
		{types.DefaultDuration, 0},
		{"1:02:03", 0},
	}
	for _, tt := range tests {
		if got := DurationMinutes(tt.input); got != tt.expected {
			t.Errorf("DurationMinutes(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestISODurationToClock(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"PT12M30S", "12:30", true},
		{"PT1H5M", "65:00", true},
		{"PT45S", "0:45", true},
		{"PT", "", false},
		{"12:30", "", false},
	}
	for _, tt := range tests {
		got, ok := ISODurationToClock(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ISODurationToClock(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

// --- Metrics ---

func TestParseViews(t *testing.T) {
	tests := []struct {
		input string
		want  int64
		ok    bool
	}{
		{"1.2M views", 1_200_000, true},
		{"3.4k", 3_400, true},
		{"2,500", 2500, true},
		{"1,234,567 plays", 1_234_567, true},
		{"0", 0, true},
		{"", 0, false},
		{"lots", 0, false},
		{"-5", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseViews(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseViews(%q) = %d, %v; want %d, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestExtractMetrics(t *testing.T) {
	page := `<html><body>
<div class="mr-1 flex items-center gap-1">3,456,789 plays</div>
<div class="text-sm text-gray-900"> • April 2019 </div>
</body></html>`

	res := ExtractMetrics(page)
	if res.Metrics.Views != 3_456_789 {
		t.Errorf("expected 3456789 views, got %d", res.Metrics.Views)
	}
	if res.Metrics.Year != "2019" {
		t.Errorf("expected year 2019, got %q", res.Metrics.Year)
	}
	if res.ViewsPattern != "plays-div" || res.YearPattern != "date-div" {
		t.Errorf("unexpected patterns %q / %q", res.ViewsPattern, res.YearPattern)
	}
}

func TestExtractMetricsFallbacks(t *testing.T) {
	page := `<html><head><script type="application/ld+json">
{"@type":"VideoObject","uploadDate":"2021-03-04T10:00:00Z"}
</script></head><body><span>2.5M views</span></body></html>`

	res := ExtractMetrics(page)
	if res.Metrics.Views != 2_500_000 || res.ViewsPattern != "plays-text" {
		t.Errorf("expected 2.5M from free text, got %d via %q", res.Metrics.Views, res.ViewsPattern)
	}
	if res.Metrics.Year != "2021" || res.YearPattern != "json-ld-date" {
		t.Errorf("expected 2021 from JSON-LD, got %q via %q", res.Metrics.Year, res.YearPattern)
	}
}

func TestExtractMetricsMiss(t *testing.T) {
	res := ExtractMetrics(`<html><body>nothing here</body></html>`)
	if res.ViewsFound() || res.YearFound() {
		t.Errorf("expected no matches, got %+v", res)
	}
	if res.Metrics != (types.Metrics{}) {
		t.Errorf("expected zero metrics, got %+v", res.Metrics)
	}
}

// --- Transcript ---

func TestExtractTranscriptPrimary(t *testing.T) {
	page := `<html><head>
<script type="application/ld+json">{"@type":"Organization","name":"TED"}</script>
<script type="application/ld+json" data-next-head="">{"@type":"VideoObject","transcript":"Hello world."}</script>
</head></html>`

	got, err := ExtractTranscript(page)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got.Text != "Hello world." || got.Selector != PrimaryTranscriptSelector {
		t.Errorf("unexpected transcript %+v", got)
	}
}

func TestExtractTranscriptFallbackScan(t *testing.T) {
	page := `<html><head>
<script type="application/ld+json">{"@type":"Organization","name":"TED"}</script>
<script type="application/ld+json">[{"@type":"Thing"},{"@type":"VideoObject","transcript":"Second block."}]</script>
</head></html>`

	got, err := ExtractTranscript(page)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got.Text != "Second block." {
		t.Errorf("expected fallback block transcript, got %q", got.Text)
	}
}

func TestExtractTranscriptEmptyField(t *testing.T) {
	page := `<script type="application/ld+json" data-next-head="">{"@type":"VideoObject","transcript":""}</script>`
	got, err := ExtractTranscript(page)
	if err != nil {
		t.Fatalf("empty transcript is not an error: %v", err)
	}
	if got.Text != "" {
		t.Errorf("expected empty text, got %q", got.Text)
	}
}

func TestExtractTranscriptBadJSON(t *testing.T) {
	page := `<script type="application/ld+json" data-next-head="">{"transcript": "unterminated</script>`
	_, err := ExtractTranscript(page)

	var blockErr *BlockError
	if !errors.As(err, &blockErr) {
		t.Fatalf("expected BlockError, got %v", err)
	}
	if !strings.Contains(blockErr.Raw, "unterminated") {
		t.Errorf("raw block should be attached, got %q", blockErr.Raw)
	}
}

func TestExtractTranscriptNoBlock(t *testing.T) {
	_, err := ExtractTranscript(`<html><body><p>no data</p></body></html>`)
	if !errors.Is(err, ErrNoTranscript) {
		t.Errorf("expected ErrNoTranscript, got %v", err)
	}
}
