package listing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/IshaanNene/talkscout/internal/config"
	"github.com/IshaanNene/talkscout/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakePage simulates a listing that reveals step more cards per load-more click.
type fakePage struct {
	cfg config.ListingConfig

	cards     []string
	shown     int
	step      int
	counter   string
	clickErrs int
	stuck     bool
	consent   bool

	navigated      string
	clicks         int
	consentClicked bool
}

func (f *fakePage) Navigate(_ context.Context, u string) error {
	f.navigated = u
	return nil
}

func (f *fakePage) HTML(context.Context) (string, error) { return "", nil }

func (f *fakePage) Count(_ context.Context, selector string) (int, error) {
	switch selector {
	case f.cfg.CardSelector:
		return f.shown, nil
	case f.cfg.ConsentSelector:
		if f.consent && !f.consentClicked {
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakePage) Text(_ context.Context, selector string) (string, error) {
	if selector == f.cfg.CounterSelector && f.counter != "" {
		return f.counter, nil
	}
	return "", types.ErrElementMissing
}

func (f *fakePage) Exists(_ context.Context, selector string) (bool, error) {
	if selector == f.cfg.LoadMoreSelector {
		return f.shown < len(f.cards), nil
	}
	return false, nil
}

func (f *fakePage) OuterHTML(_ context.Context, selector string) ([]string, error) {
	if selector != f.cfg.CardSelector {
		return nil, nil
	}
	return f.cards[:f.shown], nil
}

func (f *fakePage) Click(_ context.Context, selector string) error {
	switch selector {
	case f.cfg.ConsentSelector:
		f.consentClicked = true
		return nil
	case f.cfg.LoadMoreSelector:
		f.clicks++
		if f.clickErrs > 0 {
			f.clickErrs--
			return errors.New("element not interactable")
		}
		if !f.stuck {
			f.shown = min(f.shown+f.step, len(f.cards))
		}
		return nil
	}
	return types.ErrElementMissing
}

func (f *fakePage) WaitCount(ctx context.Context, selector string, n int, _ time.Duration) (int, error) {
	count, _ := f.Count(ctx, selector)
	if count >= n {
		return count, nil
	}
	return count, types.ErrTimeout
}

func testListingConfig() config.ListingConfig {
	cfg := config.DefaultConfig().Listing
	cfg.SettleDelay = 0
	cfg.ScrollPause = 0
	return cfg
}

func card(slug, title string) string {
	return fmt.Sprintf(`<a class="relative" href="/talks/%s"><span class="text-textPrimary-onLight font-bold subheader2">%s</span></a>`, slug, title)
}

func makeCards(n int) []string {
	cards := make([]string, n)
	for i := range cards {
		cards[i] = card(fmt.Sprintf("talk_%03d", i), fmt.Sprintf("Talk %d", i))
	}
	return cards
}

func newFakePage(cards []string, shown, step int) *fakePage {
	return &fakePage{cfg: testListingConfig(), cards: cards, shown: shown, step: step}
}

// --- Pagination ---

func TestAttemptCap(t *testing.T) {
	tests := []struct {
		name  string
		total int
		want  int
	}{
		{"exact multiple", 240, 9},
		{"partial last page", 241, 10},
		{"single page", 24, 0},
		{"zero total is unknown", 0, 50},
		{"unknown total", -1, 50},
		{"hard ceiling", 100000, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AttemptCap(tt.total, 24, 200, 50); got != tt.want {
				t.Errorf("AttemptCap(%d) = %d, want %d", tt.total, got, tt.want)
			}
		})
	}

	if got := AttemptCap(-1, 24, 200, -3); got != 0 {
		t.Errorf("negative fallback cap should clamp to 0, got %d", got)
	}
}

func TestParseTotal(t *testing.T) {
	tests := []struct {
		text string
		want int
		ok   bool
	}{
		{"Showing 24 of 240 talks", 240, true},
		{"1–24 of 1,240", 1240, true},
		{"no numbers here", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseTotal(tt.text)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseTotal(%q) = %d, %v; want %d, %v", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPaginatorStopsAtTotal(t *testing.T) {
	page := newFakePage(makeCards(72), 24, 24)
	page.counter = "Showing 24 of 72 talks"

	exp, err := NewPaginator(page, page.cfg, testLogger).Expand(context.Background())
	if err != nil {
		t.Fatalf("expand: %v", err)
	}

	want := Expansion{Clicks: 2, Count: 72, Total: 72, Cap: 2, Reason: StopTotalReached}
	if diff := cmp.Diff(want, exp); diff != "" {
		t.Errorf("expansion mismatch (-want +got):\n%s", diff)
	}
}

func TestPaginatorStopsWhenControlMissing(t *testing.T) {
	page := newFakePage(makeCards(30), 24, 24)

	exp, err := NewPaginator(page, page.cfg, testLogger).Expand(context.Background())
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if exp.Total != -1 || exp.Cap != 50 {
		t.Errorf("unknown total should use fallback cap, got total=%d cap=%d", exp.Total, exp.Cap)
	}
	if exp.Clicks != 1 || exp.Count != 30 || exp.Reason != StopControlMissing {
		t.Errorf("unexpected expansion %+v", exp)
	}
}

func TestPaginatorTreatsZeroTotalAsUnknown(t *testing.T) {
	page := newFakePage(makeCards(48), 24, 24)
	page.counter = "Showing 0 of 0 talks"

	exp, err := NewPaginator(page, page.cfg, testLogger).Expand(context.Background())
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if exp.Total != -1 || exp.Cap != 50 {
		t.Errorf("zero total should use fallback cap, got total=%d cap=%d", exp.Total, exp.Cap)
	}
	if exp.Count != 48 || exp.Reason != StopControlMissing {
		t.Errorf("expected the listing to be expanded fully, got %+v", exp)
	}
}

func TestPaginatorStopsAfterConsecutiveClickFailures(t *testing.T) {
	page := newFakePage(makeCards(96), 24, 24)
	page.clickErrs = 10

	exp, err := NewPaginator(page, page.cfg, testLogger).Expand(context.Background())
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if exp.Reason != StopClickFailures || exp.Clicks != 0 || page.clicks != 2 {
		t.Errorf("expected stop after 2 failed clicks, got %+v (clicks attempted %d)", exp, page.clicks)
	}
}

func TestPaginatorStopsWhenCountStalls(t *testing.T) {
	page := newFakePage(makeCards(96), 24, 24)
	page.stuck = true

	exp, err := NewPaginator(page, page.cfg, testLogger).Expand(context.Background())
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if exp.Reason != StopClickFailures || exp.Clicks != 2 || exp.Count != 24 {
		t.Errorf("unexpected expansion %+v", exp)
	}
}

func TestPaginatorRecoversFromSingleFailure(t *testing.T) {
	page := newFakePage(makeCards(72), 24, 24)
	page.counter = "of 72"
	page.clickErrs = 1

	exp, err := NewPaginator(page, page.cfg, testLogger).Expand(context.Background())
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	// One attempt is spent on the failure, leaving one successful click.
	if exp.Clicks != 1 || exp.Count != 48 || exp.Reason != StopCapReached {
		t.Errorf("unexpected expansion %+v", exp)
	}
}

func TestPaginatorHonorsCancellation(t *testing.T) {
	page := newFakePage(makeCards(72), 24, 24)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exp, err := NewPaginator(page, page.cfg, testLogger).Expand(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if exp.Reason != StopCancelled {
		t.Errorf("expected cancelled reason, got %q", exp.Reason)
	}
}

// --- Collector ---

func TestCollectorExtractsUniqueItemsInOrder(t *testing.T) {
	cards := []string{
		card("alpha", "Alpha"),
		card("beta", "Beta"),
		`<a class="relative"><span>no link</span></a>`,
		card("alpha/", "Alpha again"),
		card("gamma", "Gamma"),
	}
	page := newFakePage(cards, 3, 24)
	page.consent = true

	searchURL := "https://www.ted.com/talks?sort=newest"
	c := NewCollector(page, page.cfg, testLogger)
	items, err := c.Collect(context.Background(), searchURL)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	if page.navigated != searchURL {
		t.Errorf("expected navigation to %q, got %q", searchURL, page.navigated)
	}
	if !page.consentClicked {
		t.Error("consent banner should have been dismissed")
	}

	var got []string
	for _, item := range items {
		got = append(got, item.URL)
	}
	want := []string{
		"https://www.ted.com/talks/alpha",
		"https://www.ted.com/talks/beta",
		"https://www.ted.com/talks/gamma",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("urls mismatch (-want +got):\n%s", diff)
	}
	if items[0].Title != "Alpha" {
		t.Errorf("first occurrence should win, got title %q", items[0].Title)
	}
	if items[0].Presenter != types.DefaultPresenter {
		t.Errorf("missing presenter should use placeholder, got %q", items[0].Presenter)
	}

	if exp := c.LastExpansion(); exp.Clicks != 1 || exp.Reason != StopControlMissing {
		t.Errorf("unexpected expansion %+v", exp)
	}
}

func TestCollectorEmptyListing(t *testing.T) {
	page := newFakePage(nil, 0, 24)

	items, err := NewCollector(page, page.cfg, testLogger).Collect(context.Background(), "https://www.ted.com/talks")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}

// --- Search URL ---

func TestBuildSearchURL(t *testing.T) {
	got := BuildSearchURL("https://www.ted.com", []string{"a", "b"}, "newest", "english")
	want := "https://www.ted.com/talks?topics%5B0%5D=a&topics%5B1%5D=b&sort=newest&language=english"
	if got != want {
		t.Errorf("BuildSearchURL() = %q, want %q", got, want)
	}
}

func TestBuildSearchURLEncodesValues(t *testing.T) {
	got := BuildSearchURL("https://www.ted.com/", []string{"mental health", "love"}, "oldest", "english")

	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Path != "/talks" {
		t.Errorf("unexpected path %q", u.Path)
	}
	q := u.Query()
	if q.Get("topics[0]") != "mental health" || q.Get("topics[1]") != "love" || q.Get("sort") != "oldest" {
		t.Errorf("unexpected query %v", q)
	}
	if got != BuildSearchURL("https://www.ted.com/", []string{"mental health", "love"}, "oldest", "english") {
		t.Error("construction must be deterministic")
	}
}
