package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/IshaanNene/talkscout/internal/config"
	"github.com/IshaanNene/talkscout/internal/listing"
	"github.com/IshaanNene/talkscout/internal/observability"
	"github.com/IshaanNene/talkscout/internal/parser"
	"github.com/IshaanNene/talkscout/internal/pipeline"
	"github.com/IshaanNene/talkscout/internal/storage"
	"github.com/IshaanNene/talkscout/internal/types"
)

// Collector discovers items on a listing page.
type Collector interface {
	Collect(ctx context.Context, searchURL string) ([]types.Item, error)
}

// Enricher reads metrics and transcripts from detail pages.
type Enricher interface {
	Metrics(ctx context.Context, url string) (types.Metrics, error)
	Transcript(ctx context.Context, url string) (parser.Transcript, error)
}

// Exporter receives the ranked records.
type Exporter interface {
	Store(records []types.Ranked) error
}

// TranscriptSink stores non-empty transcripts.
type TranscriptSink interface {
	Write(prefix string, rank int, text string) (string, error)
}

// DebugSink persists raw content that failed to parse.
type DebugSink interface {
	DumpBlock(raw string) (string, error)
	DumpPage(html string) (string, error)
}

// expansionReporter is implemented by collectors that paginate.
type expansionReporter interface {
	LastExpansion() listing.Expansion
}

// Result summarizes a run.
type Result struct {
	Discovered       int
	Unique           int
	InDuration       int
	DurationFallback bool
	Enriched         int
	InYear           int

	// Items holds the output of the last completed stage. After a full run it
	// is the year-filtered set.
	Items []types.Item

	// Top and Bottom carry transcripts where one was found.
	Top    []types.Item
	Bottom []types.Item

	Records     []types.Ranked
	Transcripts int
	Elapsed     time.Duration
}

// Engine runs discovery, enrichment, ranking and transcript extraction in
// strict sequence.
type Engine struct {
	cfg       config.FilterConfig
	collector Collector
	enricher  Enricher

	throttle    Throttle
	exporter    Exporter
	transcripts TranscriptSink
	debug       DebugSink
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// New creates an Engine. Optional collaborators are set with the Set methods;
// without them ranked records and transcripts are only kept in the Result.
func New(cfg config.FilterConfig, collector Collector, enricher Enricher, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		collector: collector,
		enricher:  enricher,
		throttle:  NewFixedDelay(0),
		metrics:   observability.NewMetrics(logger),
		logger:    logger.With("component", "engine"),
	}
}

// SetThrottle sets the spacing policy for detail loads.
func (e *Engine) SetThrottle(t Throttle) { e.throttle = t }

// SetExporter sets the ranked-record exporter.
func (e *Engine) SetExporter(x Exporter) { e.exporter = x }

// SetTranscriptSink sets where transcripts are written.
func (e *Engine) SetTranscriptSink(s TranscriptSink) { e.transcripts = s }

// SetDebugSink sets where unparseable content is dumped.
func (e *Engine) SetDebugSink(d DebugSink) { e.debug = d }

// SetMetrics replaces the run counters.
func (e *Engine) SetMetrics(m *observability.Metrics) { e.metrics = m }

// Metrics returns the run counters.
func (e *Engine) Metrics() *observability.Metrics { return e.metrics }

// Run executes one full pass for searchURL. Per-item failures are logged and
// skipped. When ctx is cancelled Run returns the partial Result together with
// the context error.
func (e *Engine) Run(ctx context.Context, searchURL string) (*Result, error) {
	start := time.Now()
	res := &Result{}
	defer func() { res.Elapsed = time.Since(start) }()

	e.logger.Info("run starting",
		"url", searchURL,
		"duration_range", []float64{e.cfg.MinDuration, e.cfg.MaxDuration},
		"year_range", []int{e.cfg.StartYear, e.cfg.EndYear},
		"top_count", e.cfg.TopCount,
	)

	// Discovery
	items, err := e.collector.Collect(ctx, searchURL)
	if rep, ok := e.collector.(expansionReporter); ok {
		e.metrics.PaginationClicks.Add(int64(rep.LastExpansion().Clicks))
	}
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		e.logger.Error("listing collection failed, continuing with no items", "error",
			&types.PipelineError{Stage: "collect", URL: searchURL, Err: err})
	}
	res.Discovered = len(items)
	e.metrics.ItemsDiscovered.Add(int64(len(items)))

	candidates := e.discover(items, res)
	res.Items = candidates

	// Enrichment
	enriched, err := e.enrich(ctx, candidates)
	res.Items = enriched
	res.Enriched = countEnriched(enriched)
	if err != nil {
		return res, err
	}

	// Year filter and ranking
	post := pipeline.New(e.logger)
	post.Use(pipeline.YearStage{Start: e.cfg.StartYear, End: e.cfg.EndYear})
	inYear := post.Run(enriched)
	res.Items = inYear
	res.InYear = len(inYear)
	e.metrics.ItemsInYear.Store(int64(len(inYear)))

	top, bottom := pipeline.Rank(inYear, e.cfg.TopCount)
	e.metrics.ItemsRanked.Store(int64(len(top) + len(bottom)))
	e.logger.Info("ranking complete", "top", len(top), "bottom", len(bottom))

	// Transcripts
	if res.Top, err = e.attachTranscripts(ctx, top, storage.PrefixHigh, res); err != nil {
		return res, err
	}
	if res.Bottom, err = e.attachTranscripts(ctx, bottom, storage.PrefixLow, res); err != nil {
		return res, err
	}

	// Export
	res.Records = append(types.RankItems(res.Top, types.LabelTop), types.RankItems(res.Bottom, types.LabelBottom)...)
	if e.exporter != nil {
		if err := e.exporter.Store(res.Records); err != nil {
			return res, &types.PipelineError{Stage: "export", Err: err}
		}
		e.metrics.RecordsStored.Add(int64(len(res.Records)))
	}

	e.logger.Info("run complete",
		"discovered", res.Discovered,
		"unique", res.Unique,
		"enriched", res.Enriched,
		"ranked", len(res.Records),
		"transcripts", res.Transcripts,
		"elapsed", time.Since(start),
	)
	return res, nil
}

// discover deduplicates and applies the duration filter. When no item falls
// inside the duration range the deduplicated set is kept.
func (e *Engine) discover(items []types.Item, res *Result) []types.Item {
	durations := pipeline.KeepIfEmpty(
		pipeline.DurationStage{Min: e.cfg.MinDuration, Max: e.cfg.MaxDuration},
		e.logger,
	)

	p := pipeline.New(e.logger)
	p.Use(pipeline.DedupStage{})
	p.Use(durations)
	p.Observe(func(stage string, _, out int) {
		switch stage {
		case "dedup":
			res.Unique = out
		case "duration_filter":
			res.InDuration = out
		}
	})

	candidates := p.Run(items)
	res.DurationFallback = durations.FellBack()
	e.metrics.ItemsUnique.Store(int64(res.Unique))
	e.metrics.ItemsInDuration.Store(int64(len(candidates)))
	return candidates
}

// enrich loads every candidate's detail page in sequence. Items whose page
// cannot be loaded stay unenriched.
func (e *Engine) enrich(ctx context.Context, items []types.Item) ([]types.Item, error) {
	out := make([]types.Item, 0, len(items))
	for i, item := range items {
		if err := e.throttle.Wait(ctx); err != nil {
			return out, err
		}
		e.metrics.DetailLoads.Add(1)

		m, err := e.enricher.Metrics(ctx, item.URL)
		e.throttle.Done()
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			e.metrics.EnrichFailures.Add(1)
			e.logger.Warn("enrichment failed", "error",
				&types.PipelineError{Stage: "enrich", URL: item.URL, Err: err})
			out = append(out, item)
			continue
		}

		out = append(out, item.WithMetrics(m))
		e.metrics.ItemsEnriched.Add(1)
		e.logger.Debug("item enriched",
			"index", i+1,
			"of", len(items),
			"url", item.URL,
			"views", m.Views,
			"year", m.Year,
		)
	}
	return out, nil
}

// attachTranscripts extracts the transcript of every ranked item in order and
// writes the non-empty ones as <prefix>_view_<rank>.txt.
func (e *Engine) attachTranscripts(ctx context.Context, items []types.Item, prefix string, res *Result) ([]types.Item, error) {
	out := make([]types.Item, 0, len(items))
	for i, item := range items {
		if err := e.throttle.Wait(ctx); err != nil {
			return append(out, items[i:]...), err
		}
		e.metrics.DetailLoads.Add(1)

		t, err := e.enricher.Transcript(ctx, item.URL)
		e.throttle.Done()
		if err != nil {
			if ctx.Err() != nil {
				return append(out, items[i:]...), ctx.Err()
			}
			e.handleTranscriptError(item.URL, err)
		}

		item = item.WithTranscript(t.Text)
		out = append(out, item)

		if t.Text == "" {
			e.metrics.TranscriptsLost.Add(1)
			continue
		}
		e.metrics.TranscriptsSeen.Add(1)
		res.Transcripts++

		if e.transcripts == nil {
			continue
		}
		if _, err := e.transcripts.Write(prefix, i+1, t.Text); err != nil {
			e.logger.Error("transcript write failed", "url", item.URL, "error", err)
			continue
		}
		e.metrics.TranscriptFiles.Add(1)
	}
	return out, nil
}

func (e *Engine) handleTranscriptError(url string, err error) {
	e.logger.Warn("transcript extraction failed", "error",
		&types.PipelineError{Stage: "transcript", URL: url, Err: err})

	var parseErr *types.ParseError
	if e.debug == nil || !errors.As(err, &parseErr) || parseErr.Raw == "" {
		return
	}

	dump := e.debug.DumpBlock
	if errors.Is(err, parser.ErrNoTranscript) {
		dump = e.debug.DumpPage
	}
	path, derr := dump(parseErr.Raw)
	if derr != nil {
		e.logger.Error("debug dump failed", "url", url, "error", derr)
		return
	}
	if path != "" {
		e.metrics.DebugDumps.Add(1)
	}
}

func countEnriched(items []types.Item) int {
	n := 0
	for _, item := range items {
		if item.Enriched {
			n++
		}
	}
	return n
}
