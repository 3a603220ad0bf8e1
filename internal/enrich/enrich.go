// Package enrich loads talk detail pages and reads metrics and transcripts
// from them.
package enrich

import (
	"context"
	"errors"
	"log/slog"

	"github.com/IshaanNene/talkscout/internal/fetcher"
	"github.com/IshaanNene/talkscout/internal/parser"
	"github.com/IshaanNene/talkscout/internal/types"
)

// Enricher reads detail pages through a Loader. Both operations are
// idempotent and never retry internally.
type Enricher struct {
	loader fetcher.Loader
	logger *slog.Logger
}

// NewEnricher creates an enricher backed by loader.
func NewEnricher(loader fetcher.Loader, logger *slog.Logger) *Enricher {
	return &Enricher{
		loader: loader,
		logger: logger.With("component", "enricher"),
	}
}

// Metrics loads url and extracts the view count and publish year. Pattern
// misses are logged and leave the zero value; only load failures are errors.
func (e *Enricher) Metrics(ctx context.Context, url string) (types.Metrics, error) {
	page, err := e.load(ctx, url)
	if err != nil {
		return types.Metrics{}, err
	}

	res := parser.ExtractMetrics(page)
	if !res.ViewsFound() {
		e.logger.Warn("view count not found", "url", url)
	}
	if !res.YearFound() {
		e.logger.Warn("publish year not found", "url", url)
	}

	e.logger.Debug("metrics extracted",
		"url", url,
		"views", res.Metrics.Views,
		"year", res.Metrics.Year,
		"views_pattern", res.ViewsPattern,
		"year_pattern", res.YearPattern,
	)
	return res.Metrics, nil
}

// Transcript loads url and reads the transcript from its JSON-LD data. A
// block without a transcript is a normal empty result. Failures come back as
// *types.ParseError whose Raw holds the undecodable block, or the whole page
// when no block was found (errors.Is(err, parser.ErrNoTranscript)).
func (e *Enricher) Transcript(ctx context.Context, url string) (parser.Transcript, error) {
	page, err := e.load(ctx, url)
	if err != nil {
		return parser.Transcript{}, err
	}

	t, err := parser.ExtractTranscript(page)
	if err == nil {
		if t.Text == "" {
			e.logger.Warn("transcript block has no transcript", "url", url, "selector", t.Selector)
		} else {
			e.logger.Debug("transcript extracted", "url", url, "selector", t.Selector, "length", len(t.Text))
		}
		return t, nil
	}

	if errors.Is(err, parser.ErrNoTranscript) {
		return parser.Transcript{}, &types.ParseError{
			URL:      url,
			Selector: parser.PrimaryTranscriptSelector,
			Raw:      page,
			Err:      err,
		}
	}

	raw := t.Raw
	var blockErr *parser.BlockError
	if errors.As(err, &blockErr) {
		raw = blockErr.Raw
	}
	return parser.Transcript{}, &types.ParseError{
		URL:      url,
		Selector: t.Selector,
		Raw:      raw,
		Err:      err,
	}
}

func (e *Enricher) load(ctx context.Context, url string) (string, error) {
	page, err := e.loader.Load(ctx, url)
	if err != nil {
		return "", err
	}
	if ch := fetcher.DetectChallenge(page); ch != "" {
		e.logger.Warn("detail page served a bot challenge", "url", url, "challenge", ch)
	}
	return page, nil
}
