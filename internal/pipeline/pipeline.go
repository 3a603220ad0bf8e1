package pipeline

import (
	"log/slog"

	"github.com/IshaanNene/talkscout/internal/types"
)

// Stage transforms a set of items into a new set. Stages must not modify the
// input slice.
type Stage interface {
	// Name returns the stage's identifier.
	Name() string

	// Apply returns the items that survive the stage.
	Apply(items []types.Item) []types.Item
}

// Pipeline chains stages together.
type Pipeline struct {
	stages   []Stage
	observer func(stage string, in, out int)
	logger   *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Use adds a stage to the chain.
func (p *Pipeline) Use(s Stage) {
	p.stages = append(p.stages, s)
	p.logger.Debug("stage added", "name", s.Name(), "position", len(p.stages))
}

// Observe registers a callback invoked with the item counts of every stage.
func (p *Pipeline) Observe(fn func(stage string, in, out int)) {
	p.observer = fn
}

// Run passes items through every stage in order.
func (p *Pipeline) Run(items []types.Item) []types.Item {
	current := items
	for _, s := range p.stages {
		next := s.Apply(current)
		p.logger.Info("stage complete", "stage", s.Name(), "in", len(current), "out", len(next))
		if p.observer != nil {
			p.observer(s.Name(), len(current), len(next))
		}
		current = next
	}
	return current
}

// Len returns the number of stages in the chain.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// --- Built-in Stages ---

// DedupStage drops repeated URLs.
type DedupStage struct{}

func (DedupStage) Name() string { return "dedup" }

func (DedupStage) Apply(items []types.Item) []types.Item { return Deduplicate(items) }

// DurationStage keeps items within a duration range in minutes.
type DurationStage struct {
	Min, Max float64
}

func (DurationStage) Name() string { return "duration_filter" }

func (s DurationStage) Apply(items []types.Item) []types.Item {
	return FilterDuration(items, s.Min, s.Max)
}

// YearStage keeps items published within a year range.
type YearStage struct {
	Start, End int
}

func (YearStage) Name() string { return "year_filter" }

func (s YearStage) Apply(items []types.Item) []types.Item {
	return FilterYear(items, s.Start, s.End)
}

// FallbackStage runs the wrapped stage but returns its input unchanged when
// the stage would discard every item.
type FallbackStage struct {
	Stage  Stage
	Logger *slog.Logger

	fellBack bool
}

// KeepIfEmpty wraps s in a FallbackStage.
func KeepIfEmpty(s Stage, logger *slog.Logger) *FallbackStage {
	return &FallbackStage{Stage: s, Logger: logger}
}

func (f *FallbackStage) Name() string { return f.Stage.Name() }

// FellBack reports whether the last Apply returned its input.
func (f *FallbackStage) FellBack() bool { return f.fellBack }

func (f *FallbackStage) Apply(items []types.Item) []types.Item {
	out := f.Stage.Apply(items)
	f.fellBack = len(out) == 0 && len(items) > 0
	if f.fellBack {
		f.Logger.Warn("stage removed every item, keeping its input",
			"stage", f.Stage.Name(),
			"items", len(items),
		)
		return append([]types.Item{}, items...)
	}
	return out
}
