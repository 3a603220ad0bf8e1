package types

import (
	"strconv"
)

// Placeholders used when a card field cannot be extracted.
const (
	DefaultTitle     = "Unknown title"
	DefaultPresenter = "Unknown speaker"
	DefaultDuration  = "Unknown duration"
)

// Ranking labels attached to exported records.
const (
	LabelTop    = "top"
	LabelBottom = "bottom"
)

// Item is one discovered talk. It is passed by value between pipeline stages;
// a stage that changes an item returns an updated copy.
type Item struct {
	// URL is the canonical absolute detail-page URL and the only dedup key.
	URL string

	Title     string
	Presenter string

	// Duration is the raw card text, usually "mm:ss".
	Duration string

	// Views and Year are populated by enrichment.
	Views int64
	Year  string

	// Enriched is set once metrics have been applied.
	Enriched bool

	// Transcript is empty until extraction was attempted and stays empty
	// when the detail page has none.
	Transcript string
}

// Metrics holds the values read from a detail page.
type Metrics struct {
	Views int64
	Year  string
}

// NewItem creates an Item for a detail URL with placeholder descriptive fields.
func NewItem(detailURL string) Item {
	return Item{
		URL:       detailURL,
		Title:     DefaultTitle,
		Presenter: DefaultPresenter,
		Duration:  DefaultDuration,
	}
}

// WithMetrics returns a copy of the item carrying the given metrics.
func (i Item) WithMetrics(m Metrics) Item {
	i.Views = m.Views
	i.Year = m.Year
	i.Enriched = true
	return i
}

// WithTranscript returns a copy of the item carrying the transcript text.
func (i Item) WithTranscript(text string) Item {
	i.Transcript = text
	return i
}

// Ranked is an item placed into the top or bottom set.
type Ranked struct {
	Rank  int
	Label string
	Item  Item
}

// ToFlatMap returns the export columns for a ranked record. The transcript body
// is deliberately not part of the tabular export.
func (r Ranked) ToFlatMap() map[string]string {
	return map[string]string{
		"rank":      strconv.Itoa(r.Rank),
		"label":     r.Label,
		"title":     r.Item.Title,
		"presenter": r.Item.Presenter,
		"duration":  r.Item.Duration,
		"views":     strconv.FormatInt(r.Item.Views, 10),
		"year":      r.Item.Year,
		"url":       r.Item.URL,
	}
}

// RankItems numbers items from 1 under a label.
func RankItems(items []Item, label string) []Ranked {
	out := make([]Ranked, len(items))
	for i, item := range items {
		out[i] = Ranked{Rank: i + 1, Label: label, Item: item}
	}
	return out
}
