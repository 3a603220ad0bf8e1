package pipeline

import (
	"strconv"

	"github.com/IshaanNene/talkscout/internal/parser"
	"github.com/IshaanNene/talkscout/internal/types"
)

// Deduplicate keeps the first occurrence of every URL, preserving order.
func Deduplicate(items []types.Item) []types.Item {
	seen := make(map[string]struct{}, len(items))
	out := make([]types.Item, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.URL]; ok {
			continue
		}
		seen[item.URL] = struct{}{}
		out = append(out, item)
	}
	return out
}

// FilterDuration keeps items whose normalized duration lies in [min, max]
// minutes. Unparseable durations normalize to 0.
func FilterDuration(items []types.Item, minMinutes, maxMinutes float64) []types.Item {
	out := make([]types.Item, 0, len(items))
	for _, item := range items {
		d := parser.DurationMinutes(item.Duration)
		if d >= minMinutes && d <= maxMinutes {
			out = append(out, item)
		}
	}
	return out
}

// FilterYear keeps items whose year lies in [start, end]. Items without a
// numeric year are excluded.
func FilterYear(items []types.Item, start, end int) []types.Item {
	out := make([]types.Item, 0, len(items))
	for _, item := range items {
		year, err := strconv.Atoi(item.Year)
		if err != nil {
			continue
		}
		if year >= start && year <= end {
			out = append(out, item)
		}
	}
	return out
}
