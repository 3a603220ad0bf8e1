package pipeline

import (
	"sort"

	"github.com/IshaanNene/talkscout/internal/types"
)

// Rank orders enriched items by views, highest first, with ties kept in input
// order. top holds the first n; bottom holds the last n of the same ordering
// and is empty when fewer than n items are available. The two sets overlap
// when there are fewer than 2n items.
func Rank(items []types.Item, n int) (top, bottom []types.Item) {
	if n <= 0 {
		return []types.Item{}, []types.Item{}
	}

	sorted := make([]types.Item, 0, len(items))
	for _, item := range items {
		if item.Enriched {
			sorted = append(sorted, item)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Views > sorted[j].Views
	})

	top = append([]types.Item{}, sorted[:min(n, len(sorted))]...)
	if len(sorted) < n {
		return top, []types.Item{}
	}
	bottom = append([]types.Item{}, sorted[len(sorted)-n:]...)
	return top, bottom
}
