package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/IshaanNene/talkscout/internal/types"
)

// Pattern is a named regular expression whose first capture group holds the
// value of interest.
type Pattern struct {
	Name string
	Re   *regexp.Regexp
}

// ViewPatterns are tried in order against the rendered detail page.
var ViewPatterns = []Pattern{
	{Name: "plays-div", Re: regexp.MustCompile(`<div class="mr-1 flex items-center gap-1">([\d,]+) plays`)},
	{Name: "plays-text", Re: regexp.MustCompile(`(?i)>\s*([\d.,]+\s*[km]?)\s+(?:plays|views)\s*<`)},
	{Name: "json-ld-interaction", Re: regexp.MustCompile(`"(?:interactionCount|userInteractionCount)"\s*:\s*"?(\d+)`)},
}

// YearPatterns are tried in order against the rendered detail page.
var YearPatterns = []Pattern{
	{Name: "date-div", Re: regexp.MustCompile(`<div class="text-sm text-gray-900">\s*•\s*[a-zA-Z]+\s+(\d{4})\s*</div>`)},
	{Name: "json-ld-date", Re: regexp.MustCompile(`"(?:uploadDate|datePublished)"\s*:\s*"(\d{4})-`)},
}

// MetricsResult reports which patterns matched on a detail page.
type MetricsResult struct {
	Metrics      types.Metrics
	ViewsPattern string
	YearPattern  string
}

// ViewsFound reports whether any view pattern matched.
func (r MetricsResult) ViewsFound() bool { return r.ViewsPattern != "" }

// YearFound reports whether any year pattern matched.
func (r MetricsResult) YearFound() bool { return r.YearPattern != "" }

// ExtractMetrics pattern-matches the page for a view count and a publish year.
// Misses leave zero views and an empty year.
func ExtractMetrics(pageHTML string) MetricsResult {
	var res MetricsResult

	for _, p := range ViewPatterns {
		m := p.Re.FindStringSubmatch(pageHTML)
		if m == nil {
			continue
		}
		if views, ok := ParseViews(m[1]); ok {
			res.Metrics.Views = views
			res.ViewsPattern = p.Name
			break
		}
	}

	for _, p := range YearPatterns {
		if m := p.Re.FindStringSubmatch(pageHTML); m != nil {
			res.Metrics.Year = m[1]
			res.YearPattern = p.Name
			break
		}
	}

	return res
}

// ParseViews parses free-text view counts: "2,500", "3.4k", "1.2M views".
func ParseViews(text string) (int64, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.NewReplacer("views", "", "view", "", "plays", "", ",", "").Replace(s)
	s = strings.TrimSpace(s)

	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "m"):
		multiplier = 1_000_000
		s = strings.TrimSpace(strings.TrimSuffix(s, "m"))
	case strings.HasSuffix(s, "k"):
		multiplier = 1_000
		s = strings.TrimSpace(strings.TrimSuffix(s, "k"))
	}
	if s == "" {
		return 0, false
	}

	if multiplier == 1 {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return int64(math.Round(f * multiplier)), true
}
