package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	clockDurationRe   = regexp.MustCompile(`^(\d+):(\d{2})$`)
	minutesDurationRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(?:min|mins|minutes)?$`)
	isoDurationRe     = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)
)

// DurationMinutes normalizes duration text to fractional minutes.
// "12:30" is 12.5, "5" and "5 min" are 5, anything else is 0.
func DurationMinutes(text string) float64 {
	s := strings.ToLower(strings.TrimSpace(text))

	if m := clockDurationRe.FindStringSubmatch(s); m != nil {
		minutes, _ := strconv.Atoi(m[1])
		seconds, _ := strconv.Atoi(m[2])
		return float64(minutes) + float64(seconds)/60
	}
	if m := minutesDurationRe.FindStringSubmatch(s); m != nil {
		minutes, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0
		}
		return minutes
	}
	return 0
}

// ISODurationToClock converts PT#H#M#S to "m:ss" with hours folded into
// minutes.
func ISODurationToClock(iso string) (string, bool) {
	m := isoDurationRe.FindStringSubmatch(strings.TrimSpace(iso))
	if m == nil || (m[1] == "" && m[2] == "" && m[3] == "") {
		return "", false
	}
	hours, _ := strconv.Atoi(orZero(m[1]))
	minutes, _ := strconv.Atoi(orZero(m[2]))
	seconds, _ := strconv.Atoi(orZero(m[3]))
	return fmt.Sprintf("%d:%02d", hours*60+minutes, seconds), true
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
