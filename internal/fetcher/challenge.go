package fetcher

import "strings"

// Challenge identifies an anti-bot interstitial served instead of content.
type Challenge string

const (
	ChallengeReCaptcha  Challenge = "recaptcha"
	ChallengeHCaptcha   Challenge = "hcaptcha"
	ChallengeTurnstile  Challenge = "turnstile"
	ChallengeCloudflare Challenge = "cloudflare"
)

// DetectChallenge checks a page for common CAPTCHA and bot-check markers.
// It returns an empty Challenge for normal pages.
func DetectChallenge(html string) Challenge {
	lower := strings.ToLower(html)

	switch {
	case strings.Contains(lower, "g-recaptcha") || strings.Contains(lower, "recaptcha/api.js"):
		if hasSiteKey(html) {
			return ChallengeReCaptcha
		}
	case strings.Contains(lower, "h-captcha") || strings.Contains(lower, "hcaptcha.com/1/api.js"):
		if hasSiteKey(html) {
			return ChallengeHCaptcha
		}
	case strings.Contains(lower, "cf-turnstile"):
		if hasSiteKey(html) {
			return ChallengeTurnstile
		}
	}

	if strings.Contains(lower, "<title>just a moment...</title>") ||
		strings.Contains(lower, "cf-browser-verification") {
		return ChallengeCloudflare
	}
	return ""
}

func hasSiteKey(html string) bool {
	return extractBetween(html, `data-sitekey="`, `"`) != ""
}

// extractBetween extracts a substring between two delimiters.
func extractBetween(s, start, end string) string {
	idx := strings.Index(s, start)
	if idx < 0 {
		return ""
	}
	s = s[idx+len(start):]
	idx = strings.Index(s, end)
	if idx < 0 {
		return ""
	}
	return s[:idx]
}
