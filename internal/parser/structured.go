package parser

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoTranscript is returned when a page has no JSON-LD block that could carry
// a transcript.
var ErrNoTranscript = errors.New("no transcript block found")

const (
	// PrimaryTranscriptSelector targets the head-managed JSON-LD block.
	PrimaryTranscriptSelector = `script[type="application/ld+json"][data-next-head]`
	jsonLDSelector            = `script[type="application/ld+json"]`
)

// Transcript is the outcome of a transcript lookup. An empty Text with a nil
// error means the block was found but carried no transcript.
type Transcript struct {
	Text     string
	Selector string
	Raw      string
}

// BlockError reports a JSON-LD block that could not be decoded.
type BlockError struct {
	Raw string
	Err error
}

func (e *BlockError) Error() string { return "decode JSON-LD block: " + e.Err.Error() }

func (e *BlockError) Unwrap() error { return e.Err }

// ExtractTranscript finds the JSON-LD block carrying the transcript and
// decodes it. The head-managed block is preferred; otherwise the first block
// whose raw text mentions "transcript" is used.
func ExtractTranscript(pageHTML string) (Transcript, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return Transcript{}, err
	}

	raw, selector := findTranscriptBlock(doc)
	if selector == "" {
		return Transcript{}, ErrNoTranscript
	}

	text, err := decodeTranscript(raw)
	if err != nil {
		return Transcript{Selector: selector, Raw: raw}, &BlockError{Raw: raw, Err: err}
	}
	return Transcript{Text: text, Selector: selector, Raw: raw}, nil
}

func findTranscriptBlock(doc *goquery.Document) (string, string) {
	if primary := doc.Find(PrimaryTranscriptSelector).First(); primary.Length() > 0 {
		return strings.TrimSpace(primary.Text()), PrimaryTranscriptSelector
	}

	var raw string
	doc.Find(jsonLDSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if strings.Contains(text, "transcript") {
			raw = strings.TrimSpace(text)
			return false
		}
		return true
	})
	if raw == "" {
		return "", ""
	}
	return raw, jsonLDSelector
}

// decodeTranscript reads the transcript field of a JSON-LD object, or of the
// first object in a JSON-LD array that has one.
func decodeTranscript(raw string) (string, error) {
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return "", err
	}

	switch v := data.(type) {
	case map[string]any:
		return transcriptField(v), nil
	case []any:
		for _, entry := range v {
			if obj, ok := entry.(map[string]any); ok {
				if text := transcriptField(obj); text != "" {
					return text, nil
				}
			}
		}
	}
	return "", nil
}

func transcriptField(obj map[string]any) string {
	s, _ := obj["transcript"].(string)
	return strings.TrimSpace(s)
}
