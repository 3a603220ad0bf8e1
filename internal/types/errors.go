package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrTimeout        = errors.New("wait timed out")
	ErrNoLink         = errors.New("card has no usable detail link")
	ErrInvalidURL     = errors.New("invalid URL")
	ErrEmptyResponse  = errors.New("empty response body")
	ErrSessionClosed  = errors.New("browser session is closed")
	ErrElementMissing = errors.New("element not found")
)

// FetchError wraps errors that occur while loading a page.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError wraps errors that occur during parsing. Raw holds the content that
// failed to parse so callers can persist it for diagnosis.
type ParseError struct {
	URL      string
	Selector string
	Raw      string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s (selector=%q): %v", e.URL, e.Selector, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur during storage/export.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PipelineError wraps errors that occur in a pipeline stage.
type PipelineError struct {
	Stage string
	URL   string
	Err   error
}

func (e *PipelineError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("pipeline error at stage %q for %s: %v", e.Stage, e.URL, e.Err)
	}
	return fmt.Sprintf("pipeline error at stage %q: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
