package fetcher

import (
	"context"
	"strings"
	"time"
)

// Page is a rendered document that can be queried and driven. Selectors are
// CSS unless they look like XPath (see IsXPath).
type Page interface {
	// Navigate loads the URL and waits for the load event.
	Navigate(ctx context.Context, url string) error

	// HTML returns the current serialized DOM.
	HTML(ctx context.Context) (string, error)

	// Count returns the number of elements matching selector.
	Count(ctx context.Context, selector string) (int, error)

	// Text returns the text of the first element matching selector.
	Text(ctx context.Context, selector string) (string, error)

	// Exists reports whether at least one element matches selector.
	Exists(ctx context.Context, selector string) (bool, error)

	// OuterHTML returns the outer HTML of every element matching selector.
	OuterHTML(ctx context.Context, selector string) ([]string, error)

	// Click scrolls the first match into view and clicks it.
	Click(ctx context.Context, selector string) error

	// WaitCount waits until at least n elements match selector and returns the
	// last observed count. It returns types.ErrTimeout when timeout elapses.
	WaitCount(ctx context.Context, selector string, n int, timeout time.Duration) (int, error)
}

// Loader returns the HTML of a detail page.
type Loader interface {
	Load(ctx context.Context, url string) (string, error)
}

// IsXPath reports whether a selector should be evaluated as XPath.
func IsXPath(selector string) bool {
	return strings.HasPrefix(selector, "/") ||
		strings.HasPrefix(selector, "./") ||
		strings.HasPrefix(selector, "(")
}
