package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/IshaanNene/talkscout/internal/types"
)

const pollInterval = 250 * time.Millisecond

// RodPage implements Page on top of a Rod tab.
type RodPage struct {
	page         *rod.Page
	scrollPause  time.Duration
	clickTimeout time.Duration
	logger       *slog.Logger
}

// NewRodPage wraps a Rod page.
func NewRodPage(page *rod.Page, scrollPause, clickTimeout time.Duration, logger *slog.Logger) *RodPage {
	return &RodPage{
		page:         page,
		scrollPause:  scrollPause,
		clickTimeout: clickTimeout,
		logger:       logger.With("component", "page"),
	}
}

// Navigate implements Page.
func (p *RodPage) Navigate(ctx context.Context, url string) error {
	page := p.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return &types.FetchError{URL: url, Err: err}
	}
	if err := page.WaitLoad(); err != nil {
		return &types.FetchError{URL: url, Err: fmt.Errorf("wait load: %w", err)}
	}
	return nil
}

// HTML implements Page.
func (p *RodPage) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

func (p *RodPage) elements(ctx context.Context, selector string) (rod.Elements, error) {
	page := p.page.Context(ctx)
	if IsXPath(selector) {
		return page.ElementsX(selector)
	}
	return page.Elements(selector)
}

func (p *RodPage) first(ctx context.Context, selector string) (*rod.Element, error) {
	els, err := p.elements(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrElementMissing, selector)
	}
	return els[0], nil
}

// Count implements Page.
func (p *RodPage) Count(ctx context.Context, selector string) (int, error) {
	els, err := p.elements(ctx, selector)
	if err != nil {
		return 0, err
	}
	return len(els), nil
}

// Text implements Page.
func (p *RodPage) Text(ctx context.Context, selector string) (string, error) {
	el, err := p.first(ctx, selector)
	if err != nil {
		return "", err
	}
	return el.Text()
}

// Exists implements Page.
func (p *RodPage) Exists(ctx context.Context, selector string) (bool, error) {
	page := p.page.Context(ctx)
	var (
		has bool
		err error
	)
	if IsXPath(selector) {
		has, _, err = page.HasX(selector)
	} else {
		has, _, err = page.Has(selector)
	}
	return has, err
}

// OuterHTML implements Page.
func (p *RodPage) OuterHTML(ctx context.Context, selector string) ([]string, error) {
	els, err := p.elements(ctx, selector)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(els))
	for _, el := range els {
		html, err := el.HTML()
		if err != nil {
			p.logger.Debug("skipping detached element", "selector", selector, "error", err)
			continue
		}
		out = append(out, html)
	}
	return out, nil
}

// Click scrolls the element into view, pauses, and clicks it. When the native
// click is rejected (overlay, detached node) a script click is dispatched.
func (p *RodPage) Click(ctx context.Context, selector string) error {
	el, err := p.first(ctx, selector)
	if err != nil {
		return err
	}
	el = el.Context(ctx).Timeout(p.clickTimeout)
	defer el.CancelTimeout()

	if err := el.ScrollIntoView(); err != nil {
		p.logger.Debug("scroll into view failed", "selector", selector, "error", err)
	}
	if err := Sleep(ctx, p.scrollPause); err != nil {
		return err
	}

	nativeErr := el.Click(proto.InputMouseButtonLeft, 1)
	if nativeErr == nil {
		return nil
	}

	p.logger.Debug("native click failed, using script click", "selector", selector, "error", nativeErr)
	if _, err := el.Eval(`() => this.click()`); err != nil {
		return fmt.Errorf("click %s: native: %v, script: %w", selector, nativeErr, err)
	}
	return nil
}

// WaitCount implements Page by polling the element count.
func (p *RodPage) WaitCount(ctx context.Context, selector string, n int, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		count, err := p.Count(ctx, selector)
		if err == nil && count >= n {
			return count, nil
		}
		if time.Now().After(deadline) {
			return count, types.ErrTimeout
		}
		select {
		case <-ctx.Done():
			return count, ctx.Err()
		case <-ticker.C:
		}
	}
}
