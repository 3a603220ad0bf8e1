package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/talkscout/internal/config"
	"github.com/IshaanNene/talkscout/internal/types"
)

// Session owns one browser process for the duration of a run. It hands out
// listing pages and implements Loader for detail pages on a dedicated tab.
type Session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	cfg      config.BrowserConfig
	listing  config.ListingConfig
	detail   config.DetailConfig
	logger   *slog.Logger

	mu         sync.Mutex
	pages      []*rod.Page
	detailPage *RodPage
	closed     bool
}

// NewSession launches Chromium and connects to it. Any partially started
// browser process is killed when setup fails.
func NewSession(cfg *config.Config, logger *slog.Logger) (*Session, error) {
	s := &Session{
		cfg:     cfg.Browser,
		listing: cfg.Listing,
		detail:  cfg.Detail,
		logger:  logger.With("component", "browser_session"),
	}

	controlURL, err := s.launchBrowser()
	if err != nil {
		s.teardown()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		s.teardown()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	s.browser = browser

	s.logger.Info("browser session ready",
		"headless", s.cfg.Headless,
		"stealth", s.cfg.Stealth,
	)
	return s, nil
}

// launchBrowser starts a Chromium instance with appropriate flags. The
// launcher downloads a browser build when no binary is configured.
func (s *Session) launchBrowser() (string, error) {
	l := launcher.New().
		Headless(s.cfg.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("disable-blink-features", "AutomationControlled")

	if s.cfg.NoSandbox {
		l = l.NoSandbox(true)
	}
	if s.cfg.WindowSize != "" {
		l = l.Set("window-size", s.cfg.WindowSize)
	}
	if s.cfg.Bin != "" {
		l = l.Bin(s.cfg.Bin)
	}
	s.launcher = l

	return l.Launch()
}

// NewPage opens a new tab wrapped as a Page.
func (s *Session) NewPage() (*RodPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, types.ErrSessionClosed
	}

	page, err := s.openPage()
	if err != nil {
		return nil, err
	}
	return NewRodPage(page, s.listing.ScrollPause, s.listing.LoadTimeout, s.logger), nil
}

func (s *Session) openPage() (*rod.Page, error) {
	var (
		page *rod.Page
		err  error
	)
	if s.cfg.Stealth {
		page, err = stealth.Page(s.browser)
		if err != nil {
			return nil, fmt.Errorf("stealth page: %w", err)
		}
	} else {
		page, err = s.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
		if err != nil {
			return nil, fmt.Errorf("open page: %w", err)
		}
	}

	if ua := s.detail.UserAgent; ua != "" {
		err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua})
		if err != nil {
			s.logger.Warn("failed to set user agent", "error", err)
		}
	}

	s.pages = append(s.pages, page)
	return page, nil
}

// Load navigates the detail tab to url, lets client-side rendering settle and
// returns the rendered DOM.
func (s *Session) Load(ctx context.Context, url string) (string, error) {
	page, err := s.detailTab()
	if err != nil {
		return "", &types.FetchError{URL: url, Err: err}
	}

	loadCtx, cancel := context.WithTimeout(ctx, s.detail.RequestTimeout)
	defer cancel()

	if err := page.Navigate(loadCtx, url); err != nil {
		return "", err
	}
	if err := Sleep(ctx, s.detail.PageSettle); err != nil {
		return "", err
	}

	html, err := page.HTML(ctx)
	if err != nil {
		return "", &types.FetchError{URL: url, Err: err}
	}

	s.logger.Debug("detail page loaded", "url", url, "size", len(html))
	return html, nil
}

func (s *Session) detailTab() (*RodPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, types.ErrSessionClosed
	}
	if s.detailPage == nil {
		page, err := s.openPage()
		if err != nil {
			return nil, err
		}
		s.detailPage = NewRodPage(page, s.listing.ScrollPause, s.listing.LoadTimeout, s.logger)
	}
	return s.detailPage, nil
}

// Close shuts down the browser and releases resources. It is safe to call
// more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	for _, page := range s.pages {
		_ = page.Close()
	}

	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	s.teardown()

	s.logger.Info("browser session closed")
	return err
}

// teardown kills the browser process and removes its profile directory.
// Cleanup waits for the process to exit, so it is skipped when none started.
func (s *Session) teardown() {
	if s.launcher == nil || s.launcher.PID() == 0 {
		return
	}
	s.launcher.Kill()
	s.launcher.Cleanup()
}

// Sleep pauses for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
