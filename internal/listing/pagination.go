package listing

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/IshaanNene/talkscout/internal/config"
	"github.com/IshaanNene/talkscout/internal/fetcher"
	"github.com/IshaanNene/talkscout/internal/types"
)

// maxConsecutiveFailures is the number of back-to-back failed expansion
// attempts after which pagination gives up.
const maxConsecutiveFailures = 2

var totalPattern = regexp.MustCompile(`of\s+([\d,]+)`)

// StopReason tells why expansion ended.
type StopReason string

const (
	StopControlMissing StopReason = "control_missing"
	StopTotalReached   StopReason = "total_reached"
	StopCapReached     StopReason = "cap_reached"
	StopClickFailures  StopReason = "click_failures"
	StopCancelled      StopReason = "cancelled"
)

// Expansion summarizes a pagination run. Total is -1 when the counter could
// not be read.
type Expansion struct {
	Clicks int
	Count  int
	Total  int
	Cap    int
	Reason StopReason
}

// ParseTotal reads the expected result count from counter text such as
// "Showing 24 of 1,240 talks".
func ParseTotal(text string) (int, bool) {
	m := totalPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}

// AttemptCap bounds the number of expansion clicks. With a known total it is
// ceil(total/pageSize)-1 limited to hardCap; with an unknown total (zero or
// negative) it is fallbackCap. The result is never negative.
func AttemptCap(total, pageSize, hardCap, fallbackCap int) int {
	if total <= 0 {
		return max(fallbackCap, 0)
	}
	if pageSize <= 0 {
		pageSize = 1
	}
	pages := (total + pageSize - 1) / pageSize
	return max(min(pages-1, hardCap), 0)
}

// Paginator drives the "load more" control of a listing page until the
// expected total is rendered, the control disappears, or the attempt cap is
// exhausted.
type Paginator struct {
	page   fetcher.Page
	cfg    config.ListingConfig
	logger *slog.Logger
}

// NewPaginator creates a paginator over page.
func NewPaginator(page fetcher.Page, cfg config.ListingConfig, logger *slog.Logger) *Paginator {
	return &Paginator{
		page:   page,
		cfg:    cfg,
		logger: logger.With("component", "paginator"),
	}
}

// Expand clicks the load-more control repeatedly. It only returns an error
// when ctx is done; every other failure ends expansion early and is reported
// through the Expansion.
func (p *Paginator) Expand(ctx context.Context) (Expansion, error) {
	exp := Expansion{Total: p.readTotal(ctx)}
	exp.Cap = AttemptCap(exp.Total, p.cfg.PageSize, p.cfg.HardCap, p.cfg.FallbackCap)

	count, err := p.page.Count(ctx, p.cfg.CardSelector)
	if err != nil && ctx.Err() != nil {
		exp.Reason = StopCancelled
		return exp, ctx.Err()
	}
	exp.Count = count

	p.logger.Info("starting pagination",
		"expected_total", exp.Total,
		"attempt_cap", exp.Cap,
		"initial_count", count,
	)

	failures := 0
	for attempt := 1; attempt <= exp.Cap; attempt++ {
		if err := ctx.Err(); err != nil {
			exp.Reason = StopCancelled
			return exp, err
		}
		if p.totalReached(exp) {
			exp.Reason = StopTotalReached
			break
		}

		present, err := p.page.Exists(ctx, p.cfg.LoadMoreSelector)
		if err != nil || !present {
			exp.Reason = StopControlMissing
			break
		}

		before := exp.Count
		if err := p.page.Click(ctx, p.cfg.LoadMoreSelector); err != nil {
			if ctx.Err() != nil {
				exp.Reason = StopCancelled
				return exp, ctx.Err()
			}
			failures++
			p.logger.Warn("load-more click failed", "attempt", attempt, "failures", failures, "error", err)
			if failures >= maxConsecutiveFailures {
				exp.Reason = StopClickFailures
				break
			}
			continue
		}
		exp.Clicks++

		after, err := p.awaitGrowth(ctx, before)
		if err != nil {
			exp.Reason = StopCancelled
			return exp, err
		}
		exp.Count = after

		if after > before {
			failures = 0
			p.logger.Debug("listing expanded", "attempt", attempt, "count", after)
			continue
		}

		failures++
		p.logger.Warn("no new cards after click", "attempt", attempt, "count", after, "failures", failures)
		if failures >= maxConsecutiveFailures {
			exp.Reason = StopClickFailures
			break
		}
	}

	if exp.Reason == "" {
		if p.totalReached(exp) {
			exp.Reason = StopTotalReached
		} else {
			exp.Reason = StopCapReached
		}
	}

	p.logger.Info("pagination finished",
		"clicks", exp.Clicks,
		"count", exp.Count,
		"reason", exp.Reason,
	)
	return exp, nil
}

// awaitGrowth waits for the card count to exceed before. On timeout it sleeps
// the settle delay and samples once more.
func (p *Paginator) awaitGrowth(ctx context.Context, before int) (int, error) {
	count, err := p.page.WaitCount(ctx, p.cfg.CardSelector, before+1, p.cfg.LoadTimeout)
	if err == nil {
		return count, nil
	}
	if !errors.Is(err, types.ErrTimeout) {
		if ctx.Err() != nil {
			return count, ctx.Err()
		}
		p.logger.Debug("wait for cards failed", "error", err)
	}

	if err := fetcher.Sleep(ctx, p.cfg.SettleDelay); err != nil {
		return count, err
	}
	resampled, err := p.page.Count(ctx, p.cfg.CardSelector)
	if err != nil {
		if ctx.Err() != nil {
			return count, ctx.Err()
		}
		return count, nil
	}
	return resampled, nil
}

func (p *Paginator) readTotal(ctx context.Context) int {
	text, err := p.page.Text(ctx, p.cfg.CounterSelector)
	if err != nil {
		p.logger.Warn("result counter not found, using fallback cap", "error", err)
		return -1
	}
	total, ok := ParseTotal(text)
	if !ok || total == 0 {
		p.logger.Warn("result counter unreadable, using fallback cap", "text", text)
		return -1
	}
	return total
}

func (p *Paginator) totalReached(exp Expansion) bool {
	return exp.Total >= 0 && exp.Count >= exp.Total
}
