package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/IshaanNene/talkscout/internal/config"
	"github.com/IshaanNene/talkscout/internal/fetcher"
	"github.com/IshaanNene/talkscout/internal/parser"
	"github.com/IshaanNene/talkscout/internal/types"
)

// BuildSearchURL maps a topic set and sort order to the listing search URL.
// Query parameters keep the order topics[0..n], sort, language.
func BuildSearchURL(base string, topics []string, sort, language string) string {
	params := make([]string, 0, len(topics)+2)
	for i, topic := range topics {
		params = append(params, url.QueryEscape(fmt.Sprintf("topics[%d]", i))+"="+url.QueryEscape(topic))
	}
	params = append(params, "sort="+url.QueryEscape(sort))
	params = append(params, "language="+url.QueryEscape(language))
	return strings.TrimRight(base, "/") + "/talks?" + strings.Join(params, "&")
}

// Collector discovers items on a listing page.
type Collector struct {
	page      fetcher.Page
	cfg       config.ListingConfig
	paginator *Paginator
	logger    *slog.Logger

	last Expansion
}

// NewCollector creates a collector that drives page.
func NewCollector(page fetcher.Page, cfg config.ListingConfig, logger *slog.Logger) *Collector {
	return &Collector{
		page:      page,
		cfg:       cfg,
		paginator: NewPaginator(page, cfg, logger),
		logger:    logger.With("component", "collector"),
	}
}

// LastExpansion reports the pagination summary of the most recent Collect.
func (c *Collector) LastExpansion() Expansion {
	return c.last
}

// Collect opens searchURL, expands the listing and extracts one Item per
// unique detail URL, in page order.
func (c *Collector) Collect(ctx context.Context, searchURL string) ([]types.Item, error) {
	extractor, err := parser.NewCardExtractor(searchURL)
	if err != nil {
		return nil, err
	}

	if err := c.page.Navigate(ctx, searchURL); err != nil {
		return nil, fmt.Errorf("open listing: %w", err)
	}
	c.logger.Info("listing opened", "url", searchURL)

	c.dismissConsent(ctx)

	if _, err := c.page.WaitCount(ctx, c.cfg.CardSelector, 1, c.cfg.CardsTimeout); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("no cards rendered before timeout", "timeout", c.cfg.CardsTimeout, "error", err)
	}

	exp, err := c.paginator.Expand(ctx)
	c.last = exp
	if err != nil {
		return nil, err
	}

	cards, err := c.page.OuterHTML(ctx, c.cfg.CardSelector)
	if err != nil {
		return nil, fmt.Errorf("read cards: %w", err)
	}

	items := c.extractAll(extractor, cards)
	c.logger.Info("listing collected",
		"cards", len(cards),
		"items", len(items),
		"clicks", exp.Clicks,
	)
	return items, nil
}

func (c *Collector) extractAll(extractor *parser.CardExtractor, cards []string) []types.Item {
	seen := make(map[string]struct{}, len(cards))
	items := make([]types.Item, 0, len(cards))

	for i, card := range cards {
		item, results, err := extractor.Extract(card)
		if err != nil {
			if errors.Is(err, types.ErrNoLink) {
				c.logger.Debug("card dropped", "index", i, "error", err)
			} else {
				c.logger.Warn("card parse failed", "index", i, "error", err)
			}
			continue
		}

		if _, dup := seen[item.URL]; dup {
			c.logger.Debug("duplicate card skipped", "url", item.URL)
			continue
		}
		seen[item.URL] = struct{}{}

		for _, r := range results {
			if !r.Found {
				c.logger.Warn("field not found, using default", "field", r.Field, "url", item.URL)
			} else {
				c.logger.Debug("field extracted", "field", r.Field, "strategy", r.Strategy, "url", item.URL)
			}
		}
		items = append(items, item)
	}
	return items
}

// dismissConsent clicks the cookie banner's accept button when it shows up
// within the consent timeout. Failures are logged and ignored.
func (c *Collector) dismissConsent(ctx context.Context) {
	if c.cfg.ConsentSelector == "" {
		return
	}
	if _, err := c.page.WaitCount(ctx, c.cfg.ConsentSelector, 1, c.cfg.ConsentTimeout); err != nil {
		c.logger.Debug("no consent banner", "error", err)
		return
	}
	if err := c.page.Click(ctx, c.cfg.ConsentSelector); err != nil {
		c.logger.Warn("consent banner dismissal failed", "error", err)
		return
	}
	c.logger.Info("consent banner dismissed")
}
