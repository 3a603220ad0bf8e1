package parser

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/IshaanNene/talkscout/internal/types"
)

var clockPattern = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

// TitleField lists the title strategies, most specific first.
func TitleField() Field {
	return Field{
		Name: "title",
		Strategies: []Strategy{
			CSSText{Selector: "span.text-textPrimary-onLight.font-bold.subheader2"},
			CSSAttr{Selector: "img[alt]", Attr: "alt"},
			CSSAttr{Selector: "", Attr: "aria-label"},
		},
		Default: types.DefaultTitle,
	}
}

// PresenterField lists the presenter strategies.
func PresenterField() Field {
	return Field{
		Name: "presenter",
		Strategies: []Strategy{
			CSSText{Selector: "p.text-textTertiary-onLight.label1.uppercase.font-semibold"},
			CSSText{Selector: "p.text-textTertiary-onLight.label1:not(.uppercase)"},
		},
		Default: types.DefaultPresenter,
	}
}

// DurationField lists the duration strategies. Values must look like mm:ss.
func DurationField() Field {
	return Field{
		Name: "duration",
		Strategies: []Strategy{
			XPathText{Expr: ".//div[contains(@class, 'absolute') and contains(@class, 'bottom-2') and contains(@class, 'right-2')]//span[contains(@class, 'font-semibold')]"},
			CSSText{Selector: "div.absolute.bottom-2.right-2 span"},
			ISODurationAttr{Selector: "[itemprop=duration]", Attr: "content"},
		},
		Default: types.DefaultDuration,
		Pattern: clockPattern,
	}
}

// LinkField lists the detail-link strategies. It has no default.
func LinkField() Field {
	return Field{
		Name: "url",
		Strategies: []Strategy{
			CSSAttr{Selector: "", Attr: "href"},
			CSSAttr{Selector: "a[href*='/talks/']", Attr: "href"},
		},
	}
}

// CardExtractor turns one listing card into a partially filled Item.
type CardExtractor struct {
	Title     Field
	Presenter Field
	Duration  Field
	Link      Field

	base *url.URL
}

// NewCardExtractor creates an extractor that resolves links against baseURL.
func NewCardExtractor(baseURL string) (*CardExtractor, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL %q: %w", baseURL, err)
	}
	return &CardExtractor{
		Title:     TitleField(),
		Presenter: PresenterField(),
		Duration:  DurationField(),
		Link:      LinkField(),
		base:      base,
	}, nil
}

// Extract parses a card and returns the item plus the per-field results for
// the descriptive attributes. A card without a resolvable link yields
// types.ErrNoLink and must be dropped.
func (e *CardExtractor) Extract(outerHTML string) (types.Item, []FieldResult, error) {
	card, err := ParseCard(outerHTML)
	if err != nil {
		return types.Item{}, nil, &types.ParseError{Err: err}
	}

	link := e.Link.Extract(card)
	if !link.Found {
		return types.Item{}, nil, types.ErrNoLink
	}
	detailURL, err := ResolveURL(e.base, link.Value)
	if err != nil {
		return types.Item{}, nil, fmt.Errorf("%w: %v", types.ErrNoLink, err)
	}

	results := []FieldResult{
		e.Title.Extract(card),
		e.Presenter.Extract(card),
		e.Duration.Extract(card),
	}

	item := types.NewItem(detailURL)
	item.Title = results[0].Value
	item.Presenter = results[1].Value
	item.Duration = results[2].Value
	return item, results, nil
}
