package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Card is a single listing card parsed once and shared by every strategy.
// Sel and Node point at the same root element.
type Card struct {
	Sel  *goquery.Selection
	Node *html.Node
}

// ParseCard parses the outer HTML of one card.
func ParseCard(outerHTML string) (*Card, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(outerHTML))
	if err != nil {
		return nil, err
	}
	root := doc.Find("body").Children().First()
	if root.Length() == 0 {
		return nil, fmt.Errorf("card markup has no element")
	}
	return &Card{Sel: root, Node: root.Get(0)}, nil
}

// Strategy extracts one value from a card. An empty result is a miss.
type Strategy interface {
	Name() string
	Extract(card *Card) string
}

// CSSText returns the trimmed text of the first element matching Selector.
// An empty Selector targets the card root.
type CSSText struct {
	Selector string
}

func (s CSSText) Name() string { return "css:" + s.Selector }

func (s CSSText) Extract(card *Card) string {
	return strings.TrimSpace(s.find(card).Text())
}

func (s CSSText) find(card *Card) *goquery.Selection {
	if s.Selector == "" {
		return card.Sel
	}
	return card.Sel.Find(s.Selector).First()
}

// CSSAttr returns an attribute of the first element matching Selector.
// An empty Selector targets the card root.
type CSSAttr struct {
	Selector string
	Attr     string
}

func (s CSSAttr) Name() string { return "css:" + s.Selector + "@" + s.Attr }

func (s CSSAttr) Extract(card *Card) string {
	sel := card.Sel
	if s.Selector != "" {
		sel = card.Sel.Find(s.Selector).First()
	}
	val, _ := sel.Attr(s.Attr)
	return strings.TrimSpace(val)
}

// XPathText returns the inner text of the first non-empty node matching Expr,
// evaluated relative to the card root.
type XPathText struct {
	Expr string
}

func (s XPathText) Name() string { return "xpath:" + s.Expr }

func (s XPathText) Extract(card *Card) string {
	nodes, err := htmlquery.QueryAll(card.Node, s.Expr)
	if err != nil {
		return ""
	}
	for _, node := range nodes {
		if text := strings.TrimSpace(htmlquery.InnerText(node)); text != "" {
			return text
		}
	}
	return ""
}

// ISODurationAttr reads an ISO-8601 duration (PT12M30S) from an attribute and
// renders it as clock text.
type ISODurationAttr struct {
	Selector string
	Attr     string
}

func (s ISODurationAttr) Name() string { return "iso-duration:" + s.Selector + "@" + s.Attr }

func (s ISODurationAttr) Extract(card *Card) string {
	raw := CSSAttr{Selector: s.Selector, Attr: s.Attr}.Extract(card)
	clock, ok := ISODurationToClock(raw)
	if !ok {
		return ""
	}
	return clock
}

// FieldResult reports how a field was resolved.
type FieldResult struct {
	Field    string
	Value    string
	Strategy string
	Found    bool
}

// Field is an ordered list of strategies for one attribute. The first strategy
// producing a non-empty value that also satisfies Pattern wins; otherwise
// Default is used.
type Field struct {
	Name       string
	Strategies []Strategy
	Default    string
	Pattern    *regexp.Regexp
}

// Extract runs the strategies in order.
func (f Field) Extract(card *Card) FieldResult {
	for _, s := range f.Strategies {
		val := s.Extract(card)
		if val == "" {
			continue
		}
		if f.Pattern != nil && !f.Pattern.MatchString(val) {
			continue
		}
		return FieldResult{Field: f.Name, Value: val, Strategy: s.Name(), Found: true}
	}
	return FieldResult{Field: f.Name, Value: f.Default}
}
