package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// PageParser defines the interface for turning raw page markup into a Page.
type PageParser interface {
	// Parse extracts the title, links and cleaned text of a page. It is pure:
	// identical markup always yields identical output.
	Parse(markup, pageURL, pageDomain string) (*Page, error)
	// HasSelector reports whether the markup contains an element matching the
	// CSS selector.
	HasSelector(markup, selector string) bool
}

// mainTextThreshold is the minimum text length of a content region before
// falling back to a broader one.
const mainTextThreshold = 200

// boilerplateSelector matches elements that never carry page content.
const boilerplateSelector = "script, style, noscript, nav, header, footer, form, iframe, svg"

// noiseMarkers flag elements whose id or class suggests a cookie or consent
// widget rather than content.
var noiseMarkers = []string{"cookie", "banner", "consent", "gdpr"}

// HTMLPageParser implements PageParser for HTML documents.
type HTMLPageParser struct{}

// NewHTMLPageParser creates a new HTMLPageParser.
func NewHTMLPageParser() *HTMLPageParser {
	return &HTMLPageParser{}
}

// Parse extracts the readable text of a page. Links are collected before
// boilerplate removal so navigation anchors are still discovered; text is
// extracted afterwards, preferring the main region and widening to article
// and then the full body when main holds too little text.
func (p *HTMLPageParser) Parse(markup, pageURL, pageDomain string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup of %s: %w", pageURL, err)
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		if href := strings.TrimSpace(sel.AttrOr("href", "")); href != "" {
			links = append(links, href)
		}
	})

	title := strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find(boilerplateSelector).Remove()
	doc.Find("[id],[class]").Each(func(_ int, sel *goquery.Selection) {
		if isNoise(sel.AttrOr("id", "")) || isNoise(sel.AttrOr("class", "")) {
			sel.Remove()
		}
	})

	text := regionText(doc, "main")
	if utf8.RuneCountInString(text) < mainTextThreshold {
		text = regionText(doc, "article")
	}
	if utf8.RuneCountInString(text) < mainTextThreshold {
		text = regionText(doc, "body")
	}

	return &Page{
		URL:     pageURL,
		Domain:  pageDomain,
		Title:   title,
		RawHTML: markup,
		Text:    text,
		Links:   links,
	}, nil
}

// HasSelector reports whether the markup contains a match for selector.
func (p *HTMLPageParser) HasSelector(markup, selector string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return false
	}
	return doc.Find(selector).Length() > 0
}

func isNoise(attr string) bool {
	if attr == "" {
		return false
	}
	attr = strings.ToLower(attr)
	for _, marker := range noiseMarkers {
		if strings.Contains(attr, marker) {
			return true
		}
	}
	return false
}

// regionText renders the text of all elements matching selector, with block
// elements separated by newlines, and normalizes whitespace.
func regionText(doc *goquery.Document, selector string) string {
	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return ""
	}
	var b strings.Builder
	for _, node := range sel.Nodes {
		writeNodeText(node, &b)
	}
	return normalizeWhitespace(b.String())
}

// blockTags are elements rendered on their own line; their boundaries become
// newlines in the extracted text.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "figcaption": true, "figure": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "hr": true,
	"li": true, "main": true, "ol": true, "p": true, "pre": true,
	"section": true, "table": true, "td": true, "th": true, "tr": true,
	"ul": true,
}

func writeNodeText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
	case html.ElementNode:
		if blockTags[n.Data] {
			b.WriteString("\n")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNodeText(c, b)
	}
	if n.Type == html.ElementNode && blockTags[n.Data] {
		b.WriteString("\n")
	}
}

var (
	carriageRuns  = regexp.MustCompile(`\r\n?`)
	spaceRuns     = regexp.MustCompile(`[ \t\f\v]+`)
	aroundNewline = regexp.MustCompile(` ?\n ?`)
	newlineRuns   = regexp.MustCompile(`\n{3,}`)
)

// normalizeWhitespace collapses runs of spaces and tabs to one space, strips
// indentation around newlines, and collapses three or more newlines to
// exactly two so paragraph breaks survive.
func normalizeWhitespace(s string) string {
	s = carriageRuns.ReplaceAllString(s, "\n")
	s = spaceRuns.ReplaceAllString(s, " ")
	s = aroundNewline.ReplaceAllString(s, "\n")
	s = newlineRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
