package crawler

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/mdmirror/mdmirror/internal/model"
)

// Parser extracts anchors from HTML content.
//
// Design decision: We use golang.org/x/net/html rather than regex
// because:
//  1. It correctly handles malformed HTML common on the web
//  2. Provides a proper DOM-like structure
//  3. More maintainable than complex regex patterns
type Parser struct{}

// NewParser creates an HTML anchor parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse walks the HTML document and returns every <a href> as an Anchor.
// Hrefs are returned raw; resolution against the page URL happens in the
// discoverer. Non-navigational schemes (javascript:, mailto:, tel:,
// data:) and bare fragment hrefs are skipped here because they can never
// become pages.
func (p *Parser) Parse(content io.Reader) ([]model.Anchor, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	anchors := make([]model.Anchor, 0)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := getAttr(n, "href"); isNavigational(href) {
				anchors = append(anchors, model.Anchor{
					Text:    strings.TrimSpace(nodeText(n)),
					RawHref: strings.TrimSpace(href),
				})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return anchors, nil
}

// isNavigational reports whether an href could lead to another page.
func isNavigational(href string) bool {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" || strings.HasPrefix(href, "#") {
		return false
	}
	for _, scheme := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(href, scheme) {
			return false
		}
	}
	return true
}

// nodeText returns the concatenated text content of a node's subtree.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
