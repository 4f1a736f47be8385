package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/outlinesync/internal/chat"
	"golang.org/x/net/html"
)

// roleAttr marks a message container in saved chat pages.
const roleAttr = "data-message-author-role"

// HTMLParser handles saved chat pages. Elements carrying
// data-message-author-role delimit turns; without them the whole body is
// read as a single assistant answer.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) ([]chat.Message, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	root := findBody(doc)
	if root == nil {
		root = doc
	}

	var b assistantBuilder
	var found bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if role, ok := attr(n, roleAttr); ok {
				found = true
				switch chat.Role(role) {
				case chat.RoleUser:
					b.user(textContent(n))
				default:
					b.flush()
					collectBlocks(n, b.add)
					b.flush()
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if !found {
		collectBlocks(root, b.add)
	}
	return b.done(), nil
}

// collectBlocks emits headings and text blocks below n in document order.
func collectBlocks(n *html.Node, emit func(chat.Block)) {
	if n.Type == html.ElementNode {
		if level := headingLevel(n.Data); level > 0 {
			emit(chat.Block{Kind: chat.KindHeading, Level: level, Text: textContent(n)})
			return
		}
		switch n.Data {
		case "script", "style", "nav", "footer", "header", "button":
			return
		case "pre":
			emit(chat.Block{Kind: chat.KindCode, Text: strings.TrimRight(rawText(n), "\n")})
			return
		case "p", "li", "td", "blockquote":
			emit(chat.Block{Kind: chat.KindParagraph, Text: textContent(n)})
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectBlocks(c, emit)
	}
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func rawText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

// textContent returns the element's text with whitespace collapsed.
func textContent(n *html.Node) string {
	return strings.Join(strings.Fields(rawText(n)), " ")
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
