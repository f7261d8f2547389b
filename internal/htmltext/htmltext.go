// Package htmltext turns an HTML page into readable plain text. The
// cross-source validator uses it to fold the content of cited reference
// pages into the validation corpus.
package htmltext

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Text extracts readable text from an HTML document, preferring <main> or
// <article> over the whole <body> and skipping scripts, navigation, and
// footers. Parsing failures yield an empty string; the caller treats the
// page as contributing nothing.
func Text(input []byte) string {
	node, err := html.Parse(bytes.NewReader(input))
	if err != nil || node == nil {
		return ""
	}
	content := firstElement(node, "main")
	if content == nil {
		content = firstElement(node, "article")
	}
	if content == nil {
		content = firstElement(node, "body")
	}
	if content == nil {
		return ""
	}
	var b strings.Builder
	walk(&b, content)
	return collapse(b.String())
}

func firstElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := firstElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func walk(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript", "nav", "footer", "aside", "iframe":
			return
		case "br", "hr", "p", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6":
			b.WriteString("\n")
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteString(" ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(b, c)
	}
}

func collapse(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.Join(strings.Fields(line), " ")
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}
