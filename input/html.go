package input

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// blockElements start a new paragraph.
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "header": true,
	"footer": true, "main": true, "aside": true, "nav": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "dl": true, "dt": true, "dd": true,
	"table": true, "tr": true, "pre": true, "figure": true, "figcaption": true,
}

// skippedElements never contribute visible text.
var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "head": true,
}

var (
	inlineSpace = regexp.MustCompile(`[ \t\n\f]+`)
	extraBreaks = regexp.MustCompile(`\n{3,}`)
	lineEdges   = regexp.MustCompile(`(?m)^[ \t]+|[ \t]+$`)
)

// HTMLText returns the visible text of an HTML document with block elements
// separated by blank lines, so that the segmenter sees them as paragraphs.
func HTMLText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	var walk func(n *html.Node, pre bool)
	walk = func(n *html.Node, pre bool) {
		switch n.Type {
		case html.TextNode:
			if pre {
				buf.WriteString(n.Data)
			} else {
				buf.WriteString(inlineSpace.ReplaceAllString(n.Data, " "))
			}
			return
		case html.ElementNode:
			if skippedElements[n.Data] {
				return
			}
			if n.Data == "br" {
				buf.WriteString("\n")
				return
			}
		}

		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			buf.WriteString("\n\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, pre || n.Data == "pre")
		}
		if block {
			buf.WriteString("\n\n")
		}
	}
	walk(doc, false)

	text := lineEdges.ReplaceAllString(buf.String(), "")
	text = extraBreaks.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text), nil
}
