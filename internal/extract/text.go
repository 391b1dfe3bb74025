package extract

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Input formats accepted by PrepareText
const (
	FormatText = "text"
	FormatHTML = "html"
	FormatAuto = "auto"
)

// blockElements end a line of visible text
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "blockquote": true, "pre": true, "title": true,
}

// PrepareText converts input in the given format to plain text for annotation
func PrepareText(text, format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return text, nil
	case FormatHTML:
		return VisibleText(text)
	case FormatAuto:
		if LooksLikeHTML(text) {
			return VisibleText(text)
		}
		return text, nil
	default:
		return "", fmt.Errorf("unknown input format %q (want text, html or auto)", format)
	}
}

// VisibleText returns the human-visible text of an HTML document
func VisibleText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	return extractVisibleText(doc), nil
}

// LooksLikeHTML reports whether text appears to be an HTML document or fragment
func LooksLikeHTML(text string) bool {
	head := strings.ToLower(strings.TrimSpace(text))
	if len(head) > 1024 {
		head = head[:1024]
	}

	if strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html") {
		return true
	}
	for _, tag := range []string{"<body", "<p>", "<div", "<span", "<br", "<h1", "<h2", "<ul", "<li>"} {
		if strings.Contains(head, tag) {
			return true
		}
	}
	return false
}

// extractVisibleText extracts text nodes from HTML, skipping scripts/styles
func extractVisibleText(n *html.Node) string {
	var buf strings.Builder

	newline := func() {
		s := buf.String()
		if s == "" || strings.HasSuffix(s, "\n") {
			return
		}
		trimmed := strings.TrimRight(s, " ")
		buf.Reset()
		buf.WriteString(trimmed)
		buf.WriteString("\n")
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			// Skip script, style, noscript tags
			switch n.Data {
			case "script", "style", "noscript", "iframe", "template", "svg":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.Join(strings.Fields(n.Data), " ")
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blockElements[n.Data] {
			newline()
		}
	}

	walk(n)
	return strings.TrimSpace(buf.String())
}
