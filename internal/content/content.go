// ABOUTME: Content processing utilities for feed entries
// ABOUTME: Detects HTML, sanitizes it, and converts to Markdown or plain text for display

package content

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// htmlTagPattern matches common HTML tags
var htmlTagPattern = regexp.MustCompile(`<\s*(p|div|span|a|br|img|h[1-6]|ul|ol|li|table|tr|td|th|strong|em|b|i|code|pre|blockquote)[^>]*>`)

var wsPattern = regexp.MustCompile(`\s+`)

// ugcPolicy keeps structural markup but drops scripts, styles, event
// handlers, and other things feeds should not be smuggling in.
var ugcPolicy = bluemonday.UGCPolicy()

// IsHTML checks if content appears to be HTML
func IsHTML(content string) bool {
	// Quick checks for obvious HTML markers
	if strings.Contains(content, "<!DOCTYPE") || strings.Contains(content, "<html") {
		return true
	}

	// Check for common HTML tags
	return htmlTagPattern.MatchString(content)
}

// ToMarkdown converts HTML content to Markdown after sanitizing it.
// If the content doesn't appear to be HTML, returns it unchanged.
func ToMarkdown(content string) string {
	if content == "" {
		return content
	}

	if !IsHTML(content) {
		return content
	}

	clean := ugcPolicy.Sanitize(content)

	markdown, err := htmltomarkdown.ConvertString(clean)
	if err != nil {
		// If conversion fails, fall back to the sanitized markup
		return strings.TrimSpace(clean)
	}

	return strings.TrimSpace(markdown)
}

// ToText reduces content to a single line of plain text with entities
// decoded and tags dropped. Script and style bodies are skipped.
func ToText(content string) string {
	if content == "" {
		return ""
	}

	if !IsHTML(content) {
		return collapse(content)
	}

	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return collapse(content)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return collapse(b.String())
}

// Snippet returns a plain-text preview of content capped at max bytes.
func Snippet(content string, max int) string {
	text := ToText(content)
	if max <= 0 || len(text) <= max {
		return text
	}
	return text[:max-1] + "..."
}

func collapse(s string) string {
	return strings.TrimSpace(wsPattern.ReplaceAllString(s, " "))
}
