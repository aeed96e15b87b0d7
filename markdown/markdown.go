// Package markdown renders post, term and comment bodies to HTML and
// derives plain-text excerpts from them.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// engine is stateless after construction and safe for concurrent use.
var engine = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

var reComment = regexp.MustCompile(`(?s)<!--.*?-->`)

// StripComments removes HTML comments, including the <!--more--> marker.
func StripComments(s string) string {
	return reComment.ReplaceAllString(s, "")
}

// Render converts Markdown to HTML. Raw HTML in the source is kept.
func Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := engine.Convert([]byte(StripComments(src)), &buf); err != nil {
		return "", fmt.Errorf("markdown: render: %w", err)
	}
	return buf.String(), nil
}

var (
	reTag = regexp.MustCompile(`(?s)<[^>]*>`)
	// Applied in order; each match becomes a single space.
	excerptStrip = []*regexp.Regexp{
		regexp.MustCompile("(?s)```.*?```"),
		regexp.MustCompile(`(?s)~~~.*?~~~`),
		regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`),
		regexp.MustCompile(`\[[^\]]*\]\([^)]*\)`),
		regexp.MustCompile(`(?m)^#{1,6}\s*`),
		regexp.MustCompile(`[*_]{1,3}`),
		regexp.MustCompile(`(?m)^\s*>\s*`),
		regexp.MustCompile(`\s+`),
	}
)

// StripTags removes HTML tags, keeping their text.
func StripTags(s string) string {
	return reTag.ReplaceAllString(s, "")
}

// Excerpt returns up to length characters of plain text from a Markdown or
// HTML body. Markup is removed, whitespace collapsed, and a cut never ends
// inside a word. A length of zero or less yields "".
func Excerpt(src string, length int) string {
	if length <= 0 {
		return ""
	}
	text := StripTags(src)
	for _, re := range excerptStrip {
		text = re.ReplaceAllString(text, " ")
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= length {
		return text
	}
	text = string([]rune(text)[:length])
	if i := strings.LastIndexAny(text, " \t\n"); i > 0 {
		text = text[:i]
	}
	return text
}
