package markup

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// ExcerptLength is the rune budget for article excerpts.
const ExcerptLength = 150

var (
	strictPolicy = bluemonday.StrictPolicy()
	ugcPolicy    = newUGCPolicy()
)

func newUGCPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// Editors paste YouTube embeds into article bodies.
	p.AllowElements("iframe")
	p.AllowAttrs("src", "width", "height", "allowfullscreen", "frameborder").OnElements("iframe")
	return p
}

// Slugify lower-cases s and collapses every run of characters that are not
// letters or digits into a single dash. "Hello World" becomes "hello-world".
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}

// StripTags removes all markup from s and returns plain text with entities
// decoded and whitespace collapsed.
func StripTags(s string) string {
	text := html.UnescapeString(strictPolicy.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}

// Excerpt strips markup and truncates to ExcerptLength runes. An ellipsis is
// appended only when something was cut.
func Excerpt(content string) string {
	text := StripTags(content)
	runes := []rune(text)
	if len(runes) <= ExcerptLength {
		return text
	}
	return strings.TrimRightFunc(string(runes[:ExcerptLength]), unicode.IsSpace) + "..."
}

// MarkdownToHTML renders markdown source into HTML.
func MarkdownToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

// Sanitize keeps safe formatting markup and drops scripts, handlers and the
// like. Used on article bodies before they leave the public API.
func Sanitize(s string) string {
	return ugcPolicy.Sanitize(s)
}
