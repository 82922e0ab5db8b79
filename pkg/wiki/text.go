package wiki

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	strip "github.com/grokify/html-strip-tags-go"
)

// plainExtract cleans an extract. Plain-text extracts pass through trimmed;
// anything carrying markup is stripped and unescaped.
func plainExtract(s string) string {
	if strings.ContainsAny(s, "<&") {
		s = html.UnescapeString(strip.StripTags(s))
	}
	return strings.TrimSpace(s)
}

// snippetText turns a search hit's HTML snippet into a single line of text.
func snippetText(snippet string) string {
	if snippet == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snippet))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
