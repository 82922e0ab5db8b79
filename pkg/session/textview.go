package session

import (
	"fmt"
	"io"
	"strings"

	"github.com/histmap/histmap/pkg/details"
	"github.com/histmap/histmap/pkg/polity"
)

// TextView renders both views as plain text, for terminals.
type TextView struct {
	W io.Writer
}

func (v TextView) DrawActive(active []polity.Polity) {
	if len(active) == 0 {
		fmt.Fprintln(v.W, "map: nothing highlighted")
		return
	}
	noun := "polities"
	if len(active) == 1 {
		noun = "polity"
	}
	fmt.Fprintf(v.W, "map: %d active %s\n", len(active), noun)
	for _, p := range active {
		fmt.Fprintf(v.W, "  %-16s %s (%s)\n", p.ID, p.Name, p.Interval)
	}
}

func (v TextView) ShowLoading(h details.Header) {
	fmt.Fprintf(v.W, "\n%s\n%s\n", h.Name, h.Period)
	for _, c := range polity.Categories {
		fmt.Fprintf(v.W, "  %s: Loading...\n", c.Title())
	}
}

func (v TextView) ShowResolved(h details.Header, body map[polity.Category]string) {
	fmt.Fprintf(v.W, "\n%s\n%s\n", h.Name, h.Period)
	if h.ArticleURL != "" {
		fmt.Fprintf(v.W, "%s\n", h.ArticleURL)
	}
	for _, c := range polity.Categories {
		fmt.Fprintf(v.W, "\n[%s]\n%s\n", c.Title(), strings.TrimSpace(body[c]))
	}
}

func (v TextView) ShowEmptySelection(msg EmptyMessage) {
	fmt.Fprintf(v.W, "\n%s\n%s\n", msg.Title, msg.Hint)
}
