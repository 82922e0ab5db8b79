package polity

import (
	"fmt"
	"strings"
)

// Category is one of the four fixed topical lenses a summary is split into.
type Category string

const (
	Politics     Category = "politics"
	Economy      Category = "economy"
	Demographics Category = "demographics"
	Culture      Category = "culture"
)

// Categories lists every category in display order.
var Categories = []Category{Politics, Economy, Demographics, Culture}

// ParseCategory maps a tag (case-insensitive) to its Category.
func ParseCategory(s string) (Category, error) {
	tag := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, c := range Categories {
		if c == tag {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q (available: politics, economy, demographics, culture)", s)
}

func (c Category) String() string { return string(c) }

// Title is the capitalized label used in panels.
func (c Category) Title() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}
