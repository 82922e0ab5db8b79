package wiki

import (
	"strings"

	"github.com/histmap/histmap/pkg/polity"
)

// DefaultKeywords are the search terms joined to a reference title for each category.
var DefaultKeywords = map[polity.Category][]string{
	polity.Politics:     {"political history", "government", "state"},
	polity.Economy:      {"economy", "trade", "agriculture"},
	polity.Demographics: {"demographics", "population", "society"},
	polity.Culture:      {"culture", "religion", "art"},
}

// BuildQuery joins the reference title with the OR-ed category keywords.
func BuildQuery(referenceTitle string, keywords []string) string {
	if len(keywords) == 0 {
		return referenceTitle
	}
	return referenceTitle + " " + strings.Join(keywords, " OR ")
}

// mergeKeywords overlays non-empty overrides on the default table.
func mergeKeywords(overrides map[polity.Category][]string) map[polity.Category][]string {
	out := make(map[polity.Category][]string, len(DefaultKeywords))
	for c, kw := range DefaultKeywords {
		out[c] = kw
	}
	for c, kw := range overrides {
		if len(kw) > 0 {
			out[c] = kw
		}
	}
	return out
}
