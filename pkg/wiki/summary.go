package wiki

import (
	"fmt"

	"github.com/histmap/histmap/pkg/polity"
)

// Outcome classifies how a category lookup ended.
type Outcome string

const (
	Resolved         Outcome = "resolved"
	Empty            Outcome = "empty"
	TransportFailure Outcome = "transport_failure"
)

// Summary is the result of one category lookup. Text() is what users see; the
// outcome keeps "nothing found" apart from "the network failed".
type Summary struct {
	Category   polity.Category `json:"category"`
	PolityID   string          `json:"polity_id"`
	PolityName string          `json:"polity_name"`
	Outcome    Outcome         `json:"outcome"`
	// Title is the article the extract was requested for.
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	Extract string `json:"extract,omitempty"`

	sourceName string
}

// Text returns the extract, or the placeholder for empty and failed lookups.
func (s Summary) Text() string {
	switch s.Outcome {
	case Resolved:
		return s.Extract
	case Empty:
		return EmptyPlaceholder(s.Category, s.PolityName)
	default:
		return FailurePlaceholder(s.Category, s.sourceName)
	}
}

// EmptyPlaceholder is shown when a lookup succeeded without any extract.
func EmptyPlaceholder(c polity.Category, polityName string) string {
	return fmt.Sprintf("No %s summary found for %s.", c, polityName)
}

// FailurePlaceholder is shown when either remote step failed.
func FailurePlaceholder(c polity.Category, sourceName string) string {
	if sourceName == "" {
		sourceName = DefaultSourceName
	}
	return fmt.Sprintf("Could not load %s data from %s right now.", c, sourceName)
}
