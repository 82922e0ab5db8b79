package polity

import (
	"fmt"
	"strings"
)

// Point is a (latitude, longitude) pair in degrees.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Interval is an inclusive range of astronomical years. Negative years are BC.
type Interval struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Contains reports whether year lies within the interval, both ends included.
func (i Interval) Contains(year int) bool {
	return year >= i.Start && year <= i.End
}

// Span is the length of the interval in years.
func (i Interval) Span() int {
	return i.End - i.Start
}

func (i Interval) String() string {
	return FormatYear(i.Start) + " – " + FormatYear(i.End)
}

// Polity is a historical state, empire or nation with its existence interval
// and display geometry. Values are never mutated once a catalog is built.
type Polity struct {
	ID             string   `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	ReferenceTitle string   `json:"reference_title" yaml:"reference_title"`
	Interval       Interval `json:"interval" yaml:"interval"`
	Boundary       []Point  `json:"boundary" yaml:"boundary"`
	Color          string   `json:"color" yaml:"color"`
}

// Validate checks the per-record invariants. Geometric correctness of the
// boundary is not checked.
func (p Polity) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("polity %q: empty id", p.Name)
	}
	if p.Interval.Start > p.Interval.End {
		return fmt.Errorf("polity %s: start year %d is after end year %d", p.ID, p.Interval.Start, p.Interval.End)
	}
	if len(p.Boundary) < 3 {
		return fmt.Errorf("polity %s: boundary needs at least 3 points, got %d", p.ID, len(p.Boundary))
	}
	return nil
}

// FormatYear renders a year as "N BC" for negative years and "N AD" otherwise.
func FormatYear(year int) string {
	if year < 0 {
		return fmt.Sprintf("%d BC", -year)
	}
	return fmt.Sprintf("%d AD", year)
}
