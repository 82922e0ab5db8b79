package catalog

import (
	"fmt"

	"github.com/histmap/histmap/pkg/polity"
)

// Catalog is an immutable, ordered set of polities. It is built once at
// startup and passed to whatever needs it.
type Catalog struct {
	polities []polity.Polity
	byID     map[string]int
}

// New validates the records and builds a catalog preserving their order.
func New(polities []polity.Polity) (*Catalog, error) {
	c := &Catalog{
		polities: make([]polity.Polity, 0, len(polities)),
		byID:     make(map[string]int, len(polities)),
	}
	for _, p := range polities {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate polity id %q", p.ID)
		}
		c.byID[p.ID] = len(c.polities)
		c.polities = append(c.polities, clone(p))
	}
	return c, nil
}

// ActiveAt returns, in catalog order, every polity whose interval contains year.
func (c *Catalog) ActiveAt(year int) []polity.Polity {
	active := []polity.Polity{}
	for _, p := range c.polities {
		if p.Interval.Contains(year) {
			active = append(active, clone(p))
		}
	}
	return active
}

// ActiveAtPoint returns the polities active in year whose boundary contains pt.
func (c *Catalog) ActiveAtPoint(year int, pt polity.Point) []polity.Polity {
	hits := []polity.Polity{}
	for _, p := range c.ActiveAt(year) {
		if containsPoint(p.Boundary, pt) {
			hits = append(hits, p)
		}
	}
	return hits
}

// Lookup finds a polity by id.
func (c *Catalog) Lookup(id string) (polity.Polity, bool) {
	i, ok := c.byID[id]
	if !ok {
		return polity.Polity{}, false
	}
	return clone(c.polities[i]), true
}

// All returns a copy of every polity in catalog order.
func (c *Catalog) All() []polity.Polity {
	out := make([]polity.Polity, 0, len(c.polities))
	for _, p := range c.polities {
		out = append(out, clone(p))
	}
	return out
}

func (c *Catalog) Len() int { return len(c.polities) }

// Bounds returns the earliest start year and latest end year in the catalog.
// An empty catalog yields (0, 0).
func (c *Catalog) Bounds() (first, last int) {
	for i, p := range c.polities {
		if i == 0 || p.Interval.Start < first {
			first = p.Interval.Start
		}
		if i == 0 || p.Interval.End > last {
			last = p.Interval.End
		}
	}
	return first, last
}

// clone copies the boundary so callers can't mutate the catalog through it.
func clone(p polity.Polity) polity.Polity {
	p.Boundary = append([]polity.Point(nil), p.Boundary...)
	return p
}
