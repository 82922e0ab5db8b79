package session

import (
	"context"
	"sync"

	"github.com/histmap/histmap/internal/utils"
	"github.com/histmap/histmap/pkg/details"
	"github.com/histmap/histmap/pkg/polity"
)

// Messages shown when the current year has no active polity.
const (
	EmptyTitle = "No mapped polity for this year"
	EmptyHint  = "Move the timeline to a year where at least one polity is highlighted."
)

// EmptyMessage is what the panel shows after a forced reset.
type EmptyMessage struct {
	Title string
	Hint  string
}

// MapView draws the polities active for the current year.
type MapView interface {
	DrawActive(active []polity.Polity)
}

// PanelView renders the selection panel.
type PanelView interface {
	ShowLoading(h details.Header)
	ShowResolved(h details.Header, body map[polity.Category]string)
	ShowEmptySelection(msg EmptyMessage)
}

// ActiveSource answers which polities exist in a year.
type ActiveSource interface {
	ActiveAt(year int) []polity.Polity
}

// Loader starts a detail load.
type Loader interface {
	Begin(ctx context.Context, p polity.Polity, year int) *details.Load
}

// Selection is the current year and, optionally, the selected polity with the
// year it was selected at.
type Selection struct {
	Year         int
	Polity       *polity.Polity
	SelectedYear int
}

// Selected reports whether a polity is selected.
func (s Selection) Selected() bool { return s.Polity != nil }

// Controller owns the selection and drives the views. It is safe for
// concurrent use. View methods are called with the controller's lock held and
// must not call back into it.
type Controller struct {
	source ActiveSource
	loader Loader
	mapv   MapView
	panel  PanelView

	mu  sync.Mutex
	sel Selection
	// gen increases on every selection and forced reset; a finished load is
	// shown only if gen has not moved since it started.
	gen uint64
}

// NewController starts with no polity selected at the given year. Nothing is
// drawn until SetYear is called.
func NewController(source ActiveSource, loader Loader, mapv MapView, panel PanelView, year int) *Controller {
	return &Controller{
		source: source,
		loader: loader,
		mapv:   mapv,
		panel:  panel,
		sel:    Selection{Year: year},
	}
}

// State returns a copy of the current selection.
func (c *Controller) State() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.sel
	if s.Polity != nil {
		p := *s.Polity
		s.Polity = &p
	}
	return s
}

// SetYear moves the timeline. The selection survives the move unless the new
// year has no active polity at all, in which case the panel is reset.
func (c *Controller) SetYear(year int) []polity.Polity {
	active := c.source.ActiveAt(year)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel.Year = year
	c.mapv.DrawActive(active)
	if len(active) == 0 {
		c.sel.Polity = nil
		c.sel.SelectedYear = 0
		c.gen++
		utils.Log.Debugf("[session] no polity active in %s, selection cleared", polity.FormatYear(year))
		c.panel.ShowEmptySelection(EmptyMessage{Title: EmptyTitle, Hint: EmptyHint})
	}
	return active
}

// Select makes p the selection at the current year and starts loading its
// details. The loading panel is shown before Select returns. The returned
// channel is closed once the result has been shown or discarded as stale.
func (c *Controller) Select(ctx context.Context, p polity.Polity) <-chan struct{} {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	year := c.sel.Year
	sel := p
	c.sel.Polity = &sel
	c.sel.SelectedYear = year
	load := c.loader.Begin(ctx, p, year)
	c.panel.ShowLoading(load.Header)
	c.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		d := load.Wait()

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen != gen {
			utils.Log.Debugf("[session] dropping stale details %s for %s", d.Header.RequestID, p.ID)
			return
		}
		c.panel.ShowResolved(d.Header, d.Body)
	}()
	return finished
}
