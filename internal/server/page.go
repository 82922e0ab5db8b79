package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/histmap/histmap/pkg/details"
	"github.com/histmap/histmap/pkg/polity"
	"github.com/histmap/histmap/pkg/session"
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// Page layout component
func PageLayout(title string, content g.Node, footer g.Node) g.Node {
	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		HTML(
			Head(
				Meta(Charset("UTF-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1.0")),
				TitleEl(g.Text(title)),
				Link(Rel("stylesheet"), Href("https://unpkg.com/leaflet@1.9.4/dist/leaflet.css")),
				Script(Src("https://cdn.tailwindcss.com")),
				Script(Src("https://unpkg.com/htmx.org@2.0.4")),
				Script(Src("https://unpkg.com/leaflet@1.9.4/dist/leaflet.js")),
				StyleEl(g.Raw(`#map { height: 70vh; } .leaflet-container { background: #0f172a; }`)),
			),
			Body(Class("bg-slate-900 text-slate-100 font-sans"),
				content,
				footer,
			),
		),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	year := s.DefaultYear
	if r.URL.Query().Get("year") != "" {
		y, err := intParam(r, "year")
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		year = y
	}
	first, last := s.Catalog.Bounds()
	active := s.Catalog.ActiveAt(year)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	PageLayout(
		"Historical Map Timeline",
		Main(Class("max-w-7xl mx-auto p-4 grid gap-4 lg:grid-cols-3"),
			Section(Class("lg:col-span-2 space-y-3"),
				Label(For("year"), Class("block text-sm text-slate-400"), g.Text("Year")),
				Input(Type("range"), ID("year"), Name("year"), Class("w-full"),
					g.Attr("min", strconv.Itoa(first)),
					g.Attr("max", strconv.Itoa(last)),
					g.Attr("step", "1"),
					Value(strconv.Itoa(year)),
					g.Attr("hx-get", "/timeline"),
					g.Attr("hx-trigger", "input changed delay:150ms"),
					g.Attr("hx-target", "#timeline"),
				),
				Div(ID("map"), Class("rounded-lg")),
				Div(ID("timeline"), TimelineFragment(year, active, false)),
			),
			Section(Class("bg-slate-800 rounded-lg p-4"),
				Div(ID("panel"), g.If(len(active) > 0, panelPrompt()), g.If(len(active) == 0, EmptyPanel())),
			),
			Script(g.Raw(mapScript)),
		),
		Footer(Class("text-center text-xs text-slate-500 p-4"),
			g.Textf("Summaries from %s.", s.SourceName),
		),
	).Render(w)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	TimelineFragment(year, s.Catalog.ActiveAt(year), true).Render(w)
}

func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}
	year, err := intParam(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	LoadingPanel(details.NewHeader(p, year, ""), bodyURL(p.ID, year)).Render(w)
}

func (s *Server) handlePanelBody(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}
	year, err := intParam(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	d := s.Details.LoadDetails(r.Context(), p, year)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	ResolvedPanel(d.Header, d.Body).Render(w)
}

func bodyURL(id string, year int) string {
	return fmt.Sprintf("/panel/%s/body?year=%d", url.PathEscape(id), year)
}

// TimelineFragment lists the active polities for a year. With resetPanel set
// and no polity active, it also resets the panel out of band.
func TimelineFragment(year int, active []polity.Polity, resetPanel bool) g.Node {
	noun := "polities"
	if len(active) == 1 {
		noun = "polity"
	}

	var items []g.Node
	for _, p := range active {
		items = append(items, Li(
			Button(Class("text-left hover:text-cyan-400"),
				g.Attr("hx-get", fmt.Sprintf("/panel/%s?year=%d", url.PathEscape(p.ID), year)),
				g.Attr("hx-target", "#panel"),
				Span(Class("inline-block w-3 h-3 rounded-full mr-2"), Style("background:"+p.Color)),
				g.Text(p.Name),
				Span(Class("text-slate-500 text-xs ml-2"), g.Text(p.Interval.String())),
			),
		))
	}

	return Div(Class("space-y-2"), g.Attr("data-year", strconv.Itoa(year)),
		H2(Class("text-2xl font-semibold"), g.Text(polity.FormatYear(year))),
		P(Class("text-sm text-slate-400"), g.Textf("%d %s active", len(active), noun)),
		g.If(len(active) > 0, Ul(Class("space-y-1"), g.Group(items))),
		g.If(resetPanel && len(active) == 0, Div(ID("panel"), g.Attr("hx-swap-oob", "true"), EmptyPanel())),
	)
}

func panelPrompt() g.Node {
	return P(Class("text-slate-400"), g.Text("Select a highlighted polity on the map."))
}

// EmptyPanel is shown when the current year has no active polity.
func EmptyPanel() g.Node {
	return Div(
		H2(Class("text-xl font-semibold"), g.Text(session.EmptyTitle)),
		P(Class("text-slate-400"), g.Text(session.EmptyHint)),
	)
}

// LoadingPanel renders the header at once and fetches the body when loaded.
func LoadingPanel(h details.Header, bodyURL string) g.Node {
	var sections []g.Node
	for _, c := range polity.Categories {
		sections = append(sections, categorySection(c, "Loading..."))
	}
	return Div(
		g.Attr("hx-get", bodyURL),
		g.Attr("hx-trigger", "load"),
		g.Attr("hx-swap", "outerHTML"),
		panelHeader(h),
		g.Group(sections),
	)
}

// ResolvedPanel renders the header and one section per category.
func ResolvedPanel(h details.Header, body map[polity.Category]string) g.Node {
	var sections []g.Node
	for _, c := range polity.Categories {
		sections = append(sections, categorySection(c, body[c]))
	}
	return Div(
		panelHeader(h),
		g.If(h.ArticleURL != "",
			A(Href(h.ArticleURL), Target("_blank"), Rel("noopener"), Class("text-cyan-400 text-sm"), g.Text("Read the full article")),
		),
		g.Group(sections),
	)
}

func panelHeader(h details.Header) g.Node {
	return Div(Class("mb-3"),
		H2(Class("text-xl font-semibold"), g.Text(h.Name)),
		P(Class("text-sm text-slate-400"), g.Text(h.Period)),
	)
}

func categorySection(c polity.Category, text string) g.Node {
	return Section(Class("mt-3"),
		H2(Class("text-sm uppercase tracking-wide text-slate-400"), g.Text(c.Title())),
		P(Class("whitespace-pre-line"), g.Text(text)),
	)
}

// mapScript draws the active polities with Leaflet and reloads them whenever
// the timeline fragment is swapped.
const mapScript = `
(function () {
  var map = L.map('map').setView([30, 20], 2);
  L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {
    attribution: '&copy; OpenStreetMap contributors'
  }).addTo(map);
  var layer = L.layerGroup().addTo(map);
  var slider = document.getElementById('year');

  function draw(year) {
    fetch('/api/polities?year=' + encodeURIComponent(year))
      .then(function (r) { return r.json(); })
      .then(function (d) {
        layer.clearLayers();
        d.polities.forEach(function (p) {
          var ring = p.boundary.map(function (pt) { return [pt.lat, pt.lon]; });
          L.polygon(ring, { color: p.color, fillOpacity: 0.35 })
            .bindTooltip(p.name)
            .on('click', function () {
              htmx.ajax('GET', '/panel/' + encodeURIComponent(p.id) + '?year=' + year, { target: '#panel' });
            })
            .addTo(layer);
        });
      });
  }

  document.body.addEventListener('htmx:afterSwap', function (e) {
    if (e.detail.target.id === 'timeline') { draw(slider.value); }
  });
  draw(slider.value);
})();
`
