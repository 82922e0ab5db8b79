package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/histmap/histmap/pkg/catalog"
	"github.com/histmap/histmap/pkg/details"
	"github.com/histmap/histmap/pkg/polity"
	"github.com/histmap/histmap/pkg/wiki"
)

type stubFetcher struct{}

func (stubFetcher) Lookup(_ context.Context, p polity.Polity, c polity.Category) wiki.Summary {
	if c == polity.Demographics {
		return wiki.Summary{Category: c, PolityID: p.ID, PolityName: p.Name, Outcome: wiki.Empty}
	}
	return wiki.Summary{Category: c, PolityID: p.ID, PolityName: p.Name, Outcome: wiki.Resolved, Extract: p.Name + " " + c.Title()}
}

func newTestServer() *Server {
	return New(catalog.Default(), details.New(stubFetcher{}), 1500, wiki.DefaultSourceName)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
}

func TestAPIPolitiesByYear(t *testing.T) {
	s := newTestServer()
	rec := get(t, s, "/api/polities?year=-3000")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}

	var resp struct {
		Year     int             `json:"year"`
		Label    string          `json:"label"`
		Count    int             `json:"count"`
		Polities []polity.Polity `json:"polities"`
	}
	decode(t, rec, &resp)
	if resp.Year != -3000 || resp.Label != "3000 BC" || resp.Count != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Polities[0].ID != "mesopotamia" || resp.Polities[1].ID != "ancient-egypt" {
		t.Fatalf("polities out of catalog order: %s, %s", resp.Polities[0].ID, resp.Polities[1].ID)
	}

	rec = get(t, s, "/api/polities?year=600")
	decode(t, rec, &resp)
	if resp.Count != 0 || resp.Polities == nil {
		t.Fatalf("year 600: %+v", resp)
	}

	rec = get(t, s, "/api/polities")
	decode(t, rec, &resp)
	if resp.Count != 14 {
		t.Fatalf("full catalog count = %d", resp.Count)
	}
}

func TestAPIErrors(t *testing.T) {
	s := newTestServer()
	tests := []struct {
		target string
		status int
	}{
		{"/api/polities?year=abc", http.StatusBadRequest},
		{"/api/polities/atlantis", http.StatusNotFound},
		{"/api/polities/atlantis/details?year=1", http.StatusNotFound},
		{"/api/polities/roman/details", http.StatusBadRequest},
		{"/api/locate?year=100&lat=91&lon=0", http.StatusBadRequest},
		{"/api/locate?year=100&lat=10", http.StatusBadRequest},
		{"/timeline?year=", http.StatusBadRequest},
		{"/panel/atlantis?year=1", http.StatusNotFound},
		{"/panel/roman/body?year=x", http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.target, func(t *testing.T) {
			rec := get(t, s, tc.target)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			var body map[string]string
			decode(t, rec, &body)
			if body["error"] == "" {
				t.Fatalf("missing error message in %q", rec.Body.String())
			}
		})
	}
}

func TestAPIPolityAndDetails(t *testing.T) {
	s := newTestServer()

	var p polity.Polity
	decode(t, get(t, s, "/api/polities/roman"), &p)
	if p.Name != "Roman Empire" || len(p.Boundary) < 3 {
		t.Fatalf("polity = %+v", p)
	}

	rec := get(t, s, "/api/polities/roman/details?year=117")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var d details.Details
	decode(t, rec, &d)
	if d.Header.Period != "Shown for 117 AD (existence: 27 BC to 476 AD)." {
		t.Errorf("period = %q", d.Header.Period)
	}
	if d.Body[polity.Culture] != "Roman Empire Culture" {
		t.Errorf("culture = %q", d.Body[polity.Culture])
	}
	if d.Body[polity.Demographics] != "No demographics summary found for Roman Empire." {
		t.Errorf("demographics = %q", d.Body[polity.Demographics])
	}
	if len(d.Summaries) != 4 || d.Summaries[2].Outcome != wiki.Empty {
		t.Errorf("summaries = %+v", d.Summaries)
	}
}

func TestAPILocate(t *testing.T) {
	s := newTestServer()
	var resp struct {
		Polities []polity.Polity `json:"polities"`
	}
	decode(t, get(t, s, "/api/locate?year=100&lat=41.9&lon=12.5"), &resp)
	if len(resp.Polities) != 1 || resp.Polities[0].ID != "roman" {
		t.Fatalf("locate = %+v", resp.Polities)
	}
}

func TestPreflightAndHealth(t *testing.T) {
	s := newTestServer()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/polities", nil))
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Fatalf("preflight = %d %v", rec.Code, rec.Header())
	}

	var h map[string]interface{}
	decode(t, get(t, s, "/api/health"), &h)
	if h["status"] != "ok" || h["polities"] != float64(14) {
		t.Fatalf("health = %v", h)
	}
}

func TestIndexPage(t *testing.T) {
	s := newTestServer()
	rec := get(t, s, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		`id="year"`,
		`min="-4500"`,
		`max="2025"`,
		`value="1500"`,
		"Ottoman Empire",
		"1 polity active",
		"htmx.org",
		"leaflet",
		"Summaries from Wikipedia.",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}

	if rec := get(t, s, "/?year=600"); !strings.Contains(rec.Body.String(), "No mapped polity for this year") {
		t.Error("empty year should render the empty panel")
	}
	if rec := get(t, s, "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown page status = %d", rec.Code)
	}
}

func TestTimelineFragment(t *testing.T) {
	s := newTestServer()
	body := get(t, s, "/timeline?year=0").Body.String()
	for _, want := range []string{"0 AD", "2 polities active", "Han Dynasty", "Roman Empire", `hx-get="/panel/roman?year=0"`} {
		if !strings.Contains(body, want) {
			t.Errorf("timeline missing %q", want)
		}
	}
	if strings.Contains(body, "hx-swap-oob") {
		t.Error("non-empty year must not reset the panel")
	}

	body = get(t, s, "/timeline?year=700").Body.String()
	if !strings.Contains(body, `hx-swap-oob="true"`) || !strings.Contains(body, "Move the timeline to a year where at least one polity is highlighted.") {
		t.Errorf("empty year should reset the panel: %s", body)
	}
}

func TestPanelFragments(t *testing.T) {
	s := newTestServer()
	body := get(t, s, "/panel/han-china?year=-100").Body.String()
	for _, want := range []string{"Han Dynasty", "Shown for 100 BC (existence: 202 BC to 220 AD).", "Loading...", `hx-get="/panel/han-china/body?year=-100"`, `hx-trigger="load"`} {
		if !strings.Contains(body, want) {
			t.Errorf("loading panel missing %q", want)
		}
	}

	body = get(t, s, "/panel/han-china/body?year=-100").Body.String()
	if strings.Contains(body, "Loading...") {
		t.Error("resolved panel still loading")
	}
	for _, want := range []string{"Han Dynasty Politics", "No demographics summary found for Han Dynasty."} {
		if !strings.Contains(body, want) {
			t.Errorf("resolved panel missing %q", want)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer()
	get(t, s, "/api/health")
	body := get(t, s, "/metrics").Body.String()
	if !strings.Contains(body, `histmap_http_requests_total{route="GET /api/health"}`) {
		t.Fatalf("metrics missing request counter")
	}
}
