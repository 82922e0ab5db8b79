package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/histmap/histmap/pkg/catalog"
	"github.com/histmap/histmap/pkg/details"
	"github.com/histmap/histmap/pkg/polity"
	"github.com/histmap/histmap/pkg/session"
	"github.com/histmap/histmap/pkg/wiki"
	"github.com/spf13/viper"
)

type echoFetcher struct{}

func (echoFetcher) Lookup(_ context.Context, p polity.Polity, c polity.Category) wiki.Summary {
	return wiki.Summary{Category: c, PolityID: p.ID, PolityName: p.Name, Outcome: wiki.Resolved, Extract: p.Name + " " + string(c)}
}

func TestPrintActive(t *testing.T) {
	c := catalog.Default()

	var buf bytes.Buffer
	printActive(&buf, 0, c.ActiveAt(0))
	out := buf.String()
	for _, want := range []string{"ID", "han-china", "Roman Empire", "27 BC", "2 active in 0 AD"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	printActive(&buf, 650, c.ActiveAt(650))
	if got := buf.String(); got != "No mapped polity for 650 AD.\n" {
		t.Errorf("empty year output = %q", got)
	}
}

func TestPrintActiveJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printActiveJSON(&buf, 2025, catalog.Default().ActiveAt(2025)); err != nil {
		t.Fatal(err)
	}
	var resp struct {
		Label    string          `json:"label"`
		Count    int             `json:"count"`
		Polities []polity.Polity `json:"polities"`
	}
	if err := json.Unmarshal(buf.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Label != "2025 AD" || resp.Count != 4 || resp.Polities[3].ID != "eu" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestStringList(t *testing.T) {
	defer viper.Set("test.keywords", nil)

	tests := []struct {
		name  string
		value interface{}
		want  []string
	}{
		{"comma string", "coinage, trade routes ,", []string{"coinage", "trade routes"}},
		{"yaml list", []interface{}{"art", "religion"}, []string{"art", "religion"}},
		{"string slice", []string{"census"}, []string{"census"}},
		{"unset", nil, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			viper.Set("test.keywords", tc.value)
			if got := stringList("test.keywords"); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("stringList = %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestImportThenLoadCatalog(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "nested", "catalog.sqlite")

	src := catalog.Default()
	changes, err := importCatalog(ctx, dbPath, "builtin", src)
	if err != nil {
		t.Fatalf("importCatalog: %v", err)
	}
	if len(changes) != src.Len() {
		t.Fatalf("got %d changes, want %d", len(changes), src.Len())
	}
	if _, err := os.Stat(dbPath + ".lock"); err != nil {
		t.Errorf("lock file not created: %v", err)
	}

	viper.Set("catalog.db", dbPath)
	defer viper.Set("catalog.db", "")
	loaded, err := loadCatalog(ctx)
	if err != nil {
		t.Fatalf("loadCatalog: %v", err)
	}
	if !reflect.DeepEqual(loaded.All(), src.All()) {
		t.Fatal("catalog read back from the database differs")
	}

	// Re-importing the same catalog changes nothing.
	changes, err = importCatalog(ctx, dbPath, "builtin", src)
	if err != nil || len(changes) != 0 {
		t.Fatalf("re-import: %d changes, %v", len(changes), err)
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := catalog.Encode(f, catalog.Default(), catalog.FormatJSON); err != nil {
		t.Fatal(err)
	}
	f.Close()

	viper.Set("catalog.path", path)
	defer viper.Set("catalog.path", "")
	c, err := loadCatalog(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 14 {
		t.Fatalf("Len() = %d", c.Len())
	}
}

func TestRunExplore(t *testing.T) {
	c := catalog.Default()
	var buf bytes.Buffer
	out := &syncWriter{w: &buf}
	view := session.TextView{W: out}
	ctrl := session.NewController(c, details.New(echoFetcher{}), view, view, 1500)

	in := strings.NewReader(strings.Join([]string{
		"year 650",
		"year 100",
		"select roman",
		"year 1500",
		"state",
		"click 41.9 12.5",
		"select atlantis",
		"dance",
		"quit",
	}, "\n"))
	if err := runExplore(context.Background(), in, out, c, ctrl); err != nil {
		t.Fatal(err)
	}

	got := buf.String()
	for _, want := range []string{
		"map: 1 active polity",
		session.EmptyTitle,
		"map: 2 active polities",
		"Shown for 100 AD (existence: 27 BC to 476 AD).",
		"Roman Empire economy",
		"year 1500 AD, selected Roman Empire (at 100 AD)",
		"nothing highlighted there",
		`unknown polity "atlantis"`,
		`unknown command "dance"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("explore output missing %q:\n%s", want, got)
		}
	}
}
