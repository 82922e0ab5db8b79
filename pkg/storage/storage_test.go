package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/histmap/histmap/pkg/catalog"
	"github.com/histmap/histmap/pkg/polity"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "catalog.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func changeTypes(cs []Change) map[string]string {
	out := map[string]string{}
	for _, c := range cs {
		out[c.PolityID] = c.ChangeType
	}
	return out
}

func TestReplaceAndListPreservesCatalog(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)
	want := catalog.Default().All()

	changes, err := db.ReplacePolities(ctx, "builtin", want)
	if err != nil {
		t.Fatalf("ReplacePolities: %v", err)
	}
	if len(changes) != len(want) {
		t.Fatalf("got %d changes, want %d", len(changes), len(want))
	}
	for id, kind := range changeTypes(changes) {
		if kind != "added" {
			t.Errorf("%s: change %s, want added", id, kind)
		}
	}

	got, err := db.ListPolities(ctx)
	if err != nil {
		t.Fatalf("ListPolities: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("stored catalog differs from the imported one")
	}
}

func TestReplaceTracksChanges(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)
	box := []polity.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}, {Lat: 1, Lon: 0}}
	a := polity.Polity{ID: "a", Name: "A", ReferenceTitle: "A", Interval: polity.Interval{Start: 1, End: 10}, Boundary: box}
	b := polity.Polity{ID: "b", Name: "B", ReferenceTitle: "B", Interval: polity.Interval{Start: 5, End: 20}, Boundary: box, Color: "#123456"}
	c := polity.Polity{ID: "c", Name: "C", ReferenceTitle: "C", Interval: polity.Interval{Start: -5, End: 0}, Boundary: box}

	if _, err := db.ReplacePolities(ctx, "first.yaml", []polity.Polity{a, b}); err != nil {
		t.Fatal(err)
	}

	b2 := b
	b2.Interval.End = 25
	changes, err := db.ReplacePolities(ctx, "second.yaml", []polity.Polity{c, b2, a})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"c": "added", "b": "updated"}
	if got := changeTypes(changes); !reflect.DeepEqual(got, want) {
		t.Fatalf("changes = %v, want %v", got, want)
	}

	got, err := db.ListPolities(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	if !reflect.DeepEqual(ids, []string{"c", "b", "a"}) {
		t.Fatalf("order = %v", ids)
	}

	changes, err = db.ReplacePolities(ctx, "third.yaml", []polity.Polity{a})
	if err != nil {
		t.Fatal(err)
	}
	if got := changeTypes(changes); !reflect.DeepEqual(got, map[string]string{"b": "removed", "c": "removed"}) {
		t.Fatalf("changes = %v", got)
	}

	recent, err := db.ListRecentChanges(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].ChangeType != "removed" {
		t.Fatalf("recent = %+v", recent)
	}

	st, err := db.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Polities != 1 || st.Imports != 3 || st.FirstYear != 1 || st.LastYear != 10 || st.LastImport.IsZero() {
		t.Fatalf("Stats = %+v", st)
	}
}

func TestReplaceRejectsInvalidAndRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)
	good := catalog.Default().All()[:2]
	if _, err := db.ReplacePolities(ctx, "ok", good); err != nil {
		t.Fatal(err)
	}

	bad := append([]polity.Polity{}, good...)
	bad = append(bad, good[0])
	if _, err := db.ReplacePolities(ctx, "dup", bad); err == nil {
		t.Fatal("expected duplicate id error")
	}

	got, err := db.ListPolities(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, good) {
		t.Fatal("failed import changed the stored catalog")
	}
	st, _ := db.Stats(ctx)
	if st.Imports != 1 {
		t.Fatalf("failed import was logged: %+v", st)
	}
}

func TestBoundaryJSON(t *testing.T) {
	pts := []polity.Point{{Lat: 41.9, Lon: 12.5}, {Lat: -33.25, Lon: 151}, {Lat: 0, Lon: -0.5}}
	doc := encodeBoundary(pts)
	if doc != `[{"lat":41.9,"lon":12.5},{"lat":-33.25,"lon":151},{"lat":0,"lon":-0.5}]` {
		t.Fatalf("encodeBoundary = %s", doc)
	}
	back, err := decodeBoundary(doc)
	if err != nil || !reflect.DeepEqual(back, pts) {
		t.Fatalf("decodeBoundary = %v, %v", back, err)
	}
	if _, err := decodeBoundary(`{"lat":1}`); err == nil {
		t.Fatal("expected error for non-array boundary")
	}
}
