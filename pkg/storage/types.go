package storage

import (
	"fmt"
	"time"

	"github.com/histmap/histmap/pkg/polity"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Change captures one catalog record added, updated or removed by an import.
type Change struct {
	OccurredAt time.Time
	PolityID   string
	Name       string
	ChangeType string // added | updated | removed
}

// Stats describes the stored catalog.
type Stats struct {
	Polities   int
	FirstYear  int
	LastYear   int
	Imports    int
	LastImport time.Time
}

// row is a polity as stored, with the boundary kept as a JSON array of
// {"lat","lon"} objects.
type row struct {
	ID             string
	Position       int
	Name           string
	ReferenceTitle string
	Start          int
	End            int
	Boundary       string
	Color          string
}

func toRow(p polity.Polity, position int) row {
	return row{
		ID:             p.ID,
		Position:       position,
		Name:           p.Name,
		ReferenceTitle: p.ReferenceTitle,
		Start:          p.Interval.Start,
		End:            p.Interval.End,
		Boundary:       encodeBoundary(p.Boundary),
		Color:          p.Color,
	}
}

func (r row) sameContent(o row) bool {
	return r.Name == o.Name && r.ReferenceTitle == o.ReferenceTitle &&
		r.Start == o.Start && r.End == o.End &&
		r.Boundary == o.Boundary && r.Color == o.Color
}

func (r row) polity() (polity.Polity, error) {
	boundary, err := decodeBoundary(r.Boundary)
	if err != nil {
		return polity.Polity{}, fmt.Errorf("polity %s: %w", r.ID, err)
	}
	return polity.Polity{
		ID:             r.ID,
		Name:           r.Name,
		ReferenceTitle: r.ReferenceTitle,
		Interval:       polity.Interval{Start: r.Start, End: r.End},
		Boundary:       boundary,
		Color:          r.Color,
	}, nil
}

func encodeBoundary(pts []polity.Point) string {
	doc := "[]"
	for _, pt := range pts {
		obj, _ := sjson.Set("", "lat", pt.Lat)
		obj, _ = sjson.Set(obj, "lon", pt.Lon)
		doc, _ = sjson.SetRaw(doc, "-1", obj)
	}
	return doc
}

func decodeBoundary(doc string) ([]polity.Point, error) {
	if !gjson.Valid(doc) {
		return nil, fmt.Errorf("invalid boundary JSON")
	}
	arr := gjson.Parse(doc)
	if !arr.IsArray() {
		return nil, fmt.Errorf("boundary is not an array")
	}
	pts := []polity.Point{}
	for _, v := range arr.Array() {
		pts = append(pts, polity.Point{Lat: v.Get("lat").Float(), Lon: v.Get("lon").Float()})
	}
	return pts, nil
}
