package catalog

import "github.com/histmap/histmap/pkg/polity"

// containsPoint runs an even-odd ray cast after a bounding box check.
// Points sitting exactly on an edge may land on either side.
func containsPoint(ring []polity.Point, pt polity.Point) bool {
	if len(ring) < 3 || !inBBox(pt, bbox(ring)) {
		return false
	}
	inside := false
	x, y := pt.Lon, pt.Lat
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		xi, yi := ring[i].Lon, ring[i].Lat
		xj, yj := ring[j].Lon, ring[j].Lat
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// bbox returns minLon, minLat, maxLon, maxLat.
func bbox(ring []polity.Point) [4]float64 {
	b := [4]float64{ring[0].Lon, ring[0].Lat, ring[0].Lon, ring[0].Lat}
	for _, p := range ring[1:] {
		if p.Lon < b[0] {
			b[0] = p.Lon
		}
		if p.Lat < b[1] {
			b[1] = p.Lat
		}
		if p.Lon > b[2] {
			b[2] = p.Lon
		}
		if p.Lat > b[3] {
			b[3] = p.Lat
		}
	}
	return b
}

func inBBox(pt polity.Point, b [4]float64) bool {
	return pt.Lon >= b[0] && pt.Lon <= b[2] && pt.Lat >= b[1] && pt.Lat <= b[3]
}
