package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/histmap/histmap/internal/utils"
	"github.com/histmap/histmap/pkg/polity"
)

type politiesResponse struct {
	Year     *int            `json:"year,omitempty"`
	Label    string          `json:"label,omitempty"`
	Count    int             `json:"count"`
	Polities []polity.Polity `json:"polities"`
}

func (s *Server) handlePolities(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("year") == "" {
		all := s.Catalog.All()
		writeJSON(w, http.StatusOK, politiesResponse{Count: len(all), Polities: all})
		return
	}
	year, err := intParam(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	active := s.Catalog.ActiveAt(year)
	writeJSON(w, http.StatusOK, politiesResponse{
		Year:     &year,
		Label:    polity.FormatYear(year),
		Count:    len(active),
		Polities: active,
	})
}

func (s *Server) handlePolity(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}
	year, err := intParam(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Details.LoadDetails(r.Context(), p, year))
}

type locateResponse struct {
	Year     int             `json:"year"`
	Point    polity.Point    `json:"point"`
	Polities []polity.Polity `json:"polities"`
}

func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	lat, err := floatParam(r, "lat", 90)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	lon, err := floatParam(r, "lon", 180)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pt := polity.Point{Lat: lat, Lon: lon}
	writeJSON(w, http.StatusOK, locateResponse{Year: year, Point: pt, Polities: s.Catalog.ActiveAtPoint(year, pt)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "polities": s.Catalog.Len()})
}

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// lookup resolves the {id} path value, answering 404 itself on a miss.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (polity.Polity, bool) {
	id := r.PathValue("id")
	p, ok := s.Catalog.Lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown polity %q", id))
	}
	return p, ok
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

// floatParam parses a coordinate and checks it lies within [-limit, limit].
func floatParam(r *http.Request, name string, limit float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < -limit || v > limit {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		utils.Log.Errorf("API: Error marshaling response: %v", err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"internal server error"}`)
	}
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}
