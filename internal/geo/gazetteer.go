package geo

import (
	"fmt"
	"strings"
)

// Location is what the gazetteer knows about a named place.
type Location struct {
	Name           string      `json:"name"`
	Coords         Coordinates `json:"coords"`
	Country        string      `json:"country"`
	Infrastructure []string    `json:"infrastructure"`
}

// HasInfrastructure reports whether the location offers the named facility
// (e.g. "port", "rail_terminal", "pipeline_terminal").
func (l *Location) HasInfrastructure(kind string) bool {
	for _, inf := range l.Infrastructure {
		if inf == kind {
			return true
		}
	}
	return false
}

// Gazetteer maps a location name to coordinates and metadata. The reference
// dataset lives in a separate bounded context; this interface is its proxy.
type Gazetteer interface {
	Lookup(name string) (*Location, error)
}

// StaticGazetteer is an in-process gazetteer backed by a fixed reference
// table of fuel-handling cities and ports.
type StaticGazetteer struct {
	byKey map[string]*Location
}

// NewStaticGazetteer builds the default reference table.
func NewStaticGazetteer() *StaticGazetteer {
	g := &StaticGazetteer{byKey: make(map[string]*Location)}
	for i := range defaultLocations {
		loc := &defaultLocations[i]
		g.byKey[normalizeName(loc.Name)] = loc
		// Also index by the bare city name for "Miami" vs "Miami, FL".
		if city, _, ok := strings.Cut(loc.Name, ","); ok {
			g.byKey[normalizeName(city)] = loc
		}
	}
	return g
}

// Lookup resolves a location name, case- and whitespace-insensitively.
func (g *StaticGazetteer) Lookup(name string) (*Location, error) {
	if loc, ok := g.byKey[normalizeName(name)]; ok {
		return loc, nil
	}
	return nil, fmt.Errorf("location not found: %q", name)
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

var defaultLocations = []Location{
	{Name: "Miami, FL", Coords: Coordinates{25.7617, -80.1918}, Country: "US", Infrastructure: []string{"port", "truck_terminal"}},
	{Name: "Boston, MA", Coords: Coordinates{42.3601, -71.0589}, Country: "US", Infrastructure: []string{"port", "truck_terminal", "rail_terminal"}},
	{Name: "New York, NY", Coords: Coordinates{40.7128, -74.0060}, Country: "US", Infrastructure: []string{"port", "truck_terminal", "rail_terminal"}},
	{Name: "Houston, TX", Coords: Coordinates{29.7604, -95.3698}, Country: "US", Infrastructure: []string{"port", "truck_terminal", "rail_terminal", "pipeline_terminal"}},
	{Name: "New Orleans, LA", Coords: Coordinates{29.9511, -90.0715}, Country: "US", Infrastructure: []string{"port", "truck_terminal", "rail_terminal", "pipeline_terminal"}},
	{Name: "Corpus Christi, TX", Coords: Coordinates{27.8006, -97.3964}, Country: "US", Infrastructure: []string{"port", "truck_terminal", "pipeline_terminal"}},
	{Name: "Savannah, GA", Coords: Coordinates{32.0809, -81.0912}, Country: "US", Infrastructure: []string{"port", "truck_terminal", "rail_terminal"}},
	{Name: "Atlanta, GA", Coords: Coordinates{33.7490, -84.3880}, Country: "US", Infrastructure: []string{"truck_terminal", "rail_terminal"}},
	{Name: "Chicago, IL", Coords: Coordinates{41.8781, -87.6298}, Country: "US", Infrastructure: []string{"truck_terminal", "rail_terminal", "pipeline_terminal"}},
	{Name: "St. Louis, MO", Coords: Coordinates{38.6270, -90.1994}, Country: "US", Infrastructure: []string{"truck_terminal", "rail_terminal"}},
	{Name: "Denver, CO", Coords: Coordinates{39.7392, -104.9903}, Country: "US", Infrastructure: []string{"truck_terminal", "rail_terminal"}},
	{Name: "Seattle, WA", Coords: Coordinates{47.6062, -122.3321}, Country: "US", Infrastructure: []string{"port", "truck_terminal", "rail_terminal"}},
	{Name: "Los Angeles, CA", Coords: Coordinates{34.0522, -118.2437}, Country: "US", Infrastructure: []string{"port", "truck_terminal", "rail_terminal"}},
	{Name: "Long Beach, CA", Coords: Coordinates{33.7701, -118.1937}, Country: "US", Infrastructure: []string{"port", "truck_terminal"}},
	{Name: "Vancouver, BC", Coords: Coordinates{49.2827, -123.1207}, Country: "CA", Infrastructure: []string{"port", "truck_terminal", "rail_terminal"}},
	{Name: "Halifax, NS", Coords: Coordinates{44.6488, -63.5752}, Country: "CA", Infrastructure: []string{"port", "truck_terminal", "rail_terminal"}},
	{Name: "Rotterdam, NL", Coords: Coordinates{51.9244, 4.4777}, Country: "NL", Infrastructure: []string{"port", "truck_terminal", "rail_terminal", "pipeline_terminal"}},
	{Name: "Antwerp, BE", Coords: Coordinates{51.2194, 4.4025}, Country: "BE", Infrastructure: []string{"port", "truck_terminal", "rail_terminal", "pipeline_terminal"}},
	{Name: "Hamburg, DE", Coords: Coordinates{53.5511, 9.9937}, Country: "DE", Infrastructure: []string{"port", "truck_terminal", "rail_terminal"}},
	{Name: "Singapore, SG", Coords: Coordinates{1.3521, 103.8198}, Country: "SG", Infrastructure: []string{"port", "truck_terminal"}},
	{Name: "Tokyo, JP", Coords: Coordinates{35.6762, 139.6503}, Country: "JP", Infrastructure: []string{"port", "truck_terminal", "rail_terminal"}},
	{Name: "Busan, KR", Coords: Coordinates{35.1796, 129.0756}, Country: "KR", Infrastructure: []string{"port", "truck_terminal", "rail_terminal"}},
}
