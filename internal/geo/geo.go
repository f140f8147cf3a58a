package geo

import (
	"math"
	"sort"
)

// earthRadiusMiles matches the constant used by the historical datasets; do not
// switch to the metric radius without regenerating them.
const earthRadiusMiles = 3958.8

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Table maps city names ("City, ST") to coordinates. Lookups on a Table are
// read-only and safe for concurrent use.
type Table map[string]Point

// Default returns the built-in city table.
func Default() Table {
	out := make(Table, len(defaultCities))
	for k, v := range defaultCities {
		out[k] = v
	}
	return out
}

// Lookup returns the coordinates for a city, if known.
func (t Table) Lookup(city string) (Point, bool) {
	p, ok := t[city]
	return p, ok
}

// Cities returns the table's city names in sorted order. The stable ordering
// is what makes seeded pool generation reproducible across runs.
func (t Table) Cities() []string {
	out := make([]string, 0, len(t))
	for c := range t {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Distance returns the great-circle miles between two cities. If either city
// is missing from the table it returns (0, false); callers treat that as "no
// distance signal" rather than an error.
func (t Table) Distance(cityA, cityB string) (float64, bool) {
	a, ok := t[cityA]
	if !ok {
		return 0, false
	}
	b, ok := t[cityB]
	if !ok {
		return 0, false
	}
	return Miles(a, b), true
}

// Miles computes the haversine distance between two points.
func Miles(a, b Point) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMiles * c
}
