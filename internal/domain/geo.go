package domain

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean earth radius used for all distance math.
// It matches the spherical model of the web map, so a marker drawn at radius r
// alerts exactly where its circle is drawn.
const EarthRadiusMeters = 6371000.0

// Position is a WGS-84 latitude/longitude pair in degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinates are within [-90,90] x [-180,180].
func (p Position) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

func (p Position) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Lat, p.Lon)
}

// Distance returns the great-circle distance in metres using the haversine formula.
func Distance(a, b Position) float64 {
	const rad = math.Pi / 180
	lat1 := a.Lat * rad
	lat2 := b.Lat * rad
	sinDLat := math.Sin((b.Lat - a.Lat) * rad / 2)
	sinDLon := math.Sin((b.Lon - a.Lon) * rad / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

// Destination returns the point reached by travelling distance metres from p
// on the given initial bearing (degrees clockwise from north).
func Destination(p Position, bearing, distance float64) Position {
	const rad = math.Pi / 180
	lat1 := p.Lat * rad
	lon1 := p.Lon * rad
	brg := bearing * rad
	delta := distance / EarthRadiusMeters

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(brg))
	lon2 := lon1 + math.Atan2(
		math.Sin(brg)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2),
	)

	lon := math.Mod(lon2/rad+540, 360) - 180
	return Position{Lat: lat2 / rad, Lon: lon}
}
