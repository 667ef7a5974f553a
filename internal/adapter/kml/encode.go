// Package kml renders the hotspot registry as a KML document so it can be
// overlaid in desktop GIS tools and map viewers.
package kml

import (
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/wildlife-hotspot-service/internal/domain"
	"github.com/twpayne/go-kml"
)

// circleVertices is the number of ring vertices used to approximate a hotspot circle.
const circleVertices = 36

// fillAlpha matches the 0.55 fill opacity of the map markers.
const fillAlpha = 0x8c

var fillTiers = []domain.FillTier{
	domain.FillTierA, domain.FillTierB, domain.FillTierC, domain.FillTierD, domain.FillTierE,
}

// Encode writes hotspots as a KML document. Each hotspot becomes a placemark
// holding its centre point and a polygon approximating its alert radius,
// styled by fill tier.
func Encode(w io.Writer, title string, hotspots []domain.Hotspot) error {
	styles := make(map[domain.FillTier]*kml.SharedElement, len(fillTiers))
	children := []kml.Element{kml.Name(title)}
	for _, tier := range fillTiers {
		style := tierStyle(tier)
		styles[tier] = style
		children = append(children, style)
	}

	for i := range hotspots {
		children = append(children, placemark(hotspots[i], styles[hotspots[i].Classification.Fill]))
	}

	if err := kml.KML(kml.Document(children...)).WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("encode kml: %w", err)
	}
	return nil
}

func tierStyle(tier domain.FillTier) *kml.SharedElement {
	c := hexColor(tier.Color())
	fill := c
	fill.A = fillAlpha
	return kml.SharedStyle("fill-"+strings.ToLower(string(tier)),
		kml.LineStyle(kml.Color(c), kml.Width(2)),
		kml.PolyStyle(kml.Color(fill)),
	)
}

func placemark(h domain.Hotspot, style *kml.SharedElement) kml.Element {
	children := []kml.Element{
		kml.Name(h.RoadName),
		kml.Description(description(h)),
	}
	if style != nil {
		children = append(children, kml.StyleURL(style.URL()))
	}
	children = append(children, kml.MultiGeometry(
		kml.Point(kml.Coordinates(coordinate(h.Position))),
		kml.Polygon(kml.OuterBoundaryIs(kml.LinearRing(kml.Coordinates(ring(h)...)))),
	))
	return kml.Placemark(children...)
}

func description(h domain.Hotspot) string {
	return fmt.Sprintf("%s. %s Radius %.0f m; %d events (%d killed, %d injured).",
		h.Classification.Headline,
		h.Classification.Recommendation,
		h.RadiusMeters,
		h.TotalEvents,
		h.EventBreakdown.Killed,
		h.EventBreakdown.Injured,
	)
}

// ring returns a closed ring of vertices at the hotspot radius.
func ring(h domain.Hotspot) []kml.Coordinate {
	coords := make([]kml.Coordinate, 0, circleVertices+1)
	for i := 0; i < circleVertices; i++ {
		bearing := float64(i) * 360 / circleVertices
		coords = append(coords, coordinate(domain.Destination(h.Position, bearing, h.RadiusMeters)))
	}
	return append(coords, coords[0])
}

func coordinate(p domain.Position) kml.Coordinate {
	return kml.Coordinate{Lon: p.Lon, Lat: p.Lat}
}

// hexColor parses #rrggbb. Malformed input yields opaque grey.
func hexColor(s string) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || len(s) != 6 {
		return color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
